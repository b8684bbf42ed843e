package pipeline

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markup emitted around each enhanced code block.
const (
	CodeBlockClass     = "code-block"
	CopyButtonClass    = "copy-button"
	EnhancedAttr       = "data-copy-enhanced"
	BlockIDAttr        = "data-block-id"
	CopyTargetAttr     = "data-copy-target"
	DefaultCopyLabel   = "Copy"
	ConfirmedCopyLabel = "Copied!"
)

// CodeBlock describes one code block of a fragment.
type CodeBlock struct {
	ID       string `json:"id"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text"`
}

// Fragment is a parsed preview fragment plus the set of block IDs that
// already carry a copy affordance.
type Fragment struct {
	root     *html.Node
	enhanced map[string]struct{}
	blocks   []CodeBlock
}

// ParseFragment parses rendered HTML into a Fragment without enhancing it.
func ParseFragment(content string) (*Fragment, error) {
	root, err := parseFragment(content)
	if err != nil {
		return nil, err
	}
	return &Fragment{root: root, enhanced: make(map[string]struct{})}, nil
}

// HTML serializes the fragment.
func (f *Fragment) HTML() (string, error) {
	return renderChildren(f.root)
}

// Blocks returns the code blocks found by the last Enhance pass.
func (f *Fragment) Blocks() []CodeBlock {
	out := make([]CodeBlock, len(f.blocks))
	copy(out, f.blocks)
	return out
}

// Block returns the code block with the given ID.
func (f *Fragment) Block(id string) (CodeBlock, bool) {
	for _, b := range f.blocks {
		if b.ID == id {
			return b, true
		}
	}
	return CodeBlock{}, false
}

// IsEnhanced reports whether the block already has a copy affordance.
func (f *Fragment) IsEnhanced(id string) bool {
	_, ok := f.enhanced[id]
	return ok
}

// Enhancer adds copy affordances to the code blocks of a fragment.
type Enhancer struct {
	// Label is the button's idle text. Empty means DefaultCopyLabel.
	Label       string
	ClassPrefix string
}

// NewEnhancer creates an Enhancer that reads the language from classes
// carrying classPrefix.
func NewEnhancer(classPrefix string) *Enhancer {
	return &Enhancer{Label: DefaultCopyLabel, ClassPrefix: classPrefix}
}

// EnhanceHTML parses content and enhances it.
func (e *Enhancer) EnhanceHTML(content string) (*Fragment, error) {
	f, err := ParseFragment(content)
	if err != nil {
		return nil, err
	}
	e.Enhance(f)
	return f, nil
}

// Enhance wraps every <pre> of f in a code-block container with one copy
// button. Blocks that are already wrapped are left as they are, so running
// Enhance again changes nothing.
func (e *Enhancer) Enhance(f *Fragment) {
	f.blocks = f.blocks[:0]
	index := 0

	walk(f.root, func(n *html.Node) {
		if n.DataAtom != atom.Pre {
			return
		}

		text, language := e.blockContent(n)
		id := blockID(index, text)
		index++
		f.blocks = append(f.blocks, CodeBlock{ID: id, Language: language, Text: text})

		if isEnhancedWrapper(n.Parent) {
			f.enhanced[id] = struct{}{}
			return
		}
		if f.IsEnhanced(id) {
			return
		}

		e.wrap(n, id)
		f.enhanced[id] = struct{}{}
	})
}

func (e *Enhancer) blockContent(pre *html.Node) (text, language string) {
	code := firstChildElement(pre, atom.Code)
	if code == nil {
		return textContent(pre), ""
	}
	if class, ok := getAttr(code, "class"); ok && e.ClassPrefix != "" && strings.HasPrefix(class, e.ClassPrefix) {
		language = strings.TrimPrefix(class, e.ClassPrefix)
	}
	return textContent(code), language
}

func (e *Enhancer) wrap(pre *html.Node, id string) {
	label := e.Label
	if label == "" {
		label = DefaultCopyLabel
	}

	wrapper := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "class", Val: CodeBlockClass},
			{Key: EnhancedAttr, Val: "true"},
			{Key: BlockIDAttr, Val: id},
		},
	}
	button := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Button,
		Data:     "button",
		Attr: []html.Attribute{
			{Key: "type", Val: "button"},
			{Key: "class", Val: CopyButtonClass},
			{Key: CopyTargetAttr, Val: id},
		},
	}
	button.AppendChild(&html.Node{Type: html.TextNode, Data: label})

	parent := pre.Parent
	parent.InsertBefore(wrapper, pre)
	parent.RemoveChild(pre)
	wrapper.AppendChild(pre)
	wrapper.AppendChild(button)
}

func isEnhancedWrapper(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Div {
		return false
	}
	_, ok := getAttr(n, EnhancedAttr)
	return ok
}

// blockID derives a stable identifier from the block's position and text.
func blockID(index int, text string) string {
	sum := blake3.Sum256([]byte(text))
	return "cb-" + strconv.Itoa(index) + "-" + hex.EncodeToString(sum[:6])
}
