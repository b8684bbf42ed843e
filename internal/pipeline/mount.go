package pipeline

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MountHighlighter highlights code blocks after the fragment is built,
// by visiting every <pre><code class="{prefix}{lang}"> node.
type MountHighlighter struct {
	highlighter Highlighter
	classPrefix string
}

// NewMountHighlighter creates a MountHighlighter for classes carrying classPrefix.
func NewMountHighlighter(h Highlighter, classPrefix string) *MountHighlighter {
	return &MountHighlighter{highlighter: h, classPrefix: classPrefix}
}

// Mount returns fragment with its code blocks highlighted.
// A block that fails to highlight keeps its escaped text.
func (m *MountHighlighter) Mount(fragment string) (string, error) {
	container, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	walk(container, func(n *html.Node) {
		if n.DataAtom != atom.Pre {
			return
		}
		if code := firstChildElement(n, atom.Code); code != nil {
			m.highlightNode(code)
		}
	})

	return renderChildren(container)
}

func (m *MountHighlighter) highlightNode(code *html.Node) {
	class, _ := getAttr(code, "class")
	hint := ""
	if m.classPrefix != "" && strings.HasPrefix(class, m.classPrefix) {
		hint = strings.TrimPrefix(class, m.classPrefix)
	}
	language := resolveLanguage(m.highlighter, hint)

	markup, err := m.highlighter.Highlight(textContent(code), language)
	if err != nil {
		return
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), code)
	if err != nil {
		return
	}
	for c := code.FirstChild; c != nil; {
		next := c.NextSibling
		code.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		code.AppendChild(n)
	}
	setAttr(code, "class", m.classPrefix+language)
}
