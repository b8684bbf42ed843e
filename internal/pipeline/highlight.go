package pipeline

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// PlainText is the language used for code blocks whose hint is missing or unknown.
const PlainText = "plaintext"

// Default class prefixes, compatible with highlight.js stylesheets.
const (
	DefaultLanguageClassPrefix = "hljs language-"
	DefaultTokenClassPrefix    = "hljs-"
	DefaultHighlightStyle      = "onedark"
)

// ErrHighlight indicates the highlighter failed to tokenise a code block.
var ErrHighlight = errors.New("syntax highlighting failed")

// Highlighter turns a code excerpt into highlighted HTML markup.
// The returned markup is embedded verbatim inside <code>, so it must be escaped.
type Highlighter interface {
	// HasLanguage reports whether the highlighter supports the language name or alias.
	HasLanguage(name string) bool

	// Highlight returns escaped, token-annotated markup for code.
	Highlight(code, language string) (string, error)
}

// ChromaHighlighter highlights code with chroma, emitting CSS classes
// instead of inline styles so the theme lives in a stylesheet.
type ChromaHighlighter struct {
	formatter   *chromahtml.Formatter
	style       *chroma.Style
	tokenPrefix string
}

// NewChromaHighlighter creates a ChromaHighlighter whose token classes carry tokenPrefix.
// An unknown styleName falls back to chroma's default style.
func NewChromaHighlighter(tokenPrefix, styleName string) *ChromaHighlighter {
	return &ChromaHighlighter{
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.ClassPrefix(tokenPrefix),
			chromahtml.PreventSurroundingPre(true),
		),
		style:       styles.Get(styleName),
		tokenPrefix: tokenPrefix,
	}
}

// HasLanguage reports whether chroma has a lexer for name.
func (h *ChromaHighlighter) HasLanguage(name string) bool {
	if name == "" {
		return false
	}
	return lexers.Get(name) != nil
}

// Highlight tokenises code with the named lexer.
// An unknown language is tokenised as plain text.
func (h *ChromaHighlighter) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Get(PlainText)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}

	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	return buf.String(), nil
}

// WriteCSS writes the theme stylesheet for the highlighter's token classes.
// Chroma scopes its rules to a wrapper class that PreventSurroundingPre never
// emits, so the scope is rewritten to "pre code".
func (h *ChromaHighlighter) WriteCSS(w io.Writer) error {
	var buf strings.Builder
	if err := h.formatter.WriteCSS(&buf, h.style); err != nil {
		return fmt.Errorf("%w: %v", ErrHighlight, err)
	}
	scope := "." + h.tokenPrefix + "chroma"
	_, err := io.WriteString(w, strings.ReplaceAll(buf.String(), scope, "pre code"))
	return err
}

// warm loads the lexers the sample document and most notes use, so the first
// keystroke does not pay chroma's lazy lexer parsing.
func (h *ChromaHighlighter) warm() {
	for _, name := range []string{PlainText, "go", "javascript", "python", "bash", "json"} {
		_, _ = h.Highlight("", name)
	}
}

// PlainHighlighter escapes code without annotating tokens.
// Used in ModeMount, where highlighting happens after the fragment is built.
type PlainHighlighter struct{}

// HasLanguage always reports true: every hint is kept as the language class.
func (PlainHighlighter) HasLanguage(name string) bool { return name != "" }

// Highlight returns HTML-escaped code.
func (PlainHighlighter) Highlight(code, _ string) (string, error) {
	return html.EscapeString(code), nil
}

// Compile-time interface checks.
var (
	_ Highlighter = (*ChromaHighlighter)(nil)
	_ Highlighter = PlainHighlighter{}
)
