package pipeline

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// codeBlockPriority places the code block renderer ahead of goldmark's
// default HTML renderer (priority 1000) for the node kinds it registers.
const codeBlockPriority = 200

// codeBlockRenderer renders fenced and indented code blocks through an
// injected Highlighter, falling back to plain text for unknown languages.
type codeBlockRenderer struct {
	highlighter Highlighter
	classPrefix string
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	r.write(w, string(n.Language(source)), blockText(n, source))
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	r.write(w, "", blockText(node, source))
	return ast.WalkSkipChildren, nil
}

// write emits <pre><code class="{prefix}{lang}">...</code></pre>.
// Highlighter errors degrade to escaped plain text.
func (r *codeBlockRenderer) write(w util.BufWriter, hint, code string) {
	language := resolveLanguage(r.highlighter, hint)

	markup, err := r.highlighter.Highlight(code, language)
	if err != nil {
		language = PlainText
		markup = html.EscapeString(code)
	}

	_, _ = w.WriteString(`<pre><code class="`)
	_, _ = w.WriteString(html.EscapeString(r.classPrefix + language))
	_, _ = w.WriteString(`">`)
	_, _ = w.WriteString(markup)
	_, _ = w.WriteString("</code></pre>\n")
}

// resolveLanguage keeps hint when the highlighter supports it, otherwise plaintext.
func resolveLanguage(h Highlighter, hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" || !isLanguageToken(hint) || !h.HasLanguage(hint) {
		return PlainText
	}
	return strings.ToLower(hint)
}

// isLanguageToken rejects hints that could not be a language name,
// such as attribute blocks or stray punctuation.
func isLanguageToken(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '+', r == '#', r == '.':
		default:
			return false
		}
	}
	return true
}

func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

// Compile-time interface check.
var _ renderer.NodeRenderer = (*codeBlockRenderer)(nil)
