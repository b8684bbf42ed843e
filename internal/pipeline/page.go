package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// PrintAreaID is the id of the element holding the preview fragment.
// Print stylesheets hide everything outside it.
const PrintAreaID = "print-area"

// ErrPageRender indicates the page shell could not be rendered.
var ErrPageRender = errors.New("page rendering failed")

var pageShell = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<main id="` + PrintAreaID + `" class="markdown-body">
{{.Fragment}}
</main>
</body>
</html>
`))

// PageData holds what the page shell needs.
// Fragment must already be sanitized: it is inserted verbatim.
type PageData struct {
	Title    string
	Fragment string
}

// ComposePage wraps a preview fragment in a standalone HTML document and
// inlines css, producing a page the browser can print without a server.
func ComposePage(ctx context.Context, data PageData, css string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	title := data.Title
	if title == "" {
		title = "Document"
	}

	var buf bytes.Buffer
	err := pageShell.Execute(&buf, struct {
		Title    string
		Fragment template.HTML
	}{
		Title:    title,
		Fragment: template.HTML(data.Fragment), //nolint:gosec // fragment is sanitized by the renderer
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}

	injector := &CSSInjection{}
	return injector.InjectCSS(ctx, buf.String(), css), nil
}

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

// InjectCSS inserts a <style> block into HTML content.
// Tries </head> first, then <body>, then prepends to the HTML.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + styleBlock + htmlContent[insertPos:]
		}
	}

	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
