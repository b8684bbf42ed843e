package mdpreview

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/alnah/go-mdpreview/internal/assets"
	"github.com/alnah/go-mdpreview/internal/pipeline"
)

// StyleSheets holds the CSS served with the editor and inlined into printed pages.
type StyleSheets struct {
	Editor    string
	Markdown  string
	Highlight string // theme for the highlighter's token classes; may be empty
	Print     string
}

type cssWriter interface {
	WriteCSS(w io.Writer) error
}

// LoadStyleSheets loads the built-in stylesheets. A non-empty assetPath
// overrides them file by file, falling back to the embedded copies.
// The highlight theme is generated from h when it can write CSS.
func LoadStyleSheets(assetPath string, h pipeline.Highlighter) (*StyleSheets, error) {
	loader, err := assets.Open(assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	return loadStyleSheets(loader, h)
}

func loadStyleSheets(loader assets.Loader, h pipeline.Highlighter) (*StyleSheets, error) {
	load := func(name string) (string, error) {
		css, err := loader.LoadStyle(name)
		if err != nil {
			if errors.Is(err, assets.ErrStyleNotFound) {
				return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
			}
			return "", fmt.Errorf("loading style %q: %w", name, err)
		}
		return css, nil
	}

	var (
		s   StyleSheets
		err error
	)
	if s.Editor, err = load(assets.StyleEditor); err != nil {
		return nil, err
	}
	if s.Markdown, err = load(assets.StyleMarkdown); err != nil {
		return nil, err
	}
	if s.Print, err = load(assets.StylePrint); err != nil {
		return nil, err
	}

	if w, ok := h.(cssWriter); ok {
		var buf bytes.Buffer
		if err := w.WriteCSS(&buf); err != nil {
			return nil, fmt.Errorf("writing highlight theme: %w", err)
		}
		s.Highlight = buf.String()
	}
	return &s, nil
}

// PrintCSS returns the stylesheet inlined into printed pages.
func (s *StyleSheets) PrintCSS() string {
	return s.Markdown + "\n" + s.Highlight + "\n" + s.Print
}
