package mdpreview

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// RejectedNotice is shown when an imported file fails the allow-list.
const RejectedNotice = "Please upload a valid .md file."

// DefaultExtensions is the import allow-list.
var DefaultExtensions = []string{".md", ".markdown"}

// Notifier shows a short message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) Notify(message string) {
	n.logger.Info().Str("notice", message).Msg("notice")
}

// Importer reads user-selected Markdown files. Only the file name is
// checked; contents are not inspected.
type Importer struct {
	extensions []string
}

// NewImporter returns an importer accepting the given extensions
// (".md" form, matched case-insensitively). No extensions means DefaultExtensions.
func NewImporter(extensions ...string) *Importer {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return &Importer{extensions: normalized}
}

// Extensions returns the allow-list.
func (im *Importer) Extensions() []string {
	return append([]string(nil), im.extensions...)
}

// Accept returns the allow-list in the form of an HTML accept attribute.
func (im *Importer) Accept() string {
	return strings.Join(im.extensions, ",")
}

// Accepts reports whether name ends with an allowed extension.
func (im *Importer) Accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, allowed := range im.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Import reads r as UTF-8 text. A byte order mark is dropped and invalid
// sequences become U+FFFD. Returns ErrRejectedFile without reading when the
// name is not allowed.
func (im *Importer) Import(ctx context.Context, name string, r io.Reader) (string, error) {
	if !im.Accepts(name) {
		return "", fmt.Errorf("%w: %q", ErrRejectedFile, filepath.Base(name))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	decoded := transform.NewReader(&ctxReader{ctx: ctx, r: r}, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", ErrImportRead, err)
	}
	return string(data), nil
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
