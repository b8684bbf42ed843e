package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
)

// Built-in asset names.
const (
	// StyleMarkdown styles the rendered preview fragment.
	StyleMarkdown = "markdown"

	// StylePrint holds the print media rules: A4 pages, 20mm margins and
	// everything outside the print area hidden.
	StylePrint = "print"

	// StyleEditor lays out the two-pane editor page.
	StyleEditor = "editor"

	// TemplateEditor is the editor page served at the root route.
	TemplateEditor = "editor"
)

// Sentinel errors for asset operations.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidBasePath  = errors.New("invalid asset directory")
	ErrAssetRead        = errors.New("failed to read asset")
)

//go:embed styles templates samples/welcome.md
var embedded embed.FS

// WelcomeDocument returns the sample Markdown the editor starts with.
func WelcomeDocument() string {
	data, err := embedded.ReadFile("samples/welcome.md")
	if err != nil {
		panic("assets: welcome document missing from build: " + err.Error())
	}
	return string(data)
}

// Loader reads stylesheets and page templates by name, without extension.
type Loader interface {
	LoadStyle(name string) (string, error)
	LoadTemplate(name string) (string, error)
}

// assetNamePattern keeps names to a single path element with no extension.
var assetNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func checkName(name string) error {
	if !assetNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// kind locates one family of assets inside a tree.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

// Tree is a Loader over one directory layout:
//
//	styles/{name}.css
//	templates/{name}.html
type Tree struct {
	origin string
	read   func(dir, file string) ([]byte, error)
}

// Embedded returns the assets compiled into the binary.
func Embedded() *Tree {
	return &Tree{
		origin: "embedded",
		read: func(dir, file string) ([]byte, error) {
			return fs.ReadFile(embedded, path.Join(dir, file))
		},
	}
}

// Dir returns the assets under dir. Reads go through an os.Root, so
// neither names nor symlinks can reach files outside dir.
func Dir(dir string) (*Tree, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	_ = root.Close()

	return &Tree{
		origin: abs,
		read: func(sub, file string) ([]byte, error) {
			root, err := os.OpenRoot(abs)
			if err != nil {
				return nil, err
			}
			defer func() { _ = root.Close() }()
			return root.ReadFile(filepath.Join(sub, file))
		},
	}, nil
}

// LoadStyle returns styles/{name}.css.
func (t *Tree) LoadStyle(name string) (string, error) {
	return t.load(name, styleKind)
}

// LoadTemplate returns templates/{name}.html.
func (t *Tree) LoadTemplate(name string) (string, error) {
	return t.load(name, templateKind)
}

func (t *Tree) load(name string, k kind) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	data, err := t.read(k.dir, name+k.ext)
	switch {
	case err == nil:
		return string(data), nil
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q", k.notFound, name)
	default:
		return "", fmt.Errorf("%w: %s/%s%s in %s: %v", ErrAssetRead, k.dir, name, k.ext, t.origin, err)
	}
}

// Overlay serves assets from top and falls back to base for any asset top
// does not have. Other errors from top are returned as is.
type Overlay struct {
	top  Loader
	base Loader
}

// NewOverlay layers top over base.
func NewOverlay(top, base Loader) *Overlay {
	return &Overlay{top: top, base: base}
}

func (o *Overlay) LoadStyle(name string) (string, error) {
	css, err := o.top.LoadStyle(name)
	if errors.Is(err, ErrStyleNotFound) {
		return o.base.LoadStyle(name)
	}
	return css, err
}

func (o *Overlay) LoadTemplate(name string) (string, error) {
	html, err := o.top.LoadTemplate(name)
	if errors.Is(err, ErrTemplateNotFound) {
		return o.base.LoadTemplate(name)
	}
	return html, err
}

// Open returns the embedded assets, overridden file by file by dir when
// dir is not empty.
func Open(dir string) (Loader, error) {
	if dir == "" {
		return Embedded(), nil
	}
	custom, err := Dir(dir)
	if err != nil {
		return nil, err
	}
	return NewOverlay(custom, Embedded()), nil
}

// Compile-time interface checks.
var (
	_ Loader = (*Tree)(nil)
	_ Loader = (*Overlay)(nil)
)
