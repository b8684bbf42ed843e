package mdpreview

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview/internal/pipeline"
)

// editorConfig holds settings applied before collaborators are built.
type editorConfig struct {
	render       pipeline.RenderConfig
	source       string
	sourceSet    bool
	extensions   []string
	resetDelay   time.Duration
	assetPath    string
	page         PageSettings
	printTimeout time.Duration
}

// Option configures an Editor.
type Option func(*Editor)

// WithRenderConfig sets the render configuration. The enhancement stage
// uses its HighlightClassPrefix to read code block languages.
func WithRenderConfig(cfg pipeline.RenderConfig) Option {
	return func(e *Editor) {
		e.cfg.render = cfg
	}
}

// WithRenderer replaces the render stage. By default a DeferredRenderer
// is built from the render configuration.
func WithRenderer(r pipeline.Renderer) Option {
	return func(e *Editor) {
		e.renderer = r
	}
}

// WithClipboard sets where copy buttons write. Defaults to the system clipboard.
func WithClipboard(cb Clipboard) Option {
	return func(e *Editor) {
		e.clipboard = cb
	}
}

// WithPrinter replaces the headless Chrome printer.
func WithPrinter(p Printer) Option {
	return func(e *Editor) {
		e.printer = p
	}
}

// WithNotifier sets who receives user notices. Defaults to the logger.
func WithNotifier(n Notifier) Option {
	return func(e *Editor) {
		e.notifier = n
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

// WithScheduler sets the scheduler used to revert copy button labels.
func WithScheduler(s Scheduler) Option {
	return func(e *Editor) {
		e.scheduler = s
	}
}

// WithResetDelay sets how long a copy button shows its confirmation.
func WithResetDelay(d time.Duration) Option {
	return func(e *Editor) {
		e.cfg.resetDelay = d
	}
}

// WithExtensions sets the import allow-list.
func WithExtensions(extensions ...string) Option {
	return func(e *Editor) {
		e.cfg.extensions = extensions
	}
}

// WithInitialSource replaces the built-in welcome document.
func WithInitialSource(source string) Option {
	return func(e *Editor) {
		e.cfg.source = source
		e.cfg.sourceSet = true
	}
}

// WithAssetPath sets a directory whose styles override the embedded ones.
func WithAssetPath(path string) Option {
	return func(e *Editor) {
		e.cfg.assetPath = path
	}
}

// WithPageSettings sets the printed page size and margins.
func WithPageSettings(p PageSettings) Option {
	return func(e *Editor) {
		e.cfg.page = p
	}
}

// WithPrintTimeout sets the browser timeout for PDF export.
func WithPrintTimeout(d time.Duration) Option {
	return func(e *Editor) {
		e.cfg.printTimeout = d
	}
}
