package mdpreview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview/internal/assets"
	"github.com/alnah/go-mdpreview/internal/clipboard"
	"github.com/alnah/go-mdpreview/internal/pipeline"
)

// Snapshot is the state of the preview after one render and enhance cycle.
type Snapshot struct {
	Version uint64               `json:"version"`
	Title   string               `json:"title"`
	Source  string               `json:"source"`
	HTML    string               `json:"html"`
	Blocks  []pipeline.CodeBlock `json:"blocks"`
	Ready   bool                 `json:"ready"`
}

// Editor holds the source document and its preview. One goroutine owns
// both; every exported method hands its work to that goroutine.
type Editor struct {
	cfg editorConfig

	renderer  pipeline.Renderer
	enhancer  *pipeline.Enhancer
	importer  *Importer
	printer   Printer
	clipboard Clipboard
	notifier  Notifier
	scheduler Scheduler
	logger    zerolog.Logger
	styles    *StyleSheets

	ops       chan func()
	quit      chan struct{}
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error

	// Owned by the loop goroutine.
	source    string
	name      string
	baseDir   string
	version   uint64
	snapshot  Snapshot
	fragment  *pipeline.Fragment
	buttons   map[string]*CopyButton
	listeners map[int]chan Snapshot
	nextID    int
}

// NewEditor creates an editor holding the welcome document and starts its
// event loop. Call Close to stop it and release the browser.
func NewEditor(opts ...Option) (*Editor, error) {
	e := &Editor{
		cfg: editorConfig{
			render:     pipeline.DefaultRenderConfig(),
			resetDelay: DefaultResetDelay,
			page:       DefaultPageSettings(),
		},
		logger:    zerolog.Nop(),
		ops:       make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		buttons:   make(map[string]*CopyButton),
		listeners: make(map[int]chan Snapshot),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.cfg.page.Validate(); err != nil {
		return nil, err
	}
	if e.cfg.render.HighlightClassPrefix == "" {
		e.cfg.render.HighlightClassPrefix = pipeline.DefaultLanguageClassPrefix
	}
	if e.cfg.render.Highlighter == nil {
		e.cfg.render.Highlighter = pipeline.NewChromaHighlighter(pipeline.DefaultTokenClassPrefix, pipeline.DefaultHighlightStyle)
	}

	styles, err := LoadStyleSheets(e.cfg.assetPath, e.cfg.render.Highlighter)
	if err != nil {
		return nil, err
	}
	e.styles = styles

	if e.renderer == nil {
		e.renderer = pipeline.NewDeferredRenderer(e.cfg.render)
	}
	if e.clipboard == nil {
		e.clipboard = clipboard.NewSystem()
	}
	if e.notifier == nil {
		e.notifier = logNotifier{logger: e.logger}
	}
	if e.scheduler == nil {
		e.scheduler = clockScheduler{}
	}
	if e.printer == nil {
		e.printer = NewRodPrinter(styles.PrintCSS(), e.cfg.page, e.cfg.printTimeout)
	}
	e.enhancer = pipeline.NewEnhancer(e.cfg.render.HighlightClassPrefix)
	e.importer = NewImporter(e.cfg.extensions...)

	e.source = assets.WelcomeDocument()
	if e.cfg.sourceSet {
		e.source = e.cfg.source
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	go e.run()

	if err := e.submit(e.ctx, e.refresh); err != nil {
		return nil, err
	}

	if w, ok := e.renderer.(interface{ Wait(context.Context) error }); ok {
		go func() {
			if err := w.Wait(e.ctx); err != nil {
				return
			}
			e.logger.Debug().Msg("renderer ready")
			_ = e.submit(e.ctx, e.refresh)
		}()
	}

	return e, nil
}

func (e *Editor) run() {
	defer close(e.done)
	for {
		select {
		case op := <-e.ops:
			op()
		case <-e.quit:
			return
		}
	}
}

// submit runs op on the loop goroutine and waits for it to finish.
func (e *Editor) submit(ctx context.Context, op func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		op()
	}

	select {
	case e.ops <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.quit:
		return ErrEditorClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refresh re-renders and re-enhances the whole document. Runs on the loop.
func (e *Editor) refresh() {
	rendered, err := e.renderer.Render(e.ctx, e.source)
	if err != nil {
		e.logger.Debug().Err(err).Msg("render skipped")
		return
	}

	snap := Snapshot{
		Title:  DocumentTitle(e.name, e.source),
		Source: e.source,
		HTML:   rendered,
		Ready:  e.ready(),
	}
	fragment, err := e.enhancer.EnhanceHTML(rendered)
	if err == nil {
		var enhanced string
		if enhanced, err = fragment.HTML(); err == nil {
			snap.HTML = enhanced
			snap.Blocks = fragment.Blocks()
		}
	}
	if err != nil {
		e.logger.Warn().Err(err).Msg("enhancement failed, showing plain preview")
		fragment = nil
	}

	e.version++
	snap.Version = e.version
	e.snapshot = snap
	e.fragment = fragment
	e.pruneButtons()
	e.publish()

	e.logger.Debug().
		Uint64("version", snap.Version).
		Int("blocks", len(snap.Blocks)).
		Bool("ready", snap.Ready).
		Msg("preview rendered")
}

func (e *Editor) ready() bool {
	r, ok := e.renderer.(interface{ Ready() <-chan struct{} })
	if !ok {
		return true
	}
	select {
	case <-r.Ready():
		return true
	default:
		return false
	}
}

func (e *Editor) pruneButtons() {
	for id, b := range e.buttons {
		if e.fragment != nil {
			if _, ok := e.fragment.Block(id); ok {
				continue
			}
		}
		b.Stop()
		delete(e.buttons, id)
	}
}

func (e *Editor) publish() {
	for _, ch := range e.listeners {
		// Keep only the newest snapshot for slow listeners.
		select {
		case <-ch:
		default:
		}
		ch <- e.snapshot
	}
}

// Snapshot returns the current preview.
func (e *Editor) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := e.submit(ctx, func() { snap = e.snapshot })
	return snap, err
}

// SetSource replaces the source document and returns the new preview.
func (e *Editor) SetSource(ctx context.Context, source string) (Snapshot, error) {
	return e.replace(ctx, source, "", "")
}

func (e *Editor) replace(ctx context.Context, source, name, baseDir string) (Snapshot, error) {
	var snap Snapshot
	err := e.submit(ctx, func() {
		e.source = source
		if name != "" {
			e.name = name
			e.baseDir = baseDir
		}
		e.refresh()
		snap = e.snapshot
	})
	return snap, err
}

// ImportFile reads a user-selected file and makes it the source document.
// A name outside the allow-list returns ErrRejectedFile, notifies the user
// and leaves the document untouched. The read happens on the caller's
// goroutine; when imports overlap, the last one to finish wins.
func (e *Editor) ImportFile(ctx context.Context, name string, r io.Reader) (Snapshot, error) {
	return e.importFrom(ctx, name, "", r)
}

// OpenFile imports a file from disk. Relative images in the printed page
// resolve against the file's directory.
func (e *Editor) OpenFile(ctx context.Context, path string) (Snapshot, error) {
	if !e.importer.Accepts(path) {
		return e.importFrom(ctx, path, "", nil)
	}
	f, err := os.Open(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrImportRead, err)
	}
	defer func() { _ = f.Close() }()
	return e.importFrom(ctx, filepath.Base(path), filepath.Dir(path), f)
}

func (e *Editor) importFrom(ctx context.Context, name, baseDir string, r io.Reader) (Snapshot, error) {
	text, err := e.importer.Import(ctx, name, r)
	if err != nil {
		if errors.Is(err, ErrRejectedFile) {
			e.notifier.Notify(RejectedNotice)
		}
		return Snapshot{}, err
	}
	e.logger.Info().Str("file", name).Int("bytes", len(text)).Msg("imported")
	return e.replace(ctx, text, name, baseDir)
}

// Accept returns the import allow-list as an HTML accept attribute.
func (e *Editor) Accept() string {
	return e.importer.Accept()
}

// Copy writes the text of a code block to the clipboard and returns the
// button's new state. Clipboard failures leave the label at "Copy" and are
// only logged.
func (e *Editor) Copy(ctx context.Context, blockID string) (CopyState, error) {
	var (
		text   string
		button *CopyButton
	)
	err := e.submit(ctx, func() {
		if e.fragment == nil {
			return
		}
		block, ok := e.fragment.Block(blockID)
		if !ok {
			return
		}
		text = block.Text
		button = e.buttons[blockID]
		if button == nil {
			button = NewCopyButton(e.clipboard, e.scheduler, e.cfg.resetDelay, e.logger.With().Str("block", blockID).Logger())
			e.buttons[blockID] = button
		}
	})
	if err != nil {
		return CopyState{}, err
	}
	if button == nil {
		return CopyState{}, fmt.Errorf("%w: %q", ErrUnknownBlock, blockID)
	}

	copied := button.Trigger(ctx, text)
	return button.State(copied), nil
}

// Print exports the current preview to PDF. The source document and the
// preview are left as they are.
func (e *Editor) Print(ctx context.Context) ([]byte, error) {
	var job PrintJob
	err := e.submit(ctx, func() {
		job = PrintJob{
			Title:    e.snapshot.Title,
			Fragment: e.snapshot.HTML,
			BaseDir:  e.baseDir,
		}
	})
	if err != nil {
		return nil, err
	}
	return e.printer.Print(ctx, job)
}

// Subscribe returns a channel receiving every new snapshot, newest first
// when the reader falls behind. Call the returned function to unsubscribe.
func (e *Editor) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 1)
	var id int
	err := e.submit(ctx, func() {
		id = e.nextID
		e.nextID++
		e.listeners[id] = ch
	})
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			_ = e.submit(context.Background(), func() { delete(e.listeners, id) })
		})
	}
	return ch, unsubscribe, nil
}

// ResetDelay returns how long copy buttons show their confirmation.
func (e *Editor) ResetDelay() time.Duration {
	return e.cfg.resetDelay
}

// PageSettings returns the page size and margins used when printing.
func (e *Editor) PageSettings() PageSettings {
	return e.cfg.page
}

// StyleSheets returns the stylesheets the editor page and printer use.
func (e *Editor) StyleSheets() *StyleSheets {
	return e.styles
}

// Close stops the event loop, cancels pending label reverts and releases
// the printer's browser.
func (e *Editor) Close() error {
	e.closeOnce.Do(func() {
		e.cancel()
		close(e.quit)
		<-e.done

		for id, b := range e.buttons {
			b.Stop()
			delete(e.buttons, id)
		}
		if e.printer != nil {
			e.closeErr = e.printer.Close()
		}
	})
	return e.closeErr
}
