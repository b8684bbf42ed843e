package mdpreview

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/pipeline"
	"github.com/alnah/go-mdpreview/internal/process"
)

// Print defaults.
const (
	DefaultPageSize     = "A4"
	DefaultMargin       = "20mm"
	DefaultPrintTimeout = 30 * time.Second
)

var (
	pageSizePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,15}( (portrait|landscape))?$`)
	marginPattern   = regexp.MustCompile(`^\d+(\.\d+)?(mm|cm|in|px|pt)$`)
)

// PageSettings configures the printed page through a CSS @page rule.
type PageSettings struct {
	Size   string // CSS page size, e.g. "A4" or "Letter landscape"
	Margin string // CSS length applied to all sides
}

// DefaultPageSettings returns A4 pages with 20mm margins.
func DefaultPageSettings() PageSettings {
	return PageSettings{Size: DefaultPageSize, Margin: DefaultMargin}
}

// Validate checks that both values are safe to place in a stylesheet.
func (p PageSettings) Validate() error {
	if !pageSizePattern.MatchString(p.Size) {
		return fmt.Errorf("%w: page size %q", ErrInvalidPageSettings, p.Size)
	}
	if !marginPattern.MatchString(p.Margin) {
		return fmt.Errorf("%w: margin %q", ErrInvalidPageSettings, p.Margin)
	}
	return nil
}

// CSS returns the @page rule. Empty fields fall back to the defaults.
func (p PageSettings) CSS() string {
	if p.Size == "" {
		p.Size = DefaultPageSize
	}
	if p.Margin == "" {
		p.Margin = DefaultMargin
	}
	return fmt.Sprintf("@page { size: %s; margin: %s; }\n", p.Size, p.Margin)
}

// PrintJob is one preview to print.
type PrintJob struct {
	Title    string
	Fragment string // enhanced, sanitized preview fragment
	BaseDir  string // resolves relative images; empty leaves them alone
}

// Printer turns a preview fragment into PDF bytes.
type Printer interface {
	Print(ctx context.Context, job PrintJob) ([]byte, error)
	Close() error
}

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string) ([]byte, error)
	Close() error
}

// Compile-time interface checks
var (
	_ Printer     = (*RodPrinter)(nil)
	_ pdfRenderer = (*rodRenderer)(nil)
)

// RodPrinter prints through headless Chrome via go-rod. The page shell gets
// the print stylesheet, so only the print area reaches the PDF.
type RodPrinter struct {
	css      string
	page     PageSettings
	renderer pdfRenderer
}

// NewRodPrinter creates a printer using css as the page stylesheet.
// The browser starts on the first Print.
func NewRodPrinter(css string, page PageSettings, timeout time.Duration) *RodPrinter {
	if timeout <= 0 {
		timeout = DefaultPrintTimeout
	}
	return &RodPrinter{
		css:      css,
		page:     page,
		renderer: newRodRenderer(timeout),
	}
}

// Print composes the page and renders it to PDF. The job is not modified.
func (p *RodPrinter) Print(ctx context.Context, job PrintJob) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := p.composePage(ctx, job)
	if err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(doc, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return p.renderer.RenderFromFile(ctx, tmpPath)
}

func (p *RodPrinter) composePage(ctx context.Context, job PrintJob) (string, error) {
	fragment, err := pipeline.ResolveRelativeImages(job.Fragment, job.BaseDir)
	if err != nil {
		return "", fmt.Errorf("resolving image paths: %w", err)
	}
	return pipeline.ComposePage(ctx, pipeline.PageData{
		Title:    job.Title,
		Fragment: fragment,
	}, p.css+"\n"+p.page.CSS())
}

// Close releases browser resources.
func (p *RodPrinter) Close() error {
	if p.renderer != nil {
		return p.renderer.Close()
	}
	return nil
}

// rodRenderer implements pdfRenderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
// One page renders at a time; use a PrinterPool for parallelism.
type rodRenderer struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
	closed   bool
}

func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		killLauncher(l)
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = browser
	r.launcher = l
	return nil
}

// RenderFromFile opens a local HTML file in headless Chrome and renders it to PDF.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrPrinterClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Context(ctx).Timeout(timeout)

	if err := page.WaitLoad(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	reader, err := page.PDF(buildPDFOptions())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

// buildPDFOptions lets the stylesheet's @page rule decide size and margins.
func buildPDFOptions() *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		PreferCSSPageSize: true,
		PrintBackground:   true,
	}
}

// Close releases browser resources and kills the browser's process group.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		killLauncher(r.launcher)
		r.launcher = nil
	}
	return err
}

func killLauncher(l *launcher.Launcher) {
	if pid := l.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
}
