// Package mdpreview is a Markdown live-preview editor: it renders a source
// document to sanitised HTML, adds copy buttons to code blocks, imports
// Markdown files and prints the preview to PDF.
//
// # Quick Start
//
// Create an editor, replace the source and read the preview:
//
//	ed, err := mdpreview.NewEditor()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ed.Close()
//
//	snap, err := ed.SetSource(ctx, "# Hello\n\n```go\nfmt.Println(1)\n```")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(snap.HTML)
//
// Every change re-runs the render and enhancement stages in full. The
// returned Snapshot holds the enhanced fragment and its code blocks.
//
// # Event Loop
//
// An Editor owns one goroutine that serialises every change to the source
// document and every render. Public methods submit work to that goroutine
// and wait for it. Imports read their file on the caller's goroutine and
// the last one to finish wins. Clipboard writes and printing also run off
// the loop.
//
// # Dependencies
//
// Collaborators are injected with options:
//
//	ed, err := mdpreview.NewEditor(
//	    mdpreview.WithRenderer(pipeline.NewDeferredRenderer(cfg)),
//	    mdpreview.WithClipboard(clipboard.NewSystem()),
//	    mdpreview.WithResetDelay(2 * time.Second),
//	    mdpreview.WithLogger(logger),
//	)
//
// # Browser Requirements
//
// PDF export requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package mdpreview
