package main

import (
	"context"
	"fmt"
	"io"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/clipboard"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/pipeline"
)

// runRender renders one markdown file to the preview fragment, or to a
// standalone page with --page.
func runRender(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return ErrNoInput
	}
	if len(rest) > 1 {
		return fmt.Errorf("%w: render takes one file, got %d", ErrUsage, len(rest))
	}
	input := rest[0]

	logger := commandLogger(env, f.common)
	cfg, _, err := loadSettings(f.common, env, logger)
	if err != nil {
		return err
	}
	applyPageFlags(f.pageOpts, cfg)
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := append(editorOptions(cfg, logger),
		mdpreview.WithRenderer(pipeline.NewGoldmarkRenderer(renderConfig(cfg))),
		mdpreview.WithClipboard(&clipboard.Memory{}),
		mdpreview.WithPrinter(noopPrinter{}),
	)
	editor, err := mdpreview.NewEditor(opts...)
	if err != nil {
		return err
	}
	defer func() { _ = editor.Close() }()

	snap, err := editor.OpenFile(ctx, input)
	if err != nil {
		return fmt.Errorf("importing %s: %w", input, err)
	}

	output := snap.HTML
	if f.page {
		page := pageSettings(cfg)
		output, err = pipeline.ComposePage(ctx, pipeline.PageData{Title: snap.Title, Fragment: snap.HTML},
			editor.StyleSheets().PrintCSS()+"\n"+page.CSS())
		if err != nil {
			return err
		}
	}

	if f.output == "" {
		_, err := io.WriteString(env.Stdout, output)
		return err
	}
	if err := fileutil.WriteOutput(f.output, []byte(output)); err != nil {
		return err
	}
	logger.Debug().Int("blocks", len(snap.Blocks)).Msg("rendered")
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Created %s\n", f.output)
	}
	return nil
}

// noopPrinter stands in for the browser when a command never prints.
type noopPrinter struct{}

func (noopPrinter) Print(context.Context, mdpreview.PrintJob) ([]byte, error) {
	return nil, mdpreview.ErrPrinterClosed
}

func (noopPrinter) Close() error { return nil }
