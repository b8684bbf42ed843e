package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/pipeline"
	"github.com/alnah/go-mdpreview/internal/server"
	"github.com/alnah/go-mdpreview/internal/watch"
)

// runServe starts the editor server and blocks until ctx is cancelled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: serve takes no arguments, got %q (use --watch FILE)", ErrUsage, rest)
	}

	logger := commandLogger(env, f.common)
	cfg, _, err := loadSettings(f.common, env, logger)
	if err != nil {
		return err
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.watch != "" {
		cfg.Watch.File = f.watch
	}
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := append(editorOptions(cfg, logger),
		mdpreview.WithRenderer(pipeline.NewDeferredRenderer(renderConfig(cfg))),
		mdpreview.WithClipboard(env.NewClipboard(logger)),
	)
	if env.NewPrinter != nil {
		styles, err := loadStyles(cfg)
		if err != nil {
			return err
		}
		opts = append(opts, mdpreview.WithPrinter(env.NewPrinter(styles.PrintCSS(), pageSettings(cfg), cfg.Print.Timeout)))
	}

	editor, err := mdpreview.NewEditor(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := editor.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing editor")
		}
	}()

	if cfg.Watch.File != "" {
		if _, err := editor.OpenFile(ctx, cfg.Watch.File); err != nil {
			return fmt.Errorf("opening %s: %w", cfg.Watch.File, err)
		}
	}

	srv, err := server.New(editor, server.WithLogger(logger), server.WithAssetPath(cfg.Assets.BasePath))
	if err != nil {
		return err
	}
	ln, err := server.Listen(cfg.Server.Addr)
	if err != nil {
		return err
	}

	url := "http://" + ln.Addr().String()
	logger.Info().Str("url", url).Msg("editor ready")
	if cfg.Server.Open && !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Open %s in your browser\n", url)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchDone := make(chan error, 1)
	if cfg.Watch.File != "" {
		w := watch.New(cfg.Watch.File, watch.WithLogger(logger))
		go func() {
			err := w.Run(ctx, func(path string) { reload(ctx, editor, path, logger) })
			if err != nil {
				cancel()
			}
			watchDone <- err
		}()
	} else {
		watchDone <- nil
	}

	serveErr := srv.Serve(ctx, ln)
	cancel()
	if err := <-watchDone; err != nil {
		return err
	}
	return serveErr
}

// reload re-imports a watched file after it changed on disk.
func reload(ctx context.Context, editor *mdpreview.Editor, path string, logger zerolog.Logger) {
	snap, err := editor.OpenFile(ctx, path)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Str("file", path).Msg("reload failed")
		}
		return
	}
	logger.Info().Str("file", path).Uint64("version", snap.Version).Msg("reloaded")
}

// loadStyles loads the stylesheets the printer inlines into each page.
func loadStyles(cfg *config.Config) (*mdpreview.StyleSheets, error) {
	return mdpreview.LoadStyleSheets(cfg.Assets.BasePath, renderConfig(cfg).Highlighter)
}
