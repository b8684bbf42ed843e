package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/pipeline"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoInput            = errors.New("no input specified")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidTimeout     = errors.New("invalid timeout")
)

// commandLogger returns env's logger at the level chosen by --quiet and --verbose.
func commandLogger(env *Environment, f commonFlags) zerolog.Logger {
	switch {
	case f.quiet:
		return env.Logger.Level(zerolog.ErrorLevel)
	case f.verbose:
		return env.Logger.Level(zerolog.DebugLevel)
	default:
		return env.Logger
	}
}

// loadSettings loads the config file named by --config or MDPREVIEW_CONFIG
// and applies the environment on top. Without a name the defaults are used.
func loadSettings(f commonFlags, env *Environment, logger zerolog.Logger) (*config.Config, *envConfig, error) {
	envCfg := loadEnvConfig(env.Getenv)
	if env.Environ != nil {
		warnUnknownEnvVars(env.Environ(), logger)
	}

	name := f.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		logger.Debug().Str("config", name).Msg("config loaded")
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, envCfg, nil
}

// applyPageFlags overrides the printed page settings with CLI values.
func applyPageFlags(f pageFlags, cfg *config.Config) {
	if f.size != "" {
		cfg.Print.PageSize = f.size
	}
	if f.margin != "" {
		cfg.Print.Margin = f.margin
	}
}

// renderConfig maps the render section to a pipeline configuration.
func renderConfig(cfg *config.Config) pipeline.RenderConfig {
	rc := pipeline.DefaultRenderConfig()
	rc.GFM = cfg.Render.GFM
	rc.SoftLineBreaks = cfg.Render.SoftLineBreaks
	if cfg.Render.HighlightClassPrefix != "" {
		rc.HighlightClassPrefix = cfg.Render.HighlightClassPrefix
	}
	if cfg.Render.HighlightStyle != "" {
		rc.Highlighter = pipeline.NewChromaHighlighter(pipeline.DefaultTokenClassPrefix, cfg.Render.HighlightStyle)
	}
	if mode := pipeline.HighlightMode(cfg.Render.HighlightMode); mode.Valid() {
		rc.Mode = mode
	}
	return rc
}

// pageSettings maps the print section to page settings, keeping defaults
// for empty values.
func pageSettings(cfg *config.Config) mdpreview.PageSettings {
	page := mdpreview.DefaultPageSettings()
	if cfg.Print.PageSize != "" {
		page.Size = cfg.Print.PageSize
	}
	if cfg.Print.Margin != "" {
		page.Margin = cfg.Print.Margin
	}
	return page
}

// editorOptions returns the editor options shared by every command.
// Callers add the renderer, clipboard and printer they need.
func editorOptions(cfg *config.Config, logger zerolog.Logger) []mdpreview.Option {
	opts := []mdpreview.Option{
		mdpreview.WithRenderConfig(renderConfig(cfg)),
		mdpreview.WithResetDelay(cfg.Copy.ResetDelay),
		mdpreview.WithAssetPath(cfg.Assets.BasePath),
		mdpreview.WithPageSettings(pageSettings(cfg)),
		mdpreview.WithPrintTimeout(cfg.Print.Timeout),
		mdpreview.WithLogger(logger),
	}
	if len(cfg.Import.Extensions) > 0 {
		opts = append(opts, mdpreview.WithExtensions(cfg.Import.Extensions...))
	}
	return opts
}
