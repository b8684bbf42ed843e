package main

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/pipeline"
)

func TestCommandLogger(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	env.Logger = env.Logger.Level(zerolog.InfoLevel)

	tests := []struct {
		name  string
		flags commonFlags
		want  zerolog.Level
	}{
		{"default", commonFlags{}, zerolog.InfoLevel},
		{"quiet", commonFlags{quiet: true}, zerolog.ErrorLevel},
		{"verbose", commonFlags{verbose: true}, zerolog.DebugLevel},
		{"quiet wins", commonFlags{quiet: true, verbose: true}, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := commandLogger(env.Environment, tt.flags).GetLevel(); got != tt.want {
			t.Errorf("%s: level = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRenderConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Render.GFM = false
	cfg.Render.HighlightClassPrefix = "lang-"
	cfg.Render.HighlightMode = config.HighlightModeMount

	rc := renderConfig(cfg)
	if rc.GFM {
		t.Error("GFM should follow the config")
	}
	if rc.HighlightClassPrefix != "lang-" {
		t.Errorf("HighlightClassPrefix = %q, want lang-", rc.HighlightClassPrefix)
	}
	if rc.Mode != pipeline.ModeMount {
		t.Errorf("Mode = %q, want %q", rc.Mode, pipeline.ModeMount)
	}
	if rc.Highlighter == nil {
		t.Error("Highlighter should be set from render.highlightStyle")
	}

	cfg.Render.HighlightMode = ""
	if got := renderConfig(cfg).Mode; got != pipeline.DefaultRenderConfig().Mode {
		t.Errorf("empty mode = %q, want the default", got)
	}
}

func TestPageSettings(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Print.PageSize = ""
	cfg.Print.Margin = ""
	if got := pageSettings(cfg); got != mdpreview.DefaultPageSettings() {
		t.Errorf("pageSettings(empty) = %+v, want defaults", got)
	}

	applyPageFlags(pageFlags{size: "Legal", margin: "2cm"}, cfg)
	got := pageSettings(cfg)
	if got.Size != "Legal" || got.Margin != "2cm" {
		t.Errorf("pageSettings = %+v, want Legal/2cm", got)
	}
}
