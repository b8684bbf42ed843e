package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// LoadingPlaceholder is the fragment returned before the renderer is ready.
const LoadingPlaceholder = "<p>Loading libraries...</p>"

// ErrHTMLConversion indicates goldmark failed to convert a document.
// Render recovers from it; it is only reported to the logger.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// HighlightMode selects where syntax highlighting happens.
type HighlightMode string

const (
	// ModePull highlights each code block while goldmark renders it.
	ModePull HighlightMode = "pull"

	// ModeMount renders escaped code first and highlights the
	// <code class="language-x"> nodes of the finished fragment.
	ModeMount HighlightMode = "mount"
)

// Valid reports whether m is a known mode.
func (m HighlightMode) Valid() bool {
	return m == ModePull || m == ModeMount
}

// RenderConfig configures a Renderer. It is not modified after construction.
type RenderConfig struct {
	GFM                  bool
	SoftLineBreaks       bool
	HighlightClassPrefix string
	Highlighter          Highlighter
	Mode                 HighlightMode
}

// DefaultRenderConfig returns GFM with soft line breaks, highlight.js class
// names and a chroma highlighter in pull mode.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		GFM:                  true,
		SoftLineBreaks:       true,
		HighlightClassPrefix: DefaultLanguageClassPrefix,
		Highlighter:          NewChromaHighlighter(DefaultTokenClassPrefix, DefaultHighlightStyle),
		Mode:                 ModePull,
	}
}

func (c RenderConfig) withDefaults() RenderConfig {
	if c.Highlighter == nil {
		c.Highlighter = NewChromaHighlighter(DefaultTokenClassPrefix, DefaultHighlightStyle)
	}
	if !c.Mode.Valid() {
		c.Mode = ModePull
	}
	return c
}

// Renderer turns Markdown source into a sanitized HTML fragment.
type Renderer interface {
	Render(ctx context.Context, source string) (string, error)
}

// GoldmarkRenderer renders Markdown with goldmark.
type GoldmarkRenderer struct {
	md        goldmark.Markdown
	cfg       RenderConfig
	mounter   *MountHighlighter
	sanitizer *Sanitizer
}

// NewGoldmarkRenderer builds a goldmark pipeline for cfg.
// A nil Highlighter defaults to chroma; an unknown Mode defaults to ModePull.
func NewGoldmarkRenderer(cfg RenderConfig) *GoldmarkRenderer {
	cfg = cfg.withDefaults()

	blocks := &codeBlockRenderer{
		highlighter: cfg.Highlighter,
		classPrefix: cfg.HighlightClassPrefix,
	}

	r := &GoldmarkRenderer{
		cfg:       cfg,
		sanitizer: NewSanitizer(),
	}
	if cfg.Mode == ModeMount {
		blocks.highlighter = PlainHighlighter{}
		r.mounter = NewMountHighlighter(cfg.Highlighter, cfg.HighlightClassPrefix)
	}

	extensions := []goldmark.Extender{extension.Footnote}
	if cfg.GFM {
		extensions = append(extensions, extension.GFM)
	}

	rendererOptions := []renderer.Option{
		gmhtml.WithXHTML(),
		renderer.WithNodeRenderers(util.Prioritized(blocks, codeBlockPriority)),
	}
	if cfg.SoftLineBreaks {
		rendererOptions = append(rendererOptions, gmhtml.WithHardWraps())
	}

	r.md = goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return r
}

// Config returns the configuration the renderer was built with.
func (r *GoldmarkRenderer) Config() RenderConfig {
	return r.cfg
}

// Render converts source to a sanitized fragment.
// It never fails for text input: conversion problems degrade to escaped text.
// The only error returned is the context's.
func (r *GoldmarkRenderer) Render(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// A cancelled caller stops waiting but the conversion runs to completion;
	// goldmark has no cancellation hook, and done is buffered so nothing leaks.
	done := make(chan string, 1)
	go func() {
		done <- r.render(source)
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case out := <-done:
		return out, nil
	}
}

func (r *GoldmarkRenderer) render(source string) string {
	normalized := normalizeLineEndings(source)

	out, err := r.convert(normalized)
	if err != nil {
		return escapedSource(normalized)
	}

	if r.mounter != nil {
		if mounted, err := r.mounter.Mount(out); err == nil {
			out = mounted
		}
	}
	return r.sanitizer.Sanitize(out)
}

func (r *GoldmarkRenderer) convert(source string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHTMLConversion, p)
		}
	}()

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return buf.String(), nil
}

func escapedSource(source string) string {
	var b strings.Builder
	b.WriteString("<pre>")
	b.WriteString(html.EscapeString(source))
	b.WriteString("</pre>\n")
	return b.String()
}

// DeferredRenderer answers with LoadingPlaceholder until its goldmark
// renderer is built and the highlighter is warm, then delegates to it.
// Render never blocks on initialisation.
type DeferredRenderer struct {
	ready    chan struct{}
	renderer *GoldmarkRenderer
}

// NewDeferredRenderer starts building a GoldmarkRenderer for cfg in the background.
func NewDeferredRenderer(cfg RenderConfig) *DeferredRenderer {
	d := &DeferredRenderer{ready: make(chan struct{})}
	go func() {
		r := NewGoldmarkRenderer(cfg)
		if w, ok := r.cfg.Highlighter.(interface{ warm() }); ok {
			w.warm()
		}
		d.renderer = r
		close(d.ready)
	}()
	return d
}

// Ready is closed once the renderer is initialised.
func (d *DeferredRenderer) Ready() <-chan struct{} {
	return d.ready
}

// Wait blocks until the renderer is initialised or ctx is done.
func (d *DeferredRenderer) Wait(ctx context.Context) error {
	select {
	case <-d.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Render returns LoadingPlaceholder while initialisation is in progress.
func (d *DeferredRenderer) Render(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-d.ready:
		return d.renderer.Render(ctx, source)
	default:
		return LoadingPlaceholder, nil
	}
}

// Compile-time interface checks.
var (
	_ Renderer = (*GoldmarkRenderer)(nil)
	_ Renderer = (*DeferredRenderer)(nil)
)

// lineEndings converts CRLF and lone CR to LF. CRLF is listed first so it
// is matched as one ending.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeLineEndings(source string) string {
	return lineEndings.Replace(source)
}
