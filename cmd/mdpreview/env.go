package main

import (
	"io"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/clipboard"
	"github.com/alnah/go-mdpreview/internal/hints"
)

// PrinterFactory creates a PDF printer for pages styled with css.
type PrinterFactory func(css string, page mdpreview.PageSettings, timeout time.Duration) mdpreview.Printer

// ClipboardFactory returns the clipboard copy buttons write to.
type ClipboardFactory func(logger zerolog.Logger) mdpreview.Clipboard

// Environment holds injectable dependencies for testability.
// Includes I/O, logging, environment lookup, and the browser and
// clipboard collaborators.
type Environment struct {
	Stdout       io.Writer
	Stderr       io.Writer
	Logger       zerolog.Logger
	Getenv       func(string) string
	Environ      func() []string
	NewPrinter   PrinterFactory
	NewClipboard ClipboardFactory
}

// DefaultEnv returns the production environment: a console logger on
// stderr, rod printers and the system clipboard.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  newConsoleLogger(os.Stderr),
		Getenv:  os.Getenv,
		Environ: os.Environ,
		NewPrinter: func(css string, page mdpreview.PageSettings, timeout time.Duration) mdpreview.Printer {
			return mdpreview.NewRodPrinter(css, page, timeout)
		},
		NewClipboard: systemClipboard,
	}
}

func newConsoleLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
}

func systemClipboard(logger zerolog.Logger) mdpreview.Clipboard {
	return checkedClipboard(clipboard.NewSystem(), logger)
}

// checkedClipboard warns once when the host has no clipboard. The writer is
// kept anyway: its copies fail with clipboard.ErrUnavailable and the copy
// buttons stay on their idle label.
func checkedClipboard(sys *clipboard.System, logger zerolog.Logger) mdpreview.Clipboard {
	if !sys.Available() {
		logger.Warn().Msg("no system clipboard found, copy buttons will not confirm" + hints.ForClipboard(runtime.GOOS))
	}
	return sys
}
