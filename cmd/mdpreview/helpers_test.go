package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/clipboard"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Fakes and helpers shared by the command tests
// ---------------------------------------------------------------------------

// fakePDF is the body every fakePrinter returns.
const fakePDF = "%PDF-1.4 fake"

// fakePrinter records print jobs without starting a browser.
type fakePrinter struct {
	mu     sync.Mutex
	jobs   []mdpreview.PrintJob
	err    error
	closed atomic.Bool
}

func (p *fakePrinter) Print(_ context.Context, job mdpreview.PrintJob) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	if p.err != nil {
		return nil, p.err
	}
	return []byte(fakePDF), nil
}

func (p *fakePrinter) Close() error {
	p.closed.Store(true)
	return nil
}

func (p *fakePrinter) Jobs() []mdpreview.PrintJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]mdpreview.PrintJob(nil), p.jobs...)
}

// printerFactory hands out fakePrinters and remembers each one.
type printerFactory struct {
	mu       sync.Mutex
	err      error
	printers []*fakePrinter
	css      string
	page     mdpreview.PageSettings
	timeout  time.Duration
}

func (f *printerFactory) New(css string, page mdpreview.PageSettings, timeout time.Duration) mdpreview.Printer {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &fakePrinter{err: f.err}
	f.printers = append(f.printers, p)
	f.css, f.page, f.timeout = css, page, timeout
	return p
}

func (f *printerFactory) Jobs() []mdpreview.PrintJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	var jobs []mdpreview.PrintJob
	for _, p := range f.printers {
		jobs = append(jobs, p.Jobs()...)
	}
	return jobs
}

// syncBuffer is a bytes.Buffer safe for a command goroutine and a test
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testEnv bundles an Environment with its captured output.
type testEnv struct {
	*Environment
	stdout    *syncBuffer
	stderr    *syncBuffer
	printers  *printerFactory
	clipboard *clipboard.Memory
}

// newTestEnv returns an environment with captured output, the given
// variables, fake printers and an in-memory clipboard.
func newTestEnv(vars map[string]string) *testEnv {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	printers := &printerFactory{}
	mem := &clipboard.Memory{}

	environ := make([]string, 0, len(vars))
	for k, v := range vars {
		environ = append(environ, k+"="+v)
	}

	return &testEnv{
		Environment: &Environment{
			Stdout:     stdout,
			Stderr:     stderr,
			Logger:     zerolog.New(stderr),
			Getenv:     func(key string) string { return vars[key] },
			Environ:    func() []string { return environ },
			NewPrinter: printers.New,
			NewClipboard: func(zerolog.Logger) mdpreview.Clipboard {
				return mem
			},
		},
		stdout:    stdout,
		stderr:    stderr,
		printers:  printers,
		clipboard: mem,
	}
}

// writeFile creates name under dir with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
