package mdpreview

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeClipboard struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (c *fakeClipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.texts = append(c.texts, text)
	return nil
}

func (c *fakeClipboard) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

func (c *fakeClipboard) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

type fakeTimer struct {
	s       *fakeScheduler
	fn      func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler records tasks and runs them only when fire is called.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, fn: f, delay: d}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) fire() int {
	s.mu.Lock()
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
	return len(due)
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakePrinter struct {
	mu     sync.Mutex
	jobs   []PrintJob
	err    error
	closed int
}

func (p *fakePrinter) Print(_ context.Context, job PrintJob) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.jobs = append(p.jobs, job)
	return []byte("%PDF-1.7 fake"), nil
}

func (p *fakePrinter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []string
}

func (r *noticeRecorder) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, message)
}

func (r *noticeRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

// gatedRenderer returns the loading placeholder until open is called.
type gatedRenderer struct {
	ready chan struct{}
	once  sync.Once
	out   string
}

func newGatedRenderer(out string) *gatedRenderer {
	return &gatedRenderer{ready: make(chan struct{}), out: out}
}

func (g *gatedRenderer) open() { g.once.Do(func() { close(g.ready) }) }

func (g *gatedRenderer) Ready() <-chan struct{} { return g.ready }

func (g *gatedRenderer) Wait(ctx context.Context) error {
	select {
	case <-g.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedRenderer) Render(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case <-g.ready:
		return g.out, nil
	default:
		return "<p>Loading libraries...</p>", nil
	}
}

var errClipboard = errors.New("clipboard busy")
