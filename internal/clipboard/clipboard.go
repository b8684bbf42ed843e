// Package clipboard provides clipboard writers for copy buttons.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no clipboard utility exists on the host
// (for example xclip or xsel missing on Linux).
var ErrUnavailable = errors.New("system clipboard unavailable")

// ErrWrite wraps failures reported by the clipboard backend.
var ErrWrite = errors.New("clipboard write failed")

// System writes to the host clipboard through github.com/atotto/clipboard.
type System struct {
	write       func(string) error
	unsupported func() bool
}

// NewSystem returns a writer backed by the host clipboard.
func NewSystem() *System {
	return NewSystemWith(clipboard.WriteAll, func() bool { return clipboard.Unsupported })
}

// NewSystemWith returns a System using write as the backend and
// unsupported to report a host without a clipboard utility.
func NewSystemWith(write func(string) error, unsupported func() bool) *System {
	return &System{write: write, unsupported: unsupported}
}

// Available reports whether the host clipboard can be used.
func (s *System) Available() bool {
	return !s.unsupported()
}

// WriteText places text on the clipboard. The backend shells out on most
// platforms, so the call runs in a goroutine and honours ctx.
func (s *System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.unsupported() {
		return ErrUnavailable
	}

	done := make(chan error, 1)
	go func() {
		done <- s.write(text)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		return nil
	}
}

// Memory is an in-process clipboard for commands that never copy, such as
// render and print, and for tests.
type Memory struct {
	mu     sync.Mutex
	text   string
	writes int
}

// WriteText stores text.
func (m *Memory) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.writes++
	return nil
}

// Text returns the last written text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes returns how many times WriteText succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
