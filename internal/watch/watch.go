// Package watch follows a single file on disk and reports settled changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce collapses the burst of events most editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// ErrWatch wraps failures to start watching.
var ErrWatch = errors.New("watch failed")

// FileWatcher reports changes to one file. The parent directory is watched
// so that atomic saves (write to temp, rename over target) are seen.
type FileWatcher struct {
	path     string
	debounce time.Duration
	logger   zerolog.Logger
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce sets the quiet period before a change is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger used for backend errors.
func WithLogger(l zerolog.Logger) Option {
	return func(w *FileWatcher) {
		w.logger = l
	}
}

// New returns a watcher for path.
func New(path string, opts ...Option) *FileWatcher {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	w := &FileWatcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the watched file path.
func (w *FileWatcher) Path() string {
	return w.path
}

// Run blocks until ctx is done, calling onChange with the file path after
// each settled change. onChange runs on the watcher goroutine.
func (w *FileWatcher) Run(ctx context.Context, onChange func(path string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatch, err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("%w: %v", ErrWatch, err)
	}

	var (
		timer   *time.Timer
		settled <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("file event")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			settled = timer.C

		case <-settled:
			settled = nil
			onChange(w.path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Str("file", w.path).Msg("watch error")
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
