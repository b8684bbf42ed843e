package mdpreview

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview/internal/pipeline"
)

// DefaultResetDelay is how long a copy button shows its confirmation.
const DefaultResetDelay = 2 * time.Second

// Clipboard receives the text of a copied code block.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Timer is a scheduled task that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Implementations must call f on another
// goroutine, never from inside AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// CopyState is what a copy button shows after a trigger.
type CopyState struct {
	Label        string        `json:"label"`
	Copied       bool          `json:"copied"`
	ResetDelay   time.Duration `json:"-"`
	ResetDelayMS int64         `json:"resetDelayMs"`
}

// CopyButton holds the label of one code block's copy affordance. It goes
// idle -> confirmed -> idle on success and stays idle on failure.
type CopyButton struct {
	clipboard  Clipboard
	scheduler  Scheduler
	resetDelay time.Duration
	logger     zerolog.Logger

	mu      sync.Mutex
	label   string
	pending Timer
	gen     uint64
}

// NewCopyButton creates an idle button. A nil scheduler uses the wall clock.
func NewCopyButton(cb Clipboard, scheduler Scheduler, resetDelay time.Duration, logger zerolog.Logger) *CopyButton {
	if scheduler == nil {
		scheduler = clockScheduler{}
	}
	if resetDelay < 0 {
		resetDelay = 0
	}
	return &CopyButton{
		clipboard:  cb,
		scheduler:  scheduler,
		resetDelay: resetDelay,
		logger:     logger,
		label:      pipeline.DefaultCopyLabel,
	}
}

// Label returns the current label.
func (b *CopyButton) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label
}

// Trigger writes text to the clipboard and updates the label. Clipboard
// failures are logged and reported as false, never returned.
func (b *CopyButton) Trigger(ctx context.Context, text string) bool {
	err := b.clipboard.WriteText(ctx, text)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
	b.gen++

	if err != nil {
		b.logger.Warn().Err(err).Int("bytes", len(text)).Msg("copy to clipboard failed")
		b.label = pipeline.DefaultCopyLabel
		return false
	}

	b.label = pipeline.ConfirmedCopyLabel
	gen := b.gen
	b.pending = b.scheduler.AfterFunc(b.resetDelay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.gen != gen {
			return
		}
		b.label = pipeline.DefaultCopyLabel
		b.pending = nil
	})
	return true
}

// State returns the label together with the reset delay.
func (b *CopyButton) State(copied bool) CopyState {
	return CopyState{
		Label:        b.Label(),
		Copied:       copied,
		ResetDelay:   b.resetDelay,
		ResetDelayMS: b.resetDelay.Milliseconds(),
	}
}

// Stop cancels a pending revert and returns the button to idle.
func (b *CopyButton) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
	b.gen++
	b.label = pipeline.DefaultCopyLabel
}
