package mdpreview

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview/internal/pipeline"
)

func TestCopyButton_Trigger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		clipErr     error
		wantCopied  bool
		wantLabel   string
		wantPending int
	}{
		{
			name:        "success confirms and schedules revert",
			wantCopied:  true,
			wantLabel:   pipeline.ConfirmedCopyLabel,
			wantPending: 1,
		},
		{
			name:      "failure stays idle",
			clipErr:   errClipboard,
			wantLabel: pipeline.DefaultCopyLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cb := &fakeClipboard{err: tt.clipErr}
			sched := &fakeScheduler{}
			b := NewCopyButton(cb, sched, time.Second, zerolog.Nop())

			if got := b.Trigger(context.Background(), "echo hi\n"); got != tt.wantCopied {
				t.Errorf("Trigger() = %v, want %v", got, tt.wantCopied)
			}
			if got := b.Label(); got != tt.wantLabel {
				t.Errorf("Label() = %q, want %q", got, tt.wantLabel)
			}
			if got := sched.pending(); got != tt.wantPending {
				t.Errorf("pending tasks = %d, want %d", got, tt.wantPending)
			}
		})
	}
}

func TestCopyButton_RevertsAfterDelay(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	b := NewCopyButton(&fakeClipboard{}, sched, 2*time.Second, zerolog.Nop())

	b.Trigger(context.Background(), "x")
	if sched.timers[0].delay != 2*time.Second {
		t.Errorf("delay = %v, want 2s", sched.timers[0].delay)
	}

	sched.fire()
	if got := b.Label(); got != pipeline.DefaultCopyLabel {
		t.Errorf("Label() after delay = %q, want %q", got, pipeline.DefaultCopyLabel)
	}
}

func TestCopyButton_RetriggerCancelsPendingRevert(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	b := NewCopyButton(&fakeClipboard{}, sched, time.Second, zerolog.Nop())

	b.Trigger(context.Background(), "a")
	b.Trigger(context.Background(), "b")

	if len(sched.timers) != 2 {
		t.Fatalf("scheduled %d tasks, want 2", len(sched.timers))
	}
	if !sched.timers[0].stopped {
		t.Error("first revert task should be cancelled")
	}
	if got := sched.pending(); got != 1 {
		t.Errorf("pending tasks = %d, want 1", got)
	}
}

func TestCopyButton_FailureCancelsPendingRevert(t *testing.T) {
	t.Parallel()

	cb := &fakeClipboard{}
	sched := &fakeScheduler{}
	b := NewCopyButton(cb, sched, time.Second, zerolog.Nop())

	b.Trigger(context.Background(), "a")
	cb.setErr(errClipboard)
	b.Trigger(context.Background(), "b")

	if got := b.Label(); got != pipeline.DefaultCopyLabel {
		t.Errorf("Label() = %q, want %q", got, pipeline.DefaultCopyLabel)
	}
	if got := sched.pending(); got != 0 {
		t.Errorf("pending tasks = %d, want 0", got)
	}
}

func TestCopyButton_StaleRevertIgnored(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	b := NewCopyButton(&fakeClipboard{}, sched, time.Second, zerolog.Nop())

	b.Trigger(context.Background(), "a")
	stale := sched.timers[0]
	b.Trigger(context.Background(), "b")

	// A task that already started when Stop was called must not revert
	// the newer confirmation.
	stale.fn()
	if got := b.Label(); got != pipeline.ConfirmedCopyLabel {
		t.Errorf("Label() = %q, want %q", got, pipeline.ConfirmedCopyLabel)
	}
}

func TestCopyButton_LogsFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	b := NewCopyButton(&fakeClipboard{err: errClipboard}, &fakeScheduler{}, time.Second, zerolog.New(&buf))
	b.Trigger(context.Background(), "secret")

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, errClipboard.Error()) {
		t.Errorf("log = %q, want warn entry with the error", out)
	}
	if strings.Contains(out, "secret") {
		t.Error("copied text should not be logged")
	}
}

func TestCopyButton_RealClock(t *testing.T) {
	t.Parallel()

	b := NewCopyButton(&fakeClipboard{}, nil, 10*time.Millisecond, zerolog.Nop())
	b.Trigger(context.Background(), "x")

	deadline := time.Now().Add(5 * time.Second)
	for b.Label() != pipeline.DefaultCopyLabel {
		if time.Now().After(deadline) {
			t.Fatal("label never reverted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCopyButton_Stop(t *testing.T) {
	t.Parallel()

	sched := &fakeScheduler{}
	b := NewCopyButton(&fakeClipboard{}, sched, time.Second, zerolog.Nop())
	b.Trigger(context.Background(), "x")
	b.Stop()

	if b.Label() != pipeline.DefaultCopyLabel || sched.pending() != 0 {
		t.Errorf("Stop() left label %q and %d pending tasks", b.Label(), sched.pending())
	}
}
