package worker

import (
	"context"
	"sync/atomic"

	"github.com/fluxorio/threadshare/pkg/share"
)

// Control carries the pause and removed flags of one worker.
// The worker body polls it; the manager only sets it.
type Control struct {
	paused  atomic.Bool
	removed atomic.Bool
	signal  *share.ChangeSignal
}

func newControl() *Control {
	return &Control{signal: share.NewChangeSignal()}
}

// Paused reports whether the worker has been asked to pause
func (c *Control) Paused() bool {
	return c.paused.Load()
}

// Removed reports whether the worker has been asked to exit
func (c *Control) Removed() bool {
	return c.removed.Load()
}

// Checkpoint blocks while the worker is paused. It returns false once the
// worker has been removed, in which case the body should return.
func (c *Control) Checkpoint() bool {
	return c.CheckpointContext(context.Background())
}

// CheckpointContext is Checkpoint that also gives up, returning false,
// when ctx is done.
func (c *Control) CheckpointContext(ctx context.Context) bool {
	for {
		since := c.signal.Version()
		if c.removed.Load() || ctx.Err() != nil {
			return false
		}
		if !c.paused.Load() {
			return true
		}
		if err := c.signal.WaitAfterContext(ctx, since); err != nil {
			return false
		}
	}
}

func (c *Control) setPaused(paused bool) {
	if c.paused.Swap(paused) != paused {
		c.signal.Notify()
	}
}

func (c *Control) remove() {
	if !c.removed.Swap(true) {
		c.signal.Notify()
	}
}
