package worker

import (
	"sync"
	"testing"
	"time"

	"github.com/fluxorio/threadshare/pkg/logging"
)

func newTestManager(opts ...Option) *Manager {
	return NewManager(append([]Option{WithLogger(logging.NewNopLogger())}, opts...)...)
}

// waitFor polls cond until it holds or a second passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) add(e string) {
	o.mu.Lock()
	o.events = append(o.events, e)
	o.mu.Unlock()
}

func (o *recordingObserver) WorkerAdded(name string) { o.add("added:" + name) }

func (o *recordingObserver) WorkerPaused(name string, paused bool) {
	if paused {
		o.add("paused:" + name)
	} else {
		o.add("resumed:" + name)
	}
}

func (o *recordingObserver) WorkerRemoved(name string, err error) { o.add("removed:" + name) }

func (o *recordingObserver) WorkerJoined(name string, err error) { o.add("joined:" + name) }

func (o *recordingObserver) snapshot() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}
