package worker

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fluxorio/threadshare/pkg/failfast"
)

func TestSpawn_Join(t *testing.T) {
	var ran atomic.Bool
	h := Spawn(func(*Control) { ran.Store(true) })

	if err := h.Join(); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if !ran.Load() {
		t.Error("worker body did not run")
	}
	if !h.Finished() {
		t.Error("Finished() = false after Join")
	}
	if err := h.Join(); err != nil {
		t.Errorf("second Join() error = %v", err)
	}
}

func TestSpawn_PanicBecomesJoinError(t *testing.T) {
	h := Spawn(func(*Control) { panic("disk on fire") })

	err := h.Join()
	if !errors.Is(err, ErrJoinFailure) {
		t.Fatalf("Join() = %v, want ErrJoinFailure", err)
	}
	var je *JoinError
	if !errors.As(err, &je) || je.ID != h.ID() {
		t.Errorf("Join() = %#v, want *JoinError for %s", err, h.ID())
	}
	var pe *failfast.PanicError
	if !errors.As(err, &pe) || pe.Value != "disk on fire" {
		t.Errorf("Join() = %v, want panic value", err)
	}
}

func TestHandle_JoinContext(t *testing.T) {
	release := make(chan struct{})
	h := Spawn(func(*Control) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.JoinContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("JoinContext() = %v, want deadline exceeded", err)
	}
	if h.Finished() {
		t.Error("Finished() = true while worker is blocked")
	}

	close(release)
	if err := h.JoinContext(context.Background()); err != nil {
		t.Errorf("JoinContext() = %v, want nil", err)
	}
}

func TestControl_Checkpoint(t *testing.T) {
	ctl := newControl()

	if !ctl.Checkpoint() {
		t.Fatal("Checkpoint() = false on an active worker")
	}

	ctl.setPaused(true)
	passed := make(chan bool, 1)
	go func() { passed <- ctl.Checkpoint() }()

	select {
	case <-passed:
		t.Fatal("Checkpoint() returned while paused")
	case <-time.After(30 * time.Millisecond):
	}

	ctl.setPaused(false)
	select {
	case ok := <-passed:
		if !ok {
			t.Error("Checkpoint() = false after resume")
		}
	case <-time.After(time.Second):
		t.Fatal("Checkpoint() still blocked after resume")
	}
}

func TestControl_RemoveUnblocksPausedCheckpoint(t *testing.T) {
	ctl := newControl()
	ctl.setPaused(true)

	passed := make(chan bool, 1)
	go func() { passed <- ctl.Checkpoint() }()

	time.Sleep(10 * time.Millisecond)
	ctl.remove()

	select {
	case ok := <-passed:
		if ok {
			t.Error("Checkpoint() = true after remove")
		}
	case <-time.After(time.Second):
		t.Fatal("remove did not wake a paused Checkpoint")
	}
	if !ctl.Removed() {
		t.Error("Removed() = false")
	}
}

func TestControl_CheckpointContext(t *testing.T) {
	ctl := newControl()
	ctl.setPaused(true)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if ctl.CheckpointContext(ctx) {
		t.Error("CheckpointContext() = true after ctx expired while paused")
	}

	active := newControl()
	cancelled, cancelNow := context.WithCancel(context.Background())
	if !active.CheckpointContext(cancelled) {
		t.Error("CheckpointContext() = false on an active worker with a live ctx")
	}
	cancelNow()
	if active.CheckpointContext(cancelled) {
		t.Error("CheckpointContext() = true on an active worker after ctx was cancelled")
	}
}

func TestControl_CheckpointContextStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var iterations atomic.Int64
	h := Spawn(func(ctl *Control) {
		for ctl.CheckpointContext(ctx) {
			if iterations.Add(1) == 10 {
				cancel()
			}
		}
	})

	joinCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()
	if err := h.JoinContext(joinCtx); err != nil {
		t.Fatalf("worker loop did not stop after cancel: %v", err)
	}
	if got := iterations.Load(); got != 10 {
		t.Errorf("iterations = %d, want 10", got)
	}
}

func TestSpawn_GoexitBecomesJoinError(t *testing.T) {
	h := Spawn(func(*Control) { runtime.Goexit() })

	err := h.Join()
	if !errors.Is(err, ErrJoinFailure) || !errors.Is(err, ErrGoexit) {
		t.Fatalf("Join() = %v, want ErrJoinFailure wrapping ErrGoexit", err)
	}
	var joinErr *JoinError
	if !errors.As(err, &joinErr) || joinErr.ID != h.ID() {
		t.Errorf("Join() = %#v, want *JoinError for %s", err, h.ID())
	}
}

func TestManager_JoinAllReportsGoexit(t *testing.T) {
	m := newTestManager()
	_ = m.SpawnWorker("exits", func(*Control) { runtime.Goexit() })
	_ = m.SpawnWorker("returns", func(*Control) {})

	err := m.JoinAll()
	if !errors.Is(err, ErrGoexit) {
		t.Errorf("JoinAll() = %v, want ErrGoexit", err)
	}
	var joinErr *JoinError
	if errors.As(err, &joinErr) && joinErr.Worker != "exits" {
		t.Errorf("JoinError.Worker = %q, want exits", joinErr.Worker)
	}
	if m.ActiveWorkers() != 0 {
		t.Errorf("ActiveWorkers() = %d, want 0", m.ActiveWorkers())
	}
}
