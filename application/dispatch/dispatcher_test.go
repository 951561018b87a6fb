package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSubmitBeforeStartFails(t *testing.T) {
	d := NewDispatcher(func(context.Context, uuid.UUID, uuid.UUID) {}, 2, 4)
	if err := d.Submit(uuid.New(), uuid.New()); err == nil {
		t.Fatal("expected error before Start")
	}
}

func TestDispatcherRunsSubmissions(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[uuid.UUID]bool)
	done := make(chan struct{}, 8)

	d := NewDispatcher(func(_ context.Context, _, jobID uuid.UUID) {
		mu.Lock()
		seen[jobID] = true
		mu.Unlock()
		done <- struct{}{}
	}, 2, 8)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	jobs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range jobs {
		if err := d.Submit(uuid.New(), id); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	for range jobs {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for runs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, id := range jobs {
		if !seen[id] {
			t.Errorf("job %s never ran", id)
		}
	}
}

func TestDoubleStartFails(t *testing.T) {
	d := NewDispatcher(func(context.Context, uuid.UUID, uuid.UUID) {}, 1, 1)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestSubmitReturnsErrQueueFull(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})

	d := NewDispatcher(func(context.Context, uuid.UUID, uuid.UUID) {
		started <- struct{}{}
		<-block
	}, 1, 1)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// First submission occupies the worker, second fills the buffer.
	if err := d.Submit(uuid.New(), uuid.New()); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	<-started
	if err := d.Submit(uuid.New(), uuid.New()); err != nil {
		t.Fatalf("submit 2: %v", err)
	}

	if err := d.Submit(uuid.New(), uuid.New()); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	close(block)
	go func() {
		for range started {
		}
	}()
	d.Stop()
	close(started)
}

func TestPanicDoesNotKillWorker(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{}, 2)

	d := NewDispatcher(func(_ context.Context, _, _ uuid.UUID) {
		if runs.Add(1) == 1 {
			done <- struct{}{}
			panic("boom")
		}
		done <- struct{}{}
	}, 1, 4)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if err := d.Submit(uuid.New(), uuid.New()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-done

	// The same worker must survive to run the next submission.
	if err := d.Submit(uuid.New(), uuid.New()); err != nil {
		t.Fatalf("submit after panic: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after panic")
	}
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	var finished atomic.Bool
	started := make(chan struct{})

	d := NewDispatcher(func(ctx context.Context, _, _ uuid.UUID) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	}, 1, 1)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.Submit(uuid.New(), uuid.New()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	<-started
	d.Stop()

	if !finished.Load() {
		t.Fatal("Stop returned before the in-flight run completed")
	}
}
