package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"clipstream/pkg/logger"
)

// ErrQueueFull is returned by Submit when the pending buffer is at capacity.
// Callers surface it to the client; nothing is dropped silently.
var ErrQueueFull = errors.New("dispatch queue is full")

// RunFunc executes one pipeline run to completion. It must record its own
// outcome; the dispatcher never inspects results.
type RunFunc func(ctx context.Context, videoID, jobID uuid.UUID)

// Submitter is the narrow surface services use to hand work to the pool.
type Submitter interface {
	Submit(videoID, jobID uuid.UUID) error
}

type submission struct {
	videoID uuid.UUID
	jobID   uuid.UUID
}

// Dispatcher runs pipeline jobs on a fixed-size worker pool. Submit is
// fire-and-forget: acceptance means the job will eventually run, not that it
// ran. A panicking run takes down only its worker iteration, never the pool.
type Dispatcher struct {
	run       RunFunc
	size      int
	queueSize int

	queue chan submission

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(run RunFunc, size, queueSize int) *Dispatcher {
	if size < 1 {
		size = 1
	}
	if queueSize < 1 {
		queueSize = size * 2
	}
	return &Dispatcher{
		run:       run,
		size:      size,
		queueSize: queueSize,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already started")
	}
	ctx, d.cancel = context.WithCancel(ctx)
	d.queue = make(chan submission, d.queueSize)
	d.mu.Unlock()

	for i := 0; i < d.size; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}

	logger.Info("Dispatcher started", "workers", d.size, "queue_size", d.queueSize)
	return nil
}

// Stop cancels in-flight runs and waits for all workers to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()

	d.wg.Wait()
	logger.Info("Dispatcher stopped")
}

// Submit queues a run without blocking. Returns ErrQueueFull when the buffer
// is at capacity and an error when the dispatcher was never started.
func (d *Dispatcher) Submit(videoID, jobID uuid.UUID) error {
	d.mu.Lock()
	queue := d.queue
	d.mu.Unlock()

	if queue == nil {
		return fmt.Errorf("dispatcher not started")
	}

	select {
	case queue <- submission{videoID: videoID, jobID: jobID}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-d.queue:
			if !ok {
				return
			}
			d.runOne(ctx, id, sub)
		}
	}
}

func (d *Dispatcher) runOne(ctx context.Context, workerID int, sub submission) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Pipeline run panicked",
				"worker", workerID,
				"job_id", sub.jobID,
				"video_id", sub.videoID,
				"panic", r,
			)
		}
	}()

	d.run(ctx, sub.videoID, sub.jobID)
}
