package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// #region jobs

// Job is one deferred learning request: evaluate the action's stored
// snapshots and fold the resulting reward into the policy.
type Job struct {
	ActionID      string
	Deleted       bool
	DaysSincePost float64
}

// ErrQueueFull is returned when the worker's buffer is saturated.
// Callers retry on the next evaluation sweep; jobs are never dropped
// silently.
var ErrQueueFull = errors.New("learning queue full")

// ErrWorkerStopped is returned when enqueueing after Stop.
var ErrWorkerStopped = errors.New("learning worker stopped")

// #endregion jobs

// #region worker

// Worker drains deferred learning jobs off a bounded queue so reward
// evaluation never blocks the posting path.
type Worker struct {
	engine *Engine
	jobs   chan Job

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewWorker creates a worker with the given queue depth.
func NewWorker(engine *Engine, depth int) *Worker {
	if depth <= 0 {
		depth = 64
	}
	return &Worker{
		engine: engine,
		jobs:   make(chan Job, depth),
	}
}

// Start launches the drain loop. The loop exits when ctx is cancelled or
// Stop closes the queue, whichever comes first.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-w.jobs:
				if !ok {
					return
				}
				w.run(ctx, job)
			}
		}
	}()
}

// Enqueue queues a job without blocking. Returns ErrQueueFull when the
// buffer is saturated and ErrWorkerStopped after Stop.
func (w *Worker) Enqueue(job Job) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrWorkerStopped
	}
	select {
	case w.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued jobs to drain.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.jobs)
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, job Job) {
	outcome, err := w.engine.LearnFromSnapshots(ctx, job.ActionID, job.Deleted, job.DaysSincePost)
	if err != nil {
		log.Error().Err(err).Str("action_id", job.ActionID).Msg("deferred learning failed")
		return
	}
	log.Debug().
		Str("action_id", job.ActionID).
		Float64("reward", outcome.Reward).
		Float64("advantage", outcome.Advantage).
		Msg("deferred learning applied")
}

// #endregion worker
