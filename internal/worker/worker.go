// Package worker runs background jobs one at a time on a single goroutine.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Veraticus/shot-grouper/internal/common"
)

// ErrClosed is returned when submitting to a closed worker.
var ErrClosed = errors.New("worker is closed")

// Kind tags a job. At most one job of each kind is pending or running.
type Kind string

// Job kinds.
const (
	KindScan     Kind = "scan"
	KindAnalysis Kind = "analysis"
	KindPreview  Kind = "preview"
)

// Job is a unit of background work. It must return promptly once ctx is cancelled.
type Job func(ctx context.Context) error

// Handle tracks a submitted job.
type Handle struct {
	err    error
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	job    Job
	kind   Kind
}

// Kind returns the kind the job was submitted with.
func (h *Handle) Kind() Kind {
	return h.kind
}

// Done is closed once the job has finished or was dropped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the job's error after Done is closed. A job superseded or cancelled
// before it ran reports context.Canceled.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the job finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel cancels the job's context.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) finish(err error) {
	h.err = err
	h.cancel()
	close(h.done)
}

// Worker executes jobs serially. Submitting a job cancels the pending or running job
// of the same kind.
type Worker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	latest map[Kind]*Handle
	queue  []*Handle
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New starts a worker goroutine.
func New() *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		latest: make(map[Kind]*Handle),
	}

	w.wg.Add(1)
	go w.run()

	return w
}

// Submit queues job. Any earlier job of the same kind that has not finished is cancelled.
func (w *Worker) Submit(kind Kind, job Job) (*Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}

	if prev := w.latest[kind]; prev != nil {
		prev.cancel()
		common.LogDebug("cancelled superseded job", common.Fields{"kind": string(kind)})
	}

	ctx, cancel := context.WithCancel(w.ctx)
	h := &Handle{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		job:    job,
		kind:   kind,
	}
	w.latest[kind] = h
	w.queue = append(w.queue, h)

	select {
	case w.wake <- struct{}{}:
	default:
	}

	return h, nil
}

// Close cancels every pending and running job and waits for the worker goroutine to exit.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.cancel()
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		h, closed := w.next()
		if h == nil {
			if closed {
				return
			}
			<-w.wake
			continue
		}
		w.execute(h)
	}
}

// next pops the oldest queued job. It reports closed once the worker is closed and the
// queue is drained.
func (w *Worker) next() (*Handle, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return nil, w.closed
	}
	h := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return h, false
}

func (w *Worker) execute(h *Handle) {
	defer w.release(h)

	if err := h.ctx.Err(); err != nil {
		h.finish(err)
		return
	}

	start := time.Now()
	err := h.job(h.ctx)
	if err == nil && h.ctx.Err() != nil {
		err = h.ctx.Err()
	}
	h.finish(err)

	common.LogDebug("job finished", common.Fields{
		"kind":     string(h.kind),
		"duration": time.Since(start).String(),
		"error":    err,
	})
}

func (w *Worker) release(h *Handle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.latest[h.kind] == h {
		delete(w.latest, h.kind)
	}
}
