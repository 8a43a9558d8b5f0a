// file: internal/operations/queue.go
// version: 2.0.0
// guid: 6b1e4d83-7a20-4c9f-b5d6-e2f8a0c39174

package operations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jdfalk/speed-reader/internal/logger"
	"github.com/jdfalk/speed-reader/internal/metrics"
)

// TaskFunc is a unit of background work
type TaskFunc func(ctx context.Context) error

// Task is a queued TaskFunc with its identity
type Task struct {
	ID   string
	Type string
	Func TaskFunc
}

// Queue runs fire-and-forget tasks on a fixed pool of workers. Submit never
// blocks; when the buffer is full the task is dropped with a warning.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	inflight int
	closed   bool

	pending chan *Task
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	log     *logger.Logger
}

// NewQueue starts workers goroutines reading from a buffer of size tasks
func NewQueue(workers, size int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	if size <= 0 {
		size = 100
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		pending: make(chan *Task, size),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		log:     logger.ForModule("queue"),
	}
	q.cond = sync.NewCond(&q.mu)

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

// Workers returns the pool size
func (q *Queue) Workers() int { return q.workers }

// Submit enqueues fn without blocking. It returns false if the task was dropped.
func (q *Queue) Submit(taskType, id string, fn TaskFunc) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.log.Warn("queue closed, dropping %s task %s", taskType, id)
		metrics.IncTaskDropped(taskType)
		return false
	}

	select {
	case q.pending <- &Task{ID: id, Type: taskType, Func: fn}:
		q.inflight++
		q.log.Debug("%s task %s enqueued", taskType, id)
		return true
	default:
		q.log.Warn("pending queue full, dropping %s task %s", taskType, id)
		metrics.IncTaskDropped(taskType)
		return false
	}
}

// Wait blocks until every accepted task has finished
func (q *Queue) Wait() {
	q.mu.Lock()
	for q.inflight > 0 {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

func (q *Queue) done() {
	q.mu.Lock()
	q.inflight--
	if q.inflight == 0 {
		q.cond.Broadcast()
	}
	q.mu.Unlock()
}

// worker processes tasks until the pending channel is closed
func (q *Queue) worker(id int) {
	defer q.wg.Done()
	q.log.Debug("worker %d started", id)

	for task := range q.pending {
		q.run(id, task)
	}
	q.log.Debug("worker %d stopped", id)
}

func (q *Queue) run(worker int, task *Task) {
	defer q.done()

	start := time.Now()
	metrics.IncTaskStarted(task.Type)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return task.Func(q.ctx)
	}()

	if err != nil {
		metrics.IncTaskFailed(task.Type)
		q.log.Warn("worker %d: %s task %s failed: %v", worker, task.Type, task.ID, err)
	} else {
		metrics.IncTaskCompleted(task.Type)
		q.log.Debug("worker %d: %s task %s completed", worker, task.Type, task.ID)
	}
	metrics.ObserveTaskDuration(task.Type, time.Since(start))
}

// Shutdown stops accepting tasks and lets workers drain the buffer. If the
// drain exceeds timeout the shared context is canceled and an error returned.
func (q *Queue) Shutdown(timeout time.Duration) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.pending)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.log.Debug("queue shut down gracefully")
		return nil
	case <-time.After(timeout):
		q.cancel()
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
