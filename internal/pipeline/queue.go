package pipeline

import (
	"context"
	"errors"
	"sync"

	"lingostream/pkg/model"
)

// ErrQueueClosed is returned by Put once the owning connection began teardown.
var ErrQueueClosed = errors.New("translation queue is closed")

// Queue is an unbounded FIFO of pending translation tasks, the ordering
// backbone of one connection's pipeline. It is deliberately unbounded:
// losing a final transcript's translation is worse than memory growth while
// the engine is slow. Exactly one worker consumes it.
type Queue struct {
	mu         sync.Mutex
	items      []*model.TranslationTask
	unfinished int
	closed     bool
	wake       chan struct{}
	idle       chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Put appends a task to the queue. It never blocks.
func (q *Queue) Put(task *model.TranslationTask) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, task)
	q.unfinished++
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Get removes and returns the oldest task, blocking until one is available
// or ctx is done. Only the single worker goroutine may call Get.
func (q *Queue) Get(ctx context.Context) (*model.TranslationTask, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			task := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return task, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		}
	}
}

// TaskDone marks one previously dequeued task as fully processed. Calling it
// more times than tasks were dequeued is a no-op.
func (q *Queue) TaskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished == 0 {
		return
	}
	q.unfinished--
	if q.unfinished == 0 && q.idle != nil {
		close(q.idle)
		q.idle = nil
	}
}

// Join blocks until every task ever put has been marked done, or ctx is
// done. Used for graceful shutdown and test synchronization.
func (q *Queue) Join(ctx context.Context) error {
	q.mu.Lock()
	if q.unfinished == 0 {
		q.mu.Unlock()
		return nil
	}
	if q.idle == nil {
		q.idle = make(chan struct{})
	}
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-idle:
		return nil
	}
}

// Close rejects further puts. Tasks already queued remain drainable.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Len reports the number of tasks queued and not yet dequeued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
