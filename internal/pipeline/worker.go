package pipeline

import (
	"context"
	"fmt"
	"time"

	"lingostream/pkg/logger"
	"lingostream/pkg/model"

	"go.uber.org/zap"
)

// TranslationBackend is the retrying translate operation the worker invokes.
// On total failure the string is a sentinel and the error is non-nil; the
// worker records the error and never sends the sentinel.
type TranslationBackend interface {
	TranslateWithRetries(ctx context.Context, text string) (string, error)
}

// Worker is the single consumer of one connection's queue. It dequeues,
// translates, and pushes results to the sink, in strict FIFO order. A task's
// failure never terminates the loop; only cooperative cancellation does.
type Worker struct {
	queue    *Queue
	registry *Registry
	backend  TranslationBackend
	sink     OutputSink
	done     chan struct{}
}

func NewWorker(queue *Queue, registry *Registry, backend TranslationBackend, sink OutputSink) *Worker {
	return &Worker{
		queue:    queue,
		registry: registry,
		backend:  backend,
		sink:     sink,
		done:     make(chan struct{}),
	}
}

// Run consumes tasks until ctx is cancelled. Cancellation takes effect at
// the next Get; a task already dequeued is allowed to finish for data
// integrity, which is why the processing context is detached from ctx.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	logger.Debug("Translation worker started")
	for {
		task, err := w.queue.Get(ctx)
		if err != nil {
			logger.Debug("Translation worker stopping", zap.Error(err))
			return
		}

		w.process(context.WithoutCancel(ctx), task)
		w.queue.TaskDone()
	}
}

// Done is closed once the worker loop has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) process(ctx context.Context, task *model.TranslationTask) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Panic while processing translation task",
				zap.String("task_id", task.TaskID),
				zap.Any("panic", rec))
			w.registry.Fail(task.TaskID, fmt.Sprintf("panic: %v", rec))
		}
	}()

	start := time.Now()
	translation, err := w.backend.TranslateWithRetries(ctx, task.Text)
	if err != nil {
		w.registry.Fail(task.TaskID, err.Error())
		return
	}

	logger.Debug("Task translated",
		zap.String("task_id", task.TaskID),
		zap.Duration("took", time.Since(start)))

	if translation == "" {
		logger.Warn("Skipping send of empty translation", zap.String("task_id", task.TaskID))
		w.registry.Complete(task.TaskID, translation)
		return
	}

	if !w.sink.IsConnected() {
		logger.Warn("Client disconnected, dropping translation", zap.String("task_id", task.TaskID))
		w.registry.Complete(task.TaskID, translation)
		return
	}

	w.sink.Send(model.Message{
		Type:    model.MessageTypeTranslated,
		Result:  translation,
		Speaker: task.SpeakerID,
	})
	w.registry.Complete(task.TaskID, translation)
}
