package pipeline

import (
	"context"

	"lingostream/pkg/logger"
)

// Pipeline owns one connection's queue, registry, router and worker. All
// four share the connection's lifetime: created together, torn down
// together. Nothing is shared across connections.
type Pipeline struct {
	queue    *Queue
	registry *Registry
	router   *Router
	worker   *Worker
	cancel   context.CancelFunc
}

// New assembles a pipeline around the given sink and backend and starts the
// worker goroutine.
func New(sink OutputSink, backend TranslationBackend) *Pipeline {
	queue := NewQueue()
	registry := NewRegistry()
	router := NewRouter(queue, registry, sink)
	worker := NewWorker(queue, registry, backend, sink)

	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)

	return &Pipeline{
		queue:    queue,
		registry: registry,
		router:   router,
		worker:   worker,
		cancel:   cancel,
	}
}

// Router exposes the event entry points for the speech engine.
func (p *Pipeline) Router() *Router {
	return p.router
}

// Registry exposes task records for diagnostics.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Queue exposes the queue, primarily for Join-based synchronization.
func (p *Pipeline) Queue() *Queue {
	return p.queue
}

// Drain blocks until every enqueued task has been processed or ctx is done.
func (p *Pipeline) Drain(ctx context.Context) error {
	return p.queue.Join(ctx)
}

// Close stops accepting tasks and cancels the worker, waiting for its loop
// to exit. A task in flight is allowed to finish.
func (p *Pipeline) Close(ctx context.Context) error {
	p.queue.Close()
	p.cancel()

	select {
	case <-p.worker.Done():
		logger.Debug("Pipeline closed")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
