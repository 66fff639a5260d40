package pipeline

import (
	"sync"

	"lingostream/pkg/logger"
	"lingostream/pkg/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Router receives transcription events from the speech engine's delivery
// goroutine and fans them out: interim results go straight to the sink,
// final results are forwarded and then enqueued for translation. No error
// may escape back into the engine's delivery goroutine.
type Router struct {
	queue    *Queue
	registry *Registry
	sink     OutputSink

	// Serializes final events so two finals enqueue in receipt order even if
	// the engine ever delivers from more than one goroutine.
	mu sync.Mutex
}

func NewRouter(queue *Queue, registry *Registry, sink OutputSink) *Router {
	return &Router{
		queue:    queue,
		registry: registry,
		sink:     sink,
	}
}

// OnInterim forwards a partial transcript to the client. Fire and forget: no
// task, no retry, no ordering relationship with the translation queue.
func (r *Router) OnInterim(event model.TranscriptionEvent) {
	if event.Text == "" {
		return
	}

	r.sink.Send(model.Message{
		Type:    model.MessageTypeRecognizing,
		Result:  event.Text,
		Speaker: event.SpeakerID,
	})
}

// OnFinal forwards the final transcript to the client, then creates a task
// record and enqueues a translation task. The record is created strictly
// before the enqueue.
func (r *Router) OnFinal(event model.TranscriptionEvent) {
	if event.Text == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sink.Send(model.Message{
		Type:    model.MessageTypeRecognized,
		Result:  event.Text,
		Speaker: event.SpeakerID,
	})

	r.enqueueLocked(event.Text, event.SpeakerID, "")
}

// Enqueue schedules a translation directly, generating a task ID when none
// is supplied. ID uniqueness within the connection is the caller's contract.
func (r *Router) Enqueue(text, speakerID, taskID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enqueueLocked(text, speakerID, taskID)
}

func (r *Router) enqueueLocked(text, speakerID, taskID string) string {
	if taskID == "" {
		taskID = newTaskID()
	}

	r.registry.Create(taskID, text, speakerID)

	task := &model.TranslationTask{
		TaskID:    taskID,
		Text:      text,
		SpeakerID: speakerID,
	}
	if err := r.queue.Put(task); err != nil {
		// Dropping is deliberate: retrying a failed handoff could deliver
		// translations out of order.
		logger.Warn("Dropping final transcript, queue rejected task",
			zap.String("task_id", taskID),
			zap.Error(err))
		r.registry.Fail(taskID, err.Error())
		return taskID
	}

	logger.Debug("Translation task enqueued",
		zap.String("task_id", taskID),
		zap.String("speaker", speakerID))
	return taskID
}

func newTaskID() string {
	return uuid.New().String()[:8]
}
