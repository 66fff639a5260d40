package pipeline

import (
	"sync"
	"time"

	"lingostream/pkg/logger"
	"lingostream/pkg/model"

	"go.uber.org/zap"
)

// Registry maps task IDs to their records for one connection. The router and
// the worker run on different goroutines, so all record mutation goes through
// the registry's lock.
type Registry struct {
	mu      sync.Mutex
	records map[string]*model.TaskRecord
}

func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*model.TaskRecord),
	}
}

// Create registers a pending record. It must be called strictly before the
// task is enqueued. A duplicate ID overwrites the previous record (last
// write wins; IDs are generated per connection and should never collide).
func (r *Registry) Create(taskID, text, speakerID string) *model.TaskRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[taskID]; exists {
		logger.Warn("Duplicate task ID, overwriting record", zap.String("task_id", taskID))
	}

	record := &model.TaskRecord{
		TaskID:     taskID,
		Text:       text,
		SpeakerID:  speakerID,
		EnqueuedAt: time.Now(),
	}
	r.records[taskID] = record
	return record
}

// Get returns a copy of the record for taskID.
func (r *Registry) Get(taskID string) (model.TaskRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[taskID]
	if !ok {
		return model.TaskRecord{}, false
	}
	return *record, true
}

// Complete moves the record to its completed state.
func (r *Registry) Complete(taskID, translation string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[taskID]
	if !ok {
		logger.Warn("Completing unknown task", zap.String("task_id", taskID))
		return
	}
	record.SetCompleted(translation, time.Now())
}

// Fail moves the record to its failed state.
func (r *Registry) Fail(taskID, errorText string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[taskID]
	if !ok {
		logger.Warn("Failing unknown task", zap.String("task_id", taskID))
		return
	}
	record.SetError(errorText)
}

// Len reports the number of records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Records returns a snapshot of all records, for diagnostics.
func (r *Registry) Records() []model.TaskRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.TaskRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, *record)
	}
	return out
}
