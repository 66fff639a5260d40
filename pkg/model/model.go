package model

import (
	"time"
)

// Message type values sent to the client. These are the wire contract.
const (
	MessageTypeRecognizing = "recognizing"
	MessageTypeRecognized  = "recognized"
	MessageTypeTranslated  = "translated"
)

// Message is the outbound client message for all three event kinds.
type Message struct {
	Type    string `json:"type"`
	Result  string `json:"result"`
	Speaker string `json:"speaker"`
}

// TranscriptionEvent is one recognition result delivered by the speech engine.
type TranscriptionEvent struct {
	Text      string
	SpeakerID string
	IsFinal   bool
}

// TranslationTask is one unit of translation work tied to a final transcript.
// It is owned by the queue from Put until the worker dequeues it.
type TranslationTask struct {
	TaskID    string
	Text      string
	SpeakerID string
}

// TaskRecord tracks the timing and outcome of one translation task. It is
// created before the task is enqueued and lives for the connection's duration.
type TaskRecord struct {
	TaskID      string     `json:"task_id"`
	Text        string     `json:"text"`
	SpeakerID   string     `json:"speaker_id"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Duration    *float64   `json:"duration,omitempty"`
	Translation *string    `json:"translation,omitempty"`
	ErrorText   *string    `json:"error_text,omitempty"`
}

// IsPending returns true while the record has no terminal state.
func (r *TaskRecord) IsPending() bool {
	return r.CompletedAt == nil && r.ErrorText == nil
}

// IsCompleted returns true once the task translated successfully.
func (r *TaskRecord) IsCompleted() bool {
	return r.CompletedAt != nil
}

// IsFailed returns true once the task failed terminally.
func (r *TaskRecord) IsFailed() bool {
	return r.ErrorText != nil
}

// SetCompleted moves the record to its completed state. The transition is
// ignored if the record already reached a terminal state.
func (r *TaskRecord) SetCompleted(translation string, completedAt time.Time) {
	if !r.IsPending() {
		return
	}
	duration := completedAt.Sub(r.EnqueuedAt).Seconds()
	r.CompletedAt = &completedAt
	r.Duration = &duration
	r.Translation = &translation
}

// SetError moves the record to its failed state. The transition is ignored
// if the record already reached a terminal state.
func (r *TaskRecord) SetError(errorText string) {
	if !r.IsPending() {
		return
	}
	r.ErrorText = &errorText
}
