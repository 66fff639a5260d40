package speech

import (
	"lingostream/pkg/model"
)

// Listener receives transcription events from an engine. Callbacks run on
// the engine's delivery goroutine, not the connection's main goroutine;
// implementations must return quickly and must not panic.
type Listener interface {
	// OnInterim delivers a partial, possibly-revised recognition result.
	OnInterim(event model.TranscriptionEvent)
	// OnFinal delivers the recognition result for a complete utterance,
	// exactly once per utterance.
	OnFinal(event model.TranscriptionEvent)
}

// Engine is a live speech recognition input stream. Audio bytes are pushed
// in receipt order. Close must be called exactly once; it finalizes
// outstanding utterances and stops event delivery.
type Engine interface {
	WriteAudio(data []byte) error
	Close() error
}
