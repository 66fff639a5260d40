package pipeline

import (
	"lingostream/pkg/model"
)

// OutputSink abstracts the outbound client transport. Implementations must
// swallow transport-level send errors; a dead client must not crash the
// worker or the router. IsConnected must tolerate being called after the
// underlying transport has become invalid and report false instead of
// panicking.
type OutputSink interface {
	Send(msg model.Message)
	IsConnected() bool
}
