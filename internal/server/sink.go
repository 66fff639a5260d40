package server

import (
	"sync"
	"sync/atomic"
	"time"

	"lingostream/pkg/logger"
	"lingostream/pkg/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 10 * time.Second

// WebsocketSink adapts a client websocket to the pipeline's output sink.
// Sends are serialized; the router and the worker write concurrently.
type WebsocketSink struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	closed       atomic.Bool
	writeTimeout time.Duration
}

func NewWebsocketSink(conn *websocket.Conn) *WebsocketSink {
	return &WebsocketSink{
		conn:         conn,
		writeTimeout: defaultWriteTimeout,
	}
}

// Send writes one JSON message to the client. Every write carries a deadline:
// a client that stops reading must not wedge the callers, since the router
// sends from the speech engine's delivery goroutine. A write failure or
// timeout marks the sink disconnected and is swallowed; a dead client must
// not crash the pipeline.
func (s *WebsocketSink) Send(msg model.Message) {
	if !s.IsConnected() {
		logger.Debug("Skipping send on closed connection", zap.String("type", msg.Type))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		logger.Warn("Failed to send message to client",
			zap.String("type", msg.Type),
			zap.Error(err))
		s.closed.Store(true)
	}
}

// IsConnected reports whether the client transport is still usable. It never
// panics, even after the underlying connection is gone.
func (s *WebsocketSink) IsConnected() bool {
	return s.conn != nil && !s.closed.Load()
}

// MarkClosed flips the sink to disconnected. Called when the receive loop
// observes the client going away.
func (s *WebsocketSink) MarkClosed() {
	s.closed.Store(true)
}
