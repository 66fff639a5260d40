package server

import (
	"context"
	"net/http"
	"time"

	"lingostream/internal/pipeline"
	"lingostream/internal/recording"
	"lingostream/internal/speech"
	"lingostream/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const drainTimeout = 15 * time.Second

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	s.active.Add(1)
	defer s.active.Done()
	s.trackConn(conn)
	defer s.untrackConn(conn)

	connectionID := ulid.Make().String()
	logger.Info("Client connected", zap.String("connection_id", connectionID))

	sink := NewWebsocketSink(conn)
	pipe := pipeline.New(sink, s.backend)

	engine, err := s.newEngine(pipe.Router())
	if err != nil {
		logger.Error("Failed to start speech engine",
			zap.String("connection_id", connectionID),
			zap.Error(err))
		closePipeline(pipe)
		conn.Close()
		return
	}

	recorder, err := s.newRecorder(connectionID)
	if err != nil {
		logger.Warn("Recording disabled for connection",
			zap.String("connection_id", connectionID),
			zap.Error(err))
		recorder = recording.NopRecorder{}
	}

	s.serveConnection(connectionID, conn, sink, pipe, engine, recorder)
}

// serveConnection runs the receive loop and tears the connection's pipeline
// down in order: finalize recognition, drain pending translations, stop the
// worker, then release the transport.
func (s *Server) serveConnection(
	connectionID string,
	conn *websocket.Conn,
	sink *WebsocketSink,
	pipe *pipeline.Pipeline,
	engine speech.Engine,
	recorder recording.Recorder,
) {
	ctx := context.Background()
	chunks := 0

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			logger.Info("Client disconnected",
				zap.String("connection_id", connectionID),
				zap.Int("chunks", chunks),
				zap.Error(err))
			break
		}

		switch messageType {
		case websocket.BinaryMessage:
			chunks++
			if err := recorder.SaveChunk(ctx, data); err != nil {
				logger.Warn("Failed to archive audio chunk",
					zap.String("connection_id", connectionID),
					zap.Error(err))
			}
			if err := engine.WriteAudio(data); err != nil {
				logger.Warn("Failed to push audio to speech engine",
					zap.String("connection_id", connectionID),
					zap.Error(err))
			}
		default:
			logger.Debug("Ignoring non-binary client message",
				zap.String("connection_id", connectionID),
				zap.Int("message_type", messageType))
		}
	}

	if err := engine.Close(); err != nil {
		logger.Warn("Failed to close speech engine",
			zap.String("connection_id", connectionID),
			zap.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	if err := pipe.Drain(drainCtx); err != nil {
		logger.Warn("Gave up draining translation queue",
			zap.String("connection_id", connectionID),
			zap.Error(err))
	}
	closePipeline(pipe)

	if err := recorder.Close(); err != nil {
		logger.Warn("Failed to close recorder",
			zap.String("connection_id", connectionID),
			zap.Error(err))
	}

	sink.MarkClosed()
	conn.Close()

	logger.Info("Connection closed", zap.String("connection_id", connectionID))
}

func closePipeline(pipe *pipeline.Pipeline) {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pipe.Close(closeCtx); err != nil {
		logger.Warn("Pipeline close timed out", zap.Error(err))
	}
}
