package speech

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"lingostream/pkg/logger"
	"lingostream/pkg/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Chunk sizing for 16-bit PCM pushed upstream.
	minChunkDurationMs = 50
	maxChunkDurationMs = 1000

	unknownSpeaker = "unknown"
)

// Dialer establishes the upstream websocket connection. Injected for tests.
type Dialer interface {
	Dial(urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// RealtimeConfig configures the streaming recognition connection.
type RealtimeConfig struct {
	URL        string
	APIKey     string
	SampleRate int
}

// RealtimeEngine streams audio to a realtime recognition service over a
// websocket and turns its turn messages into interim/final events. Events
// are delivered from the engine's single reader goroutine, so same-stream
// events arrive at the listener in protocol order.
type RealtimeEngine struct {
	conn     *websocket.Conn
	listener Listener

	mu     sync.Mutex
	buffer []byte

	minChunkSize int
	maxChunkSize int

	closeOnce  sync.Once
	readerDone chan struct{}
}

// NewRealtimeEngine dials the recognition service and starts the reader
// goroutine delivering events to the listener.
func NewRealtimeEngine(cfg RealtimeConfig, dialer Dialer, listener Listener) (*RealtimeEngine, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stream URL: %w", err)
	}

	q := u.Query()
	q.Set("sample_rate", fmt.Sprintf("%d", cfg.SampleRate))
	q.Set("format_turns", "true")
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", cfg.APIKey)

	conn, _, err := dialer.Dial(u.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to speech engine: %w", err)
	}

	bytesPerSecond := cfg.SampleRate * 2
	e := &RealtimeEngine{
		conn:         conn,
		listener:     listener,
		minChunkSize: bytesPerSecond * minChunkDurationMs / 1000,
		maxChunkSize: bytesPerSecond * maxChunkDurationMs / 1000,
		readerDone:   make(chan struct{}),
	}

	go e.readLoop()

	logger.Info("Speech engine connected", zap.String("url", u.Host))
	return e, nil
}

// WriteAudio buffers audio and forwards it upstream in protocol-sized
// chunks. Chunks are sent whole-sample aligned.
func (e *RealtimeEngine) WriteAudio(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.buffer = append(e.buffer, data...)

	for len(e.buffer) >= e.minChunkSize {
		chunkSize := len(e.buffer)
		if chunkSize > e.maxChunkSize {
			chunkSize = e.maxChunkSize
		}
		chunkSize = (chunkSize / 2) * 2

		if err := e.conn.WriteMessage(websocket.BinaryMessage, e.buffer[:chunkSize]); err != nil {
			return fmt.Errorf("failed to send audio chunk: %w", err)
		}

		e.buffer = e.buffer[chunkSize:]
	}

	return nil
}

// Close flushes the remaining buffer, asks the service to finalize
// outstanding utterances, and waits briefly for the reader to drain the
// final events. Safe against double close from racing teardown paths.
func (e *RealtimeEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		if len(e.buffer) > 0 {
			if werr := e.conn.WriteMessage(websocket.BinaryMessage, e.buffer); werr != nil {
				logger.Warn("Failed to flush audio buffer", zap.Error(werr))
			}
			e.buffer = nil
		}
		e.mu.Unlock()

		msg, _ := json.Marshal(TerminateMessage{Type: "Terminate"})
		if werr := e.conn.WriteMessage(websocket.TextMessage, msg); werr != nil {
			logger.Warn("Failed to send terminate message", zap.Error(werr))
		}

		select {
		case <-e.readerDone:
		case <-time.After(3 * time.Second):
			logger.Warn("Timed out waiting for recognition to finalize")
		}

		err = e.conn.Close()
	})
	return err
}

func (e *RealtimeEngine) readLoop() {
	defer close(e.readerDone)

	for {
		_, data, err := e.conn.ReadMessage()
		if err != nil {
			logger.Debug("Speech engine read loop ended", zap.Error(err))
			return
		}

		if done := e.handleMessage(data); done {
			return
		}
	}
}

// handleMessage dispatches one protocol message. Returns true once the
// stream is finished.
func (e *RealtimeEngine) handleMessage(data []byte) bool {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		logger.Warn("Unparseable speech engine message", zap.Error(err))
		return false
	}

	switch base.Type {
	case "Begin":
		var msg BeginMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			logger.Info("Recognition session began", zap.String("session_id", msg.ID))
		}

	case "Turn":
		var msg TurnMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("Unparseable turn message", zap.Error(err))
			return false
		}
		e.dispatchTurn(msg)

	case "Termination":
		var msg TerminationMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			logger.Info("Recognition session terminated",
				zap.Float64("audio_seconds", msg.AudioDurationSeconds))
		}
		return true

	case "Error":
		var msg ErrorMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			logger.Error("Speech engine error",
				zap.Int("code", msg.ErrorCode),
				zap.String("message", msg.ErrorMessage))
		}
		return true

	default:
		logger.Debug("Ignoring speech engine message", zap.String("type", base.Type))
	}

	return false
}

func (e *RealtimeEngine) dispatchTurn(msg TurnMessage) {
	speaker := msg.Speaker
	if speaker == "" {
		speaker = unknownSpeaker
	}

	event := model.TranscriptionEvent{
		Text:      msg.Transcript,
		SpeakerID: speaker,
		IsFinal:   msg.TurnIsFormatted,
	}

	if event.IsFinal {
		e.listener.OnFinal(event)
	} else {
		e.listener.OnInterim(event)
	}
}
