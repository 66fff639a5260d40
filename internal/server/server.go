package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"lingostream/internal/pipeline"
	"lingostream/internal/recording"
	"lingostream/internal/speech"
	"lingostream/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EngineFactory creates a speech engine delivering events to the listener.
// One engine per connection.
type EngineFactory func(listener speech.Listener) (speech.Engine, error)

// RecorderFactory creates the audio archive for one connection.
type RecorderFactory func(connectionID string) (recording.Recorder, error)

// Server exposes the websocket relay endpoint and the static client files.
type Server struct {
	addr        string
	staticDir   string
	backend     pipeline.TranslationBackend
	newEngine   EngineFactory
	newRecorder RecorderFactory
	upgrader    websocket.Upgrader
	httpServer  *http.Server

	connsMu sync.Mutex
	conns   map[*websocket.Conn]struct{}
	active  sync.WaitGroup
}

func New(addr, staticDir string, backend pipeline.TranslationBackend, engines EngineFactory, recorders RecorderFactory) *Server {
	return &Server{
		addr:        addr,
		staticDir:   staticDir,
		backend:     backend,
		newEngine:   engines,
		newRecorder: recorders,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebsocket)
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}

	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	logger.Info("Server listening", zap.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		s.drainConnections(shutdownCtx)
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) trackConn(conn *websocket.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) untrackConn(conn *websocket.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

// drainConnections unblocks every live websocket session and waits for its
// teardown. Shutdown does not touch hijacked connections, so each receive
// loop is kicked out of ReadMessage by expiring the read deadline; the
// socket stays writable while the connection closes its engine and drains
// its translation queue.
func (s *Server) drainConnections(ctx context.Context) {
	s.connsMu.Lock()
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = conn.SetReadDeadline(time.Now())
	}
	s.connsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("Gave up waiting for connection teardown", zap.Error(ctx.Err()))
	}
}
