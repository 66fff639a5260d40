package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lingostream/pkg/model"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sinkPair upgrades a loopback websocket and returns the server-side sink
// plus the client-side connection for reading what the sink sent.
func sinkPair(t *testing.T) (*WebsocketSink, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	ready := make(chan *websocket.Conn, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ready <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	var serverConn *websocket.Conn
	select {
	case serverConn = <-ready:
	case <-time.After(time.Second):
		t.Fatal("server side never upgraded")
	}
	t.Cleanup(func() { serverConn.Close() })

	return NewWebsocketSink(serverConn), client
}

func TestWebsocketSink_SendsWireFormat(t *testing.T) {
	sink, client := sinkPair(t)

	sink.Send(model.Message{
		Type:    model.MessageTypeTranslated,
		Result:  "你好",
		Speaker: "spk1",
	})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	var got map[string]interface{}
	require.NoError(t, client.ReadJSON(&got))

	assert.Equal(t, "translated", got["type"])
	assert.Equal(t, "你好", got["result"])
	assert.Equal(t, "spk1", got["speaker"])
}

func TestWebsocketSink_MarkClosed(t *testing.T) {
	sink, _ := sinkPair(t)

	assert.True(t, sink.IsConnected())
	sink.MarkClosed()
	assert.False(t, sink.IsConnected())
}

func TestWebsocketSink_SendAfterCloseIsSilent(t *testing.T) {
	sink, client := sinkPair(t)
	sink.MarkClosed()

	assert.NotPanics(t, func() {
		sink.Send(model.Message{Type: model.MessageTypeRecognizing, Result: "hi"})
	})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	var got map[string]interface{}
	assert.Error(t, client.ReadJSON(&got))
}

func TestWebsocketSink_WriteFailureMarksDisconnected(t *testing.T) {
	sink, client := sinkPair(t)

	// Kill the transport out from under the sink.
	require.NoError(t, client.Close())
	sink.conn.Close()

	assert.NotPanics(t, func() {
		sink.Send(model.Message{Type: model.MessageTypeRecognized, Result: "hi"})
	})
	assert.False(t, sink.IsConnected())
}

func TestWebsocketSink_SlowClientTripsWriteDeadline(t *testing.T) {
	// The client side never reads, so the socket buffers eventually fill and
	// writes must time out instead of blocking the sender forever.
	sink, _ := sinkPair(t)
	sink.writeTimeout = 50 * time.Millisecond

	payload := strings.Repeat("x", 1<<20)
	start := time.Now()
	for i := 0; i < 64 && sink.IsConnected(); i++ {
		sink.Send(model.Message{
			Type:    model.MessageTypeTranslated,
			Result:  payload,
			Speaker: "spk1",
		})
	}

	assert.False(t, sink.IsConnected())
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestWebsocketSink_NilConnNeverConnected(t *testing.T) {
	sink := NewWebsocketSink(nil)
	assert.False(t, sink.IsConnected())
	assert.NotPanics(t, func() {
		sink.Send(model.Message{Type: model.MessageTypeRecognizing, Result: "hi"})
	})
}
