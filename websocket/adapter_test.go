package websocket

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashish-sjc/scribblAI/domain"
)

type recordingHandler struct {
	mu           sync.Mutex
	connected    []string
	frames       []string
	disconnected []string
	echo         bool
}

func (h *recordingHandler) Connect(conn domain.Connection) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = append(h.connected, conn.ID())
	return conn.ID()
}

func (h *recordingHandler) Handle(conn domain.Connection, data []byte) {
	h.mu.Lock()
	h.frames = append(h.frames, string(data))
	h.mu.Unlock()
	if h.echo {
		conn.Send(data)
	}
}

func (h *recordingHandler) Disconnect(conn domain.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = append(h.disconnected, conn.ID())
}

func (h *recordingHandler) snapshot() (connected, frames, disconnected []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.connected...),
		append([]string(nil), h.frames...),
		append([]string(nil), h.disconnected...)
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// serve upgrades every request and hands the server side to onConn.
func serve(t *testing.T, onConn func(*websocket.Conn)) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		onConn(c)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConn_Lifecycle(t *testing.T) {
	h := &recordingHandler{echo: true}
	client := serve(t, func(c *websocket.Conn) {
		NewConn("s1", c, h, testLogger, Options{}).Start()
	})

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping"}`, string(data))

	require.NoError(t, client.Close())

	assert.Eventually(t, func() bool {
		_, _, disconnected := h.snapshot()
		return len(disconnected) == 1
	}, 5*time.Second, 10*time.Millisecond)

	connected, frames, disconnected := h.snapshot()
	assert.Equal(t, []string{"s1"}, connected)
	assert.Equal(t, []string{`{"type":"ping"}`}, frames)
	assert.Equal(t, []string{"s1"}, disconnected)
}

func TestConn_OversizedFrameClosesConnection(t *testing.T) {
	h := &recordingHandler{}
	client := serve(t, func(c *websocket.Conn) {
		NewConn("s1", c, h, testLogger, Options{MaxMessageSize: 16}).Start()
	})

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64))))

	assert.Eventually(t, func() bool {
		_, _, disconnected := h.snapshot()
		return len(disconnected) == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, frames, _ := h.snapshot()
	assert.Empty(t, frames)
}

func TestConn_Send(t *testing.T) {
	conns := make(chan *Conn, 1)
	serve(t, func(c *websocket.Conn) {
		// pumps are not started so the queue is never drained
		conns <- NewConn("s1", c, &recordingHandler{}, testLogger, Options{SendBuffer: 2})
	})

	var conn *Conn
	select {
	case conn = <-conns:
	case <-time.After(5 * time.Second):
		t.Fatal("server never accepted the connection")
	}

	assert.Equal(t, "s1", conn.ID())
	assert.NoError(t, conn.Send([]byte("a")))
	assert.NoError(t, conn.Send([]byte("b")))
	assert.ErrorIs(t, conn.Send([]byte("c")), ErrSendBufferFull)

	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Send([]byte("d")), ErrConnClosed)
}
