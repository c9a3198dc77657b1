package hub

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.Clients() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("clients = %d, want %d", h.Clients(), n)
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	counts := make(chan int, 8)
	h := New(nil, func(n int) { counts <- n })
	ts := httptest.NewServer(h)
	defer ts.Close()

	a := dial(t, ts.URL)
	b := dial(t, ts.URL)
	waitClients(t, h, 2)

	h.Broadcast(EventOrderStatusUpdate, map[string]any{"order_id": 3, "status": "ready"})

	for _, ws := range []*websocket.Conn{a, b} {
		_ = ws.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, EventOrderStatusUpdate, msg.Type)
		assert.Equal(t, "ready", msg.Data["status"])
	}

	assert.ElementsMatch(t, []int{1, 2}, []int{<-counts, <-counts})
}

func TestHub_RemovesDisconnectedClients(t *testing.T) {
	h := New(nil, nil)
	ts := httptest.NewServer(h)
	defer ts.Close()

	ws := dial(t, ts.URL)
	waitClients(t, h, 1)

	require.NoError(t, ws.Close())
	waitClients(t, h, 0)
}

func TestHub_Close(t *testing.T) {
	h := New(nil, nil)
	ts := httptest.NewServer(h)
	defer ts.Close()

	ws := dial(t, ts.URL)
	waitClients(t, h, 1)

	h.Close()
	assert.Equal(t, 0, h.Clients())

	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := ws.ReadMessage()
	assert.Error(t, err)
}

func TestConn_SendAfterClose(t *testing.T) {
	c := &Conn{send: make(chan []byte, 1), done: make(chan struct{})}
	c.Close()

	assert.ErrorIs(t, c.Send(map[string]string{"a": "b"}), ErrClosed)
}

func TestConn_SlowClient(t *testing.T) {
	c := &Conn{send: make(chan []byte, 1), done: make(chan struct{})}

	require.NoError(t, c.sendRaw([]byte("1")))
	assert.ErrorIs(t, c.sendRaw([]byte("2")), ErrSlowClient)
}
