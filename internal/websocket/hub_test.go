package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func startRelay(t *testing.T) (*Hub, string) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	hub := NewHub(logger)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocket(hub, c, logger)
	})
	server := httptest.NewServer(e)

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
	})

	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForPeers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Count() == n }, 2*time.Second, 10*time.Millisecond)
}

func readMessage(conn *websocket.Conn, wait time.Duration) (int, []byte, error) {
	conn.SetReadDeadline(time.Now().Add(wait))
	return conn.ReadMessage()
}

func TestHub_BroadcastToOtherPeers(t *testing.T) {
	hub, url := startRelay(t)

	sender := dial(t, url)
	first := dial(t, url)
	second := dial(t, url)
	waitForPeers(t, hub, 3)

	payload := []byte(`{"zoom":true}`)
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, payload))

	for _, conn := range []*websocket.Conn{first, second} {
		messageType, got, err := readMessage(conn, time.Second)
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, messageType)
		assert.Equal(t, payload, got)

		_, _, err = readMessage(conn, 150*time.Millisecond)
		assert.Error(t, err, "each peer receives the message exactly once")
	}

	_, _, err := readMessage(sender, 150*time.Millisecond)
	assert.Error(t, err, "sender must not receive its own message")
}

func TestHub_BinaryPayloadForwardedVerbatim(t *testing.T) {
	hub, url := startRelay(t)

	sender := dial(t, url)
	receiver := dial(t, url)
	waitForPeers(t, hub, 2)

	payload := []byte{0x00, 0xff, 0x10, 0x20}
	require.NoError(t, sender.WriteMessage(websocket.BinaryMessage, payload))

	messageType, got, err := readMessage(receiver, time.Second)
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)
	assert.Equal(t, payload, got)
}

func TestHub_DisconnectedPeerIsRemoved(t *testing.T) {
	hub, url := startRelay(t)

	sender := dial(t, url)
	leaving := dial(t, url)
	staying := dial(t, url)
	waitForPeers(t, hub, 3)

	require.NoError(t, leaving.Close())
	waitForPeers(t, hub, 2)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("hello")))

	_, got, err := readMessage(staying, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestHub_BroadcastDropsSlowPeer(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	go hub.Run()
	defer hub.Stop()

	sender := &Peer{hub: hub, id: "sender", send: make(chan WriteData, 1)}
	slow := &Peer{hub: hub, id: "slow", send: make(chan WriteData)}
	fast := &Peer{hub: hub, id: "fast", send: make(chan WriteData, 4)}
	for _, p := range []*Peer{sender, slow, fast} {
		hub.register <- p
	}
	waitForPeers(t, hub, 3)

	delivered := hub.Broadcast(sender, websocket.TextMessage, []byte("x"))
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 2, hub.Count())

	_, open := <-slow.send
	assert.False(t, open, "slow peer send channel should be closed")
	assert.Len(t, fast.send, 1)
	assert.Empty(t, sender.send)
}
