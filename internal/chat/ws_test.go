package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/store"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newWSServer(t *testing.T) (*Hub, string) {
	t.Helper()
	h := NewHub(store.NewMemoryLog())
	go h.Run()
	t.Cleanup(func() { close(h.Quit) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(h, conn)
		h.Register <- client
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)

	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: raw}))
}

func readEvent(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestWebsocket_JoinAndRelay(t *testing.T) {
	req := require.New(t)
	_, url := newWSServer(t)

	x := dial(t, url)
	y := dial(t, url)

	sendEvent(t, x, EventJoin, "u1")
	env := readEvent(t, x)
	req.Equal(EventChatHistory, env.Event)
	req.Empty(decodeData[[]models.Message](t, env))

	sendEvent(t, y, EventJoin, "u2")
	env = readEvent(t, y)
	req.Equal(EventChatHistory, env.Event)

	sendEvent(t, x, EventChatMessage, models.Message{FromID: "u1", ToID: "u2", Text: "hi"})

	for _, conn := range []*websocket.Conn{x, y} {
		env := readEvent(t, conn)
		req.Equal(EventChatMessage, env.Event)
		msg := decodeData[models.Message](t, env)
		req.Equal("hi", msg.Text)
		req.Positive(msg.Timestamp)
	}
}

func TestWebsocket_HistoryReplayOnRejoin(t *testing.T) {
	req := require.New(t)
	_, url := newWSServer(t)

	x := dial(t, url)
	sendEvent(t, x, EventJoin, "u1")
	readEvent(t, x) // empty history
	sendEvent(t, x, EventChatMessage, models.Message{FromID: "u1", ToID: "u2", Text: "hi"})
	readEvent(t, x) // echo
	req.NoError(x.Close())

	// A fresh connection joining the same identity gets the full
	// backlog, not just messages since it connected.
	rejoined := dial(t, url)
	sendEvent(t, rejoined, EventJoin, "u1")
	env := readEvent(t, rejoined)
	req.Equal(EventChatHistory, env.Event)

	history := decodeData[[]models.Message](t, env)
	req.Len(history, 1)
	req.Equal("hi", history[0].Text)
}

func TestWebsocket_MalformedPayloadsGetErrorEvents(t *testing.T) {
	req := require.New(t)
	h, url := newWSServer(t)

	x := dial(t, url)

	req.NoError(x.WriteMessage(websocket.TextMessage, []byte("not json")))
	env := readEvent(t, x)
	req.Equal(EventError, env.Event)

	sendEvent(t, x, EventJoin, "")
	env = readEvent(t, x)
	req.Equal(EventError, env.Event)

	sendEvent(t, x, EventChatMessage, map[string]string{"fromId": "u1"})
	env = readEvent(t, x)
	req.Equal(EventError, env.Event)

	sendEvent(t, x, "presence", nil)
	env = readEvent(t, x)
	req.Equal(EventError, env.Event)

	// Nothing reached the log and the connection is still usable.
	req.Equal(0, h.Stats().Messages)
	sendEvent(t, x, EventJoin, "u1")
	env = readEvent(t, x)
	req.Equal(EventChatHistory, env.Event)
}

func TestWebsocket_DisconnectedPeerDoesNotBreakRelay(t *testing.T) {
	req := require.New(t)
	h, url := newWSServer(t)

	x := dial(t, url)
	y := dial(t, url)
	sendEvent(t, x, EventJoin, "u1")
	readEvent(t, x)
	sendEvent(t, y, EventJoin, "u2")
	readEvent(t, y)

	req.NoError(y.Close())
	require.Eventually(t, func() bool { return h.Stats().Clients == 1 }, 2*time.Second, 20*time.Millisecond)

	// Messages to the departed user are logged and echoed to the
	// sender without erroring the server.
	sendEvent(t, x, EventChatMessage, models.Message{FromID: "u1", ToID: "u2", Text: "you there?"})
	env := readEvent(t, x)
	req.Equal(EventChatMessage, env.Event)
	req.Equal(1, h.Stats().Messages)
}
