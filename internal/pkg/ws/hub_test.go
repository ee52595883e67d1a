package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/pubsub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// startServer 所有连接都注册为 userID，直到客户端断开
func startServer(t *testing.T, hub *Hub, userID int64) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{UserID: userID, Conn: conn}
		hub.Register(client)
		defer hub.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_Empty(t *testing.T) {
	hub := NewHub(logging.Discard())

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, hub.IsOnline(123))
	assert.NoError(t, hub.SendToUser(123, &Message{Type: "test"}))
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub(logging.Discard())
	url := startServer(t, hub, 100)

	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.IsOnline(100) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.ConnectionCount())

	conn.Close()
	require.Eventually(t, func() bool { return !hub.IsOnline(100) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_SendToUser_AllConnections(t *testing.T) {
	hub := NewHub(logging.Discard())
	url := startServer(t, hub, 200)

	a := dial(t, url)
	b := dial(t, url)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.SendToUser(200, &Message{Type: "ping", Data: "hello"}))

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "ping", msg.Type)
		assert.Equal(t, "hello", msg.Data)
	}
}

func TestHub_ForwardProgress(t *testing.T) {
	hub := NewHub(logging.Discard())
	ownerURL := startServer(t, hub, 300)
	otherURL := startServer(t, hub, 301)

	owner := dial(t, ownerURL)
	other := dial(t, otherURL)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.ForwardProgress(&pubsub.ProgressMessage{
		Type:     "flyer_progress",
		UserID:   300,
		JobID:    5,
		Status:   "completed",
		Step:     pubsub.StepDone,
		Progress: 100,
		URL:      "/flyers/a.png",
	})

	owner.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := owner.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string                 `json:"type"`
		Data pubsub.ProgressMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "flyer_progress", msg.Type)
	assert.Equal(t, int64(5), msg.Data.JobID)
	assert.Equal(t, "/flyers/a.png", msg.Data.URL)

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}
