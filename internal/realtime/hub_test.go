package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hackspeech/internal/events"
	"hackspeech/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T, userID int64) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(nil, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, userID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.IsOnline(userID) }, time.Second, 10*time.Millisecond)
	return hub, conn
}

func TestPresence(t *testing.T) {
	hub, conn := startHub(t, 42)

	assert.True(t, hub.IsOnline(42))
	assert.False(t, hub.IsOnline(7))
	assert.Equal(t, 1, hub.OnlineCount())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return !hub.IsOnline(42) }, time.Second, 10*time.Millisecond)
}

func TestSendToUser(t *testing.T) {
	hub, conn := startHub(t, 42)

	assert.Equal(t, 0, hub.SendToUser(7, Message{Type: "noop"}))
	assert.Equal(t, 1, hub.SendToUser(42, Message{Type: "hello", Data: map[string]int{"n": 1}}))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"hello","data":{"n":1}}`, string(payload))
}

func TestForwardsBusEvents(t *testing.T) {
	hub, conn := startHub(t, 42)
	bus := events.NewEventBus(nil, zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })
	require.NoError(t, hub.Subscribe(bus))

	bus.Publish(context.Background(), events.NewBadgeUnlockedEvent(42, &models.Badge{ID: 1, Name: "Premier pas", Emoji: "👣"}))
	bus.Publish(context.Background(), events.NewChatClearedEvent(42, 3))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string `json:"type"`
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, events.TypeBadgeUnlocked, msg.Type)
	assert.Equal(t, "Premier pas", msg.Data.Name)
}

func TestCheckOrigin(t *testing.T) {
	hub := NewHub([]string{"https://app.hackspeech.fr"}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, hub.upgrader.CheckOrigin(r))

	r.Header.Set("Origin", "https://app.hackspeech.fr")
	assert.True(t, hub.upgrader.CheckOrigin(r))
}
