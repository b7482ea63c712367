package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomForEvent(t *testing.T) {
	assert.Equal(t, "event-12", RoomForEvent(12))
}

func TestBroadcastReachesRoomOnly(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("room"))
	}))
	defer srv.Close()

	dial := func(room string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?room=" + room
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		return conn
	}
	a := dial("event-1")
	defer a.Close()
	b := dial("event-2")
	defer b.Close()

	require.Eventually(t, func() bool {
		return hub.Count("event-1") == 1 && hub.Count("event-2") == 1
	}, 2*time.Second, 10*time.Millisecond)

	n, err := hub.Broadcast("event-1", GuestRegistered, map[string]any{"guest_id": 5})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_ = a.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env struct {
		Event string         `json:"event"`
		Room  string         `json:"room"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, a.ReadJSON(&env))
	assert.Equal(t, GuestRegistered, env.Event)
	assert.Equal(t, "event-1", env.Room)
	assert.Equal(t, float64(5), env.Data["guest_id"])

	_ = b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err, "other rooms receive nothing")
}

func TestLeaveOnClose(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, "event-3")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Count("event-3") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count("event-3") == 0 }, 2*time.Second, 10*time.Millisecond)

	n, err := hub.Broadcast("event-3", SeatingOptimized, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
