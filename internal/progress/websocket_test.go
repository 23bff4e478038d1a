package progress

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketHub_BroadcastsToClients(t *testing.T) {
	hub := NewWebSocketHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Notify(context.Background(), Notification{Type: TypeCompleted, TaskID: "t1", Result: "ok"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, TypeCompleted, got.Type)
	assert.Equal(t, "t1", got.TaskID)
	assert.Equal(t, "ok", got.Result)
}

func TestWebSocketHub_NoClients(t *testing.T) {
	hub := NewWebSocketHub(nil)
	assert.NoError(t, hub.Notify(context.Background(), Notification{TaskID: "t"}))
	assert.Equal(t, 0, hub.Clients())
}
