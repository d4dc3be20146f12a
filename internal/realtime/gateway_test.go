package realtime

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticVerifier map[string]uint

func (v staticVerifier) UserIDFromToken(token string) (uint, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func queryToken(r *http.Request) string { return r.URL.Query().Get("token") }

func newTestGateway(t *testing.T) (*Registry, *httptest.Server) {
	t.Helper()

	registry := NewRegistry()
	gw := NewGateway(registry, NewRegistryPresence(registry), staticVerifier{"good": 42, "other": 43}, queryToken, GatewayOptions{
		PingInterval: time.Second,
		WriteTimeout: time.Second,
		SendBuffer:   8,
	}, zap.NewNop().Sugar())

	e := echo.New()
	e.GET("/ws", gw.Handle)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return registry, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGateway_PushReachesConnectedUser(t *testing.T) {
	registry, srv := newTestGateway(t)
	conn := dial(t, srv, "good")

	require.Eventually(t, func() bool {
		_, ok := registry.Lookup(42)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []uint{42}, readActive(t, conn))

	d := NewDispatcher(registry, zap.NewNop().Sugar())
	d.Dispatch(42, models.Notification{
		ID:         "n-1",
		Type:       models.NotificationFollow,
		SenderID:   7,
		ReceiverID: 42,
		Message:    "Started following you",
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string              `json:"event"`
		Data  models.Notification `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "notification:42", frame.Event)
	assert.Equal(t, "n-1", frame.Data.ID)
	assert.Equal(t, uint(7), frame.Data.SenderID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func readActive(t *testing.T, conn *websocket.Conn) []uint {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string      `json:"event"`
		Data  ActiveUsers `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, UsersActiveEvent, frame.Event)
	return frame.Data.UserIDs
}

func TestGateway_BroadcastsActiveUsers(t *testing.T) {
	_, srv := newTestGateway(t)

	first := dial(t, srv, "good")
	assert.Equal(t, []uint{42}, readActive(t, first))

	second := dial(t, srv, "other")
	assert.Equal(t, []uint{42, 43}, readActive(t, first))
	assert.Equal(t, []uint{42, 43}, readActive(t, second))

	require.NoError(t, second.Close())
	assert.Equal(t, []uint{42}, readActive(t, first))
}

func TestGateway_RejectsInvalidToken(t *testing.T) {
	registry, srv := newTestGateway(t)
	conn := dial(t, srv, "forged")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string `json:"event"`
		Data  struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "exception", frame.Event)
	assert.False(t, frame.Data.Success)
	assert.Equal(t, InvalidCredentialsMessage, frame.Data.Message)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
	assert.Zero(t, registry.Len())
}
