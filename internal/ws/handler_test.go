package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/slingshot/internal/auth"
	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv *httptest.Server
	mgr *game.SessionManager
	hub *Hub
	cfg *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	cfg := &config.Config{TickRate: 60, JWTSecret: "test-secret", SessionIdleSeconds: 60}
	mgr := game.NewSessionManager(ctx, nil, nil, cfg, game.DefaultTuning())
	hub := NewHub()
	mgr.SetFrameHandler(hub.BroadcastFrame)
	mgr.SetEventHandler(hub.BroadcastEvent)
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/sessions/:id/ws", NewHandler(hub, mgr, cfg).ServeSession)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{srv: srv, mgr: mgr, hub: hub, cfg: cfg}
}

func (ts *testServer) url(id, token string) string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/sessions/" + id + "/ws?token=" + token
}

// readType reads messages until one of the given type arrives.
func readType(t *testing.T, conn *websocket.Conn, kind string) map[string]json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if string(msg["type"]) == `"`+kind+`"` {
			return msg
		}
	}
}

func TestSocketRejectsForeignToken(t *testing.T) {
	ts := newTestServer(t)
	s, err := ts.mgr.Create("", false)
	require.NoError(t, err)

	other, _, err := auth.IssueSessionToken(ts.cfg.JWTSecret, "someone-else", time.Minute)
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(ts.url(s.ID, other), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(ts.url(s.ID, ""), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSocketDrivesSession(t *testing.T) {
	ts := newTestServer(t)
	s, err := ts.mgr.Create("paintball", false)
	require.NoError(t, err)
	token, _, err := auth.IssueSessionToken(ts.cfg.JWTSecret, s.ID, time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(ts.url(s.ID, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ts.hub.Connected(s.ID) }, time.Second, 5*time.Millisecond)

	send := func(kind string, data interface{}) {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		require.NoError(t, conn.WriteJSON(WSMessage{Type: kind, Data: raw}))
	}

	send("get_frame", nil)
	msg := readType(t, conn, "frame")
	var f game.Frame
	require.NoError(t, json.Unmarshal(msg["data"], &f))
	assert.Equal(t, "paintball", f.Course)

	send("viewport", ViewportData{Width: 800, Height: 800})
	send("pointer_down", PointerData{X: 400, Y: 400})
	send("pointer_up", PointerData{X: 400, Y: 700})

	ev := readType(t, conn, "session_event")
	var se game.SessionEvent
	require.NoError(t, json.Unmarshal(ev["data"], &se))
	assert.Equal(t, "launch", se.Kind)
	assert.Equal(t, 1, se.Shot)

	send("teleport", nil)
	readType(t, conn, "error")
}

func TestEndedSessionClosesSocket(t *testing.T) {
	ts := newTestServer(t)
	s, err := ts.mgr.Create("", false)
	require.NoError(t, err)
	token, _, err := auth.IssueSessionToken(ts.cfg.JWTSecret, s.ID, time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(ts.url(s.ID, token), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return ts.hub.Connected(s.ID) }, time.Second, 5*time.Millisecond)

	require.NoError(t, ts.mgr.End(s.ID))
	assert.False(t, ts.hub.Connected(s.ID))

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
