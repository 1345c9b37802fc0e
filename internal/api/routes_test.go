package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/game"
	"github.com/playmatatu/slingshot/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type created struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	WSURL     string `json:"ws_url"`
	Course    string `json:"course"`
}

func setupRouter(t *testing.T) (*gin.Engine, *game.SessionManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Environment:           "test",
		TickRate:              60,
		JWTSecret:             "test-secret",
		SessionTokenTTLMinute: 5,
		SessionIdleSeconds:    60,
	}
	mgr := game.NewSessionManager(ctx, nil, nil, cfg, game.DefaultTuning())
	hub := ws.NewHub()
	go hub.Run(ctx)

	router := gin.New()
	SetupRoutes(router, nil, mgr, hub, cfg)
	return router, mgr
}

func do(router *gin.Engine, method, path string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine, body string) created {
	t.Helper()
	var b []byte
	if body != "" {
		b = []byte(body)
	}
	w := do(router, http.MethodPost, "/api/v1/sessions", b, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp created
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t)
	w := do(router, http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Equal(t, "no-store, no-cache, must-revalidate, max-age=0", w.Header().Get("Cache-Control"))
}

func TestCreateAndReadSession(t *testing.T) {
	router, mgr := setupRouter(t)

	resp := createSession(t, router, `{"course":"golf","vr":true}`)
	assert.Equal(t, "golf", resp.Course)
	assert.NotEmpty(t, resp.Token)
	assert.Contains(t, resp.WSURL, "/api/v1/sessions/"+resp.SessionID+"/ws?token=")
	assert.Equal(t, 1, mgr.Count())

	w := do(router, http.MethodGet, "/api/v1/sessions/"+resp.SessionID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var f game.Frame
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	assert.Equal(t, "golf", f.Course)
	assert.Equal(t, game.TargetHole, f.Target.Kind)
}

func TestCreateSessionDefaultsCourse(t *testing.T) {
	router, _ := setupRouter(t)
	resp := createSession(t, router, "")
	assert.Equal(t, game.DefaultCourse, resp.Course)
}

func TestCreateSessionUnknownCourse(t *testing.T) {
	router, mgr := setupRouter(t)
	w := do(router, http.MethodPost, "/api/v1/sessions", []byte(`{"course":"darts"}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mgr.Count())
}

func TestGetMissingSession(t *testing.T) {
	router, _ := setupRouter(t)
	w := do(router, http.MethodGet, "/api/v1/sessions/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndSessionRequiresItsToken(t *testing.T) {
	router, mgr := setupRouter(t)
	a := createSession(t, router, "")
	b := createSession(t, router, "")
	path := "/api/v1/sessions/" + a.SessionID

	w := do(router, http.MethodDelete, path, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodDelete, path, nil, map[string]string{"Authorization": "Bearer " + b.Token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodDelete, path, nil, map[string]string{"Authorization": "Bearer " + a.Token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mgr.Count())

	w = do(router, http.MethodDelete, path, nil, map[string]string{"Authorization": "Bearer " + a.Token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShotsWithoutJournal(t *testing.T) {
	router, _ := setupRouter(t)
	resp := createSession(t, router, "")
	w := do(router, http.MethodGet, "/api/v1/sessions/"+resp.SessionID+"/shots", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTuningEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	w := do(router, http.MethodGet, "/api/v1/tuning", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Tuning  game.Tuning `json:"tuning"`
		Courses []string    `json:"courses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, game.DefaultTuning(), body.Tuning)
	assert.ElementsMatch(t, game.CourseNames(), body.Courses)

	w = do(router, http.MethodPut, "/api/v1/operator/tuning", []byte(`{"gravity":0.2}`), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
