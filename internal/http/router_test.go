package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcensies/task-trackers-synchronizer/internal/crud"
	"github.com/lcensies/task-trackers-synchronizer/internal/docstore"
	jwtutil "github.com/lcensies/task-trackers-synchronizer/internal/jwt"
	"github.com/lcensies/task-trackers-synchronizer/internal/ws"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUploader struct {
	key  string
	body []byte
	err  error
}

func (f *fakeUploader) SnapshotKey(time.Time) string { return "synchronizer/snapshots/test.json" }

func (f *fakeUploader) Upload(_ context.Context, key string, body []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.key, f.body = key, body
	return "https://storage.local/" + key, nil
}

func (f *fakeUploader) URLTTL() time.Duration { return time.Minute }

func newDeps(t *testing.T) Deps {
	t.Helper()
	return Deps{
		Service:          "api",
		Log:              zerolog.Nop(),
		Svc:              crud.New(docstore.NewMemory()),
		Hub:              ws.NewHub(),
		CORSAllowOrigins: []string{"http://localhost:5173"},
		WSAllowedOrigins: []string{"http://localhost:5173"},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		r.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r := NewRouter(newDeps(t))

	w := do(t, r, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"ok": true, "service": "api"}, decode[map[string]any](t, w))
}

func TestRules_AddListRemove(t *testing.T) {
	r := NewRouter(newDeps(t))

	w := do(t, r, http.MethodGet, "/api/rule_list", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/add_rule", `{"source":"gitlab","dest":"jira"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	added := decode[map[string]any](t, w)
	assert.NotEmpty(t, added["id"])
	assert.Equal(t, "gitlab", added["source"])

	w = do(t, r, http.MethodPost, "/api/add_rule", `{"source":"gitlab","dest":"jira"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	conflict := decode[map[string]any](t, w)
	assert.Equal(t, added["id"], conflict["rule"].(map[string]any)["id"])

	w = do(t, r, http.MethodGet, "/api/rule_list", "")
	rules := decode[[]map[string]any](t, w)
	require.Len(t, rules, 1)

	w = do(t, r, http.MethodDelete, "/api/remove_rule", `{"source":"gitlab","dest":"jira"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":1}`, w.Body.String())

	w = do(t, r, http.MethodDelete, "/api/remove_rule", `{"source":"gitlab","dest":"jira"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRules_Validation(t *testing.T) {
	r := NewRouter(newDeps(t))

	for _, body := range []string{
		`{"source":"gitlab"}`,
		`{"dest":"jira"}`,
		`{"source":"jira","dest":"jira"}`,
		`{"source":" jira","dest":"jira "}`,
		`not json`,
	} {
		w := do(t, r, http.MethodPost, "/api/add_rule", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
		assert.Contains(t, decode[map[string]any](t, w), "detail")
	}

	w := do(t, r, http.MethodDelete, "/api/remove_rule", `{"source":"gitlab"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRules_ClientIDIgnored(t *testing.T) {
	r := NewRouter(newDeps(t))

	w := do(t, r, http.MethodPost, "/api/add_rule", `{"id":"mine","source":"gitlab","dest":"jira"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "mine", decode[map[string]any](t, w)["id"])
}

func TestIssues(t *testing.T) {
	d := newDeps(t)
	_, err := d.Svc.SeedIssues(context.Background())
	require.NoError(t, err)
	r := NewRouter(d)

	w := do(t, r, http.MethodGet, "/api/issues", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	w = do(t, r, http.MethodGet, "/api/issues/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "default issue old", decode[map[string]any](t, w)["description"])

	w = do(t, r, http.MethodGet, "/api/issues/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExport(t *testing.T) {
	d := newDeps(t)
	up := &fakeUploader{}
	d.Uploader = up
	r := NewRouter(d)
	do(t, r, http.MethodPost, "/api/add_rule", `{"source":"gitlab","dest":"jira"}`)

	w := do(t, r, http.MethodPost, "/api/export", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[map[string]any](t, w)
	assert.Equal(t, "synchronizer/snapshots/test.json", out["key"])
	assert.Equal(t, "https://storage.local/synchronizer/snapshots/test.json", out["url"])

	var snap map[string][]map[string]any
	require.NoError(t, json.Unmarshal(up.body, &snap))
	assert.Len(t, snap["rules"], 1)
	assert.Empty(t, snap["issues"])
}

func TestExport_NotConfigured(t *testing.T) {
	r := NewRouter(newDeps(t))

	w := do(t, r, http.MethodPost, "/api/export", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExport_UploadFails(t *testing.T) {
	d := newDeps(t)
	d.Uploader = &fakeUploader{err: errors.New("bucket gone")}
	r := NewRouter(d)

	w := do(t, r, http.MethodPost, "/api/export", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAuth(t *testing.T) {
	d := newDeps(t)
	maker := jwtutil.New("secret", time.Hour)
	d.Verifier = maker
	r := NewRouter(d)

	w := do(t, r, http.MethodGet, "/api/rule_list", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/api/rule_list", "", "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := maker.Create("sync-bot")
	require.NoError(t, err)
	w = do(t, r, http.MethodGet, "/api/rule_list", "", "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "health stays open")
}

func TestCORS(t *testing.T) {
	r := NewRouter(newDeps(t))

	w := do(t, r, http.MethodOptions, "/api/rule_list", "",
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "GET")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocket_RuleEvents(t *testing.T) {
	d := newDeps(t)
	srv := httptest.NewServer(NewRouter(d))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://localhost:5173"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return d.Hub.Subscribers(ws.TopicRules) == 1 }, 2*time.Second, 10*time.Millisecond)

	res, err := http.Post(srv.URL+"/api/add_rule", "application/json", strings.NewReader(`{"source":"gitlab","dest":"jira"}`))
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, ws.EventRuleAdded, ev.Type)
	assert.Equal(t, "jira", ev.Data["dest"])
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newDeps(t)))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, res, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://evil.local"}})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestWebSocket_RequiresToken(t *testing.T) {
	d := newDeps(t)
	maker := jwtutil.New("secret", time.Hour)
	d.Verifier = maker
	srv := httptest.NewServer(NewRouter(d))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	tok, err := maker.Create("sync-bot")
	require.NoError(t, err)
	dialer := websocket.Dialer{Subprotocols: []string{"bearer", tok}}
	conn, _, err := dialer.Dial(wsURL, nil)
	require.NoError(t, err)
	_ = conn.Close()
}
