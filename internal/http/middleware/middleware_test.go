package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/lcensies/task-trackers-synchronizer/internal/auth"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(raw string) (*auth.Claims, error) {
	sub, ok := s[raw]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{Sub: sub}, nil
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("user_id")) })
	return r
}

func TestJWT(t *testing.T) {
	r := newEngine(JWT(stubVerifier{"good": "u1"}))

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, `{"detail":"Missing bearer"}`},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, `{"detail":"Missing bearer"}`},
		{"invalid", "Bearer nope", http.StatusUnauthorized, `{"detail":"Invalid token"}`},
		{"valid", "Bearer good", http.StatusOK, "u1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.body, w.Body.String())
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newEngine(Logger(zerolog.New(&buf)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"path":"/missing"`)
}
