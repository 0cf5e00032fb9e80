package wsroute

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lcensies/task-trackers-synchronizer/internal/auth"
	"github.com/lcensies/task-trackers-synchronizer/internal/ws"
)

type Deps struct {
	Hub *ws.Hub
	// Verifier is nil when the API is unauthenticated.
	Verifier       auth.TokenVerifier
	AllowedOrigins []string
	Log            zerolog.Logger
}

// Register mounts GET /ws, a server-to-client stream of rule change events.
func Register(r *gin.Engine, d Deps) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), d.AllowedOrigins)
		},
		Subprotocols: []string{"bearer"},
	}

	r.GET("/ws", func(c *gin.Context) {
		if d.Verifier != nil {
			// Sec-WebSocket-Protocol: "bearer, <JWT>"
			token := bearerFromProtocol(c.Request.Header.Get("Sec-WebSocket-Protocol"))
			if token == "" {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			if _, err := d.Verifier.Verify(token); err != nil {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			d.Log.Debug().Err(err).Msg("ws upgrade")
			return
		}
		d.Hub.Join(ws.TopicRules, conn)

		// inbound frames are discarded; reading detects the close
		go func() {
			defer func() { d.Hub.Leave(ws.TopicRules, conn); conn.Close() }()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// originAllowed accepts requests without an Origin header (non-browser
// clients), origins in allowed, and anything when allowed contains "*".
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

func bearerFromProtocol(raw string) string {
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "bearer") {
			continue
		}
		return p
	}
	return ""
}
