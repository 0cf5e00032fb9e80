package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lcensies/task-trackers-synchronizer/internal/auth"
	"github.com/lcensies/task-trackers-synchronizer/internal/crud"
	"github.com/lcensies/task-trackers-synchronizer/internal/http/handlers"
	"github.com/lcensies/task-trackers-synchronizer/internal/http/middleware"
	"github.com/lcensies/task-trackers-synchronizer/internal/http/wsroute"
	"github.com/lcensies/task-trackers-synchronizer/internal/ws"
)

type Deps struct {
	Service string
	Log     zerolog.Logger
	Svc     *crud.Service
	Hub     *ws.Hub
	// Verifier protects /api and /ws; nil leaves them open.
	Verifier auth.TokenVerifier
	// Uploader backs /api/export; nil answers 503.
	Uploader         handlers.SnapshotUploader
	CORSAllowOrigins []string
	WSAllowedOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(d.Log))

	if len(d.CORSAllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSAllowOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", handlers.Health(d.Service))

	rulesH := handlers.NewRulesHandler(d.Svc, d.Hub, d.Log)
	issuesH := handlers.NewIssuesHandler(d.Svc, d.Log)
	exportH := handlers.NewExportHandler(d.Svc, d.Uploader, d.Log)

	api := r.Group("/api")
	if d.Verifier != nil {
		api.Use(middleware.JWT(d.Verifier))
	}
	// project id reserved for specific trackers which might have different
	// fields per project
	api.GET("/rule_list", rulesH.List)
	api.POST("/add_rule", rulesH.Add)
	api.DELETE("/remove_rule", rulesH.Remove)

	api.GET("/issues", issuesH.List)
	api.GET("/issues/:issue_id", issuesH.Get)

	api.POST("/export", exportH.Export)

	wsroute.Register(r, wsroute.Deps{
		Hub:            d.Hub,
		Verifier:       d.Verifier,
		AllowedOrigins: d.WSAllowedOrigins,
		Log:            d.Log,
	})

	registerDocs(r)

	return r
}
