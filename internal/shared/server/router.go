package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rec-admin-backend/internal/assets"
	"rec-admin-backend/internal/services/health"
	"rec-admin-backend/internal/shared/config"
	"rec-admin-backend/internal/shared/server/middleware"
	"rec-admin-backend/internal/shared/server/respond"
)

// RouterDeps are the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config    config.Config
	Images    *assets.Handler
	Documents *assets.Handler
	Health    *health.Service
	Metrics   gin.HandlerFunc
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status["ok"] {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	for _, h := range []*assets.Handler{deps.Images, deps.Documents} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
