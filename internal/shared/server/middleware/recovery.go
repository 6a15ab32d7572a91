package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"rec-admin-backend/internal/shared/server/respond"
	"rec-admin-backend/internal/shared/telemetry"
)

// Recovery turns a panic in a handler into a 500 envelope. The stack is
// logged, never returned to the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("http.panic", map[string]any{
				"request_id":      RequestIDFromContext(c),
				"error":           rec,
				"stack":           string(debug.Stack()),
				"route":           c.FullPath(),
				"method":          c.Request.Method,
				"rec_resource_id": c.Param("rec_resource_id"),
			})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected server error", nil)
		}()
		c.Next()
	}
}
