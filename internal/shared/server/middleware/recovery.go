package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"legal-analyzer-api/internal/shared/server/respond"
	"legal-analyzer-api/internal/shared/telemetry"
)

// Recovery recovers from panics and returns a {"detail": ...} 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("panic", map[string]any{
					"request_id": RequestIDFromContext(c),
					"error":      fmt.Sprint(rec),
					"stack":      string(debug.Stack()),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
				})
				respond.Error(c, http.StatusInternalServerError, "internal", fmt.Sprintf("An unexpected error occurred: %v", rec))
			}
		}()
		c.Next()
	}
}
