package respond

import (
	"github.com/gin-gonic/gin"

	"legal-analyzer-api/internal/shared/telemetry"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Error logs the failure and aborts with a {"detail": ...} body. code is only
// logged.
func Error(c *gin.Context, status int, code, detail string) {
	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"code":       code,
		"detail":     detail,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	})

	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}
