package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"legal-analyzer-api/internal/documents"
	"legal-analyzer-api/internal/services/health"
	"legal-analyzer-api/internal/shared/config"
	"legal-analyzer-api/internal/shared/metrics"
	"legal-analyzer-api/internal/shared/server/middleware"
	"legal-analyzer-api/internal/shared/server/respond"
)

// Greeting is the body of GET /.
const Greeting = "Legal Document Analyzer API is running 🚀"

// Deps are the handlers and shared services the router mounts.
type Deps struct {
	Documents     *documents.Handler
	Health        *health.Service
	Metrics       *metrics.Metrics
	UploadLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		deps.Metrics.Middleware(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Not Found")
	})
	r.NoMethod(func(c *gin.Context) {
		respond.Error(c, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed")
	})

	r.GET("/", func(c *gin.Context) {
		respond.OK(c, gin.H{"message": Greeting})
	})
	r.GET("/metrics", deps.Metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, deps.Health.Status())
	})
	if deps.Documents != nil {
		deps.Documents.RegisterRoutes(api, middleware.RateLimit(deps.UploadLimiter))
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
