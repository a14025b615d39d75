package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"srql-engine/internal/auth"
	"srql-engine/internal/metrics"
)

// RouterOptions configures the REST surface.
type RouterOptions struct {
	CORSOrigin        string
	AuthEnabled       bool
	Authenticator     auth.Authenticator
	OnboardingEnabled bool
}

// NewRouter assembles the gin engine. The package download endpoint is
// deliberately outside the auth group: edge hosts authenticate with their
// one-time download token, not an operator JWT.
func NewRouter(query *QueryHandler, edgeHandler *EdgeHandler, m *metrics.Metrics, log zerolog.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(m.GinMiddleware())
	router.Use(corsMiddleware(opts.CORSOrigin))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := router.Group("/api")
	protected.Use(auth.Middleware(opts.Authenticator, opts.AuthEnabled))

	protected.POST("/query", query.Query)
	protected.POST("/query/translate", query.Translate)
	protected.GET("/query/export", query.Export)
	protected.GET("/query/entities", query.Entities)

	if opts.OnboardingEnabled {
		admin := protected.Group("/admin")
		admin.POST("/edge-packages", edgeHandler.Create)
		admin.GET("/edge-packages", edgeHandler.List)
		// Get also serves /edge-packages/defaults; gin cannot register the
		// static segment next to the :id wildcard
		admin.GET("/edge-packages/:id", edgeHandler.Get)
		admin.POST("/edge-packages/:id/activate", edgeHandler.Activate)
		admin.POST("/edge-packages/:id/revoke", edgeHandler.Revoke)
		admin.DELETE("/edge-packages/:id", edgeHandler.Delete)
		admin.GET("/edge-packages/:id/events", edgeHandler.Events)

		// token-authenticated, no operator JWT required
		router.POST("/api/admin/edge-packages/:id/download", edgeHandler.Download)
	}

	return router
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

func corsMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Download-Token")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
