package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), h.accessLog())
	r.NoRoute(notFoundRoute)

	r.GET("/healthz", h.healthz)

	v1 := r.Group("/v1")
	{
		v1.POST("/messages", h.postMessage)
		v1.POST("/npcs", h.createNPC)
		v1.GET("/npcs/:id/profile", h.getProfile)
		v1.GET("/groups/:id", h.getGroup)
		v1.PUT("/groups/:id", h.putGroup)
		v1.GET("/groups/:id/affinity", h.getAffinity)
		v1.POST("/groups/:id/affinity", h.postAffinity)
		v1.GET("/ws", h.serveWS)
	}
	return r
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("http",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}
