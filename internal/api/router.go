// Package api exposes the dispatch operations over HTTP.
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"apply-orchestrator/internal/common/logger"
)

type RouterConfig struct {
	CORSOrigins []string
}

// NewRouter wires routes and middleware onto a fresh gin engine.
func NewRouter(cfg RouterConfig, h *Handlers, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(accessLog(log))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tasks := r.Group("/tasks")
	{
		tasks.POST("/apply", h.ApplyOne)
		tasks.POST("/apply/bulk", h.ApplyBulk)
	}

	r.GET("/logs/recent", h.RecentLog)

	return r
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", requestIDHeader}
	config.ExposeHeaders = []string{requestIDHeader}
	config.MaxAge = 12 * time.Hour
	return config
}
