package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/http/handler"
	"basegraph.app/leads/internal/service"
)

type RouterConfig struct {
	Hub               *changefeed.Hub
	Metrics           *changefeed.Metrics
	HeartbeatInterval time.Duration
	// Ready reports whether backing services are reachable. Nil means always
	// ready.
	Ready func(*gin.Context) error
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.MethodNotAllowed)

	router.GET("/health", func(c *gin.Context) {
		if cfg.Ready != nil {
			if err := cfg.Ready(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	LeadRouter(
		router.Group("/leads"),
		handler.NewLeadHandler(services.Leads()),
		handler.NewMessageHandler(services.Messages()),
		handler.NewStreamHandler(cfg.Hub, cfg.HeartbeatInterval),
	)
}
