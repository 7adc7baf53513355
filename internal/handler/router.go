package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/pkg/config"
	"github.com/buzz-code/event-management-nra-sub001/pkg/logger"
	"github.com/buzz-code/event-management-nra-sub001/pkg/middleware/requestid"
)

// NewRouter assembles the HTTP surface: the voice webhook, health and
// Prometheus metrics.
func NewRouter(env string, call *CallHandler, assignments *AssignmentHandler, metrics http.Handler, l *zap.Logger) *gin.Engine {
	if env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(l))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics))
	r.POST("/ivr", call.Webhook)
	if assignments != nil {
		r.GET("/assignments/history", assignments.History)
	}

	return r
}
