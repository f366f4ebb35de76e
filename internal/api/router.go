package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires every route. A nil gatherer serves the default registry.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	if h.cors {
		cc := cors.DefaultConfig()
		cc.AllowAllOrigins = true
		cc.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		cc.AllowHeaders = []string{"Origin", "Content-Type"}
		cc.AllowWebSockets = true
		r.Use(cors.New(cc))
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/config", h.Config)

		api.GET("/personality/questions", h.PersonalityQuestions)
		api.POST("/personality/submit", h.SubmitPersonality)

		api.POST("/session", h.StartSession)
		api.GET("/session/:id", h.GetSession)
		api.POST("/session/end", h.EndSession)

		api.POST("/questions/load", h.LoadQuestions)
		api.POST("/answer", h.SubmitAnswer)

		api.POST("/trigger", h.GetTrigger)
		api.POST("/trigger/response", h.SubmitTriggerResponse)
	}

	r.GET("/ws/:session_id", h.SessionWebSocket)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
