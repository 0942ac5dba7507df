package httpadapter

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/yvi-assistant/internal/app/analytics"
	"github.com/PabloGalante/yvi-assistant/internal/app/share"
	"github.com/PabloGalante/yvi-assistant/internal/config"
	"github.com/PabloGalante/yvi-assistant/internal/domain"
	"github.com/PabloGalante/yvi-assistant/internal/observability"
)

// Deps are the services the HTTP API exposes.
type Deps struct {
	Replies   domain.ReplyService
	Analytics *analytics.Service
	Codec     *share.Codec
	Metrics   *observability.Metrics
	// Gatherer serves /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer

	PublicOrigin string
	CORSOrigins  []string
	RateLimit    config.RateLimitConfig

	Now func() time.Time
}

type Server struct {
	replies      domain.ReplyService
	analytics    *analytics.Service
	codec        *share.Codec
	metrics      *observability.Metrics
	publicOrigin string
	now          func() time.Time
	sanitizer    *bluemonday.Policy
}

// NewServer wires the routes and middleware of the reply backend.
func NewServer(d Deps) http.Handler {
	s := &Server{
		replies:      d.Replies,
		analytics:    d.Analytics,
		codec:        d.Codec,
		metrics:      d.Metrics,
		publicOrigin: d.PublicOrigin,
		now:          d.Now,
		sanitizer:    bluemonday.StrictPolicy(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.codec == nil {
		s.codec = share.NewCodec()
	}

	r := gin.New()
	r.Use(gin.Recovery(), withRequestID(), withLogging(), withCORS(d.CORSOrigins))
	if d.Metrics != nil {
		r.Use(withMetrics(d.Metrics))
	}

	r.GET("/healthz", s.handleHealthz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	limited := r.Group("/")
	if d.RateLimit.Enabled {
		limited.Use(withRateLimit(d.RateLimit))
	}

	// /chat → reply to one message (POST)
	limited.POST("/chat", s.handleChat)

	api := limited.Group("/api")
	{
		// sessions live on the client; deletion is acknowledged only
		api.DELETE("/chat-sessions/:id", s.handleDeleteSession)

		api.GET("/stats", s.handleStats)
		api.GET("/logs", s.handleLogs)
		api.POST("/logs/:id/feedback", s.handleFeedback)

		api.POST("/share", s.handleCreateShare)
		api.GET("/share/:code", s.handleGetShare)
	}

	return r
}
