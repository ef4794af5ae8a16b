// Package httpapi exposes the engine over HTTP with gin.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/recall/internal/engine"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Engine      *engine.Engine
	Store       Pinger
	Logger      logrus.FieldLogger
	CORSOrigins []string
	ServiceName string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	name := cfg.ServiceName
	if name == "" {
		name = "recall"
	}
	h := &Handler{engine: cfg.Engine, store: cfg.Store}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(name))
	r.Use(RequestID())
	r.Use(BodyLimit(maxBodyBytes))
	if cfg.Logger != nil {
		r.Use(RequestLogger(cfg.Logger))
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(CORS(cfg.CORSOrigins))
	}

	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")
	{
		v1.POST("/attempts", h.IngestAttempts)
		v1.PUT("/catalog/items", h.UpsertCatalog)

		l := v1.Group("/learners/:learner")
		l.GET("/mastery/:topic", h.Mastery)
		l.GET("/weaknesses", h.Weaknesses)
		l.GET("/targeting", h.Targeting)

		l.GET("/reviews/due", h.DueReviews)
		l.GET("/reviews/schedule", h.ReviewSchedule)
		l.POST("/reviews", h.SubmitReview)
		l.POST("/reviews/:item/reschedule", h.Reschedule)
		l.POST("/reviews/:item/enroll", h.Enroll)

		l.GET("/forgetting", h.NeedsReview)
		l.GET("/forgetting/:topic", h.ForgettingCurve)
		l.GET("/velocity", h.Velocity)
		l.GET("/velocity/:topic", h.TopicVelocity)
		l.GET("/behavior", h.Behavior)
		l.GET("/readiness", h.Readiness)
		l.GET("/attempts/:id/context", h.ExplanationContext)
	}
	return r
}
