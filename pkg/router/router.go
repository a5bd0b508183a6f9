package router

import (
	"net/http"
	"time"

	"maeum-toegeun/backend/internal/api"
	"maeum-toegeun/backend/internal/ws"
	"maeum-toegeun/backend/pkg/config"
	"maeum-toegeun/backend/pkg/di"
	"maeum-toegeun/backend/pkg/errors"
	"maeum-toegeun/backend/pkg/health"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Hub       *ws.Hub
	Health    *health.Checker
	Config    *config.Config

	limiter  *middleware.RateLimiter
	gatherer prometheus.Gatherer
}

// Option customises the router
type Option func(*Router)

// WithGatherer serves /metrics from g instead of the default registry
func WithGatherer(g prometheus.Gatherer) Option {
	return func(r *Router) { r.gatherer = g }
}

// New creates the engine with the shared middleware chain. The hub is not
// started here; callers run Hub.Run with their lifetime context.
func New(container *di.Container, opts ...Option) *Router {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// The logger goes first so every request gets a request-scoped logger
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.ContextPropagationMiddleware())
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))
	engine.Use(bodyLimit(cfg.Security.MaxBodySize))

	limiterOpts := middleware.DefaultRateLimiterOptions()
	limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	limiterOpts.Burst = cfg.Security.RateLimitBurst

	r := &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Hub:       ws.NewHub(container.ChatService, api.UpstreamMessage, container.Logger),
		Health:    health.NewChecker(container.Logger, 5*time.Second),
		Config:    cfg,
		limiter:   middleware.NewRateLimiter(container.Logger, limiterOpts),
		gatherer:  prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	c := r.Container
	jwtAuth := middleware.JWTAuth(c.JWTService, r.Logger)

	r.setupHealthRoutes()
	if r.Config.Metrics.Enabled {
		r.Engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Engine.Group("/api/v1")

	// Public routes (no auth required)
	public := v1.Group("", r.limiter.Middleware())
	api.NewSessionHandler(c.JWTService, c.Users, r.Logger).RegisterRoutes(public)
	api.NewCatalogHandler(c.Catalog).RegisterRoutes(public)

	// Protected routes are limited per user
	protected := v1.Group("", jwtAuth, r.limiter.Middleware())
	api.NewChatHandler(c.ChatService).RegisterRoutes(protected)
	api.NewEmotionHandler(c.EmotionService).RegisterRoutes(protected)
	api.NewMissionHandler(c.MissionService).RegisterRoutes(protected)
	api.NewAchievementHandler(c.AchievementService).RegisterRoutes(protected)
	api.NewCommunityHandler(c.CommunityService).RegisterRoutes(protected)
	api.NewFeedbackHandler(c.FeedbackService).RegisterRoutes(protected)
	api.NewActivityHandler(c.ActivityService).RegisterRoutes(protected)
	api.NewRecoveryNoteHandler(c.RecoveryNoteService).RegisterRoutes(protected)
	api.NewProfileHandler(c.ProfileService, c.TopicService).RegisterRoutes(protected)

	// WebSocket clients pass the token as ?token=
	protected.GET("/chat/ws", func(ctx *gin.Context) {
		ws.ServeWs(r.Hub, ctx)
	})
}

// Stop releases the rate limiter janitor
func (r *Router) Stop() {
	r.limiter.Stop()
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Request-ID", "Upgrade", "Connection", "Cache-Control"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowWebSockets:  true,
		MaxAge:           24 * time.Hour,
		AllowCredentials: false,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// bodyLimit caps request bodies; image uploads travel as data URLs
func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
