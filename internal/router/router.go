package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/visit-logger/internal/handler/health"
	"github.com/jwalitptl/visit-logger/internal/handler/prometheus"
	"github.com/jwalitptl/visit-logger/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers are the route groups mounted under /api. Everything except Auth
// and Health sits behind the bearer token check.
type Handlers struct {
	Health   *health.Handler
	Auth     Handler
	Patient  Handler
	Visit    Handler
	Catalog  Handler
	Document Handler
}

type Config struct {
	Mode           string
	AllowedOrigins []string
	RateLimit      RateLimitConfig
	Timeout        middleware.TimeoutConfig
	SizeLimit      middleware.SizeLimitConfig
	// Metrics is nil when metrics are disabled.
	Metrics *prometheus.Handler
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	config   Config
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config Config) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	middleware.RegisterValidation()

	engine := gin.New()
	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		config:   config,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)
	if config.Metrics != nil {
		engine.Use(config.Metrics.Middleware())
	}
	engine.Use(
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.AllowedOrigins),
	)
	if config.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(config.RateLimit.RPS),
			Burst: config.RateLimit.Burst,
		})
		engine.Use(limiter.RateLimit())
	}
	if config.SizeLimit.MaxBodySize > 0 {
		engine.Use(middleware.SizeLimit(config.SizeLimit))
	}
	engine.Use(middleware.Timeout(config.Timeout))

	r.setup()
	return r
}

func (r *Router) setup() {
	if r.handlers.Health != nil {
		r.engine.GET("/", r.handlers.Health.Root)
	}
	if r.config.Metrics != nil {
		r.engine.GET("/metrics", r.config.Metrics.Handler())
	}

	api := r.engine.Group("/api")

	// Public routes
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(api)
	}
	r.handlers.Auth.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range []Handler{
		r.handlers.Catalog,
		r.handlers.Visit,
		r.handlers.Patient,
		r.handlers.Document,
	} {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
