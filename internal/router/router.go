package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/glabspro/bee/internal/handler/prometheus"
	"github.com/glabspro/bee/internal/middleware"
	"github.com/glabspro/bee/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimit   rate.Limit
	RateBurst   int
	MaxBodySize int64
	CORSConfig  middleware.CORSConfig
	ReleaseMode bool
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Health      Handler
	Sede        Handler
	Appointment Handler
	Plan        Handler
	Notes       Handler
	Metrics     *prometheus.Handler
}

type Router struct {
	engine   *gin.Engine
	handlers Handlers
}

func NewRouter(log *logger.Logger, handlers Handlers, config RouterConfig) (*Router, error) {
	if config.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
	)
	if handlers.Metrics != nil {
		engine.Use(handlers.Metrics.Middleware())
	}
	engine.Use(
		middleware.ErrorHandler(),
		middleware.CORS(config.CORSConfig),
	)

	if config.MaxBodySize > 0 {
		engine.Use(middleware.SizeLimit(middleware.SizeLimitConfig{MaxBodySize: config.MaxBodySize}))
	}
	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{engine: engine, handlers: handlers}, nil
}

func (r *Router) Setup() {
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(&r.engine.RouterGroup)
	}
	if r.handlers.Metrics != nil {
		r.engine.GET("/metrics", r.handlers.Metrics.Handler())
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	for _, h := range []Handler{
		r.handlers.Sede,
		r.handlers.Appointment,
		r.handlers.Plan,
		r.handlers.Notes,
	} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
