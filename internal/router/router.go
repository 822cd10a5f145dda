package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/pharmily/pharmily-api/internal/handler/auth"
	"github.com/pharmily/pharmily-api/internal/handler/health"
	"github.com/pharmily/pharmily-api/internal/handler/hospital"
	"github.com/pharmily/pharmily-api/internal/handler/prescription"
	"github.com/pharmily/pharmily-api/internal/handler/queue"
	"github.com/pharmily/pharmily-api/internal/middleware"
	"github.com/pharmily/pharmily-api/internal/model"
)

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	Auth         *auth.Handler
	Hospital     *hospital.Handler
	Queue        *queue.Handler
	Prescription *prescription.Handler
	Health       *health.Handler
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	limiter  *middleware.RateLimiter
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	// RateLimit and RateBurst apply per client IP to the auth routes.
	RateLimit      rate.Limit
	RateBurst      int
	CORSConfig     middleware.CORSConfig
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	MetricsPrefix  string
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	handlers Handlers,
	config RouterConfig,
	reg prometheus.Registerer,
) (*Router, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}
	if config.MetricsPrefix == "" {
		config.MetricsPrefix = "pharmily_http"
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = middleware.DefaultTimeoutConfig().Duration
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
		limiter: middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		}),
		metrics: initRouterMetrics(reg, config.MetricsPrefix),
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.SizeLimit(config.MaxBodyBytes),
	)

	return r, nil
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	// Health check endpoints
	r.handlers.Health.RegisterRoutes(api)

	// Public routes
	r.handlers.Auth.RegisterRoutes(api, r.limiter.RateLimit())

	// Protected routes
	protected := api.Group("", r.auth.Authenticate())
	r.handlers.Hospital.RegisterRoutes(protected, r.auth.RequireRole(model.RolePatient))
	r.handlers.Queue.RegisterRoutes(protected, r.auth)
	r.handlers.Prescription.RegisterRoutes(protected, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(reg prometheus.Registerer, prefix string) *routerMetrics {
	factory := promauto.With(reg)
	return &routerMetrics{
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// unmatched routes share one label so scanners cannot blow up cardinality
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 500 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		} else if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}
