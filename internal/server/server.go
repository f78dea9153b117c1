// Package server exposes the metering, quota and observability API over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystonTigers/receptionist-sub000/internal/cache"
	"github.com/SystonTigers/receptionist-sub000/internal/config"
	"github.com/SystonTigers/receptionist-sub000/internal/insight"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/logger"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/metrics"
	"github.com/SystonTigers/receptionist-sub000/internal/observability/tracing"
	"github.com/SystonTigers/receptionist-sub000/internal/telemetry"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
	"github.com/SystonTigers/receptionist-sub000/internal/usage/overview"
)

type authCacheEntry struct {
	tenantID int64
	keyHash  string
}

// Server holds the handler dependencies.
type Server struct {
	cfg config.Config
	db  *gorm.DB
	log *zap.Logger

	engine     *gin.Engine
	ledger     usagedomain.Ledger
	overview   *overview.Builder
	summarizer *insight.Summarizer
	recorder   *telemetry.Recorder
	metrics    *metrics.MeterMetrics
	limiter    *rateLimiter
	authCache  cache.Cache[string, authCacheEntry]
}

type Param struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Engine     *gin.Engine
	Ledger     usagedomain.Ledger
	Overview   *overview.Builder
	Summarizer *insight.Summarizer
	Recorder   *telemetry.Recorder
	Metrics    *metrics.MeterMetrics
	Tracer     *sdktrace.TracerProvider `optional:"true"`
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, m *metrics.MeterMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(tracing.GinMiddleware(cfg.App.Name))
	engine.Use(httpMetricsMiddleware(m))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-Id")
	engine.Use(cors.New(corsCfg))

	return engine
}

func NewServer(p Param) *Server {
	return &Server{
		cfg:        p.Config,
		db:         p.DB,
		log:        p.Log.Named("server"),
		engine:     p.Engine,
		ledger:     p.Ledger,
		overview:   p.Overview,
		summarizer: p.Summarizer,
		recorder:   p.Recorder,
		metrics:    p.Metrics,
		limiter:    newRateLimiter(p.Config.RateLimit.Limit, p.Config.RateLimit.Window),
		authCache:  cache.NewTTLCache[string, authCacheEntry](),
	}
}

// RegisterAPIRoutes mounts the public and tenant route groups.
func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", s.Healthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.Use(s.APIKeyRequired(), s.RateLimited(), telemetry.GinMiddleware(s.recorder))
	{
		v1.POST("/usage/events", s.IngestUsageEvent)
		v1.GET("/usage/overview", s.GetUsageOverview)
		v1.GET("/observability/summary", s.GetObservabilitySummary)
	}

	if !s.cfg.IsProduction() {
		s.engine.POST("/test/cleanup", s.TestCleanup)
	}
}

// Healthz reports process liveness and database reachability.
func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func httpMetricsMiddleware(m *metrics.MeterMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.ObserveHTTPRequest(endpoint, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
