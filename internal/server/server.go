package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountdomain "github.com/brandforge/brandforge/internal/account/domain"
	"github.com/brandforge/brandforge/internal/config"
	creditdomain "github.com/brandforge/brandforge/internal/credit/domain"
	"github.com/brandforge/brandforge/internal/observability/logger"
	"github.com/brandforge/brandforge/internal/observability/metrics"
	paymentdomain "github.com/brandforge/brandforge/internal/payment/domain"
)

// Module assembles the HTTP server and starts it with the fx lifecycle.
var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type ServerParam struct {
	fx.In

	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Engine     *gin.Engine
	CreditSvc  creditdomain.Service
	AccountSvc accountdomain.Service
	PaymentSvc paymentdomain.Service `optional:"true"`
}

// Server holds the handler dependencies.
type Server struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	engine     *gin.Engine
	creditSvc  creditdomain.Service
	accountSvc accountdomain.Service
	paymentSvc paymentdomain.Service
}

// NewEngine builds the gin engine with the shared middleware stack.
func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(metrics.NewHTTPMetrics(
		prometheus.DefaultRegisterer,
		metrics.Config{ServiceName: cfg.ServiceName, Environment: cfg.Environment},
	)))
	return engine
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("server"),
		engine:     p.Engine,
		creditSvc:  p.CreditSvc,
		accountSvc: p.AccountSvc,
		paymentSvc: p.PaymentSvc,
	}
}

// RegisterRoutes attaches every route to the engine.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api/v1")
	{
		api.GET("/credit-packages", s.ListCreditPackages)
		api.GET("/brands/:id/credits", s.GetBrandCredits)
		api.GET("/brands/:id/credits/history", s.GetCreditHistory)
		api.POST("/brands/:id/credits/deduct", s.DeductCredits)

		api.GET("/users/:id/deletion-preview", s.GetDeletionPreview)
		api.POST("/users/:id/delete", s.DeleteAccount)
	}

	s.engine.POST("/webhooks/stripe", s.StripeWebhook)
}

// Health reports process liveness and database reachability.
func (s *Server) Health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the listener on the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.log.Info("http server starting", zap.String("addr", s.cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.log.Info("http server shutting down")
			return srv.Shutdown(ctx)
		},
	})
}
