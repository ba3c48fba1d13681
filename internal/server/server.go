// Package server exposes the ledger engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/helloword214/zmstore-pos-sub004/internal/audit/domain"
	balancesdomain "github.com/helloword214/zmstore-pos-sub004/internal/balances/domain"
	"github.com/helloword214/zmstore-pos-sub004/internal/config"
	ledgerdomain "github.com/helloword214/zmstore-pos-sub004/internal/ledger/domain"
	"github.com/helloword214/zmstore-pos-sub004/internal/observability/logger"
	"github.com/helloword214/zmstore-pos-sub004/internal/observability/metrics"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type Server struct {
	cfg         config.Config
	log         *zap.Logger
	db          *gorm.DB
	engine      *gin.Engine
	ledgerSvc   ledgerdomain.Service
	balancesSvc balancesdomain.Service
	auditSvc    auditdomain.Service
	listLimiter *rateLimiter
}

type Params struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	Engine      *gin.Engine
	LedgerSvc   ledgerdomain.Service
	BalancesSvc balancesdomain.Service
	AuditSvc    auditdomain.Service `optional:"true"`
}

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(metrics.HTTP()))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:         p.Config,
		log:         p.Log.Named("server"),
		db:          p.DB,
		engine:      p.Engine,
		ledgerSvc:   p.LedgerSvc,
		balancesSvc: p.BalancesSvc,
		auditSvc:    p.AuditSvc,
		listLimiter: newRateLimiter(30, time.Minute),
	}
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.GET("/customers/:id/ledger", s.GetCustomerLedger)
	api.GET("/customers/:id/balance", s.GetCustomerBalance)
	api.GET("/customers/:id/statement.xlsx", s.ExportStatementXLSX)
	api.GET("/customers/:id/statement.pdf", s.ExportStatementPDF)
	api.GET("/balances", s.ListOpenBalances)
}

func (s *Server) Health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
