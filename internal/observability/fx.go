package observability

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/helloword214/zmstore-pos-sub004/internal/config"
	"github.com/helloword214/zmstore-pos-sub004/internal/observability/logger"
	"github.com/helloword214/zmstore-pos-sub004/internal/observability/metrics"
	"github.com/helloword214/zmstore-pos-sub004/internal/observability/tracing"
)

const serviceName = "zmstore-pos"

var Module = fx.Module("observability",
	fx.Provide(newLogger),
	fx.Provide(newTracingConfig),
	fx.Provide(tracing.NewProvider),
	fx.Invoke(initMetrics),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Environment,
	})
}

func newTracingConfig(cfg config.Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.Tracing.Enabled,
		ServiceName:      serviceName,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
		ExporterProtocol: cfg.Tracing.ExporterProtocol,
		SamplingRatio:    cfg.Tracing.SamplingRatio,
	}
}

func initMetrics(cfg config.Config) {
	mcfg := metrics.Config{ServiceName: serviceName, Environment: cfg.Environment}
	metrics.LedgerWithConfig(mcfg)
	metrics.ReceivablesWithConfig(mcfg)
	metrics.HTTPWithConfig(mcfg)
}
