package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/honeynil/conduit/internal/config"
	"github.com/honeynil/conduit/internal/infrastructure/observability"
)

// Setup initialises logs, metrics and traces. The returned function stops the
// metrics listener and flushes pending spans.
func Setup(ctx context.Context, serviceName string, cfg *config.Config) func(context.Context) error {
	observability.InitLogger(cfg.LogLevel)
	metricsServer := observability.InitMetrics(cfg.MetricsAddr)
	tracerShutdown := observability.InitTracing(ctx, serviceName, cfg.OTLPEndpoint)

	return func(ctx context.Context) error {
		metricsErr := metricsServer.Shutdown(ctx)
		if errors.Is(metricsErr, http.ErrServerClosed) {
			metricsErr = nil
		}
		return errors.Join(metricsErr, tracerShutdown(ctx))
	}
}
