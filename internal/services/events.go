package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/honeynil/conduit/internal/infrastructure/kafka"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// publish sends event on a best-effort basis: failures are logged and
// never reach the caller.
func publish(ctx context.Context, publisher kafka.Publisher, topic, key string, event kafka.Event) {
	if publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal event", "type", event.Type, "error", err)
		return
	}
	if err := publisher.Send(ctx, topic, key, payload); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "type", event.Type, "event_id", event.ID, "error", err)
	}
}

func recordError(span trace.Span, err error, description string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, description)
}
