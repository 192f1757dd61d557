package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// CacheInvalidator drops cached data derived from articles.
type CacheInvalidator interface {
	InvalidateTags(ctx context.Context) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader      messageReader
	invalidator CacheInvalidator
}

func NewConsumer(brokers []string, groupID string, invalidator CacheInvalidator) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    ArticlesTopic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		invalidator: invalidator,
	}
}

// Consume reads article events until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				slog.Info("Kafka consumer stopped", "topic", ArticlesTopic)
				return
			}
			slog.Error("failed to read Kafka message", "topic", ArticlesTopic, "error", err)
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		slog.Error("failed to unmarshal article event", "key", string(msg.Key), "error", err)
		return
	}

	slog.Debug("Kafka message received", "topic", msg.Topic, "event_id", event.ID, "type", event.Type)

	if !event.ChangesTags() {
		return
	}
	if err := c.invalidator.InvalidateTags(ctx); err != nil {
		slog.Error("failed to invalidate tag cache", "event_id", event.ID, "error", err)
		return
	}
	slog.Info("tag cache invalidated", "event_id", event.ID, "type", event.Type, "slug", event.Slug)
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
