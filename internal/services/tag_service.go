package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/honeynil/conduit/internal/infrastructure/redis"
	"github.com/honeynil/conduit/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tagCacheKey = "tags:all"

type TagService interface {
	List(ctx context.Context) ([]string, error)
	InvalidateTags(ctx context.Context) error
}

// tagService reads through a Redis cache. A nil cache disables caching, and
// cache failures fall back to the repository.
type tagService struct {
	tagRepo repository.TagRepository
	cache   redis.Cache
	ttl     time.Duration
}

func NewTagService(tagRepo repository.TagRepository, cache redis.Cache, ttl time.Duration) *tagService {
	return &tagService{tagRepo: tagRepo, cache: cache, ttl: ttl}
}

func (s *tagService) List(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("tag-service").Start(ctx, "ListTags")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, tagCacheKey)
		switch {
		case err == nil:
			var tags []string
			if err := json.Unmarshal([]byte(cached), &tags); err == nil {
				span.SetAttributes(attribute.Bool("cache_hit", true))
				return tags, nil
			}
			slog.Warn("corrupt tag cache entry, reloading", "key", tagCacheKey)
		case !stderrors.Is(err, redis.ErrKeyNotFound):
			slog.Warn("failed to read tag cache", "key", tagCacheKey, "error", err)
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	tags, err := s.tagRepo.List(ctx)
	if err != nil {
		recordError(span, err, "tag list failed")
		return nil, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(tags)
		if err == nil {
			err = s.cache.Set(ctx, tagCacheKey, string(payload), s.ttl)
		}
		if err != nil {
			slog.Warn("failed to write tag cache", "key", tagCacheKey, "error", err)
		}
	}
	return tags, nil
}

func (s *tagService) InvalidateTags(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, tagCacheKey)
}
