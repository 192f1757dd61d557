package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/honeynil/conduit/internal/infrastructure/kafka"
	"github.com/honeynil/conduit/internal/models"
	"github.com/honeynil/conduit/internal/repository"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ArticleInput struct {
	Title       string
	Description string
	Body        string
	TagList     []string
}

// ArticleService manages articles and favorites. viewerID 0 is an anonymous
// viewer; mutating calls require a real user.
type ArticleService interface {
	Create(ctx context.Context, authorID int64, input ArticleInput) (*models.Article, error)
	Get(ctx context.Context, viewerID int64, slug string) (*models.Article, error)
	List(ctx context.Context, viewerID int64, filter models.ArticleFilter) ([]*models.Article, int64, error)
	Feed(ctx context.Context, viewerID int64, limit, offset int) ([]*models.Article, int64, error)
	Update(ctx context.Context, userID int64, slug string, update models.ArticleUpdate) (*models.Article, error)
	Delete(ctx context.Context, userID int64, slug string) error
	Favorite(ctx context.Context, userID int64, slug string) (*models.Article, error)
	Unfavorite(ctx context.Context, userID int64, slug string) (*models.Article, error)
}

type TagInvalidator interface {
	InvalidateTags(ctx context.Context) error
}

type articleService struct {
	articleRepo repository.ArticleRepository
	tags        TagInvalidator
	publisher   kafka.Publisher
}

func NewArticleService(articleRepo repository.ArticleRepository, tags TagInvalidator, publisher kafka.Publisher) *articleService {
	return &articleService{
		articleRepo: articleRepo,
		tags:        tags,
		publisher:   publisher,
	}
}

func (s *articleService) Create(ctx context.Context, authorID int64, input ArticleInput) (*models.Article, error) {
	ctx, span := otel.Tracer("article-service").Start(ctx, "CreateArticle")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", authorID))

	article := &models.Article{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Body:        input.Body,
		TagList:     models.NormalizeTags(input.TagList),
		AuthorID:    authorID,
	}
	if err := validateArticle(article); err != nil {
		recordError(span, err, "invalid article")
		return nil, err
	}
	article.Slug = models.Slugify(article.Title)

	if err := s.articleRepo.Create(ctx, article); err != nil {
		recordError(span, err, "article creation failed")
		return nil, err
	}

	if len(article.TagList) > 0 {
		s.invalidateTags(ctx)
	}
	s.publish(ctx, kafka.EventArticleCreated, article, authorID)

	slog.Info("article created", "article_id", article.ID, "slug", article.Slug, "user_id", authorID)
	return s.articleRepo.GetBySlug(ctx, article.Slug, authorID)
}

func (s *articleService) Get(ctx context.Context, viewerID int64, slug string) (*models.Article, error) {
	ctx, span := otel.Tracer("article-service").Start(ctx, "GetArticle")
	defer span.End()
	span.SetAttributes(attribute.String("slug", slug))

	article, err := s.articleRepo.GetBySlug(ctx, slug, viewerID)
	if err != nil {
		recordError(span, err, "article lookup failed")
		return nil, err
	}
	return article, nil
}

func (s *articleService) List(ctx context.Context, viewerID int64, filter models.ArticleFilter) ([]*models.Article, int64, error) {
	ctx, span := otel.Tracer("article-service").Start(ctx, "ListArticles")
	defer span.End()

	articles, total, err := s.articleRepo.List(ctx, filter.Normalize(), viewerID)
	if err != nil {
		recordError(span, err, "article list failed")
		return nil, 0, err
	}
	return articles, total, nil
}

func (s *articleService) Feed(ctx context.Context, viewerID int64, limit, offset int) ([]*models.Article, int64, error) {
	ctx, span := otel.Tracer("article-service").Start(ctx, "FeedArticles")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", viewerID))

	page := models.ArticleFilter{Limit: limit, Offset: offset}.Normalize()
	articles, total, err := s.articleRepo.Feed(ctx, viewerID, page.Limit, page.Offset)
	if err != nil {
		recordError(span, err, "feed failed")
		return nil, 0, err
	}
	return articles, total, nil
}

func (s *articleService) Update(ctx context.Context, userID int64, slug string, update models.ArticleUpdate) (*models.Article, error) {
	ctx, span := otel.Tracer("article-service").Start(ctx, "UpdateArticle")
	defer span.End()

	article, err := s.ownedArticle(ctx, span, userID, slug)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		article.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		article.Description = strings.TrimSpace(*update.Description)
	}
	if update.Body != nil {
		article.Body = *update.Body
	}
	if err := validateArticle(article); err != nil {
		recordError(span, err, "invalid article")
		return nil, err
	}
	article.Slug = models.Slugify(article.Title)

	if err := s.articleRepo.Update(ctx, article); err != nil {
		recordError(span, err, "article update failed")
		return nil, err
	}
	s.publish(ctx, kafka.EventArticleUpdated, article, userID)

	slog.Info("article updated", "article_id", article.ID, "slug", article.Slug, "user_id", userID)
	return s.articleRepo.GetBySlug(ctx, article.Slug, userID)
}

func (s *articleService) Delete(ctx context.Context, userID int64, slug string) error {
	ctx, span := otel.Tracer("article-service").Start(ctx, "DeleteArticle")
	defer span.End()

	article, err := s.ownedArticle(ctx, span, userID, slug)
	if err != nil {
		return err
	}
	if err := s.articleRepo.Delete(ctx, article.ID); err != nil {
		recordError(span, err, "article delete failed")
		return err
	}

	s.invalidateTags(ctx)
	s.publish(ctx, kafka.EventArticleDeleted, article, userID)

	slog.Info("article deleted", "article_id", article.ID, "slug", article.Slug, "user_id", userID)
	return nil
}

func (s *articleService) Favorite(ctx context.Context, userID int64, slug string) (*models.Article, error) {
	ctx, span := otel.Tracer("article-service").Start(ctx, "FavoriteArticle")
	defer span.End()

	article, err := s.Get(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	if err := s.articleRepo.Favorite(ctx, article.ID, userID); err != nil {
		recordError(span, err, "favorite failed")
		return nil, err
	}
	s.publish(ctx, kafka.EventArticleFavorited, article, userID)
	return s.articleRepo.GetBySlug(ctx, slug, userID)
}

func (s *articleService) Unfavorite(ctx context.Context, userID int64, slug string) (*models.Article, error) {
	ctx, span := otel.Tracer("article-service").Start(ctx, "UnfavoriteArticle")
	defer span.End()

	article, err := s.Get(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	if err := s.articleRepo.Unfavorite(ctx, article.ID, userID); err != nil {
		recordError(span, err, "unfavorite failed")
		return nil, err
	}
	s.publish(ctx, kafka.EventArticleUnfavorited, article, userID)
	return s.articleRepo.GetBySlug(ctx, slug, userID)
}

func (s *articleService) ownedArticle(ctx context.Context, span trace.Span, userID int64, slug string) (*models.Article, error) {
	span.SetAttributes(attribute.String("slug", slug), attribute.Int64("user_id", userID))

	article, err := s.articleRepo.GetBySlug(ctx, slug, userID)
	if err != nil {
		recordError(span, err, "article lookup failed")
		return nil, err
	}
	if article.AuthorID != userID {
		recordError(span, pkgerrors.ErrForbidden, "not the author")
		slog.Warn("article change by non-author", "article_id", article.ID, "user_id", userID)
		return nil, pkgerrors.ErrForbidden
	}
	return article, nil
}

func (s *articleService) invalidateTags(ctx context.Context) {
	if s.tags == nil {
		return
	}
	if err := s.tags.InvalidateTags(ctx); err != nil {
		slog.Warn("failed to invalidate tag cache", "error", err)
	}
}

func (s *articleService) publish(ctx context.Context, eventType kafka.EventType, article *models.Article, userID int64) {
	event := kafka.NewEvent(eventType, time.Now())
	event.UserID = userID
	event.ArticleID = article.ID
	event.Slug = article.Slug
	event.Tags = article.TagList
	publish(ctx, s.publisher, kafka.ArticlesTopic, article.Slug, event)
}

func validateArticle(article *models.Article) error {
	switch {
	case article.Title == "":
		return pkgerrors.NewValidationError("title", "can't be blank")
	case models.Slugify(article.Title) == "":
		return pkgerrors.NewValidationError("title", "must contain a letter or digit")
	case article.Description == "":
		return pkgerrors.NewValidationError("description", "can't be blank")
	case strings.TrimSpace(article.Body) == "":
		return pkgerrors.NewValidationError("body", "can't be blank")
	}
	return nil
}
