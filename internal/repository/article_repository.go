package repository

import (
	"context"

	"github.com/honeynil/conduit/internal/models"
)

// ArticleRepository loads articles with author, tags and favorite counts
// filled in. viewerID 0 means an anonymous viewer: Favorited and
// Author.Following are then always false.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetBySlug(ctx context.Context, slug string, viewerID int64) (*models.Article, error)
	List(ctx context.Context, filter models.ArticleFilter, viewerID int64) ([]*models.Article, int64, error)
	Feed(ctx context.Context, viewerID int64, limit, offset int) ([]*models.Article, int64, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id int64) error
	Favorite(ctx context.Context, articleID, userID int64) error
	Unfavorite(ctx context.Context, articleID, userID int64) error
}

type TagRepository interface {
	List(ctx context.Context) ([]string, error)
}
