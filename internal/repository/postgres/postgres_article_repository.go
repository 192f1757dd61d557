package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/honeynil/conduit/internal/models"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

// selectArticles expects the viewer id as $1. The trailing window count
// carries the total number of matches before LIMIT/OFFSET.
const selectArticles = `
	SELECT a.id, a.slug, a.title, a.description, a.body, a.created_at, a.updated_at,
		u.id, u.username, u.bio, u.image,
		ARRAY(SELECT t.name FROM article_tags at JOIN tags t ON t.id = at.tag_id
			WHERE at.article_id = a.id ORDER BY t.name) AS tag_list,
		(SELECT COUNT(*) FROM article_favorites f WHERE f.article_id = a.id) AS favorites_count,
		EXISTS (SELECT 1 FROM article_favorites f WHERE f.article_id = a.id AND f.user_id = $1) AS favorited,
		EXISTS (SELECT 1 FROM user_follows uf WHERE uf.follower_id = $1 AND uf.following_id = u.id) AS following,
		COUNT(*) OVER() AS total
	FROM articles a
	JOIN users u ON u.id = a.author_id`

const articleOrder = ` ORDER BY a.created_at DESC, a.id DESC`

type PostgresArticleRepository struct {
	db *sql.DB
}

func NewPostgresArticleRepository(db *sql.DB) *PostgresArticleRepository {
	return &PostgresArticleRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, int64, error) {
	var (
		a     models.Article
		tags  []string
		total int64
	)
	err := row.Scan(
		&a.ID, &a.Slug, &a.Title, &a.Description, &a.Body, &a.CreatedAt, &a.UpdatedAt,
		&a.AuthorID, &a.Author.Username, &a.Author.Bio, &a.Author.Image,
		pq.Array(&tags),
		&a.FavoritesCount,
		&a.Favorited,
		&a.Author.Following,
		&total,
	)
	if err != nil {
		return nil, 0, err
	}
	if tags == nil {
		tags = []string{}
	}
	a.TagList = tags
	return &a, total, nil
}

func (r *PostgresArticleRepository) Create(ctx context.Context, article *models.Article) (err error) {
	ctx, done := instrument(ctx, "article-repository", "CreateArticle")
	defer func() { done(err) }()

	if article == nil {
		return pkgerrors.ErrNilArticle
	}
	if article.Slug == "" || article.AuthorID == 0 {
		return fmt.Errorf("%w: slug and author are required", pkgerrors.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "CreateArticle", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO articles (slug, title, description, body, author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query, article.Slug, article.Title, article.Description, article.Body, article.AuthorID).
		Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
	if isUniqueViolation(err) {
		slog.Warn("article already exists", "method", "CreateArticle", "slug", article.Slug)
		return pkgerrors.ErrArticleAlreadyExists
	}
	if err != nil {
		slog.Error("failed to create article", "method", "CreateArticle", "slug", article.Slug, "error", err)
		return fmt.Errorf("failed to create article: %w", err)
	}

	for _, tag := range article.TagList {
		var tagID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`,
			tag).Scan(&tagID)
		if err != nil {
			slog.Error("failed to upsert tag", "method", "CreateArticle", "tag", tag, "error", err)
			return fmt.Errorf("failed to upsert tag: %w", err)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO article_tags (article_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			article.ID, tagID); err != nil {
			slog.Error("failed to tag article", "method", "CreateArticle", "tag", tag, "error", err)
			return fmt.Errorf("failed to tag article: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "method", "CreateArticle", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("article created", "method", "CreateArticle", "article_id", article.ID, "slug", article.Slug)
	return nil
}

func (r *PostgresArticleRepository) GetBySlug(ctx context.Context, slug string, viewerID int64) (article *models.Article, err error) {
	ctx, done := instrument(ctx, "article-repository", "GetArticleBySlug", attribute.String("slug", slug))
	defer func() { done(err) }()

	if slug == "" {
		return nil, fmt.Errorf("%w: slug cannot be empty", pkgerrors.ErrInvalidInput)
	}

	article, _, err = scanArticle(r.db.QueryRowContext(ctx, selectArticles+` WHERE a.slug = $2`, viewerID, slug))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrArticleNotFound
	case err != nil:
		slog.Error("failed to get article", "method", "GetBySlug", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

func (r *PostgresArticleRepository) List(ctx context.Context, filter models.ArticleFilter, viewerID int64) (articles []*models.Article, total int64, err error) {
	ctx, done := instrument(ctx, "article-repository", "ListArticles",
		attribute.String("tag", filter.Tag), attribute.String("author", filter.Author), attribute.String("favorited", filter.Favorited))
	defer func() { done(err) }()

	filter = filter.Normalize()
	args := []any{viewerID}
	var where []string
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf(`EXISTS (SELECT 1 FROM article_tags at JOIN tags t ON t.id = at.tag_id
			WHERE at.article_id = a.id AND t.name = $%d)`, len(args)))
	}
	if filter.Author != "" {
		args = append(args, filter.Author)
		where = append(where, fmt.Sprintf(`u.username = $%d`, len(args)))
	}
	if filter.Favorited != "" {
		args = append(args, filter.Favorited)
		where = append(where, fmt.Sprintf(`EXISTS (SELECT 1 FROM article_favorites f JOIN users fu ON fu.id = f.user_id
			WHERE f.article_id = a.id AND fu.username = $%d)`, len(args)))
	}

	query := selectArticles
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	args = append(args, filter.Limit, filter.Offset)
	query += articleOrder + fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.query(ctx, "List", query, args...)
}

func (r *PostgresArticleRepository) Feed(ctx context.Context, viewerID int64, limit, offset int) (articles []*models.Article, total int64, err error) {
	ctx, done := instrument(ctx, "article-repository", "FeedArticles", attribute.Int64("viewer_id", viewerID))
	defer func() { done(err) }()

	page := models.ArticleFilter{Limit: limit, Offset: offset}.Normalize()
	query := selectArticles +
		` WHERE a.author_id IN (SELECT following_id FROM user_follows WHERE follower_id = $1)` +
		articleOrder + ` LIMIT $2 OFFSET $3`

	return r.query(ctx, "Feed", query, viewerID, page.Limit, page.Offset)
}

func (r *PostgresArticleRepository) query(ctx context.Context, method, query string, args ...any) ([]*models.Article, int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("failed to query articles", "method", method, "error", err)
		return nil, 0, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]*models.Article, 0)
	var total int64
	for rows.Next() {
		article, count, err := scanArticle(rows)
		if err != nil {
			slog.Error("failed to scan article", "method", method, "error", err)
			return nil, 0, fmt.Errorf("failed to scan article: %w", err)
		}
		total = count
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		slog.Error("rows iteration failed", "method", method, "error", err)
		return nil, 0, fmt.Errorf("rows iteration failed: %w", err)
	}

	return articles, total, nil
}

func (r *PostgresArticleRepository) Update(ctx context.Context, article *models.Article) (err error) {
	if article == nil {
		return pkgerrors.ErrNilArticle
	}
	ctx, done := instrument(ctx, "article-repository", "UpdateArticle", attribute.Int64("article_id", article.ID))
	defer func() { done(err) }()

	query := `
		UPDATE articles
		SET slug = $1, title = $2, description = $3, body = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, query, article.Slug, article.Title, article.Description, article.Body, article.ID).
		Scan(&article.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return pkgerrors.ErrArticleNotFound
	case isUniqueViolation(err):
		return pkgerrors.ErrArticleAlreadyExists
	case err != nil:
		slog.Error("failed to update article", "method", "UpdateArticle", "article_id", article.ID, "error", err)
		return fmt.Errorf("failed to update article: %w", err)
	}

	slog.Info("article updated", "method", "UpdateArticle", "article_id", article.ID, "slug", article.Slug)
	return nil
}

func (r *PostgresArticleRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, done := instrument(ctx, "article-repository", "DeleteArticle", attribute.Int64("article_id", id))
	defer func() { done(err) }()

	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete article", "method", "DeleteArticle", "article_id", id, "error", err)
		return fmt.Errorf("failed to delete article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrArticleNotFound
	}

	slog.Info("article deleted", "method", "DeleteArticle", "article_id", id)
	return nil
}

func (r *PostgresArticleRepository) Favorite(ctx context.Context, articleID, userID int64) (err error) {
	ctx, done := instrument(ctx, "article-repository", "FavoriteArticle",
		attribute.Int64("article_id", articleID), attribute.Int64("user_id", userID))
	defer func() { done(err) }()

	query := `INSERT INTO article_favorites (article_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err = r.db.ExecContext(ctx, query, articleID, userID); err != nil {
		slog.Error("failed to favorite article", "method", "FavoriteArticle", "article_id", articleID, "error", err)
		return fmt.Errorf("failed to favorite article: %w", err)
	}
	return nil
}

func (r *PostgresArticleRepository) Unfavorite(ctx context.Context, articleID, userID int64) (err error) {
	ctx, done := instrument(ctx, "article-repository", "UnfavoriteArticle",
		attribute.Int64("article_id", articleID), attribute.Int64("user_id", userID))
	defer func() { done(err) }()

	query := `DELETE FROM article_favorites WHERE article_id = $1 AND user_id = $2`
	if _, err = r.db.ExecContext(ctx, query, articleID, userID); err != nil {
		slog.Error("failed to unfavorite article", "method", "UnfavoriteArticle", "article_id", articleID, "error", err)
		return fmt.Errorf("failed to unfavorite article: %w", err)
	}
	return nil
}
