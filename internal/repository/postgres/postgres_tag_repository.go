package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type PostgresTagRepository struct {
	db *sql.DB
}

func NewPostgresTagRepository(db *sql.DB) *PostgresTagRepository {
	return &PostgresTagRepository{db: db}
}

// List returns the names of tags attached to at least one article.
func (r *PostgresTagRepository) List(ctx context.Context) (tags []string, err error) {
	ctx, done := instrument(ctx, "tag-repository", "ListTags")
	defer func() { done(err) }()

	query := `SELECT DISTINCT t.name FROM tags t JOIN article_tags at ON at.tag_id = t.id ORDER BY t.name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Error("failed to list tags", "method", "ListTags", "error", err)
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags = make([]string, 0)
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return tags, nil
}
