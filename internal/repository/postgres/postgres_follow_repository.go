package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	pkgerrors "github.com/honeynil/conduit/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

type PostgresFollowRepository struct {
	db *sql.DB
}

func NewPostgresFollowRepository(db *sql.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID int64) (following bool, err error) {
	ctx, done := instrument(ctx, "follow-repository", "IsFollowing",
		attribute.Int64("follower_id", followerID), attribute.Int64("following_id", followingID))
	defer func() { done(err) }()

	if followerID == 0 {
		return false, nil
	}

	query := `SELECT EXISTS (SELECT 1 FROM user_follows WHERE follower_id = $1 AND following_id = $2)`
	if err = r.db.QueryRowContext(ctx, query, followerID, followingID).Scan(&following); err != nil {
		slog.Error("failed to check follow", "method", "IsFollowing", "follower_id", followerID, "error", err)
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return following, nil
}

func (r *PostgresFollowRepository) Follow(ctx context.Context, followerID, followingID int64) (err error) {
	ctx, done := instrument(ctx, "follow-repository", "Follow",
		attribute.Int64("follower_id", followerID), attribute.Int64("following_id", followingID))
	defer func() { done(err) }()

	if followerID == followingID {
		return pkgerrors.ErrCannotFollowSelf
	}

	query := `INSERT INTO user_follows (follower_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err = r.db.ExecContext(ctx, query, followerID, followingID); err != nil {
		slog.Error("failed to follow", "method", "Follow", "follower_id", followerID, "following_id", followingID, "error", err)
		return fmt.Errorf("failed to follow: %w", err)
	}

	slog.Info("user followed", "follower_id", followerID, "following_id", followingID)
	return nil
}

func (r *PostgresFollowRepository) Unfollow(ctx context.Context, followerID, followingID int64) (err error) {
	ctx, done := instrument(ctx, "follow-repository", "Unfollow",
		attribute.Int64("follower_id", followerID), attribute.Int64("following_id", followingID))
	defer func() { done(err) }()

	query := `DELETE FROM user_follows WHERE follower_id = $1 AND following_id = $2`
	if _, err = r.db.ExecContext(ctx, query, followerID, followingID); err != nil {
		slog.Error("failed to unfollow", "method", "Unfollow", "follower_id", followerID, "following_id", followingID, "error", err)
		return fmt.Errorf("failed to unfollow: %w", err)
	}

	slog.Info("user unfollowed", "follower_id", followerID, "following_id", followingID)
	return nil
}
