package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/honeynil/conduit/internal/models"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const userColumns = `id, email, username, password_hash, bio, image, created_at, updated_at`

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, done := instrument(ctx, "user-repository", "CreateUser")
	defer func() { done(err) }()

	if user == nil {
		return pkgerrors.ErrNilUser
	}
	if user.Email == "" || user.Username == "" || user.PasswordHash == "" {
		return fmt.Errorf("%w: email, username and password_hash are required", pkgerrors.ErrInvalidInput)
	}

	query := `INSERT INTO users (email, username, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, user.Email, user.Username, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		slog.Warn("user already exists", "method", "Create", "username", user.Username)
		return pkgerrors.ErrUserAlreadyExists
	}
	if err != nil {
		slog.Error("failed to create user", "method", "Create", "username", user.Username, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created", "method", "Create", "user_id", user.ID, "username", user.Username)
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (user *models.User, err error) {
	ctx, done := instrument(ctx, "user-repository", "GetUserByID", attribute.Int64("user_id", id))
	defer func() { done(err) }()

	return r.getOne(ctx, "GetByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (user *models.User, err error) {
	ctx, done := instrument(ctx, "user-repository", "GetUserByEmail")
	defer func() { done(err) }()

	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", pkgerrors.ErrInvalidInput)
	}
	return r.getOne(ctx, "GetByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (user *models.User, err error) {
	ctx, done := instrument(ctx, "user-repository", "GetUserByUsername", attribute.String("username", username))
	defer func() { done(err) }()

	if username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", pkgerrors.ErrInvalidInput)
	}
	return r.getOne(ctx, "GetByUsername", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, method, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Bio,
		&user.Image,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrUserNotFound
	case err != nil:
		slog.Error("failed to get user", "method", method, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) (err error) {
	if user == nil {
		return pkgerrors.ErrNilUser
	}
	ctx, done := instrument(ctx, "user-repository", "UpdateUser", attribute.Int64("user_id", user.ID))
	defer func() { done(err) }()

	query := `
		UPDATE users
		SET email = $1, username = $2, password_hash = $3, bio = $4, image = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, query, user.Email, user.Username, user.PasswordHash, user.Bio, user.Image, user.ID).
		Scan(&user.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return pkgerrors.ErrUserNotFound
	case isUniqueViolation(err):
		return pkgerrors.ErrUserAlreadyExists
	case err != nil:
		slog.Error("failed to update user", "method", "Update", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("user updated", "method", "Update", "user_id", user.ID)
	return nil
}
