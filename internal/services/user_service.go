package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/honeynil/conduit/internal/infrastructure/auth"
	"github.com/honeynil/conduit/internal/infrastructure/kafka"
	"github.com/honeynil/conduit/internal/models"
	"github.com/honeynil/conduit/internal/repository"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TokenIssuer mints access tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.AuthUser, error)
	Login(ctx context.Context, email, password string) (*models.AuthUser, error)
	Current(ctx context.Context, userID int64) (*models.AuthUser, error)
	Update(ctx context.Context, userID int64, update models.UserUpdate) (*models.AuthUser, error)
}

type userService struct {
	userRepo  repository.UserRepository
	hasher    auth.PasswordHasher
	issuer    TokenIssuer
	publisher kafka.Publisher
}

func NewUserService(
	userRepo repository.UserRepository,
	hasher auth.PasswordHasher,
	issuer TokenIssuer,
	publisher kafka.Publisher,
) *userService {
	return &userService{
		userRepo:  userRepo,
		hasher:    hasher,
		issuer:    issuer,
		publisher: publisher,
	}
}

func (s *userService) Register(ctx context.Context, username, email, password string) (*models.AuthUser, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "Register")
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateRegistration(username, email, password); err != nil {
		span.SetStatus(codes.Error, "invalid registration")
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		recordError(span, err, "password hashing failed")
		slog.Error("failed to hash password", "username", username, "error", err)
		return nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		recordError(span, err, "user creation failed")
		if stderrors.Is(err, pkgerrors.ErrUserAlreadyExists) {
			return nil, err
		}
		slog.Error("failed to create user", "username", username, "error", err)
		return nil, fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}
	span.SetAttributes(attribute.Int64("user_id", user.ID))

	event := kafka.NewEvent(kafka.EventUserRegistered, time.Now())
	event.UserID = user.ID
	event.Username = user.Username
	publish(ctx, s.publisher, kafka.UsersTopic, strconv.FormatInt(user.ID, 10), event)

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return s.authUser(user)
}

func (s *userService) Login(ctx context.Context, email, password string) (*models.AuthUser, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "Login")
	defer span.End()

	if strings.TrimSpace(email) == "" || password == "" {
		span.SetStatus(codes.Error, "empty email or password")
		return nil, pkgerrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if stderrors.Is(err, pkgerrors.ErrUserNotFound) {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, pkgerrors.ErrInvalidCredentials
	}
	if err != nil {
		recordError(span, err, "user lookup failed")
		slog.Error("failed to get user", "error", err)
		return nil, fmt.Errorf("%w: failed to get user", pkgerrors.ErrInternal)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		span.SetStatus(codes.Error, "invalid credentials")
		slog.Warn("invalid password", "user_id", user.ID)
		return nil, pkgerrors.ErrInvalidCredentials
	}

	slog.Info("user logged in", "user_id", user.ID)
	return s.authUser(user)
}

func (s *userService) Current(ctx context.Context, userID int64) (*models.AuthUser, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "Current")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		recordError(span, err, "user lookup failed")
		return nil, err
	}
	return s.authUser(user)
}

func (s *userService) Update(ctx context.Context, userID int64, update models.UserUpdate) (*models.AuthUser, error) {
	ctx, span := otel.Tracer("user-service").Start(ctx, "Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		recordError(span, err, "user lookup failed")
		return nil, err
	}

	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return nil, pkgerrors.NewValidationError("username", "can't be blank")
		}
		user.Username = username
	}
	if update.Password != nil {
		if *update.Password == "" {
			return nil, pkgerrors.NewValidationError("password", "can't be blank")
		}
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			recordError(span, err, "password hashing failed")
			slog.Error("failed to hash password", "user_id", userID, "error", err)
			return nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
		}
		user.PasswordHash = hash
	}
	if update.Bio != nil {
		user.Bio = update.Bio
	}
	if update.Image != nil {
		user.Image = update.Image
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		recordError(span, err, "user update failed")
		return nil, err
	}
	return s.authUser(user)
}

func (s *userService) authUser(user *models.User) (*models.AuthUser, error) {
	token, err := s.issuer.Issue(strconv.FormatInt(user.ID, 10))
	if err != nil {
		slog.Error("failed to issue token", "user_id", user.ID, "error", err)
		return nil, err
	}
	return models.NewAuthUser(user, token), nil
}

func validateRegistration(username, email, password string) error {
	if username == "" {
		return pkgerrors.NewValidationError("username", "can't be blank")
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return pkgerrors.NewValidationError("password", "can't be blank")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return pkgerrors.NewValidationError("email", "can't be blank")
	}
	if !strings.Contains(email, "@") {
		return pkgerrors.NewValidationError("email", "is invalid")
	}
	return nil
}
