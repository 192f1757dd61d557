package service

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/honeynil/conduit/internal/models"
	"github.com/honeynil/conduit/internal/repository"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProfileService exposes other users' public profiles. viewerID 0 is an
// anonymous viewer.
type ProfileService interface {
	Get(ctx context.Context, viewerID int64, username string) (*models.Profile, error)
	Follow(ctx context.Context, viewerID int64, username string) (*models.Profile, error)
	Unfollow(ctx context.Context, viewerID int64, username string) (*models.Profile, error)
}

type profileService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewProfileService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *profileService {
	return &profileService{userRepo: userRepo, followRepo: followRepo}
}

func (s *profileService) Get(ctx context.Context, viewerID int64, username string) (*models.Profile, error) {
	ctx, span := otel.Tracer("profile-service").Start(ctx, "GetProfile")
	defer span.End()

	user, err := s.lookup(ctx, span, username)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.IsFollowing(ctx, viewerID, user.ID)
	if err != nil {
		recordError(span, err, "follow lookup failed")
		return nil, err
	}
	return models.NewProfile(user, following), nil
}

func (s *profileService) Follow(ctx context.Context, viewerID int64, username string) (*models.Profile, error) {
	ctx, span := otel.Tracer("profile-service").Start(ctx, "Follow")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", viewerID))

	user, err := s.lookup(ctx, span, username)
	if err != nil {
		return nil, err
	}
	if user.ID == viewerID {
		return nil, pkgerrors.ErrCannotFollowSelf
	}
	if err := s.followRepo.Follow(ctx, viewerID, user.ID); err != nil {
		recordError(span, err, "follow failed")
		return nil, err
	}

	slog.Info("profile followed", "user_id", viewerID, "following_id", user.ID)
	return models.NewProfile(user, true), nil
}

func (s *profileService) Unfollow(ctx context.Context, viewerID int64, username string) (*models.Profile, error) {
	ctx, span := otel.Tracer("profile-service").Start(ctx, "Unfollow")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", viewerID))

	user, err := s.lookup(ctx, span, username)
	if err != nil {
		return nil, err
	}
	if err := s.followRepo.Unfollow(ctx, viewerID, user.ID); err != nil {
		recordError(span, err, "unfollow failed")
		return nil, err
	}

	slog.Info("profile unfollowed", "user_id", viewerID, "following_id", user.ID)
	return models.NewProfile(user, false), nil
}

func (s *profileService) lookup(ctx context.Context, span trace.Span, username string) (*models.User, error) {
	span.SetAttributes(attribute.String("username", username))
	user, err := s.userRepo.GetByUsername(ctx, username)
	if stderrors.Is(err, pkgerrors.ErrUserNotFound) || stderrors.Is(err, pkgerrors.ErrInvalidInput) {
		recordError(span, err, "profile not found")
		return nil, pkgerrors.ErrProfileNotFound
	}
	if err != nil {
		recordError(span, err, "user lookup failed")
		return nil, err
	}
	return user, nil
}
