package handler

import (
	"context"

	"github.com/honeynil/conduit/internal/models"
	service "github.com/honeynil/conduit/internal/services"
	"github.com/stretchr/testify/mock"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) Register(ctx context.Context, username, email, password string) (*models.AuthUser, error) {
	args := m.Called(ctx, username, email, password)
	user, _ := args.Get(0).(*models.AuthUser)
	return user, args.Error(1)
}

func (m *mockUserService) Login(ctx context.Context, email, password string) (*models.AuthUser, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(0).(*models.AuthUser)
	return user, args.Error(1)
}

func (m *mockUserService) Current(ctx context.Context, userID int64) (*models.AuthUser, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.AuthUser)
	return user, args.Error(1)
}

func (m *mockUserService) Update(ctx context.Context, userID int64, update models.UserUpdate) (*models.AuthUser, error) {
	args := m.Called(ctx, userID, update)
	user, _ := args.Get(0).(*models.AuthUser)
	return user, args.Error(1)
}

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) Get(ctx context.Context, viewerID int64, username string) (*models.Profile, error) {
	args := m.Called(ctx, viewerID, username)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *mockProfileService) Follow(ctx context.Context, viewerID int64, username string) (*models.Profile, error) {
	args := m.Called(ctx, viewerID, username)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *mockProfileService) Unfollow(ctx context.Context, viewerID int64, username string) (*models.Profile, error) {
	args := m.Called(ctx, viewerID, username)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

type mockArticleService struct {
	mock.Mock
}

func (m *mockArticleService) Create(ctx context.Context, authorID int64, input service.ArticleInput) (*models.Article, error) {
	args := m.Called(ctx, authorID, input)
	article, _ := args.Get(0).(*models.Article)
	return article, args.Error(1)
}

func (m *mockArticleService) Get(ctx context.Context, viewerID int64, slug string) (*models.Article, error) {
	args := m.Called(ctx, viewerID, slug)
	article, _ := args.Get(0).(*models.Article)
	return article, args.Error(1)
}

func (m *mockArticleService) List(ctx context.Context, viewerID int64, filter models.ArticleFilter) ([]*models.Article, int64, error) {
	args := m.Called(ctx, viewerID, filter)
	articles, _ := args.Get(0).([]*models.Article)
	return articles, args.Get(1).(int64), args.Error(2)
}

func (m *mockArticleService) Feed(ctx context.Context, viewerID int64, limit, offset int) ([]*models.Article, int64, error) {
	args := m.Called(ctx, viewerID, limit, offset)
	articles, _ := args.Get(0).([]*models.Article)
	return articles, args.Get(1).(int64), args.Error(2)
}

func (m *mockArticleService) Update(ctx context.Context, userID int64, slug string, update models.ArticleUpdate) (*models.Article, error) {
	args := m.Called(ctx, userID, slug, update)
	article, _ := args.Get(0).(*models.Article)
	return article, args.Error(1)
}

func (m *mockArticleService) Delete(ctx context.Context, userID int64, slug string) error {
	return m.Called(ctx, userID, slug).Error(0)
}

func (m *mockArticleService) Favorite(ctx context.Context, userID int64, slug string) (*models.Article, error) {
	args := m.Called(ctx, userID, slug)
	article, _ := args.Get(0).(*models.Article)
	return article, args.Error(1)
}

func (m *mockArticleService) Unfavorite(ctx context.Context, userID int64, slug string) (*models.Article, error) {
	args := m.Called(ctx, userID, slug)
	article, _ := args.Get(0).(*models.Article)
	return article, args.Error(1)
}

type mockTagService struct {
	mock.Mock
}

func (m *mockTagService) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	tags, _ := args.Get(0).([]string)
	return tags, args.Error(1)
}

func (m *mockTagService) InvalidateTags(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
