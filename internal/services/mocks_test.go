package service

import (
	"context"
	"time"

	"github.com/honeynil/conduit/internal/models"
	"github.com/stretchr/testify/mock"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

type mockFollowRepository struct {
	mock.Mock
}

func (m *mockFollowRepository) IsFollowing(ctx context.Context, followerID, followingID int64) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *mockFollowRepository) Follow(ctx context.Context, followerID, followingID int64) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

func (m *mockFollowRepository) Unfollow(ctx context.Context, followerID, followingID int64) error {
	return m.Called(ctx, followerID, followingID).Error(0)
}

type mockArticleRepository struct {
	mock.Mock
}

func (m *mockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	return m.Called(ctx, article).Error(0)
}

func (m *mockArticleRepository) GetBySlug(ctx context.Context, slug string, viewerID int64) (*models.Article, error) {
	args := m.Called(ctx, slug, viewerID)
	article, _ := args.Get(0).(*models.Article)
	return article, args.Error(1)
}

func (m *mockArticleRepository) List(ctx context.Context, filter models.ArticleFilter, viewerID int64) ([]*models.Article, int64, error) {
	args := m.Called(ctx, filter, viewerID)
	articles, _ := args.Get(0).([]*models.Article)
	return articles, args.Get(1).(int64), args.Error(2)
}

func (m *mockArticleRepository) Feed(ctx context.Context, viewerID int64, limit, offset int) ([]*models.Article, int64, error) {
	args := m.Called(ctx, viewerID, limit, offset)
	articles, _ := args.Get(0).([]*models.Article)
	return articles, args.Get(1).(int64), args.Error(2)
}

func (m *mockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	return m.Called(ctx, article).Error(0)
}

func (m *mockArticleRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockArticleRepository) Favorite(ctx context.Context, articleID, userID int64) error {
	return m.Called(ctx, articleID, userID).Error(0)
}

func (m *mockArticleRepository) Unfavorite(ctx context.Context, articleID, userID int64) error {
	return m.Called(ctx, articleID, userID).Error(0)
}

type mockTagRepository struct {
	mock.Mock
}

func (m *mockTagRepository) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	tags, _ := args.Get(0).([]string)
	return tags, args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *mockCache) Del(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCache) Close() error {
	return m.Called().Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Send(ctx context.Context, topic string, key string, value []byte) error {
	return m.Called(ctx, topic, key, value).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type mockTagInvalidator struct {
	mock.Mock
}

func (m *mockTagInvalidator) InvalidateTags(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type stubIssuer struct {
	err error
}

func (s stubIssuer) Issue(subject string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + subject, nil
}
