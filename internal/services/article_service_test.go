package service

import (
	"context"
	"errors"
	"testing"

	"github.com/honeynil/conduit/internal/infrastructure/kafka"
	"github.com/honeynil/conduit/internal/models"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type articleFixture struct {
	svc       *articleService
	repo      *mockArticleRepository
	tags      *mockTagInvalidator
	publisher *mockPublisher
}

func newArticleFixture() articleFixture {
	f := articleFixture{
		repo:      new(mockArticleRepository),
		tags:      new(mockTagInvalidator),
		publisher: new(mockPublisher),
	}
	f.svc = NewArticleService(f.repo, f.tags, f.publisher)
	return f
}

func dragonArticle() *models.Article {
	return &models.Article{
		ID:          10,
		Slug:        "how-to-train-your-dragon",
		Title:       "How to train your dragon",
		Description: "Ever wonder how?",
		Body:        "You have to believe",
		TagList:     []string{"dragons"},
		AuthorID:    1,
		Author:      models.Profile{Username: "jake"},
	}
}

func TestArticleService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with slug and invalidates tags", func(t *testing.T) {
		f := newArticleFixture()
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Article) bool {
			return a.Slug == "how-to-train-your-dragon" && a.AuthorID == 1 &&
				assert.ObjectsAreEqual([]string{"dragons", "training"}, a.TagList)
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Article).ID = 10
		}).Return(nil)
		f.repo.On("GetBySlug", mock.Anything, "how-to-train-your-dragon", int64(1)).Return(dragonArticle(), nil)
		f.tags.On("InvalidateTags", mock.Anything).Return(nil).Once()
		f.publisher.On("Send", mock.Anything, kafka.ArticlesTopic, "how-to-train-your-dragon", mock.Anything).Return(nil)

		article, err := f.svc.Create(ctx, 1, ArticleInput{
			Title:       "How to train your dragon",
			Description: "Ever wonder how?",
			Body:        "You have to believe",
			TagList:     []string{"dragons", " training", "dragons"},
		})
		require.NoError(t, err)
		assert.Equal(t, "jake", article.Author.Username)
		f.repo.AssertExpectations(t)
		f.tags.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("without tags keeps cache", func(t *testing.T) {
		f := newArticleFixture()
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.repo.On("GetBySlug", mock.Anything, "plain", int64(1)).Return(&models.Article{Slug: "plain"}, nil)
		f.publisher.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.Create(ctx, 1, ArticleInput{Title: "Plain", Description: "d", Body: "b"})
		require.NoError(t, err)
		f.tags.AssertNotCalled(t, "InvalidateTags", mock.Anything)
	})

	t.Run("validation", func(t *testing.T) {
		f := newArticleFixture()
		cases := map[string]ArticleInput{
			"title":       {Title: "", Description: "d", Body: "b"},
			"description": {Title: "t", Description: " ", Body: "b"},
			"body":        {Title: "t", Description: "d", Body: ""},
		}
		for field, input := range cases {
			_, err := f.svc.Create(ctx, 1, input)
			var vErr *pkgerrors.ValidationError
			require.ErrorAs(t, err, &vErr, field)
			assert.Equal(t, field, vErr.Field)
		}

		_, err := f.svc.Create(ctx, 1, ArticleInput{Title: "???", Description: "d", Body: "b"})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		f := newArticleFixture()
		f.repo.On("Create", mock.Anything, mock.Anything).Return(pkgerrors.ErrArticleAlreadyExists)

		_, err := f.svc.Create(ctx, 1, ArticleInput{Title: "Dup", Description: "d", Body: "b"})
		assert.ErrorIs(t, err, pkgerrors.ErrArticleAlreadyExists)
	})
}

func TestArticleService_UpdateDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("author updates title and slug", func(t *testing.T) {
		f := newArticleFixture()
		f.repo.On("GetBySlug", mock.Anything, "how-to-train-your-dragon", int64(1)).Return(dragonArticle(), nil).Once()
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(a *models.Article) bool {
			return a.Slug == "did-you-train-your-dragon" && a.Body == "You have to believe"
		})).Return(nil)
		updated := dragonArticle()
		updated.Slug = "did-you-train-your-dragon"
		f.repo.On("GetBySlug", mock.Anything, "did-you-train-your-dragon", int64(1)).Return(updated, nil).Once()
		f.publisher.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		title := "Did you train your dragon?"
		article, err := f.svc.Update(ctx, 1, "how-to-train-your-dragon", models.ArticleUpdate{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "did-you-train-your-dragon", article.Slug)
		f.repo.AssertExpectations(t)
	})

	t.Run("non-author is forbidden", func(t *testing.T) {
		f := newArticleFixture()
		f.repo.On("GetBySlug", mock.Anything, "how-to-train-your-dragon", int64(2)).Return(dragonArticle(), nil)

		body := "hijacked"
		_, err := f.svc.Update(ctx, 2, "how-to-train-your-dragon", models.ArticleUpdate{Body: &body})
		assert.ErrorIs(t, err, pkgerrors.ErrForbidden)

		err = f.svc.Delete(ctx, 2, "how-to-train-your-dragon")
		assert.ErrorIs(t, err, pkgerrors.ErrForbidden)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("author deletes", func(t *testing.T) {
		f := newArticleFixture()
		f.repo.On("GetBySlug", mock.Anything, "how-to-train-your-dragon", int64(1)).Return(dragonArticle(), nil)
		f.repo.On("Delete", mock.Anything, int64(10)).Return(nil)
		f.tags.On("InvalidateTags", mock.Anything).Return(errors.New("redis down"))
		f.publisher.On("Send", mock.Anything, kafka.ArticlesTopic, mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, f.svc.Delete(ctx, 1, "how-to-train-your-dragon"))
		f.repo.AssertExpectations(t)
		f.tags.AssertExpectations(t)
	})

	t.Run("missing article", func(t *testing.T) {
		f := newArticleFixture()
		f.repo.On("GetBySlug", mock.Anything, "missing", int64(1)).Return(nil, pkgerrors.ErrArticleNotFound)

		assert.ErrorIs(t, f.svc.Delete(ctx, 1, "missing"), pkgerrors.ErrArticleNotFound)
	})
}

func TestArticleService_Favorites(t *testing.T) {
	ctx := context.Background()

	f := newArticleFixture()
	before := dragonArticle()
	after := dragonArticle()
	after.Favorited = true
	after.FavoritesCount = 1
	f.repo.On("GetBySlug", mock.Anything, "how-to-train-your-dragon", int64(3)).Return(before, nil).Once()
	f.repo.On("Favorite", mock.Anything, int64(10), int64(3)).Return(nil)
	f.repo.On("GetBySlug", mock.Anything, "how-to-train-your-dragon", int64(3)).Return(after, nil).Once()
	f.publisher.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	article, err := f.svc.Favorite(ctx, 3, "how-to-train-your-dragon")
	require.NoError(t, err)
	assert.True(t, article.Favorited)
	assert.Equal(t, int64(1), article.FavoritesCount)

	f.repo.On("GetBySlug", mock.Anything, "how-to-train-your-dragon", int64(3)).Return(after, nil).Once()
	f.repo.On("Unfavorite", mock.Anything, int64(10), int64(3)).Return(nil)
	f.repo.On("GetBySlug", mock.Anything, "how-to-train-your-dragon", int64(3)).Return(before, nil).Once()

	article, err = f.svc.Unfavorite(ctx, 3, "how-to-train-your-dragon")
	require.NoError(t, err)
	assert.False(t, article.Favorited)
	f.repo.AssertExpectations(t)
}

func TestArticleService_ListAndFeed(t *testing.T) {
	ctx := context.Background()
	f := newArticleFixture()

	f.repo.On("List", mock.Anything, models.ArticleFilter{Tag: "dragons", Limit: models.DefaultArticleLimit}, int64(0)).
		Return([]*models.Article{dragonArticle()}, int64(1), nil)
	f.repo.On("Feed", mock.Anything, int64(3), models.MaxArticleLimit, 40).
		Return([]*models.Article{}, int64(0), nil)

	articles, total, err := f.svc.List(ctx, 0, models.ArticleFilter{Tag: "dragons"})
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	assert.Equal(t, int64(1), total)

	articles, total, err = f.svc.Feed(ctx, 3, 500, 40)
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Zero(t, total)
	f.repo.AssertExpectations(t)
}
