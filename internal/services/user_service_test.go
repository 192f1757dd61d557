package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/honeynil/conduit/internal/infrastructure/auth"
	"github.com/honeynil/conduit/internal/infrastructure/kafka"
	"github.com/honeynil/conduit/internal/models"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testHasher = auth.NewArgon2Hasher(auth.Argon2Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32})

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("successful registration", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		publisher := new(mockPublisher)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, publisher)

		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "jake" && u.Email == "jake@jake.jake" && testHasher.Verify("jakejake", u.PasswordHash)
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = 42
		}).Return(nil)
		publisher.On("Send", mock.Anything, kafka.UsersTopic, "42", mock.MatchedBy(func(value []byte) bool {
			var event kafka.Event
			return json.Unmarshal(value, &event) == nil && event.Type == kafka.EventUserRegistered && event.UserID == 42
		})).Return(nil)

		user, err := svc.Register(ctx, " jake ", "jake@jake.jake", "jakejake")
		require.NoError(t, err)
		assert.Equal(t, "jake", user.Username)
		assert.Equal(t, "token-for-42", user.Token)
		userRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("publish failure does not fail registration", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		publisher := new(mockPublisher)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, publisher)

		userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		publisher.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

		_, err := svc.Register(ctx, "jake", "jake@jake.jake", "jakejake")
		assert.NoError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		svc := NewUserService(new(mockUserRepository), testHasher, stubIssuer{}, kafka.NopPublisher{})

		cases := []struct{ username, email, password, field string }{
			{"", "jake@jake.jake", "pw", "username"},
			{"jake", "", "pw", "email"},
			{"jake", "not-an-email", "pw", "email"},
			{"jake", "jake@jake.jake", "", "password"},
		}
		for _, tc := range cases {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			var vErr *pkgerrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		}
	})

	t.Run("duplicate user", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, kafka.NopPublisher{})
		userRepo.On("Create", mock.Anything, mock.Anything).Return(pkgerrors.ErrUserAlreadyExists)

		_, err := svc.Register(ctx, "jake", "jake@jake.jake", "jakejake")
		assert.ErrorIs(t, err, pkgerrors.ErrUserAlreadyExists)
	})

	t.Run("database error", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, kafka.NopPublisher{})
		userRepo.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("connection reset"))

		_, err := svc.Register(ctx, "jake", "jake@jake.jake", "jakejake")
		assert.ErrorIs(t, err, pkgerrors.ErrInternal)
	})

	t.Run("signing failure", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		svc := NewUserService(userRepo, testHasher, stubIssuer{err: pkgerrors.ErrSigningFailure}, kafka.NopPublisher{})
		userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Register(ctx, "jake", "jake@jake.jake", "jakejake")
		assert.ErrorIs(t, err, pkgerrors.ErrSigningFailure)
	})
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := testHasher.Hash("jakejake")
	require.NoError(t, err)
	stored := &models.User{ID: 7, Email: "jake@jake.jake", Username: "jake", PasswordHash: hash}

	t.Run("successful login", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, kafka.NopPublisher{})
		userRepo.On("GetByEmail", mock.Anything, "jake@jake.jake").Return(stored, nil)

		user, err := svc.Login(ctx, "jake@jake.jake", "jakejake")
		require.NoError(t, err)
		assert.Equal(t, "token-for-7", user.Token)
		assert.Equal(t, "jake@jake.jake", user.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, kafka.NopPublisher{})
		userRepo.On("GetByEmail", mock.Anything, "jake@jake.jake").Return(stored, nil)

		_, err := svc.Login(ctx, "jake@jake.jake", "wrong")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, kafka.NopPublisher{})
		userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, pkgerrors.ErrUserNotFound)

		_, err := svc.Login(ctx, "nobody@example.com", "jakejake")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidCredentials)
	})

	t.Run("empty credentials", func(t *testing.T) {
		svc := NewUserService(new(mockUserRepository), testHasher, stubIssuer{}, kafka.NopPublisher{})
		_, err := svc.Login(ctx, "", "")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidCredentials)
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	newStored := func() *models.User {
		return &models.User{ID: 7, Email: "jake@jake.jake", Username: "jake", PasswordHash: "old"}
	}

	t.Run("updates fields and rehashes password", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, kafka.NopPublisher{})
		userRepo.On("GetByID", mock.Anything, int64(7)).Return(newStored(), nil)
		userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "new@jake.jake" && u.Bio != nil && *u.Bio == "I like to skateboard" &&
				testHasher.Verify("newpassword", u.PasswordHash)
		})).Return(nil)

		email, bio, password := "new@jake.jake", "I like to skateboard", "newpassword"
		user, err := svc.Update(ctx, 7, models.UserUpdate{Email: &email, Bio: &bio, Password: &password})
		require.NoError(t, err)
		assert.Equal(t, "new@jake.jake", user.Email)
		assert.Equal(t, "jake", user.Username)
		userRepo.AssertExpectations(t)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, kafka.NopPublisher{})
		userRepo.On("GetByID", mock.Anything, int64(7)).Return(newStored(), nil)

		email := "nope"
		_, err := svc.Update(ctx, 7, models.UserUpdate{Email: &email})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("current user not found", func(t *testing.T) {
		userRepo := new(mockUserRepository)
		svc := NewUserService(userRepo, testHasher, stubIssuer{}, kafka.NopPublisher{})
		userRepo.On("GetByID", mock.Anything, int64(9)).Return(nil, pkgerrors.ErrUserNotFound)

		_, err := svc.Current(ctx, 9)
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
	})
}
