package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
)

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	svc := NewUserService(repo)

	user := storedUser(t, "secret1")
	repo.On("FindByID", ctx, "u1").Return(user, nil)
	repo.On("UpdateProfile", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Address == "7 Park Street" && u.Email == "asha@example.com"
	})).Return(nil).Once()

	resp, err := svc.UpdateProfile(ctx, "u1", &UpdateProfileRequest{
		Name: "Asha", Phone: "9123456780", Address: " 7 Park Street ", Email: "asha@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "7 Park Street", resp.Address)
	assert.Equal(t, "9123456780", resp.Phone)
	repo.AssertExpectations(t)
}

func TestUpdateProfile_EmailIsImmutable(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	svc := NewUserService(repo)

	repo.On("FindByID", ctx, "u1").Return(storedUser(t, "secret1"), nil)

	_, err := svc.UpdateProfile(ctx, "u1", &UpdateProfileRequest{
		Name: "Asha", Phone: "9123456780", Address: "x", Email: "new@example.com",
	})
	assert.ErrorIs(t, err, ErrValidation)
	repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestGetProfile_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(mockUserRepo)
	repo.On("FindByID", ctx, "ghost").Return(nil, repository.ErrNotFound)

	_, err := NewUserService(repo).GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
