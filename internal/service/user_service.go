package service

import (
	"context"
	"errors"
	"strings"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
)

var ErrEmailImmutable = errors.New("email cannot be changed")

type UpdateProfileRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required,phone"`
	Address string `json:"address" validate:"required"`
	// Email is accepted only so a client echoing it back is not rejected.
	Email string `json:"email,omitempty"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*model.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*model.UserResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*model.UserResponse, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*model.UserResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if err := validateInput(req); err != nil {
		return nil, err
	}

	user, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Email != "" && NormalizeEmail(req.Email) != user.Email {
		return nil, &ValidationError{Field: "email", Message: ErrEmailImmutable.Error()}
	}

	user.Name = req.Name
	user.Phone = req.Phone
	user.Address = req.Address
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) find(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
