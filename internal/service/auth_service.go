package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
	"quickgrocery/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrEmailExists        = errors.New("email already exists")
	ErrSessionExpired     = errors.New("session expired, please log in again")
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone"`
	Address  string `json:"address" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type AuthService interface {
	Signup(ctx context.Context, req *SignupRequest) (*LoginResponse, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) (*LoginResponse, error)
	// Authenticate resolves a bearer token to a live user. Tokens issued before the
	// last password change are rejected.
	Authenticate(ctx context.Context, token string) (*model.User, error)
	EnsureAdmin(ctx context.Context, email, password, name string) error
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*LoginResponse, error) {
	req.Email = NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if err := validateInput(req); err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		Phone:        req.Phone,
		Address:      req.Address,
		Role:         model.RoleUser,
		TokenVersion: uuid.NewString(),
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("User signed up")
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ChangePassword re-checks the old password, stores the new hash and rotates the token
// version so every other session is logged out. The caller gets a fresh token.
func (s *authService) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) (*LoginResponse, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.CheckPassword(req.OldPassword) {
		return nil, ErrWrongPassword
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return nil, errors.New("failed to hash new password")
	}
	user.TokenVersion = uuid.NewString()

	if err := s.userRepo.UpdateCredentials(ctx, user.ID, user.Password, user.TokenVersion); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("Password changed")
	return s.issue(user)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionExpired
	}
	return user, nil
}

// EnsureAdmin creates the configured admin account if it does not exist yet.
func (s *authService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		log.Warn().Msg("Admin credentials not configured, skipping admin seed")
		return nil
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			log.Warn().Str("email", email).Msg("Configured admin email belongs to a non-admin account")
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	admin := &model.User{
		Email:        email,
		Name:         name,
		Role:         model.RoleAdmin,
		TokenVersion: uuid.NewString(),
	}
	if err := admin.SetPassword(password); err != nil {
		return err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}

	log.Info().Str("email", email).Msg("Admin user created")
	return nil
}

func (s *authService) issue(user *model.User) (*LoginResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.Name, string(user.Role), user.TokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	return &LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}
