package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/akylbek/safari-buddy/internal/auth"
	"github.com/akylbek/safari-buddy/internal/interfaces"
	"github.com/akylbek/safari-buddy/internal/models"
	"github.com/akylbek/safari-buddy/internal/repository"
	"github.com/akylbek/safari-buddy/internal/telemetry"
)

type AuthService struct {
	users  interfaces.UserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users interfaces.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates an account. Guides and companies start pending until
// verified; tourists are active immediately.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsByEmailOrPhone(ctx, email, req.Phone)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Phone:        req.Phone,
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       models.UserActive,
	}
	if req.Role == models.RoleGuide || req.Role == models.RoleCompany {
		user.Status = models.UserPending
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	telemetry.Logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if user.Status == models.UserSuspended {
		return nil, ErrAccountSuspended
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer", User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
