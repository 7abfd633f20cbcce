package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prepview/prepview/internal/auth"
	"github.com/prepview/prepview/internal/models"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
	"github.com/prepview/prepview/internal/utils"
)

const minPasswordLength = 8

type RegisterParams struct {
	Email    string
	Username string
	Password string
	FullName string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, p RegisterParams) (*models.User, *TokenPair, error)
	// Login accepts an email or a username as identifier.
	Login(ctx context.Context, identifier, password string) (*models.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, userID, current, updated string) error
}

type authService struct {
	users  mongorepo.UserRepository
	tokens *auth.Manager
}

func NewAuthService(users mongorepo.UserRepository, tokens *auth.Manager) AuthService {
	return &authService{users: users, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, p RegisterParams) (*models.User, *TokenPair, error) {
	const op = "AuthService.Register"

	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Username = strings.TrimSpace(p.Username)

	if !strings.Contains(p.Email, "@") {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "a valid email is required", nil)
	}
	if len(p.Username) < 3 {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "username must be at least 3 characters", nil)
	}
	if len(p.Password) < minPasswordLength {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "password must be at least 8 characters", nil)
	}

	hashed, err := utils.HashPassword(p.Password)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	u := &models.User{
		ID:             uuid.NewString(),
		Email:          p.Email,
		Username:       p.Username,
		HashedPassword: hashed,
		FullName:       p.FullName,
		IsActive:       true,
		Settings:       models.DefaultSettings(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if utils.IsCode(err, utils.CodeConflict) {
			return nil, nil, utils.E(utils.CodeConflict, op, "email or username already registered", err)
		}
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to create user", err)
	}

	pair, err := s.mintPair(u.ID)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to issue tokens", err)
	}
	return u, pair, nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*models.User, *TokenPair, error) {
	const op = "AuthService.Login"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "identifier and password are required", nil)
	}

	var (
		u   *models.User
		err error
	)
	if strings.Contains(identifier, "@") {
		u, err = s.users.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		u, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			// same message as a wrong password; no account probing
			return nil, nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
		}
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to look up user", err)
	}

	if err := utils.CheckPassword(u.HashedPassword, password); err != nil {
		return nil, nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
	}
	if !u.IsActive {
		return nil, nil, utils.E(utils.CodeForbidden, op, "account is deactivated", nil)
	}

	pair, err := s.mintPair(u.ID)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to issue tokens", err)
	}
	return u, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	const op = "AuthService.Refresh"

	userID, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid refresh token", err)
	}

	// token subjects can outlive their account
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid refresh token", err)
	}
	if !u.IsActive {
		return nil, utils.E(utils.CodeForbidden, op, "account is deactivated", nil)
	}

	pair, err := s.mintPair(u.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue tokens", err)
	}
	return pair, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, current, updated string) error {
	const op = "AuthService.ChangePassword"

	if len(updated) < minPasswordLength {
		return utils.E(utils.CodeInvalidArgument, op, "password must be at least 8 characters", nil)
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to look up user", err)
	}
	if err := utils.CheckPassword(u.HashedPassword, current); err != nil {
		return utils.E(utils.CodeUnauthorized, op, "current password is incorrect", nil)
	}

	hashed, err := utils.HashPassword(updated)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}
	if err := s.users.SetPassword(ctx, userID, hashed); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update password", err)
	}
	return nil
}

func (s *authService) mintPair(userID string) (*TokenPair, error) {
	access, err := s.tokens.Mint(userID, auth.TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Mint(userID, auth.TokenRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL() / time.Second),
	}, nil
}
