package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-blog-api/internal/types"
	"github.com/FACorreiaa/go-blog-api/internal/uow"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService drives the register, login and refresh flows. Expected
// business failures come back as *types.DomainError; anything else is an
// infrastructure or programming fault.
type AuthService interface {
	Register(ctx context.Context, email, username, password string, role types.Role) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthResponse, error)
}

// AuthServiceImpl orchestrates the hasher, token generator and unit of work.
type AuthServiceImpl struct {
	logger *slog.Logger
	uow    uow.Factory
	hasher PasswordHasher
	tokens TokenGenerator
}

func NewAuthService(uowFactory uow.Factory, hasher PasswordHasher, tokens TokenGenerator, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		uow:    uowFactory,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates a new account and issues its first token pair. Uniqueness
// is checked up front; the unique indexes remain the backstop for concurrent
// registrations.
func (s *AuthServiceImpl) Register(ctx context.Context, email, username, password string, role types.Role) (*AuthResponse, error) {
	l := s.logger.With(slog.String("method", "Register"), slog.String("username", username))
	email = strings.ToLower(email)

	u := s.uow.New()

	emailExists, err := u.Users().EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("register: check email: %w", err)
	}
	if emailExists {
		return nil, types.ErrEmailExists
	}

	usernameExists, err := u.Users().UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("register: check username: %w", err)
	}
	if usernameExists {
		return nil, types.ErrUsernameExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if !role.IsValid() {
		role = types.RoleUser
	}
	user := types.NewUser(uuid.NewString(), email, username, passwordHash, role)

	pair, err := s.tokens.GenerateTokenPair(types.TokenPayload{
		Sub:   user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	user.SetRefreshToken(pair.RefreshToken, pair.RefreshTokenExpiresAt)

	err = u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
		return u.Users().Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, uow.ErrTransactionInProgress) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to persist new user", slog.Any("error", err))
		return nil, types.NewDomainError(types.CodeCreateFailed, "Failed to create user")
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID))
	return &AuthResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		User:                  user.Public(),
	}, nil
}

// Login authenticates by email and password and rotates the stored refresh
// token. An unknown email and a wrong password yield the same failure code.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	l := s.logger.With(slog.String("method", "Login"))
	email = strings.ToLower(email)

	u := s.uow.New()

	user, err := u.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("login: find user: %w", err)
	}
	if user == nil {
		return nil, types.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, types.ErrAccountDeactivated
	}
	if !s.hasher.Compare(password, user.PasswordHash) {
		return nil, types.ErrInvalidCredentials
	}

	pair, err := s.tokens.GenerateTokenPair(types.TokenPayload{
		Sub:   user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	user.SetRefreshToken(pair.RefreshToken, pair.RefreshTokenExpiresAt)

	err = u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
		return u.Users().Update(ctx, user)
	})
	if err != nil {
		if errors.Is(err, uow.ErrTransactionInProgress) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to persist rotated refresh token", slog.Any("error", err))
		return nil, types.NewDomainError(types.CodeUpdateFailed, "Failed to update user session")
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID))
	return &AuthResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		User:                  user.Public(),
	}, nil
}

// RefreshTokens exchanges a stored refresh token for a fresh pair. Rotation
// is single-use: once the new pair is persisted the presented token no
// longer resolves to any user.
//
// The check order matters: a deactivated account has its refresh token
// cleared, so a stale token fails the lookup and reports
// INVALID_REFRESH_TOKEN rather than ACCOUNT_DEACTIVATED.
func (s *AuthServiceImpl) RefreshTokens(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	l := s.logger.With(slog.String("method", "RefreshTokens"))

	u := s.uow.New()

	user, err := u.Users().FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh: find user: %w", err)
	}
	if user == nil {
		return nil, types.ErrInvalidRefreshToken
	}
	if !user.IsRefreshTokenValid() {
		return nil, types.ErrRefreshTokenExpired
	}
	if !user.IsActive {
		return nil, types.ErrAccountDeactivated
	}

	pair, err := s.tokens.GenerateTokenPair(types.TokenPayload{
		Sub:   user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	user.SetRefreshToken(pair.RefreshToken, pair.RefreshTokenExpiresAt)

	err = u.ExecuteInTransaction(ctx, func(ctx context.Context) error {
		return u.Users().Update(ctx, user)
	})
	if err != nil {
		if errors.Is(err, uow.ErrTransactionInProgress) {
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to persist rotated refresh token", slog.Any("error", err))
		return nil, types.NewDomainError(types.CodeUpdateFailed, "Failed to update user session")
	}

	return &AuthResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		User:                  user.Public(),
	}, nil
}
