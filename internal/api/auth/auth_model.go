package auth

import (
	"time"

	"github.com/FACorreiaa/go-blog-api/internal/types"
)

// RegisterRequest represents the register request body. Role is optional;
// guarding against self-elevation is the caller's concern, not this layer's.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenRequest represents the refresh request body.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by register, login and refresh alike.
type AuthResponse struct {
	AccessToken           string           `json:"access_token"`
	RefreshToken          string           `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time        `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time        `json:"refresh_token_expires_at"`
	User                  types.PublicUser `json:"user"`
}
