package types

import (
	"time"
)

// User is the domain entity behind registration, login and authorization.
// PasswordHash is never serialized; the refresh token and its expiry are set
// and cleared together.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	Username              string     `json:"username"`
	PasswordHash          string     `json:"-"`
	Role                  Role       `json:"role"`
	RefreshToken          *string    `json:"-"`
	RefreshTokenExpiresAt *time.Time `json:"-"`
	IsActive              bool       `json:"is_active"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// NewUser builds a freshly registered user: active, no refresh token yet.
func NewUser(id, email, username, passwordHash string, role Role) *User {
	now := time.Now()
	return &User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetRefreshToken stores a rotated refresh token together with its expiry.
func (u *User) SetRefreshToken(token string, expiresAt time.Time) {
	u.RefreshToken = &token
	u.RefreshTokenExpiresAt = &expiresAt
	u.UpdatedAt = time.Now()
}

// ClearRefreshToken removes the stored refresh token and its expiry.
func (u *User) ClearRefreshToken() {
	u.RefreshToken = nil
	u.RefreshTokenExpiresAt = nil
	u.UpdatedAt = time.Now()
}

// IsRefreshTokenValid reports whether a refresh token is stored and its
// expiry lies in the future.
func (u *User) IsRefreshTokenValid() bool {
	if u.RefreshToken == nil || u.RefreshTokenExpiresAt == nil {
		return false
	}
	return u.RefreshTokenExpiresAt.After(time.Now())
}

// Deactivate marks the account inactive. A deactivated user holds no refresh
// token, so a previously issued one stops resolving to this user.
func (u *User) Deactivate() {
	u.IsActive = false
	u.ClearRefreshToken()
}

// Activate marks the account active again.
func (u *User) Activate() {
	u.IsActive = true
	u.UpdatedAt = time.Now()
}

// PublicUser is the projection of a user that is safe to return to clients.
type PublicUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Public returns the client-facing projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}
}
