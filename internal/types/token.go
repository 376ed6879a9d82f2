package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPayload carries the claims embedded in an access token. It is derived
// at issuance and reconstructed at verification, never persisted.
type TokenPayload struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Claims is the JWT claim set for access tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is the result of issuing credentials. The access token is
// stateless and self-contained; the refresh token is an opaque capability
// whose validity is defined by the copy stored on the user record.
type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}
