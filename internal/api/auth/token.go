package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-blog-api/config"
	"github.com/FACorreiaa/go-blog-api/internal/types"
)

// TokenGenerator issues and inspects credentials. Access tokens are signed
// and stateless; refresh tokens are opaque random strings whose meaning is
// defined entirely by the copy stored on the user record.
type TokenGenerator interface {
	GenerateAccessToken(payload types.TokenPayload) (string, error)
	GenerateRefreshToken() string
	GenerateTokenPair(payload types.TokenPayload) (types.TokenPair, error)

	// VerifyAccessToken returns nil on any invalid signature, malformed token
	// or expiry, so callers can use it as an authorization gate without
	// branching on error kinds.
	VerifyAccessToken(token string) *types.TokenPayload

	// DecodeToken decodes claims without verifying signature or expiry. Only
	// for non-security-critical inspection.
	DecodeToken(token string) *types.TokenPayload
}

var _ TokenGenerator = (*JWTTokenGenerator)(nil)

// JWTTokenGenerator signs access tokens with a symmetric secret (HS256).
type JWTTokenGenerator struct {
	cfg config.JWTConfig
}

func NewJWTTokenGenerator(cfg config.JWTConfig) *JWTTokenGenerator {
	return &JWTTokenGenerator{cfg: cfg}
}

func (g *JWTTokenGenerator) GenerateAccessToken(payload types.TokenPayload) (string, error) {
	now := time.Now()
	claims := types.Claims{
		Email: payload.Email,
		Role:  string(payload.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.Sub,
			Issuer:    g.cfg.Issuer,
			Audience:  jwt.ClaimStrings{g.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.cfg.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(g.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (g *JWTTokenGenerator) GenerateRefreshToken() string {
	return uuid.NewString()
}

func (g *JWTTokenGenerator) GenerateTokenPair(payload types.TokenPayload) (types.TokenPair, error) {
	accessToken, err := g.GenerateAccessToken(payload)
	if err != nil {
		return types.TokenPair{}, err
	}

	now := time.Now()
	return types.TokenPair{
		AccessToken:           accessToken,
		RefreshToken:          g.GenerateRefreshToken(),
		AccessTokenExpiresAt:  now.Add(g.cfg.AccessTokenTTL),
		RefreshTokenExpiresAt: now.AddDate(0, 0, g.cfg.RefreshExpireDays),
	}, nil
}

func (g *JWTTokenGenerator) VerifyAccessToken(tokenString string) *types.TokenPayload {
	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(g.cfg.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	return &types.TokenPayload{
		Sub:   claims.Subject,
		Email: claims.Email,
		Role:  types.Role(claims.Role),
	}
}

func (g *JWTTokenGenerator) DecodeToken(tokenString string) *types.TokenPayload {
	claims := &types.Claims{}
	parser := jwt.NewParser()
	_, _, err := parser.ParseUnverified(tokenString, claims)
	if err != nil {
		return nil
	}

	return &types.TokenPayload{
		Sub:   claims.Subject,
		Email: claims.Email,
		Role:  types.Role(claims.Role),
	}
}
