package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"srql-engine/internal/common"
)

// Authenticator validates bearer tokens for the admin API.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// Claims carried by console access tokens.
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthenticator validates HMAC-signed JWTs.
type JWTAuthenticator struct {
	secretKey []byte
	issuer    string
}

// NewJWTAuthenticator creates a JWT validator bound to one issuer.
func NewJWTAuthenticator(secretKey []byte, issuer string) *JWTAuthenticator {
	return &JWTAuthenticator{secretKey: secretKey, issuer: issuer}
}

// ValidateToken parses and verifies a token, returning its claims.
func (ja *JWTAuthenticator) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ja.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.NewErrorWithCause(common.ErrTokenExpired, "token expired", err)
		}
		return nil, common.NewErrorWithCause(common.ErrInvalidToken, "failed to parse token", err)
	}
	if !token.Valid {
		return nil, common.NewError(common.ErrInvalidToken, "invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, common.NewError(common.ErrInvalidToken, "invalid claims type")
	}
	if claims.Issuer != ja.issuer {
		return nil, common.NewError(common.ErrInvalidToken, "invalid issuer")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, common.NewError(common.ErrTokenExpired, "token expired")
	}
	return claims, nil
}

// TokenManager mints access tokens, used by the admin CLI and tests.
type TokenManager struct {
	secretKey  []byte
	issuer     string
	defaultTTL time.Duration
}

// NewTokenManager creates a token issuer.
func NewTokenManager(secretKey []byte, issuer string, defaultTTL time.Duration) *TokenManager {
	return &TokenManager{secretKey: secretKey, issuer: issuer, defaultTTL: defaultTTL}
}

// Generate signs a token for the given user.
func (tm *TokenManager) Generate(userID string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.defaultTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secretKey)
	if err != nil {
		return "", common.NewErrorWithCause(common.ErrInternal, "failed to sign token", err)
	}
	return signed, nil
}
