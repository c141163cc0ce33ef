package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

type JWTUtil interface {
	GenerateAccessToken(userID, username string) (token string, exp time.Time, jti string, err error)
	GenerateRefreshToken(userID string) (token string, exp time.Time, jti string, err error)
	ValidateAccessToken(token string) (claims AccessClaims, err error)
	ValidateRefreshToken(token string) (claims RefreshClaims, err error)
}
