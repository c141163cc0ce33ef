package jwt

import (
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	jwt2 "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/jwt"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const leeway = 30 * time.Second

// JwtUtilImpl подписывает access и refresh разными секретами: утечка одного
// не позволяет выпустить токен другого типа.
type JwtUtilImpl struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      string
	now           func() time.Time
}

func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, customErrors.WrapInternal(errors.New("empty signing secret"), "NewJWTUtil")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, customErrors.WrapInternal(errors.New("access and refresh secrets must differ"), "NewJWTUtil")
	}

	return &JwtUtilImpl{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
		audience:      cfg.Audience,
		now:           time.Now,
	}, nil
}

func (j *JwtUtilImpl) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := j.now()
	rc := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	if j.audience != "" {
		rc.Audience = jwt.ClaimStrings{j.audience}
	}
	return rc
}

func (j *JwtUtilImpl) GenerateAccessToken(userID, username string) (token string, exp time.Time, jti string, err error) {
	claims := jwt2.AccessClaims{
		RegisteredClaims: j.registered(userID, j.accessTTL),
		Username:         username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.accessSecret)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign access token")
	}

	return signed, claims.ExpiresAt.Time, claims.ID, nil
}

func (j *JwtUtilImpl) GenerateRefreshToken(userID string) (token string, exp time.Time, jti string, err error) {
	claims := jwt2.RefreshClaims{
		RegisteredClaims: j.registered(userID, j.refreshTTL),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.refreshSecret)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign refresh token")
	}

	return signed, claims.ExpiresAt.Time, claims.ID, nil
}

func (j *JwtUtilImpl) ValidateAccessToken(raw string) (jwt2.AccessClaims, error) {
	claims := &jwt2.AccessClaims{}
	if err := j.parse(raw, claims, j.accessSecret); err != nil {
		return jwt2.AccessClaims{}, err
	}
	if err := j.checkIssuerAudience(claims.RegisteredClaims); err != nil {
		return jwt2.AccessClaims{}, err
	}
	return *claims, nil
}

func (j *JwtUtilImpl) ValidateRefreshToken(raw string) (jwt2.RefreshClaims, error) {
	claims := &jwt2.RefreshClaims{}
	if err := j.parse(raw, claims, j.refreshSecret); err != nil {
		return jwt2.RefreshClaims{}, err
	}
	if err := j.checkIssuerAudience(claims.RegisteredClaims); err != nil {
		return jwt2.RefreshClaims{}, err
	}
	return *claims, nil
}

func (j *JwtUtilImpl) parse(raw string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(leeway), jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return customErrors.ErrTokenExpired
	case err != nil || !token.Valid:
		return customErrors.ErrInvalidToken
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return customErrors.ErrInvalidToken
	}
	return nil
}

func (j *JwtUtilImpl) checkIssuerAudience(claims jwt.RegisteredClaims) error {
	if j.issuer != "" && claims.Issuer != j.issuer {
		return customErrors.ErrInvalidToken
	}

	if j.audience != "" {
		okAudi := false
		for _, a := range claims.Audience {
			if a == j.audience {
				okAudi = true
				break
			}
		}
		if !okAudi {
			return customErrors.ErrInvalidToken
		}
	}
	return nil
}
