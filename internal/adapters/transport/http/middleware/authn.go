package middleware

import (
	"context"
	"strings"

	appsvc "github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/service"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	principalKey = "account.principal"
	userKey      = "account.user"
)

// Authenticator — часть сервиса, нужная middleware.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (appsvc.Principal, model.PublicUser, error)
}

// AccessToken берёт токен из cookie, иначе из заголовка Authorization: Bearer.
func AccessToken(c *gin.Context) string {
	if v, err := c.Cookie(AccessCookie); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth пропускает запрос только с действующим access-токеном;
// onError пишет ответ об ошибке.
func RequireAuth(a Authenticator, onError func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, u, err := a.Authenticate(c.Request.Context(), AccessToken(c))
		if err != nil {
			onError(c, err)
			c.Abort()
			return
		}
		c.Set(principalKey, p)
		c.Set(userKey, u)
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (appsvc.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return appsvc.Principal{}, false
	}
	p, ok := v.(appsvc.Principal)
	return p, ok
}

func UserFrom(c *gin.Context) (model.PublicUser, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return model.PublicUser{}, false
	}
	u, ok := v.(model.PublicUser)
	return u, ok
}
