package http

import (
	"net/http"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/middleware"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"github.com/gin-gonic/gin"
)

func (h *Handler) setSessionCookies(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, pair.AccessToken, int(pair.AccessTTL.Seconds()), "/", h.cookieDomain, true, true)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.RefreshCookie, pair.RefreshToken, int(pair.RefreshTTL.Seconds()), "/", h.cookieDomain, true, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessCookie, "", -1, "/", h.cookieDomain, true, true)
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/", h.cookieDomain, true, true)
}
