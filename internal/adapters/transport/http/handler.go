package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/service"
	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	lg "github.com/Miraines/MoonyAndStarry/account-service/internal/infra/log"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	CookieDomain   string
	UploadDir      string
	MaxUploadBytes int64
}

type Handler struct {
	svc          appsvc.Service
	log          *zap.Logger
	cookieDomain string
	uploadDir    string
	maxUpload    int64
}

func NewHandler(svc appsvc.Service, log *zap.Logger, o Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		svc:          svc,
		log:          log,
		cookieDomain: o.CookieDomain,
		uploadDir:    o.UploadDir,
		maxUpload:    o.MaxUploadBytes,
	}
}

// Mount вешает ручки пользователей на группу /users.
func (h *Handler) Mount(g *gin.RouterGroup) {
	users := g.Group("/users")
	users.POST("/register", h.register)
	users.POST("/login", h.login)
	users.POST("/refresh-token", h.refresh)

	secured := users.Group("", middleware.RequireAuth(h.svc, handleError))
	secured.POST("/logout", h.logout)
	secured.POST("/change-password", h.changePassword)
	secured.GET("/current-user", h.currentUser)
	secured.PATCH("/update-account", h.updateAccount)
	secured.PATCH("/avatar", h.updateAvatar)
	secured.DELETE("/avatar", h.deleteAvatar)
	secured.PATCH("/cover-image", h.updateCoverImage)
	secured.GET("/c/:username", h.channelProfile)
	secured.GET("/history", h.watchHistory)
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBind(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	avatar, err := h.saveUpload(c, "avatar")
	if err != nil {
		handleError(c, err)
		return
	}
	cover, err := h.saveUpload(c, "coverImage")
	if err != nil {
		removeFiles(avatar)
		handleError(c, err)
		return
	}
	body.AvatarPath, body.CoverImagePath = avatar, cover

	h.log.Info("/register", lg.HashedIdentity(body.Email))
	user, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusCreated, user, "User registered successfully")
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	h.log.Info("/login", lg.HashedIdentity(body.Username+body.Email))

	s, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	h.setSessionCookies(c, s.Tokens)
	respond(c, http.StatusOK, gin.H{
		"user":         s.User,
		"accessToken":  s.Tokens.AccessToken,
		"refreshToken": s.Tokens.RefreshToken,
	}, "User logged in successfully")
}

func (h *Handler) logout(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	if err := h.svc.Logout(c.Request.Context(), p); err != nil {
		handleError(c, err)
		return
	}
	h.clearSessionCookies(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if v, err := c.Cookie(middleware.RefreshCookie); err == nil && v != "" {
		body.RefreshToken = v
	} else if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	h.setSessionCookies(c, pair)
	respond(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed")
}

func (h *Handler) changePassword(c *gin.Context) {
	var body dto.ChangePasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	p, _ := middleware.PrincipalFrom(c)
	if err := h.svc.ChangePassword(c.Request.Context(), p, body); err != nil {
		handleError(c, err)
		return
	}
	// Сессия закрыта сервисом; cookie больше недействительны.
	h.clearSessionCookies(c)
	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h *Handler) currentUser(c *gin.Context) {
	u, _ := middleware.UserFrom(c)
	respond(c, http.StatusOK, u, "User fetched successfully")
}

func (h *Handler) updateAccount(c *gin.Context) {
	var body dto.UpdateAccountDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.svc.UpdateAccountDetails(c.Request.Context(), p.UserID, body)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, u, "Account details updated successfully")
}

func (h *Handler) updateAvatar(c *gin.Context) {
	path, err := h.saveUpload(c, "avatar")
	if err != nil {
		handleError(c, err)
		return
	}
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.svc.UpdateAvatar(c.Request.Context(), p.UserID, path)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, u, "Avatar updated successfully")
}

func (h *Handler) deleteAvatar(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.svc.DeleteAvatar(c.Request.Context(), p.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, u, "Avatar deleted successfully")
}

func (h *Handler) updateCoverImage(c *gin.Context) {
	path, err := h.saveUpload(c, "coverImage")
	if err != nil {
		handleError(c, err)
		return
	}
	p, _ := middleware.PrincipalFrom(c)
	u, err := h.svc.UpdateCoverImage(c.Request.Context(), p.UserID, path)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, u, "Cover image updated successfully")
}

func (h *Handler) channelProfile(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	profile, err := h.svc.ChannelProfile(c.Request.Context(), c.Param("username"), p.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, profile, "User channel fetched successfully")
}

func (h *Handler) watchHistory(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	videos, err := h.svc.WatchHistory(c.Request.Context(), p.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	respond(c, http.StatusOK, videos, "Watch history fetched successfully")
}
