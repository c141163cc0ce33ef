package http

import (
	"errors"
	"net/http"

	appsvc "github.com/Miraines/MoonyAndStarry/account-service/internal/app/account/service"
	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/gin-gonic/gin"
)

// Стабильные коды ошибок API; клиенты опираются на них, а не на текст.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeUnauthorized    = "unauthorized"
	CodeConflict        = "conflict"
	CodeMediaUpload     = "media_upload_failed"
	CodeInternal        = "internal"
)

type errorBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func classify(err error) (int, string, string) {
	var re *appsvc.RefreshError
	switch {
	case errors.As(err, &re):
		return http.StatusUnauthorized, CodeUnauthorized, re.Error()
	case customErrors.IsInvalidArgument(err):
		return http.StatusBadRequest, CodeInvalidArgument, err.Error()
	case customErrors.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound, err.Error()
	case customErrors.IsUnauthorized(err):
		return http.StatusUnauthorized, CodeUnauthorized, err.Error()
	case customErrors.IsAlreadyExists(err):
		return http.StatusConflict, CodeConflict, "user with email or username already exists"
	case customErrors.IsMediaUpload(err):
		return http.StatusBadGateway, CodeMediaUpload, "failed to upload media"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal server error"
	}
}

func handleError(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, errorBody{Code: code, Message: msg})
}
