package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// saveUpload сохраняет файл из multipart-поля во временный каталог.
// Пустой путь без ошибки — поле не передано. Удаление файла — забота сервиса.
func (h *Handler) saveUpload(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return "", nil
	case err != nil:
		return "", customErrors.NewInvalidArgument(fmt.Sprintf("%s: %v", field, err))
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return "", customErrors.NewInvalidArgument(fmt.Sprintf("%s exceeds %d bytes", field, h.maxUpload))
	}

	if err := os.MkdirAll(h.uploadDir, 0o750); err != nil {
		return "", customErrors.WrapInternal(err, "upload dir")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	dst := filepath.Join(h.uploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", customErrors.WrapInternal(err, "save upload")
	}
	return dst, nil
}

func removeFiles(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
