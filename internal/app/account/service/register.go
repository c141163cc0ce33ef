package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	lg "github.com/Miraines/MoonyAndStarry/account-service/internal/infra/log"
	"go.uber.org/zap"
)

func (a *accountService) Register(ctx context.Context, in dto.RegisterDTO) (model.PublicUser, error) {
	defer a.removeTemp(in.AvatarPath, in.CoverImagePath)

	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Email = normalizeEmail(in.Email)
	in.Username = normalizeUsername(in.Username)
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}

	if err := a.v.Struct(in); err != nil {
		a.m.Registration("invalid")
		return model.PublicUser{}, customErrors.NewInvalidArgument(err.Error())
	}
	if in.AvatarPath == "" {
		a.m.Registration("invalid")
		return model.PublicUser{}, customErrors.NewInvalidArgument("avatar image is required")
	}

	_, err := a.users.FindByIdentity(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		a.m.Registration("conflict")
		return model.PublicUser{}, customErrors.ErrAlreadyExists
	case !errors.Is(err, customErrors.ErrNotFound):
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	avatarURL, err := a.media.Upload(ctx, in.AvatarPath, a.folder)
	if err != nil {
		a.m.Registration("media_failed")
		return model.PublicUser{}, customErrors.WrapMediaUpload(err, "avatar")
	}
	uploaded := []string{avatarURL}

	var coverURL string
	if in.CoverImagePath != "" {
		coverURL, err = a.media.Upload(ctx, in.CoverImagePath, a.folder)
		if err != nil {
			// Обложка необязательна: регистрируем без неё.
			a.log.Warn("cover image upload failed", zap.Error(err))
			coverURL = ""
		} else {
			uploaded = append(uploaded, coverURL)
		}
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		a.log.Error("hash password", zap.Error(err))
		a.discardMedia(ctx, uploaded...)
		return model.PublicUser{}, customErrors.WrapInternal(errors.New("password hashing failed"), "Register")
	}

	now := time.Now().UTC()
	user := model.User{
		Username:      in.Username,
		Email:         in.Email,
		Fullname:      in.Fullname,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  hash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	id, err := a.users.CreateUser(ctx, user)
	if err != nil {
		a.discardMedia(ctx, uploaded...)
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			a.m.Registration("conflict")
			return model.PublicUser{}, customErrors.ErrAlreadyExists
		}
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}
	user.ID = id

	a.m.Registration("ok")
	a.log.Info("user registered", zap.String("user_id", id.Hex()), lg.HashedIdentity(in.Email))
	return user.Public(), nil
}

// removeTemp удаляет временные файлы загрузки при любом исходе.
func (a *accountService) removeTemp(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.log.Warn("remove temp upload", zap.String("path", p), zap.Error(err))
		}
	}
}

// discardMedia — компенсация: удаляет уже загруженные файлы, если запись не создана.
func (a *accountService) discardMedia(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := a.media.Delete(ctx, u); err != nil {
			a.log.Warn("discard uploaded media", zap.String("url", u), zap.Error(err))
		}
	}
}
