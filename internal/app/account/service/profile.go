package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (a *accountService) CurrentUser(ctx context.Context, id primitive.ObjectID) (model.PublicUser, error) {
	user, err := a.loadUser(ctx, id, "CurrentUser")
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (a *accountService) UpdateAccountDetails(ctx context.Context, id primitive.ObjectID, in dto.UpdateAccountDTO) (model.PublicUser, error) {
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Email = normalizeEmail(in.Email)
	if err := a.v.Struct(in); err != nil {
		return model.PublicUser{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.users.UpdateDetails(ctx, id, in.Fullname, in.Email)
	if err != nil {
		return model.PublicUser{}, a.mapUserErr(err, "UpdateAccountDetails")
	}
	a.invalidateProfile(ctx, user.Username)
	return user.Public(), nil
}

func (a *accountService) UpdateAvatar(ctx context.Context, id primitive.ObjectID, localPath string) (model.PublicUser, error) {
	defer a.removeTemp(localPath)
	if localPath == "" {
		return model.PublicUser{}, customErrors.NewInvalidArgument("avatar image is required")
	}

	url, err := a.media.Upload(ctx, localPath, a.folder)
	if err != nil {
		return model.PublicUser{}, customErrors.WrapMediaUpload(err, "avatar")
	}

	current, err := a.loadUser(ctx, id, "UpdateAvatar")
	if err != nil {
		a.discardMedia(ctx, url)
		return model.PublicUser{}, err
	}

	user, err := a.users.SetAvatar(ctx, id, url)
	if err != nil {
		a.discardMedia(ctx, url)
		return model.PublicUser{}, a.mapUserErr(err, "UpdateAvatar")
	}

	// Старый файл удаляем только после успешного сохранения нового URL.
	if current.AvatarURL != "" && current.AvatarURL != url {
		a.discardMedia(ctx, current.AvatarURL)
	}
	a.invalidateProfile(ctx, user.Username)
	return user.Public(), nil
}

func (a *accountService) DeleteAvatar(ctx context.Context, id primitive.ObjectID) (model.PublicUser, error) {
	current, err := a.loadUser(ctx, id, "DeleteAvatar")
	if err != nil {
		return model.PublicUser{}, err
	}
	if current.AvatarURL == "" {
		return model.PublicUser{}, customErrors.NewInvalidArgument("no avatar to delete")
	}

	a.discardMedia(ctx, current.AvatarURL)

	user, err := a.users.SetAvatar(ctx, id, "")
	if err != nil {
		return model.PublicUser{}, a.mapUserErr(err, "DeleteAvatar")
	}
	a.invalidateProfile(ctx, user.Username)
	return user.Public(), nil
}

func (a *accountService) UpdateCoverImage(ctx context.Context, id primitive.ObjectID, localPath string) (model.PublicUser, error) {
	defer a.removeTemp(localPath)
	if localPath == "" {
		return model.PublicUser{}, customErrors.NewInvalidArgument("cover image is required")
	}

	url, err := a.media.Upload(ctx, localPath, a.folder)
	if err != nil {
		return model.PublicUser{}, customErrors.WrapMediaUpload(err, "cover image")
	}

	current, err := a.loadUser(ctx, id, "UpdateCoverImage")
	if err != nil {
		a.discardMedia(ctx, url)
		return model.PublicUser{}, err
	}

	user, err := a.users.SetCoverImage(ctx, id, url)
	if err != nil {
		a.discardMedia(ctx, url)
		return model.PublicUser{}, a.mapUserErr(err, "UpdateCoverImage")
	}
	if current.CoverImageURL != "" && current.CoverImageURL != url {
		a.discardMedia(ctx, current.CoverImageURL)
	}
	a.invalidateProfile(ctx, user.Username)
	return user.Public(), nil
}

func (a *accountService) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, error) {
	username = normalizeUsername(username)
	if username == "" {
		return model.ChannelProfile{}, customErrors.NewInvalidArgument("username is required")
	}

	if a.cache != nil {
		p, ok, err := a.cache.Get(ctx, username, viewer)
		if err != nil {
			a.log.Warn("profile cache get", zap.String("username", username), zap.Error(err))
		}
		if ok {
			return p, nil
		}
	}

	p, err := a.graph.ChannelProfile(ctx, username, viewer)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.ChannelProfile{}, customErrors.NewNotFound("channel not found")
	case err != nil:
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
	}

	if a.cache != nil {
		if err := a.cache.Put(ctx, username, viewer, p); err != nil {
			a.log.Warn("profile cache put", zap.String("username", username), zap.Error(err))
		}
	}
	return p, nil
}

func (a *accountService) WatchHistory(ctx context.Context, id primitive.ObjectID) ([]model.WatchedVideo, error) {
	videos, err := a.graph.WatchHistory(ctx, id)
	if err != nil {
		return nil, a.mapUserErr(err, "WatchHistory")
	}
	if videos == nil {
		videos = []model.WatchedVideo{}
	}
	return videos, nil
}

func (a *accountService) loadUser(ctx context.Context, id primitive.ObjectID, op string) (model.User, error) {
	user, err := a.users.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, a.mapUserErr(err, op)
	}
	return user, nil
}

func (a *accountService) mapUserErr(err error, op string) error {
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.NewNotFound("user not found")
	case errors.Is(err, customErrors.ErrAlreadyExists):
		return customErrors.ErrAlreadyExists
	default:
		return customErrors.WrapInternal(err, op)
	}
}

func (a *accountService) invalidateProfile(ctx context.Context, username string) {
	if a.cache == nil || username == "" {
		return
	}
	if err := a.cache.Invalidate(ctx, username); err != nil {
		a.log.Warn("profile cache invalidate", zap.String("username", username), zap.Error(err))
	}
}
