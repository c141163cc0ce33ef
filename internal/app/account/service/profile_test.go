package service_test

import (
	"context"
	"testing"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/adapters/transport/http/dto"
	authErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCurrentUser(t *testing.T) {
	e := newEnv(t)
	u := register(t, e, "quinn", "quinn@example.com", "pw")

	got, err := e.svc.CurrentUser(context.Background(), oid(t, u.ID))
	require.NoError(t, err)
	require.Equal(t, u.Username, got.Username)

	_, err = e.svc.CurrentUser(context.Background(), primitive.NewObjectID())
	require.True(t, authErrors.IsNotFound(err))
}

func TestUpdateAccountDetails(t *testing.T) {
	e := newEnv(t)
	u := register(t, e, "rita", "rita@example.com", "pw")
	id := oid(t, u.ID)
	ctx := context.Background()

	_, err := e.svc.UpdateAccountDetails(ctx, id, dto.UpdateAccountDTO{Fullname: "", Email: "x@y.z"})
	require.True(t, authErrors.IsInvalidArgument(err))

	e.cache.items["rita|"+primitive.NilObjectID.Hex()] = model.ChannelProfile{Username: "rita"}
	got, err := e.svc.UpdateAccountDetails(ctx, id, dto.UpdateAccountDTO{Fullname: " Rita R ", Email: "Rita@New.io"})
	require.NoError(t, err)
	require.Equal(t, "Rita R", got.Fullname)
	require.Equal(t, "rita@new.io", got.Email)
	require.Empty(t, e.cache.items)
}

func TestUpdateAvatar_ReplacesAndDeletesOld(t *testing.T) {
	e := newEnv(t)
	u := register(t, e, "sam", "sam@example.com", "pw")
	id := oid(t, u.ID)
	path := tempFile(t, "new.png")

	got, err := e.svc.UpdateAvatar(context.Background(), id, path)
	require.NoError(t, err)
	require.NotEqual(t, u.AvatarURL, got.AvatarURL)
	require.Equal(t, []string{u.AvatarURL}, e.media.deleted)
	requireGone(t, path)
}

func TestUpdateAvatar_UploadFailureKeepsOld(t *testing.T) {
	e := newEnv(t)
	u := register(t, e, "tina", "tina@example.com", "pw")
	path := tempFile(t, "new.png")
	e.media.failPaths[path] = true

	_, err := e.svc.UpdateAvatar(context.Background(), oid(t, u.ID), path)
	require.True(t, authErrors.IsMediaUpload(err))
	require.Equal(t, u.AvatarURL, e.users.stored(oid(t, u.ID)).AvatarURL)
	require.Empty(t, e.media.deleted)
	requireGone(t, path)
}

func TestUpdateAvatar_MissingFile(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.UpdateAvatar(context.Background(), primitive.NewObjectID(), "")
	require.True(t, authErrors.IsInvalidArgument(err))
}

func TestDeleteAvatar(t *testing.T) {
	e := newEnv(t)
	u := register(t, e, "uma", "uma@example.com", "pw")
	id := oid(t, u.ID)
	ctx := context.Background()

	got, err := e.svc.DeleteAvatar(ctx, id)
	require.NoError(t, err)
	require.Empty(t, got.AvatarURL)
	require.Equal(t, []string{u.AvatarURL}, e.media.deleted)

	_, err = e.svc.DeleteAvatar(ctx, id)
	require.True(t, authErrors.IsInvalidArgument(err))
}

func TestUpdateCoverImage(t *testing.T) {
	e := newEnv(t)
	u := register(t, e, "vera", "vera@example.com", "pw")
	ctx := context.Background()

	first, err := e.svc.UpdateCoverImage(ctx, oid(t, u.ID), tempFile(t, "c1.png"))
	require.NoError(t, err)
	require.NotEmpty(t, first.CoverImageURL)

	second, err := e.svc.UpdateCoverImage(ctx, oid(t, u.ID), tempFile(t, "c2.png"))
	require.NoError(t, err)
	require.NotEqual(t, first.CoverImageURL, second.CoverImageURL)
	require.Equal(t, []string{first.CoverImageURL}, e.media.deleted)
}

func TestChannelProfile_CachesResult(t *testing.T) {
	e := newEnv(t)
	viewer := primitive.NewObjectID()
	e.graph.profiles["walt"] = model.ChannelProfile{Username: "walt", SubscribersCount: 3}
	ctx := context.Background()

	p, err := e.svc.ChannelProfile(ctx, " Walt ", viewer)
	require.NoError(t, err)
	require.Equal(t, 3, p.SubscribersCount)

	p, err = e.svc.ChannelProfile(ctx, "walt", viewer)
	require.NoError(t, err)
	require.Equal(t, 3, p.SubscribersCount)
	require.Equal(t, 1, e.graph.calls)
}

func TestChannelProfile_Errors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.ChannelProfile(ctx, "   ", primitive.NewObjectID())
	require.True(t, authErrors.IsInvalidArgument(err))

	_, err = e.svc.ChannelProfile(ctx, "nobody", primitive.NewObjectID())
	require.True(t, authErrors.IsNotFound(err))
}

func TestWatchHistory_EmptyIsNotNil(t *testing.T) {
	e := newEnv(t)
	videos, err := e.svc.WatchHistory(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	require.NotNil(t, videos)
	require.Empty(t, videos)
}
