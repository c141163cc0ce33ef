package repo

import (
	"context"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GraphRepo interface {
	ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, error)

	WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]model.WatchedVideo, error)
}

type ProfileCache interface {
	Get(ctx context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, bool, error)

	Put(ctx context.Context, username string, viewer primitive.ObjectID, p model.ChannelProfile) error

	Invalidate(ctx context.Context, username string) error
}
