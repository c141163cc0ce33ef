package mongodb

import (
	"context"
	"testing"

	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoGraphRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("channel profile", func(mt *mtest.T) {
		repo := NewMongoGraphRepo(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "dave"},
			{Key: "fullname", Value: "Dave"},
			{Key: "subscribersCount", Value: int32(4)},
			{Key: "channelsSubscribedToCount", Value: int32(2)},
			{Key: "isSubscribed", Value: true},
		}))

		p, err := repo.ChannelProfile(ctx, "dave", primitive.NewObjectID())
		require.NoError(mt, err)
		require.Equal(mt, id, p.ID)
		require.Equal(mt, 4, p.SubscribersCount)
		require.Equal(mt, 2, p.ChannelsSubscribedToCount)
		require.True(mt, p.IsSubscribed)

		evt := mt.GetStartedEvent()
		require.Equal(mt, "aggregate", evt.CommandName)
	})

	mt.Run("channel profile missing", func(mt *mtest.T) {
		repo := NewMongoGraphRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch))

		_, err := repo.ChannelProfile(ctx, "nobody", primitive.NilObjectID)
		require.ErrorIs(mt, err, customErrors.ErrNotFound)
	})

	mt.Run("watch history", func(mt *mtest.T) {
		repo := NewMongoGraphRepo(mt.DB)
		owner := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "watchHistory", Value: bson.A{
				bson.D{
					{Key: "_id", Value: primitive.NewObjectID()},
					{Key: "title", Value: "intro"},
					{Key: "owner", Value: bson.D{{Key: "_id", Value: owner}, {Key: "username", Value: "erin"}}},
				},
			}},
		}))

		videos, err := repo.WatchHistory(ctx, primitive.NewObjectID())
		require.NoError(mt, err)
		require.Len(mt, videos, 1)
		require.Equal(mt, "intro", videos[0].Title)
		require.NotNil(mt, videos[0].Owner)
		require.Equal(mt, owner, videos[0].Owner.ID)
	})

	mt.Run("watch history unknown user", func(mt *mtest.T) {
		repo := NewMongoGraphRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS, mtest.FirstBatch))

		_, err := repo.WatchHistory(ctx, primitive.NewObjectID())
		require.ErrorIs(mt, err, customErrors.ErrNotFound)
	})
}

func TestChannelProfilePipeline_ViewerFlag(t *testing.T) {
	viewer := primitive.NewObjectID()
	p := channelProfilePipeline("dave", viewer)
	require.Len(t, p, 5)

	raw, err := bson.Marshal(bson.D{{Key: "p", Value: p}})
	require.NoError(t, err)
	in := bson.Raw(raw).Lookup("p", "3", "$addFields", "isSubscribed", "$cond", "if", "$in").Array()
	vals, err := in.Values()
	require.NoError(t, err)
	require.Equal(t, viewer, vals[0].ObjectID())
	require.Equal(t, "$subscribers.subscriber", vals[1].StringValue())
}
