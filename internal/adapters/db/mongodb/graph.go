package mongodb

import (
	"context"

	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoGraphRepo собирает профиль канала и историю просмотров агрегациями
// поверх users, subscriptions и videos.
type MongoGraphRepo struct {
	users *mongo.Collection
}

func NewMongoGraphRepo(db *mongo.Database) *MongoGraphRepo {
	return &MongoGraphRepo{users: db.Collection(UsersCollection)}
}

func channelProfilePipeline(username string, viewer primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         SubscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscribersCount":          bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewer, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"fullname":                  1,
			"username":                  1,
			"email":                     1,
			"avatar":                    1,
			"coverImage":                1,
			"createdAt":                 1,
			"subscribersCount":          1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
		}}},
	}
}

func (g *MongoGraphRepo) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, error) {
	cur, err := g.users.Aggregate(ctx, channelProfilePipeline(username, viewer))
	if err != nil {
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile")
		}
		return model.ChannelProfile{}, customErrors.ErrNotFound
	}

	var p model.ChannelProfile
	if err := cur.Decode(&p); err != nil {
		return model.ChannelProfile{}, customErrors.WrapInternal(err, "ChannelProfile decode")
	}
	return p, nil
}

func watchHistoryPipeline(userID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         VideosCollection,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "watchHistory",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         UsersCollection,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{"fullname": 1, "username": 1, "avatar": 1}},
					},
				}},
				bson.M{"$addFields": bson.M{"owner": bson.M{"$first": "$owner"}}},
			},
		}}},
		{{Key: "$project", Value: bson.M{"watchHistory": 1}}},
	}
}

func (g *MongoGraphRepo) WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]model.WatchedVideo, error) {
	cur, err := g.users.Aggregate(ctx, watchHistoryPipeline(userID))
	if err != nil {
		return nil, customErrors.WrapInternal(err, "WatchHistory")
	}
	defer cur.Close(ctx)

	var rows []struct {
		WatchHistory []model.WatchedVideo `bson:"watchHistory"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, customErrors.WrapInternal(err, "WatchHistory decode")
	}
	if len(rows) == 0 {
		return nil, customErrors.ErrNotFound
	}
	return rows[0].WatchHistory, nil
}
