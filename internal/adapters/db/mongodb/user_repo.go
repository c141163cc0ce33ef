package mongodb

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/errors"
	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(UsersCollection)}
}

// EnsureIndexes создаёт уникальные индексы; именно они, а не предварительная
// проверка, гарантируют уникальность username и email.
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return customErrors.WrapInternal(err, "EnsureIndexes")
	}
	return nil
}

func (r *MongoUserRepo) CreateUser(ctx context.Context, u model.User) (primitive.ObjectID, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []primitive.ObjectID{}
	}

	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, customErrors.ErrAlreadyExists
		}
		return primitive.NilObjectID, customErrors.WrapInternal(err, "CreateUser")
	}
	return u.ID, nil
}

func (r *MongoUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, "GetUserByID")
}

func (r *MongoUserRepo) FindByIdentity(ctx context.Context, username, email string) (model.User, error) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return model.User{}, customErrors.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"$or": or}, "FindByIdentity")
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M, op string) (model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, op)
	}
	return u, nil
}

func (r *MongoUserRepo) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return customErrors.WrapInternal(err, "SetPasswordHash")
	}
	if res.MatchedCount == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

// SetRefreshToken не сообщает об отсутствии пользователя: выход должен быть идемпотентным.
func (r *MongoUserRepo) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	update := bson.M{"$set": bson.M{"refreshToken": token}}
	if token == "" {
		update = bson.M{"$unset": bson.M{"refreshToken": 1}}
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return customErrors.WrapInternal(err, "SetRefreshToken")
	}
	return nil
}

func (r *MongoUserRepo) SwapRefreshToken(ctx context.Context, id primitive.ObjectID, old, next string) error {
	if old == "" {
		return customErrors.ErrTokenMismatch
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "refreshToken": old},
		bson.M{"$set": bson.M{"refreshToken": next}},
	)
	if err != nil {
		return customErrors.WrapInternal(err, "SwapRefreshToken")
	}
	if res.MatchedCount == 0 {
		return customErrors.ErrTokenMismatch
	}
	return nil
}

func (r *MongoUserRepo) UpdateDetails(ctx context.Context, id primitive.ObjectID, fullname, email string) (model.User, error) {
	return r.updateReturning(ctx, id, bson.M{"fullname": fullname, "email": email}, "UpdateDetails")
}

func (r *MongoUserRepo) SetAvatar(ctx context.Context, id primitive.ObjectID, url string) (model.User, error) {
	return r.updateReturning(ctx, id, bson.M{"avatar": url}, "SetAvatar")
}

func (r *MongoUserRepo) SetCoverImage(ctx context.Context, id primitive.ObjectID, url string) (model.User, error) {
	return r.updateReturning(ctx, id, bson.M{"coverImage": url}, "SetCoverImage")
}

func (r *MongoUserRepo) updateReturning(ctx context.Context, id primitive.ObjectID, set bson.M, op string) (model.User, error) {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u model.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return model.User{}, customErrors.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return model.User{}, customErrors.ErrAlreadyExists
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, op)
	}
	return u, nil
}
