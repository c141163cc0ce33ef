package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Miraines/MoonyAndStarry/account-service/internal/domain/account/model"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const profilePrefix = "profile:"

// ProfileCache держит профили каналов в hash на username: поле — id зрителя,
// так что Invalidate сбрасывает все представления одним DEL.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ProfileCache{client: client, ttl: ttl}
}

func (c *ProfileCache) Get(ctx context.Context, username string, viewer primitive.ObjectID) (model.ChannelProfile, bool, error) {
	raw, err := c.client.HGet(ctx, profilePrefix+username, viewer.Hex()).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.ChannelProfile{}, false, nil
	}
	if err != nil {
		return model.ChannelProfile{}, false, err
	}

	var p model.ChannelProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.ChannelProfile{}, false, err
	}
	return p, true, nil
}

func (c *ProfileCache) Put(ctx context.Context, username string, viewer primitive.ObjectID, p model.ChannelProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	key := profilePrefix + username
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, viewer.Hex(), raw)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	return err
}

func (c *ProfileCache) Invalidate(ctx context.Context, username string) error {
	return c.client.Del(ctx, profilePrefix+username).Err()
}
