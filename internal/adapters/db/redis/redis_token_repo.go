package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const accessPrefix = "a:"

// RedisTokenRepo хранит denylist access-токенов, отозванных до истечения.
type RedisTokenRepo struct {
	client *redis.Client
}

func NewRedisTokenRepo(client *redis.Client) *RedisTokenRepo {
	return &RedisTokenRepo{
		client: client,
	}
}

func (r *RedisTokenRepo) RevokeAccess(ctx context.Context, jti string, exp time.Time) error {
	return r.client.Set(ctx, accessPrefix+jti, 1, safeTTL(exp)).Err()
}

func (r *RedisTokenRepo) IsAccessRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, accessPrefix+jti).Result()
	if err != nil {
		return true, err // считаем отозванным, плюс ошибка вверх
	}
	return n > 0, nil
}

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl <= 0 {
		// задаём минимальный TTL, чтобы ключ всё-таки исчез
		return time.Minute
	}
	return ttl
}
