package implementation

import (
	"context"
	"errors"

	"dms-gmail-addon/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "addon:settings:"

type settingsRepository struct {
	client *redis.Client
}

// NewSettingsRepository backs the durable settings tier with Redis.
func NewSettingsRepository(client *redis.Client) contract.ISettingsRepository {
	return &settingsRepository{
		client: client,
	}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", contract.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *settingsRepository) Put(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, keyPrefix+key, value, 0).Err()
}

func (r *settingsRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}
