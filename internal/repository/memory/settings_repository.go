package memory

import (
	"context"

	"dms-gmail-addon/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type SettingsRepository struct {
	store *cache.Cache
}

// NewSettingsRepository keeps the durable settings tier in process
// memory. Used by tests and single-node development setups.
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{
		store: cache.New(cache.NoExpiration, 0),
	}
}

func (r *SettingsRepository) Get(_ context.Context, key string) (string, error) {
	if x, found := r.store.Get(key); found {
		return x.(string), nil
	}
	return "", contract.ErrNotFound
}

func (r *SettingsRepository) Put(_ context.Context, key, value string) error {
	r.store.Set(key, value, cache.NoExpiration)
	return nil
}

func (r *SettingsRepository) Delete(_ context.Context, key string) error {
	r.store.Delete(key)
	return nil
}
