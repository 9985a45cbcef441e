package contract

import (
	"context"
	"errors"
)

// ErrNotFound reports that no value is stored under a key.
var ErrNotFound = errors.New("settings: not found")

// ISettingsRepository is the durable tier of the settings store:
// per-installation string-keyed JSON values.
type ISettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
