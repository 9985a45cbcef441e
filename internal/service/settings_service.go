package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dms-gmail-addon/internal/config"
	"dms-gmail-addon/internal/dto"
	"dms-gmail-addon/internal/pkg/logger"
	"dms-gmail-addon/internal/repository/contract"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
)

const (
	keyServerSettings = "server_settings"
	keyCredentials    = "credentials"
	keyToken          = "oauth_token"
	keyAuthState      = "auth_state"
)

// ISettingsService is the two-tier settings store: a fast in-process
// cache in front of the durable per-installation repository.
type ISettingsService interface {
	ServerSettings(ctx context.Context, installationID string) (*dto.ServerSettings, error)
	SaveServerSettings(ctx context.Context, installationID string, settings *dto.ServerSettings) error
	Credentials(ctx context.Context, installationID string) (*dto.Credentials, error)
	SaveCredentials(ctx context.Context, installationID string, creds *dto.Credentials) error

	Token(ctx context.Context, installationID string) (*oauth2.Token, error)
	SaveToken(ctx context.Context, installationID string, token *oauth2.Token) error
	ClearToken(ctx context.Context, installationID string) error

	SaveAuthState(ctx context.Context, state, installationID string) error
	TakeAuthState(ctx context.Context, state string) (string, error)

	// Disconnect clears credentials, server settings and the access
	// token of an installation in one sweep.
	Disconnect(ctx context.Context, installationID string) error
}

type settingsService struct {
	durable contract.ISettingsRepository
	cache   *gocache.Cache
	cfg     *config.Config
	logger  logger.ILogger
}

func NewSettingsService(durable contract.ISettingsRepository, cfg *config.Config, log logger.ILogger) ISettingsService {
	return &settingsService{
		durable: durable,
		cache:   gocache.New(10*time.Minute, 30*time.Minute),
		cfg:     cfg,
		logger:  log,
	}
}

func (s *settingsService) ServerSettings(ctx context.Context, installationID string) (*dto.ServerSettings, error) {
	var settings dto.ServerSettings
	err := s.get(ctx, scopedKey(installationID, keyServerSettings), &settings)
	if errors.Is(err, contract.ErrNotFound) {
		// Lazy creation with the configured defaults.
		settings = dto.ServerSettings{ServerURL: s.cfg.DMS.DefaultServerURL}
		if err := s.put(ctx, scopedKey(installationID, keyServerSettings), &settings); err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *settingsService) SaveServerSettings(ctx context.Context, installationID string, settings *dto.ServerSettings) error {
	return s.put(ctx, scopedKey(installationID, keyServerSettings), settings)
}

func (s *settingsService) Credentials(ctx context.Context, installationID string) (*dto.Credentials, error) {
	var creds dto.Credentials
	err := s.get(ctx, scopedKey(installationID, keyCredentials), &creds)
	if errors.Is(err, contract.ErrNotFound) {
		creds = dto.Credentials{
			ClientID:     s.cfg.DMS.DefaultClientID,
			ClientSecret: s.cfg.DMS.DefaultClientSecret,
		}
		if err := s.put(ctx, scopedKey(installationID, keyCredentials), &creds); err != nil {
			return nil, err
		}
		return &creds, nil
	}
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

func (s *settingsService) SaveCredentials(ctx context.Context, installationID string, creds *dto.Credentials) error {
	return s.put(ctx, scopedKey(installationID, keyCredentials), creds)
}

func (s *settingsService) Token(ctx context.Context, installationID string) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := s.get(ctx, scopedKey(installationID, keyToken), &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *settingsService) SaveToken(ctx context.Context, installationID string, token *oauth2.Token) error {
	return s.put(ctx, scopedKey(installationID, keyToken), token)
}

func (s *settingsService) ClearToken(ctx context.Context, installationID string) error {
	return s.clear(ctx, scopedKey(installationID, keyToken))
}

func (s *settingsService) SaveAuthState(ctx context.Context, state, installationID string) error {
	return s.put(ctx, scopedKey(keyAuthState, state), installationID)
}

// TakeAuthState resolves an OAuth state back to its installation and
// invalidates it. A state can be redeemed once.
func (s *settingsService) TakeAuthState(ctx context.Context, state string) (string, error) {
	var installationID string
	if err := s.get(ctx, scopedKey(keyAuthState, state), &installationID); err != nil {
		return "", err
	}
	if err := s.clear(ctx, scopedKey(keyAuthState, state)); err != nil {
		return "", err
	}
	return installationID, nil
}

func (s *settingsService) Disconnect(ctx context.Context, installationID string) error {
	for _, key := range []string{keyToken, keyServerSettings, keyCredentials} {
		if err := s.clear(ctx, scopedKey(installationID, key)); err != nil {
			return err
		}
	}
	s.logger.Info("settings", "installation disconnected", map[string]interface{}{
		"installation_id": installationID,
	})
	return nil
}

// get reads cache-first, falls back to the durable tier and backfills
// the cache. A corrupt durable value is deleted and reported as not
// found (self-healing).
func (s *settingsService) get(ctx context.Context, key string, out interface{}) error {
	raw, cached := s.cache.Get(key)
	if !cached {
		value, err := s.durable.Get(ctx, key)
		if err != nil {
			return err
		}
		s.cache.Set(key, value, gocache.DefaultExpiration)
		raw = value
	}

	if err := json.Unmarshal([]byte(raw.(string)), out); err != nil {
		s.logger.Warn("settings", "clearing corrupt entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		s.cache.Delete(key)
		if delErr := s.durable.Delete(ctx, key); delErr != nil {
			return delErr
		}
		return contract.ErrNotFound
	}
	return nil
}

// put writes the durable tier and evicts the cache entry; the next
// read repopulates it.
func (s *settingsService) put(ctx context.Context, key string, value interface{}) error {
	serialized, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.cache.Delete(key)
	return s.durable.Put(ctx, key, string(serialized))
}

func (s *settingsService) clear(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return s.durable.Delete(ctx, key)
}

func scopedKey(scope, key string) string {
	return fmt.Sprintf("%s:%s", scope, key)
}
