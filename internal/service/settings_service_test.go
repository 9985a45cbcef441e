package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"dms-gmail-addon/internal/config"
	"dms-gmail-addon/internal/dto"
	"dms-gmail-addon/internal/repository/contract"
	"dms-gmail-addon/internal/repository/memory"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.BaseURL = "https://addon.example.com"
	cfg.DMS.DefaultServerURL = "https://dms.example.com"
	cfg.DMS.DefaultClientID = "default-client"
	cfg.DMS.DefaultClientSecret = "default-secret"
	cfg.DMS.OAuthScopes = "documents workflows"
	return cfg
}

func TestServerSettingsDefaultsLazily(t *testing.T) {
	durable := memory.NewSettingsRepository()
	svc := NewSettingsService(durable, testConfig(), nopLogger{})
	ctx := context.Background()

	settings, err := svc.ServerSettings(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "https://dms.example.com", settings.ServerURL)

	// The default is persisted, not just returned.
	raw, err := durable.Get(ctx, "inst-1:server_settings")
	require.NoError(t, err)
	assert.Contains(t, raw, "https://dms.example.com")
}

func TestServerSettingsRoundTrip(t *testing.T) {
	durable := memory.NewSettingsRepository()
	svc := NewSettingsService(durable, testConfig(), nopLogger{})
	ctx := context.Background()

	saved := &dto.ServerSettings{ServerURL: "https://other.example.com"}
	require.NoError(t, svc.SaveServerSettings(ctx, "inst-1", saved))

	// Warm read through the same service (cache path).
	got, err := svc.ServerSettings(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, saved.ServerURL, got.ServerURL)

	// Cold read through a fresh service over the same durable tier.
	cold := NewSettingsService(durable, testConfig(), nopLogger{})
	got, err = cold.ServerSettings(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, saved.ServerURL, got.ServerURL)
}

func TestSettingsScopedPerInstallation(t *testing.T) {
	durable := memory.NewSettingsRepository()
	svc := NewSettingsService(durable, testConfig(), nopLogger{})
	ctx := context.Background()

	require.NoError(t, svc.SaveServerSettings(ctx, "inst-1", &dto.ServerSettings{ServerURL: "https://one.example.com"}))
	require.NoError(t, svc.SaveServerSettings(ctx, "inst-2", &dto.ServerSettings{ServerURL: "https://two.example.com"}))

	one, err := svc.ServerSettings(ctx, "inst-1")
	require.NoError(t, err)
	two, err := svc.ServerSettings(ctx, "inst-2")
	require.NoError(t, err)
	assert.Equal(t, "https://one.example.com", one.ServerURL)
	assert.Equal(t, "https://two.example.com", two.ServerURL)
}

func TestCorruptEntrySelfHeals(t *testing.T) {
	durable := memory.NewSettingsRepository()
	svc := NewSettingsService(durable, testConfig(), nopLogger{})
	ctx := context.Background()

	require.NoError(t, durable.Put(ctx, "inst-1:server_settings", "{not json"))

	// The corrupt entry reads as absent, so the defaults come back.
	settings, err := svc.ServerSettings(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "https://dms.example.com", settings.ServerURL)

	raw, err := durable.Get(ctx, "inst-1:server_settings")
	require.NoError(t, err)
	assert.NotEqual(t, "{not json", raw)
}

func TestCorruptTokenReportsNotFound(t *testing.T) {
	durable := memory.NewSettingsRepository()
	svc := NewSettingsService(durable, testConfig(), nopLogger{})
	ctx := context.Background()

	require.NoError(t, durable.Put(ctx, "inst-1:oauth_token", "garbage"))

	_, err := svc.Token(ctx, "inst-1")
	assert.ErrorIs(t, err, contract.ErrNotFound)

	// The entry is gone after the failed read.
	_, err = durable.Get(ctx, "inst-1:oauth_token")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestTokenRoundTrip(t *testing.T) {
	durable := memory.NewSettingsRepository()
	svc := NewSettingsService(durable, testConfig(), nopLogger{})
	ctx := context.Background()

	_, err := svc.Token(ctx, "inst-1")
	assert.ErrorIs(t, err, contract.ErrNotFound)

	token := &oauth2.Token{
		AccessToken:  "at",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, svc.SaveToken(ctx, "inst-1", token))

	got, err := svc.Token(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, "rt", got.RefreshToken)

	require.NoError(t, svc.ClearToken(ctx, "inst-1"))
	_, err = svc.Token(ctx, "inst-1")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestAuthStateRedeemedOnce(t *testing.T) {
	svc := NewSettingsService(memory.NewSettingsRepository(), testConfig(), nopLogger{})
	ctx := context.Background()

	require.NoError(t, svc.SaveAuthState(ctx, "state-abc", "inst-1"))

	installationID, err := svc.TakeAuthState(ctx, "state-abc")
	require.NoError(t, err)
	assert.Equal(t, "inst-1", installationID)

	_, err = svc.TakeAuthState(ctx, "state-abc")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestDisconnectClearsEverything(t *testing.T) {
	durable := memory.NewSettingsRepository()
	svc := NewSettingsService(durable, testConfig(), nopLogger{})
	ctx := context.Background()

	require.NoError(t, svc.SaveServerSettings(ctx, "inst-1", &dto.ServerSettings{ServerURL: "https://custom.example.com"}))
	require.NoError(t, svc.SaveCredentials(ctx, "inst-1", &dto.Credentials{ClientID: "id", ClientSecret: "secret"}))
	require.NoError(t, svc.SaveToken(ctx, "inst-1", &oauth2.Token{AccessToken: "at"}))

	require.NoError(t, svc.Disconnect(ctx, "inst-1"))

	_, err := svc.Token(ctx, "inst-1")
	assert.ErrorIs(t, err, contract.ErrNotFound)

	// Settings fall back to the configured defaults.
	settings, err := svc.ServerSettings(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "https://dms.example.com", settings.ServerURL)

	creds, err := svc.Credentials(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "default-client", creds.ClientID)
}
