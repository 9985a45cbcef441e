package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"dms-gmail-addon/internal/dto"
	"dms-gmail-addon/internal/repository/memory"
	"dms-gmail-addon/pkg/dms"
)

func newOAuthFixture(t *testing.T, serverURL string) (IOAuthService, ISettingsService) {
	t.Helper()
	cfg := testConfig()
	cfg.DMS.DefaultServerURL = serverURL
	settings := NewSettingsService(memory.NewSettingsRepository(), cfg, nopLogger{})
	return NewOAuthService(settings, cfg, nopLogger{}), settings
}

func TestHasAccessWithoutToken(t *testing.T) {
	oauthSvc, _ := newOAuthFixture(t, "https://dms.example.com")
	assert.False(t, oauthSvc.HasAccess(context.Background(), "inst-1"))
}

func TestAccessTokenWithoutTokenIsAuthorizationRequired(t *testing.T) {
	oauthSvc, _ := newOAuthFixture(t, "https://dms.example.com")
	_, err := oauthSvc.AccessToken(context.Background(), "inst-1")
	assert.ErrorIs(t, err, dms.ErrAuthorizationRequired)
}

func TestAccessTokenValid(t *testing.T) {
	oauthSvc, settings := newOAuthFixture(t, "https://dms.example.com")
	ctx := context.Background()

	require.NoError(t, settings.SaveToken(ctx, "inst-1", &oauth2.Token{
		AccessToken: "live-token",
		Expiry:      time.Now().Add(time.Hour),
	}))

	assert.True(t, oauthSvc.HasAccess(ctx, "inst-1"))
	token, err := oauthSvc.AccessToken(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "live-token", token)
}

func TestAccessTokenRefreshesExpired(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/access-token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "rt-1", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh-token","refresh_token":"rt-2","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	oauthSvc, settings := newOAuthFixture(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, settings.SaveToken(ctx, "inst-1", &oauth2.Token{
		AccessToken:  "stale-token",
		RefreshToken: "rt-1",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	token, err := oauthSvc.AccessToken(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)

	// The refreshed token is persisted for the next request.
	saved, err := settings.Token(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", saved.AccessToken)
	assert.Equal(t, "rt-2", saved.RefreshToken)
}

func TestAuthorizationURL(t *testing.T) {
	oauthSvc, settings := newOAuthFixture(t, "https://dms.example.com")
	ctx := context.Background()

	require.NoError(t, settings.SaveCredentials(ctx, "inst-1", &dto.Credentials{
		ClientID: "client-1", ClientSecret: "secret-1",
	}))

	rawURL, err := oauthSvc.AuthorizationURL(ctx, "inst-1")
	require.NoError(t, err)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.Equal(t, "/oauth2/authorize", parsed.Path)
	assert.Equal(t, "client-1", parsed.Query().Get("client_id"))
	assert.NotEmpty(t, parsed.Query().Get("state"))
	assert.Equal(t, "https://addon.example.com/api/addon/v1/oauth/callback", parsed.Query().Get("redirect_uri"))

	// The state resolves back to the installation exactly once.
	installationID, err := settings.TakeAuthState(ctx, parsed.Query().Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "inst-1", installationID)
}

func TestHandleCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/access-token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "code-1", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"granted-token","refresh_token":"rt-1","token_type":"Bearer","expires_in":3600}`)
	}))
	defer srv.Close()

	oauthSvc, settings := newOAuthFixture(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, settings.SaveAuthState(ctx, "state-1", "inst-1"))
	require.NoError(t, oauthSvc.HandleCallback(ctx, "state-1", "code-1"))

	assert.True(t, oauthSvc.HasAccess(ctx, "inst-1"))
	token, err := oauthSvc.AccessToken(ctx, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "granted-token", token)
}

func TestHandleCallbackUnknownState(t *testing.T) {
	oauthSvc, _ := newOAuthFixture(t, "https://dms.example.com")
	err := oauthSvc.HandleCallback(context.Background(), "never-issued", "code-1")
	require.Error(t, err)
}

func TestHandleCallbackDeclined(t *testing.T) {
	oauthSvc, settings := newOAuthFixture(t, "https://dms.example.com")
	ctx := context.Background()

	require.NoError(t, settings.SaveAuthState(ctx, "state-1", "inst-1"))
	err := oauthSvc.HandleCallback(ctx, "state-1", "")
	require.Error(t, err)
	assert.False(t, oauthSvc.HasAccess(ctx, "inst-1"))
}

func TestClearRevokesAccess(t *testing.T) {
	oauthSvc, settings := newOAuthFixture(t, "https://dms.example.com")
	ctx := context.Background()

	require.NoError(t, settings.SaveToken(ctx, "inst-1", &oauth2.Token{
		AccessToken: "live-token",
		Expiry:      time.Now().Add(time.Hour),
	}))
	require.True(t, oauthSvc.HasAccess(ctx, "inst-1"))

	require.NoError(t, oauthSvc.Clear(ctx, "inst-1"))
	assert.False(t, oauthSvc.HasAccess(ctx, "inst-1"))

	provider := oauthSvc.TokenProvider(ctx, "inst-1")
	assert.False(t, provider.HasAccess())
	_, err := provider.AccessToken()
	assert.ErrorIs(t, err, dms.ErrAuthorizationRequired)
}
