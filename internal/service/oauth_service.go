package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dms-gmail-addon/internal/config"
	"dms-gmail-addon/internal/pkg/logger"
	"dms-gmail-addon/internal/repository/contract"
	"dms-gmail-addon/pkg/dms"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// IOAuthService owns the bearer token lifecycle against the document
// server. The rest of the system only ever asks "is authorized" and
// "give me the bearer value".
type IOAuthService interface {
	HasAccess(ctx context.Context, installationID string) bool
	AccessToken(ctx context.Context, installationID string) (string, error)
	AuthorizationURL(ctx context.Context, installationID string) (string, error)
	HandleCallback(ctx context.Context, state, code string) error
	Clear(ctx context.Context, installationID string) error

	// TokenProvider adapts one installation's token state to the
	// client's read-only token interface for the current request.
	TokenProvider(ctx context.Context, installationID string) dms.TokenProvider
}

type oauthService struct {
	settings ISettingsService
	cfg      *config.Config
	logger   logger.ILogger
}

func NewOAuthService(settings ISettingsService, cfg *config.Config, log logger.ILogger) IOAuthService {
	return &oauthService{
		settings: settings,
		cfg:      cfg,
		logger:   log,
	}
}

// configFor assembles the per-installation OAuth client from the saved
// server URL and credentials.
func (s *oauthService) configFor(ctx context.Context, installationID string) (*oauth2.Config, error) {
	server, err := s.settings.ServerSettings(ctx, installationID)
	if err != nil {
		return nil, err
	}
	creds, err := s.settings.Credentials(ctx, installationID)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(server.ServerURL, "/")
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  s.cfg.App.BaseURL + "/api/addon/v1/oauth/callback",
		Scopes:       strings.Fields(s.cfg.DMS.OAuthScopes),
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/oauth2/authorize",
			TokenURL: base + "/oauth2/access-token",
		},
	}, nil
}

func (s *oauthService) HasAccess(ctx context.Context, installationID string) bool {
	token, err := s.settings.Token(ctx, installationID)
	if err != nil {
		return false
	}
	return token.Valid() || token.RefreshToken != ""
}

func (s *oauthService) AccessToken(ctx context.Context, installationID string) (string, error) {
	token, err := s.settings.Token(ctx, installationID)
	if errors.Is(err, contract.ErrNotFound) {
		return "", dms.ErrAuthorizationRequired
	}
	if err != nil {
		return "", err
	}
	if token.Valid() {
		return token.AccessToken, nil
	}
	if token.RefreshToken == "" {
		return "", dms.ErrAuthorizationRequired
	}

	conf, err := s.configFor(ctx, installationID)
	if err != nil {
		return "", err
	}
	refreshed, err := conf.TokenSource(ctx, token).Token()
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	if err := s.settings.SaveToken(ctx, installationID, refreshed); err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

func (s *oauthService) AuthorizationURL(ctx context.Context, installationID string) (string, error) {
	conf, err := s.configFor(ctx, installationID)
	if err != nil {
		return "", err
	}
	state := uuid.NewString()
	if err := s.settings.SaveAuthState(ctx, state, installationID); err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state), nil
}

// HandleCallback completes the authorization code flow. Raises an
// error when authorization was declined or the state is unknown.
func (s *oauthService) HandleCallback(ctx context.Context, state, code string) error {
	installationID, err := s.settings.TakeAuthState(ctx, state)
	if errors.Is(err, contract.ErrNotFound) {
		return errors.New("authorization declined: unknown state")
	}
	if err != nil {
		return err
	}
	if code == "" {
		return errors.New("authorization declined")
	}

	conf, err := s.configFor(ctx, installationID)
	if err != nil {
		return err
	}
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}
	if err := s.settings.SaveToken(ctx, installationID, token); err != nil {
		return err
	}
	s.logger.Info("oauth", "installation authorized", map[string]interface{}{
		"installation_id": installationID,
	})
	return nil
}

func (s *oauthService) Clear(ctx context.Context, installationID string) error {
	return s.settings.ClearToken(ctx, installationID)
}

func (s *oauthService) TokenProvider(ctx context.Context, installationID string) dms.TokenProvider {
	return &requestTokenProvider{
		ctx:            ctx,
		installationID: installationID,
		svc:            s,
	}
}

// requestTokenProvider binds the token surface to one request's
// context and installation. Never kept beyond the request.
type requestTokenProvider struct {
	ctx            context.Context
	installationID string
	svc            *oauthService
}

func (p *requestTokenProvider) HasAccess() bool {
	return p.svc.HasAccess(p.ctx, p.installationID)
}

func (p *requestTokenProvider) AccessToken() (string, error) {
	return p.svc.AccessToken(p.ctx, p.installationID)
}
