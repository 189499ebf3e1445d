package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	oauth2google "golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/teemow/craftpanel/internal/logging"
)

// ProviderConfig describes the OAuth client registration.
// Empty endpoint URLs fall back to Google's.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string

	Scopes []string

	// Timeout bounds each call to the provider (default: DefaultExchangeTimeout)
	Timeout time.Duration

	// HTTPClient is used for all provider calls (default: a client with Timeout)
	HTTPClient *http.Client
}

// UserInfo is the subset of the provider profile the panel keeps.
type UserInfo struct {
	Sub           string `json:"sub"`
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Provider performs the authorization-code handshake against one provider.
type Provider struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	timeout     time.Duration
	logger      *slog.Logger
}

// NewProvider validates cfg and builds a Provider.
// It returns ErrNotConfigured when credentials or the redirect URI are missing.
func NewProvider(cfg ProviderConfig, logger *slog.Logger) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}

	endpoint := oauth2google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultExchangeTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  httpClient,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// AuthCodeURL returns the provider login URL bound to state.
// The account chooser is always shown so users can switch identities.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for a token.
// Provider-side rejections surface as *oauth2.RetrieveError.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(p.clientContext(ctx), p.timeout)
	defer cancel()

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	p.logger.Debug("Exchanged authorization code",
		slog.String("access_token", logging.SanitizeToken(token.AccessToken)))
	return token, nil
}

// UserInfo fetches the profile for token. The profile must carry an email,
// a display name and a picture, otherwise ErrIncompleteProfile is returned.
func (p *Provider) UserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	ctx, cancel := context.WithTimeout(p.clientContext(ctx), p.timeout)
	defer cancel()

	var (
		info *UserInfo
		err  error
	)
	if p.userInfoURL != "" {
		info, err = p.fetchUserInfo(ctx, token)
	} else {
		info, err = p.googleUserInfo(ctx, token)
	}
	if err != nil {
		return nil, err
	}

	if info.Email == "" || info.Name == "" || info.Picture == "" {
		return nil, fmt.Errorf("%w: email, name and picture are required", ErrIncompleteProfile)
	}
	return info, nil
}

// fetchUserInfo calls a configured OpenID-style userinfo endpoint.
func (p *Provider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// googleUserInfo uses the Google OAuth2 v2 API.
func (p *Provider) googleUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	svc, err := googleoauth2.NewService(ctx, option.WithTokenSource(p.config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	got, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	info := &UserInfo{
		ID:      got.Id,
		Email:   got.Email,
		Name:    got.Name,
		Picture: got.Picture,
	}
	if got.VerifiedEmail != nil {
		info.EmailVerified = *got.VerifiedEmail
	}
	return info, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
