package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeProvider struct {
	server  *httptest.Server
	profile map[string]any
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	fp := &fakeProvider{
		profile: map[string]any{
			"sub":     "1234",
			"email":   "steve@example.com",
			"name":    "Steve",
			"picture": "https://example.com/steve.png",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Bad code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fp.profile)
	})

	fp.server = httptest.NewServer(mux)
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakeProvider) config() ProviderConfig {
	return ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8000/auth/callback",
		AuthURL:      fp.server.URL + "/auth",
		TokenURL:     fp.server.URL + "/token",
		UserInfoURL:  fp.server.URL + "/userinfo",
	}
}

func TestNewProvider_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
	}{
		{name: "empty", cfg: ProviderConfig{}},
		{name: "missing secret", cfg: ProviderConfig{ClientID: "id", RedirectURL: "http://x/cb"}},
		{name: "missing redirect", cfg: ProviderConfig{ClientID: "id", ClientSecret: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg, nil)
			assert.ErrorIs(t, err, ErrNotConfigured)
		})
	}
}

func TestProvider_AuthCodeURL(t *testing.T) {
	fp := newFakeProvider(t)
	p, err := NewProvider(fp.config(), nil)
	require.NoError(t, err)

	u, err := url.Parse(p.AuthCodeURL("state-abc"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "/auth", u.Path)
	assert.Equal(t, "state-abc", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "email profile", q.Get("scope"))
	assert.Equal(t, "select_account", q.Get("prompt"))
	assert.Equal(t, "http://localhost:8000/auth/callback", q.Get("redirect_uri"))
}

func TestProvider_ExchangeAndUserInfo(t *testing.T) {
	fp := newFakeProvider(t)
	p, err := NewProvider(fp.config(), nil)
	require.NoError(t, err)

	token, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "access-123", token.AccessToken)

	info, err := p.UserInfo(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "steve@example.com", info.Email)
	assert.Equal(t, "Steve", info.Name)
	assert.Equal(t, "https://example.com/steve.png", info.Picture)
}

func TestProvider_ExchangeRejected(t *testing.T) {
	fp := newFakeProvider(t)
	p, err := NewProvider(fp.config(), nil)
	require.NoError(t, err)

	_, err = p.Exchange(context.Background(), "bad-code")
	require.Error(t, err)

	var retrieveErr *oauth2.RetrieveError
	require.True(t, errors.As(err, &retrieveErr))
	assert.Equal(t, "invalid_grant", retrieveErr.ErrorCode)
}

func TestProvider_UserInfoIncompleteProfile(t *testing.T) {
	fp := newFakeProvider(t)
	delete(fp.profile, "picture")

	p, err := NewProvider(fp.config(), nil)
	require.NoError(t, err)

	_, err = p.UserInfo(context.Background(), &oauth2.Token{AccessToken: "access-123", TokenType: "Bearer"})
	assert.ErrorIs(t, err, ErrIncompleteProfile)
}

func TestProvider_UserInfoUnauthorized(t *testing.T) {
	fp := newFakeProvider(t)
	p, err := NewProvider(fp.config(), nil)
	require.NoError(t, err)

	_, err = p.UserInfo(context.Background(), &oauth2.Token{AccessToken: "wrong", TokenType: "Bearer"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
