package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teemow/craftpanel/internal/i18n"
	"github.com/teemow/craftpanel/internal/instrumentation"
	"github.com/teemow/craftpanel/internal/lifecycle"
	"github.com/teemow/craftpanel/internal/oauth"
	"github.com/teemow/craftpanel/internal/rcon"
	"github.com/teemow/craftpanel/internal/session"
)

const (
	adminEmail    = "admin@example.com"
	strangerEmail = "stranger@example.com"
	frontendURL   = "http://localhost:3000/"
)

type fakeConsole struct {
	mu       sync.Mutex
	commands []string
	reply    func(command string) rcon.Result
}

func (f *fakeConsole) Execute(_ context.Context, command string) rcon.Result {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	reply := f.reply
	f.mu.Unlock()

	if reply != nil {
		return reply(command)
	}
	return rcon.Result{OK: true, Text: "ok: " + command}
}

func (f *fakeConsole) Addr() string {
	return "127.0.0.1:25575"
}

func (f *fakeConsole) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServerContext builds a context around a controller that launches
// "sleep 30" and stops it within a few hundred milliseconds.
func newTestServerContext(t *testing.T, mutate func(*Options)) (*ServerContext, *fakeConsole) {
	t.Helper()

	logger := discardLogger()
	console := &fakeConsole{}
	controller := lifecycle.NewController(lifecycle.Config{
		Command:                 lifecycle.Command{Path: "sleep", Args: []string{"30"}},
		GracefulTimeout:         200 * time.Millisecond,
		ForcefulTimeout:         200 * time.Millisecond,
		RestartDelay:            10 * time.Millisecond,
		ShutdownGracefulTimeout: 200 * time.Millisecond,
		PollInterval:            10 * time.Millisecond,
	}, console, logger)

	codec, err := session.NewCodec("test-secret", time.Hour, false)
	require.NoError(t, err)

	opts := Options{
		Controller:  controller,
		Console:     console,
		Codec:       codec,
		Policy:      session.NewPolicy([]string{adminEmail}),
		Translator:  i18n.New("ru"),
		Audit:       instrumentation.NewAuditLogger(logger),
		LogFile:     filepath.Join(t.TempDir(), "latest.log"),
		FrontendURL: frontendURL,
		Logger:      logger,
	}
	if mutate != nil {
		mutate(&opts)
	}

	sc, err := NewServerContext(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Close(context.Background()) })
	return sc, console
}

func newTestRouter(t *testing.T, mutate func(*Options)) (http.Handler, *ServerContext, *fakeConsole) {
	t.Helper()
	sc, console := newTestServerContext(t, mutate)
	return NewRouter(NewHandler(sc, NewHealthChecker(sc))), sc, console
}

func sessionCookie(t *testing.T, sc *ServerContext, email string) *http.Cookie {
	t.Helper()
	raw, err := sc.codec.Encode(session.Session{
		Email:     email,
		Name:      "Steve",
		Picture:   "https://example.com/steve.png",
		LoginTime: time.Now(),
	})
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: raw}
}

func do(h http.Handler, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// fakeOAuthProvider serves the token and userinfo endpoints. Only the code
// "good-code" is accepted.
func fakeOAuthProvider(t *testing.T) oauth.ProviderConfig {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Bad code"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"email":   adminEmail,
			"name":    "Admin",
			"picture": "https://example.com/admin.png",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return oauth.ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8000/auth/callback",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
	}
}

func withProvider(t *testing.T) func(*Options) {
	t.Helper()
	cfg := fakeOAuthProvider(t)
	return func(o *Options) {
		p, err := oauth.NewProvider(cfg, o.Logger)
		require.NoError(t, err)
		o.Provider = p
	}
}
