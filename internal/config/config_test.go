package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "ru", cfg.Locale)
	assert.Empty(t, cfg.AuthorizedUsers)
	assert.Equal(t, "localhost", cfg.RCON.Host)
	assert.Equal(t, 25575, cfg.RCON.Port)
	assert.Equal(t, []string{"-Xmx5000M", "-Xms5000M"}, cfg.Server.JavaArgs)
	assert.Equal(t, 30*time.Second, cfg.Server.GracefulTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.ForcefulTimeout)
	assert.Equal(t, 2*time.Second, cfg.Server.RestartDelay)
	assert.Equal(t, time.Second, cfg.Commands.Cooldown)
	assert.Equal(t, 10, cfg.Commands.HistorySize)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.Secure)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.OAuthConfigured())
	assert.Equal(t, filepath.Join("server", "logs", "latest.log"), cfg.LogFilePath())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"AUTHORIZED_USERS":     " Admin@Example.com, ,mod@example.com ",
		"JAVA_PATH":            "/usr/lib/jvm/java-21/bin/java",
		"JAVA_ARGS":            "-Xmx2G   -Xms1G",
		"SERVER_JAR":           "paper.jar",
		"SERVER_DIR":           "/srv/minecraft",
		"LOG_FILE":             "/var/log/mc.log",
		"RCON_PORT":            "25580",
		"CLEAR_LOGS_ON_STOP":   "true",
		"GOOGLE_CLIENT_ID":     "id",
		"GOOGLE_CLIENT_SECRET": "secret",
		"GOOGLE_REDIRECT_URI":  "https://panel.example.com/auth/callback",
		"PANEL_LOCALE":         "EN",
	})
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"admin@example.com", "mod@example.com"}, cfg.AuthorizedUsers)
	assert.Equal(t, "en", cfg.Locale)
	assert.True(t, cfg.OAuthConfigured())
	assert.Equal(t, "/var/log/mc.log", cfg.LogFilePath())

	cmd := cfg.ServerCommand()
	assert.Equal(t, "/usr/lib/jvm/java-21/bin/java", cmd.Path)
	assert.Equal(t, []string{"-Xmx2G", "-Xms1G", "-jar", "paper.jar", "nogui"}, cmd.Args)
	assert.Equal(t, "/srv/minecraft", cmd.Dir)

	lc := cfg.LifecycleConfig()
	assert.True(t, lc.ClearLogsOnStop)
	assert.Equal(t, "/var/log/mc.log", lc.LogFile)

	assert.Equal(t, 25580, cfg.RCONClientConfig().Port)
	assert.Equal(t, "https://panel.example.com/auth/callback", cfg.ProviderConfig().RedirectURL)
}

func TestLoadFrom_InvalidValue(t *testing.T) {
	_, err := LoadFrom(map[string]string{"RCON_PORT": "not-a-number"})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "bad locale", mutate: func(c *Config) { c.Locale = "de" }, wantErr: "unsupported locale"},
		{name: "bad port", mutate: func(c *Config) { c.RCON.Port = 0 }, wantErr: "RCON port"},
		{name: "empty java", mutate: func(c *Config) { c.Server.JavaPath = "" }, wantErr: "java path"},
		{name: "zero history", mutate: func(c *Config) { c.Commands.HistorySize = 0 }, wantErr: "history size"},
		{name: "negative cooldown", mutate: func(c *Config) { c.Commands.Cooldown = -time.Second }, wantErr: "cooldown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(map[string]string{})
			require.NoError(t, err)
			tt.mutate(&cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single value", input: "admin@example.com", expected: []string{"admin@example.com"}},
		{name: "multiple values", input: "a@example.com,b@example.com", expected: []string{"a@example.com", "b@example.com"}},
		{name: "values with spaces around comma", input: "a@example.com, b@example.com", expected: []string{"a@example.com", "b@example.com"}},
		{name: "trailing comma", input: "a@example.com,", expected: []string{"a@example.com"}},
		{name: "multiple consecutive commas", input: "a@example.com,,b@example.com", expected: []string{"a@example.com", "b@example.com"}},
		{name: "only commas and spaces", input: ",  , , ", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCommaSeparatedList(tt.input))
		})
	}
}
