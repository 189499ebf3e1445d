package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/teemow/craftpanel/internal/lifecycle"
	"github.com/teemow/craftpanel/internal/oauth"
	"github.com/teemow/craftpanel/internal/rcon"
)

// Config is the full panel configuration.
type Config struct {
	// HTTPAddr is the listen address of the panel
	HTTPAddr string `env:"PANEL_HTTP_ADDR" envDefault:":8000"`

	// FrontendURL is where users land after login; also the allowed CORS origin
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:8000/"`

	// FrontendDir optionally serves a static frontend (index.html, static/, img/)
	FrontendDir string `env:"FRONTEND_DIR"`

	// Locale selects the language of user-facing messages: ru or en
	Locale string `env:"PANEL_LOCALE" envDefault:"ru"`

	// AuthorizedUsers is the allow-list; empty means every logged-in user
	AuthorizedUsers []string `env:"AUTHORIZED_USERS" envSeparator:","`

	Session  SessionConfig
	RCON     RCONConfig
	Server   ServerConfig
	Commands CommandConfig
	OAuth    OAuthConfig
	Metrics  MetricsConfig
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	Secret string        `env:"SESSION_SECRET"`
	TTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	Secure bool          `env:"SESSION_SECURE" envDefault:"true"`
}

// RCONConfig configures the remote console connection.
type RCONConfig struct {
	Host     string        `env:"RCON_HOST" envDefault:"localhost"`
	Port     int           `env:"RCON_PORT" envDefault:"25575"`
	Password string        `env:"RCON_PASSWORD"`
	Timeout  time.Duration `env:"RCON_TIMEOUT" envDefault:"5s"`
}

// ServerConfig describes how the game server is launched and stopped.
type ServerConfig struct {
	JavaPath        string        `env:"JAVA_PATH" envDefault:"java"`
	JavaArgs        []string      `env:"JAVA_ARGS" envSeparator:" " envDefault:"-Xmx5000M -Xms5000M"`
	Jar             string        `env:"SERVER_JAR" envDefault:"server.jar"`
	Dir             string        `env:"SERVER_DIR" envDefault:"server"`
	LogFile         string        `env:"LOG_FILE"`
	ClearLogsOnStop bool          `env:"CLEAR_LOGS_ON_STOP" envDefault:"false"`
	GracefulTimeout time.Duration `env:"STOP_GRACEFUL_TIMEOUT" envDefault:"30s"`
	ForcefulTimeout time.Duration `env:"STOP_FORCEFUL_TIMEOUT" envDefault:"5s"`
	RestartDelay    time.Duration `env:"RESTART_DELAY" envDefault:"2s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_GRACEFUL_TIMEOUT" envDefault:"10s"`
}

// CommandConfig configures console command handling.
type CommandConfig struct {
	Cooldown    time.Duration `env:"COMMAND_COOLDOWN" envDefault:"1s"`
	HistorySize int           `env:"HISTORY_SIZE" envDefault:"10"`
}

// OAuthConfig configures the login provider.
type OAuthConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURI  string `env:"GOOGLE_REDIRECT_URI"`
	AuthURL      string `env:"GOOGLE_AUTH_URL"`
	TokenURL     string `env:"GOOGLE_TOKEN_URL"`
	UserInfoURL  string `env:"GOOGLE_USERINFO_URL"`
}

// MetricsConfig holds configuration for the metrics server.
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	users := make([]string, 0, len(c.AuthorizedUsers))
	for _, u := range ParseCommaSeparatedList(strings.Join(c.AuthorizedUsers, ",")) {
		users = append(users, strings.ToLower(u))
	}
	c.AuthorizedUsers = users

	c.Server.JavaArgs = strings.Fields(strings.Join(c.Server.JavaArgs, " "))
	c.Locale = strings.ToLower(strings.TrimSpace(c.Locale))
}

// Validate checks values that would otherwise fail at first use.
// OAuth settings are not required: without them the panel runs and reports
// the misconfiguration on the login endpoint.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address must not be empty"))
	}
	if c.Locale != "ru" && c.Locale != "en" {
		errs = append(errs, fmt.Errorf("unsupported locale %q, must be one of: ru, en", c.Locale))
	}
	if c.RCON.Port < 1 || c.RCON.Port > 65535 {
		errs = append(errs, fmt.Errorf("RCON port must be between 1 and 65535, got %d", c.RCON.Port))
	}
	if c.Server.JavaPath == "" {
		errs = append(errs, errors.New("java path must not be empty"))
	}
	if c.Server.Jar == "" {
		errs = append(errs, errors.New("server jar must not be empty"))
	}
	if c.Commands.HistorySize < 1 {
		errs = append(errs, fmt.Errorf("history size must be positive, got %d", c.Commands.HistorySize))
	}
	if c.Commands.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("command cooldown must not be negative, got %s", c.Commands.Cooldown))
	}

	return errors.Join(errs...)
}

// OAuthConfigured reports whether login can work at all.
func (c *Config) OAuthConfigured() bool {
	return c.OAuth.ClientID != "" && c.OAuth.ClientSecret != "" && c.OAuth.RedirectURI != ""
}

// LogFilePath returns the server log location, defaulting to logs/latest.log
// inside the server directory.
func (c *Config) LogFilePath() string {
	if c.Server.LogFile != "" {
		return c.Server.LogFile
	}
	return filepath.Join(c.Server.Dir, "logs", "latest.log")
}

// ServerCommand builds the launch command: java <args> -jar <jar> nogui.
func (c *Config) ServerCommand() lifecycle.Command {
	args := make([]string, 0, len(c.Server.JavaArgs)+3)
	args = append(args, c.Server.JavaArgs...)
	args = append(args, "-jar", c.Server.Jar, "nogui")
	return lifecycle.Command{
		Path: c.Server.JavaPath,
		Args: args,
		Dir:  c.Server.Dir,
	}
}

// LifecycleConfig returns the controller settings.
func (c *Config) LifecycleConfig() lifecycle.Config {
	return lifecycle.Config{
		Command:                 c.ServerCommand(),
		LogFile:                 c.LogFilePath(),
		ClearLogsOnStop:         c.Server.ClearLogsOnStop,
		GracefulTimeout:         c.Server.GracefulTimeout,
		ForcefulTimeout:         c.Server.ForcefulTimeout,
		RestartDelay:            c.Server.RestartDelay,
		ShutdownGracefulTimeout: c.Server.ShutdownTimeout,
	}
}

// RCONClientConfig returns the console client settings.
func (c *Config) RCONClientConfig() rcon.Config {
	return rcon.Config{
		Host:     c.RCON.Host,
		Port:     c.RCON.Port,
		Password: c.RCON.Password,
		Timeout:  c.RCON.Timeout,
	}
}

// ProviderConfig returns the OAuth provider settings.
func (c *Config) ProviderConfig() oauth.ProviderConfig {
	return oauth.ProviderConfig{
		ClientID:     c.OAuth.ClientID,
		ClientSecret: c.OAuth.ClientSecret,
		RedirectURL:  c.OAuth.RedirectURI,
		AuthURL:      c.OAuth.AuthURL,
		TokenURL:     c.OAuth.TokenURL,
		UserInfoURL:  c.OAuth.UserInfoURL,
	}
}

// ParseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty.
func ParseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
