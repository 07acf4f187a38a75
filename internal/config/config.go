// Package config loads server configuration from flags, environment variables and a .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Server   ServerConfig
	Content  ContentConfig
	Auth     AuthConfig
	OAuth    OAuthConfig
	Playback PlaybackConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig locates on-disk state. Every store lives below BasePath.
type DataConfig struct {
	BasePath string
}

// DatabasePath is the sqlite file holding accounts, bookmarks and last-read rows.
func (d DataConfig) DatabasePath() string { return filepath.Join(d.BasePath, "tilawah.db") }

// PreferencesPath is the badger directory for reader preferences.
func (d DataConfig) PreferencesPath() string { return filepath.Join(d.BasePath, "preferences") }

// SearchPath is the bleve index directory.
func (d DataConfig) SearchPath() string { return filepath.Join(d.BasePath, "search") }

// KeyPath is where the token signing key is stored.
func (d DataConfig) KeyPath() string { return filepath.Join(d.BasePath, "token.key") }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	PublicURL      string // external base URL, used to build the OAuth redirect
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// ContentConfig configures the remote Quran content source.
type ContentConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// AuthConfig holds session token configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key (32 bytes), set by auth.LoadOrGenerateKey in main.
	TokenKey        []byte
	SessionDuration time.Duration
	// Sign-in attempts allowed per client IP per minute.
	SignInPerMinute int
}

// OAuthConfig describes the identity provider. Endpoints default to Google.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
}

// Enabled reports whether sign-in is configured.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

// PlaybackConfig configures server-side audio players.
type PlaybackConfig struct {
	CachePath     string
	DefaultVolume float64
	MaxPlayers    int
}

// CallbackPath is the fixed path the identity provider redirects back to.
const CallbackPath = "/auth/callback"

// LoadConfig loads configuration from os.Args with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("tilawah", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for databases and indexes")
	port := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Externally reachable base URL")
	origins := fs.String("allowed-origins", "", "Comma separated CORS origins")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 0, streams stay open)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	contentURL := fs.String("content-url", "", "Quran content API base URL")
	contentTimeout := fs.String("content-timeout", "", "Content API request timeout (default: 15s)")
	sessionDuration := fs.String("session-duration", "", "Session lifetime (default: 720h)")
	oauthClientID := fs.String("oauth-client-id", "", "OAuth client id")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv never overrides variables already present in the environment,
	// which keeps env above the file in precedence.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		App:    AppConfig{Environment: getConfigValue(*env, "ENV", "development")},
		Logger: LoggerConfig{Level: getConfigValue(*logLevel, "LOG_LEVEL", "info")},
		Data:   DataConfig{BasePath: getConfigValue(*dataPath, "DATA_PATH", "")},
		Server: ServerConfig{
			Port:           getConfigValue(*port, "SERVER_PORT", "8080"),
			PublicURL:      strings.TrimRight(getConfigValue(*publicURL, "PUBLIC_URL", ""), "/"),
			AllowedOrigins: splitList(getConfigValue(*origins, "ALLOWED_ORIGINS", "*")),
		},
		Content: ContentConfig{
			BaseURL:           strings.TrimRight(getConfigValue(*contentURL, "CONTENT_BASE_URL", "https://equran.id/api/v2"), "/"),
			RequestsPerSecond: getFloatConfigValue("", "CONTENT_RPS", 5),
			Burst:             getIntConfigValue("", "CONTENT_BURST", 10),
		},
		Auth: AuthConfig{
			SignInPerMinute: getIntConfigValue("", "SIGNIN_PER_MINUTE", 10),
		},
		OAuth: OAuthConfig{
			ClientID:     getConfigValue(*oauthClientID, "OAUTH_CLIENT_ID", ""),
			ClientSecret: getConfigValue("", "OAUTH_CLIENT_SECRET", ""),
			AuthURL:      getConfigValue("", "OAUTH_AUTH_URL", ""),
			TokenURL:     getConfigValue("", "OAUTH_TOKEN_URL", ""),
			UserInfoURL:  getConfigValue("", "OAUTH_USERINFO_URL", "https://openidconnect.googleapis.com/v1/userinfo"),
			Scopes:       splitList(getConfigValue("", "OAUTH_SCOPES", "openid,email,profile")),
		},
		Playback: PlaybackConfig{
			CachePath:     getConfigValue("", "AUDIO_CACHE_PATH", ""),
			DefaultVolume: getFloatConfigValue("", "DEFAULT_VOLUME", 0.7),
			MaxPlayers:    getIntConfigValue("", "MAX_PLAYERS", 256),
		},
	}

	durations := []struct {
		name         string
		flagValue    string
		envKey       string
		defaultValue string
		dst          *time.Duration
	}{
		{"read timeout", *readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{"write timeout", *writeTimeout, "SERVER_WRITE_TIMEOUT", "0s", &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"content timeout", *contentTimeout, "CONTENT_TIMEOUT", "15s", &cfg.Content.Timeout},
		{"session duration", *sessionDuration, "SESSION_DURATION", "720h", &cfg.Auth.SessionDuration},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.defaultValue)
		v, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = v
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if _, err := url.ParseRequestURI(c.Content.BaseURL); err != nil {
		return fmt.Errorf("invalid content base url %q: %w", c.Content.BaseURL, err)
	}
	if c.Content.RequestsPerSecond <= 0 || c.Content.Burst < 1 {
		return errors.New("content rate limit must be positive")
	}

	if c.Playback.DefaultVolume < 0 || c.Playback.DefaultVolume > 1 {
		return fmt.Errorf("default volume %.2f outside [0,1]", c.Playback.DefaultVolume)
	}

	if c.Auth.SessionDuration <= 0 {
		return errors.New("session duration must be positive")
	}

	// Sign-in stays disabled without a client id; with one, the secret and a
	// public URL for the callback are mandatory.
	if c.OAuth.ClientID != "" {
		if c.OAuth.ClientSecret == "" {
			return errors.New("OAUTH_CLIENT_SECRET is required when OAUTH_CLIENT_ID is set")
		}
		if c.Server.PublicURL == "" {
			return errors.New("PUBLIC_URL is required when OAUTH_CLIENT_ID is set")
		}
	}

	return nil
}

// RedirectURL is the absolute OAuth callback URL.
func (c *Config) RedirectURL() string {
	return c.Server.PublicURL + CallbackPath
}

func (c *Config) expandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	base, err := expandPath(c.Data.BasePath, filepath.Join(home, ".tilawah"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	c.Data.BasePath = base

	cache, err := expandPath(c.Playback.CachePath, filepath.Join(base, "cache", "audio"))
	if err != nil {
		return fmt.Errorf("invalid audio cache path: %w", err)
	}
	c.Playback.CachePath = cache
	return nil
}

// expandPath expands ~ and makes the path absolute, using defaultPath when path is empty.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return filepath.Clean(abs), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
