// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Media backends.
const (
	MediaBackendLocal      = "local"
	MediaBackendCloudinary = "cloudinary"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Data   DataConfig
	Server ServerConfig
	Auth   AuthConfig
	Media  MediaConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage locations.
// The SQLite database, Badger KV store, search index and auth key all live under BasePath.
type DataConfig struct {
	BasePath string
}

// DatabasePath is the SQLite file location.
func (d DataConfig) DatabasePath() string { return filepath.Join(d.BasePath, "fitchallenge.db") }

// KVPath is the Badger directory for short-lived tokens.
func (d DataConfig) KVPath() string { return filepath.Join(d.BasePath, "kv") }

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	PublicURL    string        // Base URL clients use to reach the server
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 0, SSE streams are long-lived)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed browser origins
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes)
	AccessTokenKey       []byte
	AccessTokenDuration  time.Duration // e.g., 15m
	RefreshTokenDuration time.Duration // e.g., 720h (30 days)
	ResetTokenTTL        time.Duration // lifetime of password reset tokens
	// ResetURL is the client page that receives ?token=... in reset emails.
	ResetURL string
}

// MediaConfig holds progress media storage configuration.
type MediaConfig struct {
	Backend       string // local or cloudinary
	MaxUploadSize int64  // bytes
	Bucket        string // folder/bucket name for progress media

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

// LoadConfig loads configuration from the process arguments.
// Precedence, highest first:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file.
// 4. Default values.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a Config from args, the environment and an optional .env file.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("fitchallenge", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for database, index and key storage")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	publicURL := fs.String("public-url", "", "Public base URL of the server")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 0)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed origins")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := fs.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")
	resetTokenTTL := fs.String("reset-token-ttl", "", "Password reset token lifetime (e.g., 1h)")
	resetURL := fs.String("reset-url", "", "Client URL for the password reset page")

	mediaBackend := fs.String("media-backend", "", "Media storage backend (local, cloudinary)")
	maxUpload := fs.String("max-upload-size", "", "Maximum media upload size in bytes")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// godotenv.Load never overrides variables that are already set.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "PORT", "8080"),
			PublicURL:   getConfigValue(*publicURL, "PUBLIC_URL", ""),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			ResetURL: getConfigValue(*resetURL, "RESET_URL", ""),
		},
		Media: MediaConfig{
			Backend:             strings.ToLower(getConfigValue(*mediaBackend, "MEDIA_BACKEND", MediaBackendLocal)),
			MaxUploadSize:       int64(getIntConfigValue(*maxUpload, "MAX_UPLOAD_SIZE", 25<<20)),
			Bucket:              getConfigValue("", "MEDIA_BUCKET", "progress-media"),
			CloudinaryCloudName: getConfigValue("", "CLOUDINARY_CLOUD_NAME", ""),
			CloudinaryAPIKey:    getConfigValue("", "CLOUDINARY_API_KEY", ""),
			CloudinaryAPISecret: getConfigValue("", "CLOUDINARY_API_SECRET", ""),
		},
	}

	durations := []struct {
		flag, env, def, name string
		dst                  *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m", "access token duration", &cfg.Auth.AccessTokenDuration},
		{*refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h", "refresh token duration", &cfg.Auth.RefreshTokenDuration},
		{*resetTokenTTL, "RESET_TOKEN_TTL", "1h", "reset token ttl", &cfg.Auth.ResetTokenTTL},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "0s", "write timeout", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.env, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.Media.Backend {
	case MediaBackendLocal:
	case MediaBackendCloudinary:
		if c.Media.CloudinaryCloudName == "" || c.Media.CloudinaryAPIKey == "" || c.Media.CloudinaryAPISecret == "" {
			return errors.New("cloudinary backend requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	default:
		return fmt.Errorf("invalid media backend: %s (must be local or cloudinary)", c.Media.Backend)
	}

	if c.Media.MaxUploadSize <= 0 {
		return errors.New("max upload size must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults to ~/FitChallenge/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "FitChallenge", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
