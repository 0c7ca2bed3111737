package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Media:  MediaConfig{Backend: MediaBackendLocal, MaxUploadSize: 1 << 20},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"INFO", true},
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_MediaBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Media.Backend = "s3"
	assert.ErrorContains(t, cfg.Validate(), "invalid media backend")

	cfg.Media.Backend = MediaBackendCloudinary
	assert.ErrorContains(t, cfg.Validate(), "CLOUDINARY_CLOUD_NAME")

	cfg.Media.CloudinaryCloudName = "demo"
	cfg.Media.CloudinaryAPIKey = "key"
	cfg.Media.CloudinaryAPISecret = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.Media.MaxUploadSize = 0
	assert.ErrorContains(t, cfg.Validate(), "max upload size")
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.BasePath = ""
	assert.ErrorContains(t, cfg.Validate(), "data base path cannot be empty")
}

func TestExpandDataPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty uses default", "", filepath.Join(homeDir, "FitChallenge", "data")},
		{"tilde", "~/my-data", filepath.Join(homeDir, "my-data")},
		{"absolute", "/absolute/path/to/data", "/absolute/path/to/data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Data: DataConfig{BasePath: tt.in}}
			require.NoError(t, cfg.expandDataPath())
			assert.Equal(t, tt.want, cfg.Data.BasePath)
		})
	}

	cfg := &Config{Data: DataConfig{BasePath: "relative/path"}}
	require.NoError(t, cfg.expandDataPath())
	assert.True(t, filepath.IsAbs(cfg.Data.BasePath))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY_FOR_TEST", "default-value"))
}

func TestLoad_FlagsEnvAndDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := `# test env file
LOG_LEVEL=debug
RESET_TOKEN_TTL=30m
CORS_ORIGINS="http://localhost:5173, https://fit.example.com"
PORT=9999
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	// Already-set variables win over the .env file.
	t.Setenv("PORT", "7000")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("RESET_TOKEN_TTL", "")
	t.Setenv("CORS_ORIGINS", "")
	os.Unsetenv("LOG_LEVEL")       //nolint:errcheck // Test setup
	os.Unsetenv("RESET_TOKEN_TTL") //nolint:errcheck // Test setup
	os.Unsetenv("CORS_ORIGINS")    //nolint:errcheck // Test setup

	cfg, err := Load([]string{
		"-env-file", envFile,
		"-data-path", tmpDir,
		"-access-token-duration", "5m",
	})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, []string{"http://localhost:5173", "https://fit.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, tmpDir, cfg.Data.BasePath)
	assert.Equal(t, filepath.Join(tmpDir, "fitchallenge.db"), cfg.Data.DatabasePath())
	assert.Equal(t, MediaBackendLocal, cfg.Media.Backend)
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load([]string{"-env-file", "/nonexistent/.env", "-data-path", t.TempDir(), "-read-timeout", "soon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid read timeout")
}
