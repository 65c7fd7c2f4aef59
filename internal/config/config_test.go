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
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Data:     DataConfig{BasePath: "/some/path"},
		Database: DatabaseConfig{Driver: "sqlite"},
		Auth: AuthConfig{
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 720 * time.Hour,
			SessionCleanup:       time.Hour,
		},
		Retry:     RetryConfig{MaxRetries: 3},
		RateLimit: RateLimitConfig{AuthRPS: 1, AuthBurst: 5},
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
		{"warn", true},
		{"ERROR", true},  // case insensitive
		{"trace", false}, // not supported
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

func TestValidate_Database(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "invalid database driver")

	cfg.Database.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "DB_DSN is required")

	cfg.Database.DSN = "postgres://localhost/bucketlist?sslmode=disable"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TokenDurations(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.AccessTokenDuration = cfg.Auth.RefreshTokenDuration
	assert.ErrorContains(t, cfg.Validate(), "must be shorter")
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Data.BasePath = ""

	err := cfg.Validate()
	assert.ErrorContains(t, err, "data base path cannot be empty")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"ENV", "LOG_LEVEL", "DATA_PATH", "DB_DRIVER", "DB_DSN", "SEARCH_INDEX_PATH", "SERVER_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, filepath.Join(homeDir, "BucketList", "data"), cfg.Data.BasePath)
	assert.Equal(t, filepath.Join(cfg.Data.BasePath, "bucketlist.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(cfg.Data.BasePath, "search"), cfg.Search.IndexPath)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load([]string{
		"-env-file", filepath.Join(dir, "missing.env"),
		"-data-path", dir,
		"-port", "7000",
		"-search-index-path", "memory",
		"-access-token-duration", "5m",
	})
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Search.UsesMemoryIndex())
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenDuration)
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load([]string{
		"-env-file", filepath.Join(t.TempDir(), "missing.env"),
		"-data-path", t.TempDir(),
		"-refresh-token-duration", "forever",
	})
	assert.ErrorContains(t, err, "invalid refresh token duration")
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup

	got, err := expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("~/my-data", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "my-data"), got)

	got, err = expandPath("/absolute/path/to/data", "")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path/to/data", got)

	got, err = expandPath("relative/path", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Contains(t, got, "relative/path")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestNumericConfigValues(t *testing.T) {
	assert.Equal(t, 7, getIntConfigValue("7", "UNUSED", 1))
	assert.Equal(t, 1, getIntConfigValue("seven", "UNUSED", 1))
	assert.InDelta(t, 2.5, getFloatConfigValue("2.5", "UNUSED", 1), 0.0001)
	assert.InDelta(t, 1.0, getFloatConfigValue("", "UNUSED", 1), 0.0001)
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# Test env file
ENV=staging
LOG_LEVEL=debug
# Comment line
QUOTED_VALUE="some value"
SINGLE_QUOTED='another value'
  KEY_WITH_SPACES  =  value with spaces
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	for _, key := range []string{"ENV", "LOG_LEVEL", "QUOTED_VALUE", "SINGLE_QUOTED", "KEY_WITH_SPACES"} {
		t.Setenv(key, "")
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("ENV"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
	assert.Equal(t, "another value", os.Getenv("SINGLE_QUOTED"))
	assert.Equal(t, "value with spaces", os.Getenv("KEY_WITH_SPACES"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `VALID_KEY=valid_value
INVALID LINE WITHOUT EQUALS
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))
	t.Setenv("VALID_KEY", "")

	err := loadEnvFile(envFile)
	assert.ErrorContains(t, err, "invalid format")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`TEST_VAR=new-value`), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}
