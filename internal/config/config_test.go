package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
log:
  level: debug
  format: json
storage:
  driver: redis
  key: llm-models
  redis:
    url: redis://localhost:6379/0
    lock_ttl: 5s
registry:
  timeout: 1500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "llm-models", cfg.Storage.Key)
	assert.Equal(t, 5*time.Second, cfg.Storage.Redis.LockTTL)
	assert.Equal(t, "llmconf:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, 1500*time.Millisecond, cfg.Registry.Timeout)
	assert.True(t, cfg.HostEnv.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("LLMCONF_SERVER_PORT", "7070")
	t.Setenv("LLMCONF_STORAGE_DRIVER", "file")
	t.Setenv("LLMCONF_STORAGE_FILE_DIR", "/var/lib/llmconf")
	t.Setenv("LLMCONF_HOST_ENV_ENABLED", "false")
	t.Setenv("LLMCONF_VALIDATION_STRICT_PARAMS", "true")
	t.Setenv("LLMCONF_STORAGE_POSTGRES_CONN_MAX_LIFETIME", "30m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/llmconf", cfg.Storage.File.Dir)
	assert.False(t, cfg.HostEnv.Enabled)
	assert.True(t, cfg.Validation.StrictParams)
	assert.Equal(t, 30*time.Minute, cfg.Storage.Postgres.ConnMaxLifetime)
}

func TestLoad_PostgresFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
  postgres:
    dsn: postgres://llmconf@localhost/llmconf
    max_open_conns: 4
    conn_max_lifetime: 1h
validation:
  strict_params: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 4, cfg.Storage.Postgres.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.Storage.Postgres.ConnMaxLifetime)
	assert.True(t, cfg.Validation.StrictParams)
	assert.False(t, Default().Validation.StrictParams)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	_, err = Load(writeConfig(t, "server: [1"))
	assert.ErrorContains(t, err, "parse config file")

	t.Setenv("LLMCONF_SERVER_PORT", "not-a-port")
	_, err = Load("")
	assert.ErrorContains(t, err, "parse environment overrides")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "etcd" }, "storage.driver"},
		{"empty key", func(c *Config) { c.Storage.Key = "" }, "storage.key"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"file without dir", func(c *Config) { c.Storage.Driver = DriverFile; c.Storage.File.Dir = "" }, "storage.file.dir"},
		{"redis without url", func(c *Config) { c.Storage.Driver = DriverRedis }, "storage.redis.url"},
		{"s3 without bucket", func(c *Config) { c.Storage.Driver = DriverS3 }, "storage.s3.bucket"},
		{"s3 half credentials", func(c *Config) {
			c.Storage.Driver = DriverS3
			c.Storage.S3.Bucket = "b"
			c.Storage.S3.AccessKey = "a"
		}, "must be set together"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = DriverPostgres }, "storage.postgres.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
