package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LLMCONF_"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverS3       = "s3"
	DriverPostgres = "postgres"
)

// Config represents the application configuration parsed from YAML and the
// environment.
type Config struct {
	Server     ServerConfig     `yaml:"server" envPrefix:"SERVER_"`
	Log        LogConfig        `yaml:"log" envPrefix:"LOG_"`
	Storage    StorageConfig    `yaml:"storage" envPrefix:"STORAGE_"`
	HostEnv    HostEnvConfig    `yaml:"host_env" envPrefix:"HOST_ENV_"`
	Registry   RegistryConfig   `yaml:"registry" envPrefix:"REGISTRY_"`
	Validation ValidationConfig `yaml:"validation" envPrefix:"VALIDATION_"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port" env:"PORT" validate:"min=1,max=65535"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=json console"`
}

// StorageConfig selects the persistence backend for the model map.
type StorageConfig struct {
	Driver   string         `yaml:"driver" env:"DRIVER" validate:"oneof=memory file redis s3 postgres"`
	Key      string         `yaml:"key" env:"KEY" validate:"required"`
	File     FileConfig     `yaml:"file" envPrefix:"FILE_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	S3       S3Config       `yaml:"s3" envPrefix:"S3_"`
	Postgres PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
}

// FileConfig configures the file store.
type FileConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

// RedisConfig configures the redis store.
type RedisConfig struct {
	URL     string        `yaml:"url" env:"URL"`
	Prefix  string        `yaml:"prefix" env:"PREFIX"`
	LockTTL time.Duration `yaml:"lock_ttl" env:"LOCK_TTL" validate:"gte=0"`
}

// S3Config configures the S3 store.
type S3Config struct {
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	Region    string `yaml:"region" env:"REGION"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Prefix    string `yaml:"prefix" env:"PREFIX"`
}

// PostgresConfig configures the postgres store.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn" env:"DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME" validate:"gte=0"`
}

// HostEnvConfig toggles seeding provider credentials from the environment.
type HostEnvConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// RegistryConfig bounds registry-backed legacy conversion.
type RegistryConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gte=0"`
}

// ValidationConfig tunes model configuration validation.
type ValidationConfig struct {
	StrictParams bool `yaml:"strict_params" env:"STRICT_PARAMS"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info", Format: "console"},
		Storage: StorageConfig{
			Driver: DriverMemory,
			Key:    "models",
			File:   FileConfig{Dir: "data"},
			Redis:  RedisConfig{Prefix: "llmconf:", LockTTL: 10 * time.Second},
			S3:     S3Config{Region: "us-east-1"},
		},
		HostEnv:  HostEnvConfig{Enabled: true},
		Registry: RegistryConfig{Timeout: 3 * time.Second},
	}
}

// Load reads YAML configuration from disk over the defaults, applies
// LLMCONF_ environment overrides and validates the result. An empty path
// skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("resolve config path: %w", err)
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%s: invalid value %v (%s)", fieldPath(fe.Namespace()), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}

	return c.Storage.validateDriver()
}

func (s StorageConfig) validateDriver() error {
	switch s.Driver {
	case DriverFile:
		if strings.TrimSpace(s.File.Dir) == "" {
			return errors.New("storage.file.dir must be provided for the file driver")
		}
	case DriverRedis:
		if strings.TrimSpace(s.Redis.URL) == "" {
			return errors.New("storage.redis.url must be provided for the redis driver")
		}
	case DriverS3:
		if strings.TrimSpace(s.S3.Bucket) == "" {
			return errors.New("storage.s3.bucket must be provided for the s3 driver")
		}
		if (s.S3.AccessKey == "") != (s.S3.SecretKey == "") {
			return errors.New("storage.s3.access_key and storage.s3.secret_key must be set together")
		}
	case DriverPostgres:
		if strings.TrimSpace(s.Postgres.DSN) == "" {
			return errors.New("storage.postgres.dsn must be provided for the postgres driver")
		}
	}
	return nil
}

// fieldPath turns "Config.Storage.Driver" into "storage.driver".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}
