package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. TASKER_DATABASE_URL or TASKER_AUTH_JWT_SECRET.
const EnvPrefix = "TASKER"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the file.
// An empty configPath looks for config.yaml in the working directory; a
// missing file is not an error.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Avatar.S3.Enabled = cfg.Avatar.Storage == "s3"

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.token_lifetime_minutes", 0)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.cookie_name", "auth_token")
	v.SetDefault("auth.cookie_secure", false)

	v.SetDefault("mail.from_address", "no-reply@tasker.local")
	v.SetDefault("mail.from_name", "Task Manager")

	v.SetDefault("avatar.storage", "database")
	v.SetDefault("avatar.max_bytes", 1_000_000)
	v.SetDefault("avatar.size", 250)
	v.SetDefault("avatar.s3.region", "us-east-1")

	v.SetDefault("jobs.worker_count", 2)
	v.SetDefault("jobs.queue_size", 100)
}

// bindEnvs registers every key explicitly. AutomaticEnv alone does not make
// Unmarshal see env-only keys that have no default or file value.
func bindEnvs(v *viper.Viper) {
	keys := []string{
		"server.port", "server.log_level",
		"database.url", "database.max_open_conns", "database.max_idle_conns",
		"auth.jwt_secret", "auth.token_lifetime_minutes", "auth.bcrypt_cost", "auth.cookie_name",
		"auth.cookie_secure",
		"mail.sendgrid_api_key", "mail.from_address", "mail.from_name",
		"avatar.storage", "avatar.max_bytes", "avatar.size",
		"avatar.s3.bucket", "avatar.s3.region", "avatar.s3.endpoint",
		"avatar.s3.access_key_id", "avatar.s3.secret_access_key",
		"jobs.worker_count", "jobs.queue_size",
	}
	for _, key := range keys {
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(key)
	}
}
