package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// loadFile overlays cfg with envFile (if it exists), the config file at path
// (if any) and environment variables. Keys are the mapstructure tags of
// Config; the matching environment variable is the upper-cased key.
func loadFile(cfg *Config, path, envFile string) error {
	if envFile != "" {
		// variables already set in the environment win over the file
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// setDefaults registers every key with its current value so that viper
// knows which environment variables to look up during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("http_addr", cfg.HTTPAddr)
	v.SetDefault("api_prefix", cfg.APIPrefix)
	v.SetDefault("http_h2c", cfg.HTTPH2C)
	v.SetDefault("storage_driver", cfg.StorageDriver)
	v.SetDefault("database_url", cfg.DatabaseURL)
	v.SetDefault("secret_key", cfg.SecretKey)
	v.SetDefault("refresh_secret_key", cfg.RefreshSecretKey)
	v.SetDefault("access_token_ttl", cfg.AccessTokenTTL)
	v.SetDefault("refresh_token_ttl", cfg.RefreshTokenTTL)
	v.SetDefault("password_algorithm", cfg.PasswordAlgorithm)
	v.SetDefault("bcrypt_cost", cfg.BcryptCost)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("token_cleanup_interval", cfg.TokenCleanupInterval)
	v.SetDefault("seed_demo_data", cfg.SeedDemoData)
}
