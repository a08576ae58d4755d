// Package config handles configuration for the server component: defaults,
// an optional .env file, an optional config file, environment variables and
// finally command-line flags, each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountd/internal/flagx"
	"github.com/dmitrijs2005/accountd/internal/server/password"
	"golang.org/x/crypto/bcrypt"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds runtime settings for the account server.
type Config struct {
	HTTPAddr  string `mapstructure:"http_addr"`
	APIPrefix string `mapstructure:"api_prefix"`
	HTTPH2C   bool   `mapstructure:"http_h2c"`

	StorageDriver string `mapstructure:"storage_driver"`
	DatabaseURL   string `mapstructure:"database_url"`

	// SecretKey signs access tokens, RefreshSecretKey signs refresh tokens.
	SecretKey        string        `mapstructure:"secret_key"`
	RefreshSecretKey string        `mapstructure:"refresh_secret_key"`
	AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `mapstructure:"refresh_token_ttl"`

	PasswordAlgorithm string `mapstructure:"password_algorithm"`
	BcryptCost        int    `mapstructure:"bcrypt_cost"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout"`
	TokenCleanupInterval time.Duration `mapstructure:"token_cleanup_interval"`
	SeedDemoData         bool          `mapstructure:"seed_demo_data"`
}

// LoadDefaults populates Config with development defaults. There are no
// default secrets; they must come from the environment or flags.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.APIPrefix = "/api"
	c.StorageDriver = StorageDriverPostgres
	c.AccessTokenTTL = time.Hour
	c.RefreshTokenTTL = 7 * 24 * time.Hour
	c.PasswordAlgorithm = password.AlgorithmBcrypt
	c.BcryptCost = password.DefaultBcryptCost
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.ShutdownTimeout = 10 * time.Second
	c.TokenCleanupInterval = time.Hour
}

// LoadConfig builds a Config from defaults, ".env", the file named by -c,
// the environment and the flags in args (typically os.Args[1:]).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadFile(cfg, flagx.ConfigFileFlag(args), ".env"); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if c.RefreshSecretKey == "" {
		errs = append(errs, errors.New("REFRESH_SECRET_KEY is required"))
	}
	if c.SecretKey != "" && c.SecretKey == c.RefreshSecretKey {
		errs = append(errs, errors.New("SECRET_KEY and REFRESH_SECRET_KEY must differ"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}

	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}

	switch c.PasswordAlgorithm {
	case password.AlgorithmBcrypt:
		if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
			errs = append(errs, fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
		}
	case password.AlgorithmArgon2id:
	default:
		errs = append(errs, fmt.Errorf("unknown password algorithm %q", c.PasswordAlgorithm))
	}

	if !strings.HasPrefix(c.APIPrefix, "/") {
		errs = append(errs, errors.New("api_prefix must start with /"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
