package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/accountd/internal/flagx"
)

// parseFlags overrides cfg with the command-line flags present in args.
//
//	-a string   HTTP listen address (e.g. ":3000")
//	-d string   PostgreSQL DSN
//	-m string   storage driver: postgres or memory
//	-s string   access token secret
//	-k string   refresh token secret
//	-t int      access token TTL, minutes
//	-r int      refresh token TTL, minutes
//	-l string   log level
//
// -c (config file) is consumed earlier by loadFile.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-m", "-s", "-k", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "database DSN")
	fs.StringVar(&cfg.StorageDriver, "m", cfg.StorageDriver, "storage driver (postgres|memory)")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "access token secret")
	fs.StringVar(&cfg.RefreshSecretKey, "k", cfg.RefreshSecretKey, "refresh token secret")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	accessTTL := fs.Int("t", int(cfg.AccessTokenTTL.Minutes()), "access token TTL (in minutes)")
	refreshTTL := fs.Int("r", int(cfg.RefreshTokenTTL.Minutes()), "refresh token TTL (in minutes)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// minutes are only applied when given, so sub-minute TTLs from other
	// layers survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.AccessTokenTTL = time.Duration(*accessTTL) * time.Minute
		case "r":
			cfg.RefreshTokenTTL = time.Duration(*refreshTTL) * time.Minute
		}
	})
	return nil
}
