package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server"
	"github.com/dmitrijs2005/accountd/internal/server/config"
)

func main() {
	if err := run(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}
