package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kailas-cloud/photosearch/internal/app"
	"github.com/kailas-cloud/photosearch/internal/config"
	logpkg "github.com/kailas-cloud/photosearch/internal/logger"
)

func main() {
	root := newRootCmd(buildServices)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildServices loads config for env and wires the application.
func buildServices(ctx context.Context, env string) (services, func(), error) {
	cfg, err := config.Load(env)
	if err != nil {
		return services{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return services{}, nil, fmt.Errorf("create logger: %w", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return services{}, nil, fmt.Errorf("wire application: %w", err)
	}

	cleanup := func() {
		a.Close()
		_ = logger.Sync()
	}
	return services{ingest: a.Ingest, search: a.Search, logger: logger}, cleanup, nil
}
