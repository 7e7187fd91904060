package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/app"
	"github.com/kailas-cloud/photosearch/internal/config"
	logpkg "github.com/kailas-cloud/photosearch/internal/logger"
	lambdaTransport "github.com/kailas-cloud/photosearch/internal/transport/lambda"
	"github.com/kailas-cloud/photosearch/internal/version"
)

func main() {
	env := os.Getenv("ENV")
	if env == "" {
		env = "lambda"
	}

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	// Wired once per execution environment and reused across invocations.
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to wire application", zap.Error(err))
	}
	defer a.Close()

	logger.Info("Starting search-photos function",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
	)
	lambda.Start(lambdaTransport.NewSearchHandler(a.Search, logger).Handle)
}
