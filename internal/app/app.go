// Package app is the composition root shared by the HTTP server, the Lambda functions and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	ossigner "github.com/opensearch-project/opensearch-go/v4/signer"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/config"
	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/db/opensearch"
	dbRedis "github.com/kailas-cloud/photosearch/internal/db/redis"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/metrics"
	miniostore "github.com/kailas-cloud/photosearch/internal/objectstore/minio"
	s3store "github.com/kailas-cloud/photosearch/internal/objectstore/s3"
	"github.com/kailas-cloud/photosearch/internal/repository/labelcache"
	photorepo "github.com/kailas-cloud/photosearch/internal/repository/photo"
	"github.com/kailas-cloud/photosearch/internal/signer"
	openaiDet "github.com/kailas-cloud/photosearch/internal/transport/openai"
	"github.com/kailas-cloud/photosearch/internal/transport/rekognition"
	healthuc "github.com/kailas-cloud/photosearch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/photosearch/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/photosearch/internal/usecase/search"
)

// App holds the wired services.
type App struct {
	Ingest *ingestuc.Service
	Search *searchuc.Service
	Health *healthuc.Service

	cache db.Cache
}

// New wires every component from cfg. Close must be called when done.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.RegisterPipelineMetrics()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	sig, err := newSigner(cfg.Index, awsCfg)
	if err != nil {
		return nil, err
	}

	index, err := opensearch.NewClient(opensearch.Config{
		Host:    cfg.Index.Host,
		Scheme:  cfg.Index.Scheme,
		Timeout: time.Duration(cfg.Index.TimeoutSec) * time.Second,
		Signer:  sig,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create index client: %w", err)
	}
	photos := photorepo.New(index, cfg.Index.Name).
		WithIdempotentWrites(cfg.Index.IdempotentWrites).
		WithLogger(logger)

	objects, err := newObjectStore(cfg.Storage, awsCfg)
	if err != nil {
		return nil, err
	}

	a := &App{}
	detector := newDetector(cfg.Detection, awsCfg, logger)

	// Pass nil interface (not typed nil pointer) to health when the cache is off.
	var cachePinger healthuc.Pinger
	if cfg.Cache.Enabled {
		cache, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create label cache: %w", err)
		}
		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := cache.WaitForReady(ctx, timeout); err != nil {
			cache.Close()
			return nil, fmt.Errorf("label cache not ready: %w", err)
		}
		a.cache = cache
		cachePinger = cache
		detector = labelcache.New(
			detector, cache,
			time.Duration(cfg.Cache.TTLHours)*time.Hour,
			metrics.LabelCacheTotal, logger,
		)
		logger.Info("Label cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	a.Ingest = ingestuc.New(objects, detector, photos, logger).WithMaxLabels(cfg.Detection.MaxLabels)
	a.Search = searchuc.New(photos, cfg.Storage.PublicBaseURL, logger)
	a.Health = healthuc.New(index, cachePinger)

	logger.Info("Components wired",
		zap.String("index_host", cfg.Index.Host),
		zap.String("index", cfg.Index.Name),
		zap.Bool("signed", cfg.Index.SignRequests),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("detection_provider", cfg.Detection.Provider),
	)
	return a, nil
}

// Close releases backend connections.
func (a *App) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// newSigner returns nil when signing is off; the index client then sends unsigned requests.
func newSigner(cfg config.IndexConfig, awsCfg aws.Config) (ossigner.Signer, error) {
	if !cfg.SignRequests {
		return nil, nil
	}
	s, err := signer.NewSigV4(awsCfg, cfg.Service)
	if err != nil {
		return nil, fmt.Errorf("create request signer: %w", err)
	}
	return s, nil
}

// objectStore is what ingest needs from either storage driver.
type objectStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

func newObjectStore(cfg config.StorageConfig, awsCfg aws.Config) (objectStore, error) {
	switch cfg.Driver {
	case "minio":
		st, err := miniostore.New(miniostore.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Region:    awsCfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("create minio store: %w", err)
		}
		return st, nil
	case "s3":
		s3Cfg := awsCfg.Copy()
		if cfg.AccessKey != "" {
			s3Cfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		}
		return s3store.New(s3Cfg,
			s3store.Endpoint(cfg.Endpoint),
			s3store.UsePathStyle(cfg.UsePathStyle),
		), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newDetector(cfg config.DetectionConfig, awsCfg aws.Config, logger *zap.Logger) photo.Detector {
	if cfg.Provider == "openai" {
		return openaiDet.NewDetector(&openaiDet.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Logger:  logger,
		})
	}
	return rekognition.NewDetector(rekognition.Config{
		AWS:           awsCfg,
		MinConfidence: cfg.MinConfidence,
		Logger:        logger,
	})
}
