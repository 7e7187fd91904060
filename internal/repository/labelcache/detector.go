package labelcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

const cacheKeyPrefix = "photosearch:labels:"

// store is the consumer interface for the label cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cachedLabel struct {
	Name       string  `json:"n"`
	Confidence float64 `json:"c"`
}

// CachedDetector caches detected labels keyed by image content.
type CachedDetector struct {
	inner      photo.Detector
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner photo.Detector,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedDetector {
	return &CachedDetector{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// DetectLabels returns cached labels for identical bytes or calls the inner detector.
// Cache failures are logged and never fail detection.
func (c *CachedDetector) DetectLabels(ctx context.Context, image []byte, maxLabels int) ([]photo.Label, error) {
	key := c.cacheKey(image, maxLabels)

	if labels, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return labels, nil
	}

	c.incCache("miss")

	labels, err := c.inner.DetectLabels(ctx, image, maxLabels)
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}

	c.putToCache(ctx, key, labels)
	return labels, nil
}

func (c *CachedDetector) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedDetector) cacheKey(image []byte, maxLabels int) string {
	h := sha256.Sum256(image)
	return cacheKeyPrefix + strconv.Itoa(maxLabels) + ":" + hex.EncodeToString(h[:])
}

func (c *CachedDetector) getFromCache(ctx context.Context, key string) ([]photo.Label, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached labels", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var cached []cachedLabel
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("Failed to parse cached labels", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	labels := make([]photo.Label, len(cached))
	for i, l := range cached {
		labels[i] = photo.Label{Name: l.Name, Confidence: l.Confidence}
	}
	return labels, true
}

func (c *CachedDetector) putToCache(ctx context.Context, key string, labels []photo.Label) {
	cached := make([]cachedLabel, len(labels))
	for i, l := range labels {
		cached[i] = cachedLabel{Name: l.Name, Confidence: l.Confidence}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache labels", zap.String("key", key), zap.Error(err))
	}
}
