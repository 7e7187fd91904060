package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

// Service answers free-text photo queries.
type Service struct {
	photos  PhotoSearcher
	baseURL string
	logger  *zap.Logger
}

// New creates a search service. baseURL is prepended to every object key to form the photo link.
func New(photos PhotoSearcher, baseURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{photos: photos, baseURL: baseURL, logger: logger}
}

// Search returns photos whose labels match query, in index relevance order.
// An empty query fails with domain.ErrInvalidQuery before the index is contacted.
// No matches is an empty, non-nil slice.
func (s *Service) Search(ctx context.Context, query string) ([]result.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}

	hits, err := s.photos.SearchByLabels(ctx, query)
	if err != nil {
		s.logger.Error("Search index query failed", zap.String("query", query), zap.Error(err))
		if errors.Is(err, domain.ErrIndexUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("search by labels: %w: %w", domain.ErrIndexUnavailable, err)
	}

	results := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		if h.ObjectKey() == "" {
			s.logger.Debug("Skipping hit without object key", zap.Strings("labels", h.Labels()))
			continue
		}
		results = append(results, result.FromHit(s.baseURL, h))
	}

	metrics.SearchResults.Observe(float64(len(results)))
	s.logger.Info("Search completed",
		zap.String("query", query),
		zap.Int("hits", len(hits)),
		zap.Int("results", len(results)),
	)
	return results, nil
}
