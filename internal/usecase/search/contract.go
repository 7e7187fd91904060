package search

import (
	"context"

	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
)

// PhotoSearcher runs label queries against the search index.
type PhotoSearcher interface {
	SearchByLabels(ctx context.Context, query string) ([]result.Hit, error)
}
