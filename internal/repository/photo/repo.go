package photo

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	domphoto "github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
)

// labelsField is the only field queried by label search.
const labelsField = "labels"

// store is the consumer interface for the search index (ISP).
type store interface {
	IndexDocument(ctx context.Context, index, id string, body []byte) (int, error)
	Search(ctx context.Context, index string, body []byte) ([]json.RawMessage, error)
}

// Repo implements usecase/ingest.PhotoWriter and usecase/search.PhotoSearcher.
type Repo struct {
	store      store
	index      string
	idempotent bool
	logger     *zap.Logger
}

// New creates a photo repository over the named index.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index, logger: zap.NewNop()}
}

// WithLogger sets the logger used for skipped hits.
func (r *Repo) WithLogger(l *zap.Logger) *Repo {
	if l != nil {
		r.logger = l
	}
	return r
}

// WithIdempotentWrites stores each photo under bucket/objectKey so re-ingesting replaces it.
func (r *Repo) WithIdempotentWrites(enabled bool) *Repo {
	r.idempotent = enabled
	return r
}

// Create writes the photo document and returns the index status code.
func (r *Repo) Create(ctx context.Context, p domphoto.Photo) (int, error) {
	data, err := json.Marshal(photoDoc{
		ObjectKey:        p.ObjectKey(),
		Bucket:           p.Bucket(),
		CreatedTimestamp: p.CreatedTimestamp(),
		Labels:           p.Labels(),
	})
	if err != nil {
		return 0, fmt.Errorf("marshal photo: %w", err)
	}

	var id string
	if r.idempotent {
		id = p.DocumentID()
	}

	status, err := r.store.IndexDocument(ctx, r.index, id, data)
	if err != nil {
		return status, fmt.Errorf("index %s: %w", p.ObjectKey(), err)
	}
	return status, nil
}

// SearchByLabels runs a multi_match query over the labels field.
// Hits are returned in index order; hits without an object key are kept for the caller to drop.
// Hits whose _source does not match the document schema are skipped.
func (r *Repo) SearchByLabels(ctx context.Context, query string) ([]result.Hit, error) {
	data, err := json.Marshal(buildQuery(query))
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	sources, err := r.store.Search(ctx, r.index, data)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", r.index, err)
	}

	hits := make([]result.Hit, 0, len(sources))
	for i, raw := range sources {
		var src hitSource
		if err := json.Unmarshal(raw, &src); err != nil {
			r.logger.Debug("Skipping undecodable hit", zap.Int("position", i), zap.Error(err))
			continue
		}
		hits = append(hits, result.NewHit(src.ObjectKey, src.Labels))
	}
	return hits, nil
}

func buildQuery(query string) searchBody {
	var b searchBody
	b.Query.MultiMatch = multiMatch{Query: query, Fields: []string{labelsField}}
	return b
}
