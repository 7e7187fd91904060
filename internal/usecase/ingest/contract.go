package ingest

import (
	"context"

	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

// ObjectReader reads raw image bytes from the object store.
type ObjectReader interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// LabelDetector extracts labels from image bytes.
type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte, maxLabels int) ([]photo.Label, error)
}

// PhotoWriter persists photo documents into the search index.
type PhotoWriter interface {
	Create(ctx context.Context, p photo.Photo) (int, error)
}
