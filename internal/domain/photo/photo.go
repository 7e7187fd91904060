package photo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kailas-cloud/photosearch/internal/domain"
)

// MaxLabels caps the number of labels stored per photo.
const MaxLabels = 10

// TimestampLayout renders createdTimestamp the way S3 event notifications do.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Upload is a single storage-upload notification record.
type Upload struct {
	Bucket    string
	Key       string
	EventTime time.Time
}

// Validate checks that the record points at an object.
// Anything beyond presence is left to the object store to reject.
func (u Upload) Validate() error {
	if u.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", domain.ErrInvalidUpload)
	}
	if u.Key == "" {
		return fmt.Errorf("%w: object key is required", domain.ErrInvalidUpload)
	}
	return nil
}

// Label is a single detector output entry.
type Label struct {
	Name       string
	Confidence float64
}

// Names extracts label names preserving order.
func Names(labels []Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if l.Name == "" {
			continue
		}
		names = append(names, l.Name)
	}
	return names
}

// Photo is the document persisted in the search index (immutable value object).
type Photo struct {
	objectKey string
	bucket    string
	createdAt time.Time
	labels    []string
}

// New builds a Photo from an upload record and detected labels.
// Labels beyond MaxLabels are dropped.
func New(u Upload, labels []string) (Photo, error) {
	if err := u.Validate(); err != nil {
		return Photo{}, err
	}
	if len(labels) > MaxLabels {
		labels = labels[:MaxLabels]
	}
	ls := make([]string, len(labels))
	copy(ls, labels)

	return Photo{
		objectKey: u.Key,
		bucket:    u.Bucket,
		createdAt: u.EventTime.UTC(),
		labels:    ls,
	}, nil
}

// ObjectKey returns the storage key of the image.
func (p *Photo) ObjectKey() string { return p.objectKey }

// Bucket returns the source storage container.
func (p *Photo) Bucket() string { return p.bucket }

// CreatedAt returns the upload event time.
func (p *Photo) CreatedAt() time.Time { return p.createdAt }

// CreatedTimestamp returns the upload event time as an ISO-8601 string.
func (p *Photo) CreatedTimestamp() string { return p.createdAt.Format(TimestampLayout) }

// Labels returns the detected labels.
func (p *Photo) Labels() []string { return p.labels }

// DocumentID returns the stable index identifier used for idempotent writes:
// hex SHA-256 of bucket/objectKey, safe to place in a URL path.
func (p *Photo) DocumentID() string {
	sum := sha256.Sum256([]byte(p.bucket + "/" + p.objectKey))
	return hex.EncodeToString(sum[:])
}

// Detector extracts descriptive labels from raw image bytes.
type Detector interface {
	DetectLabels(ctx context.Context, image []byte, maxLabels int) ([]Label, error)
}
