package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

// Outcome describes a successfully indexed upload.
type Outcome struct {
	// StatusCode is the index answer: 201 for a new document, 200 for a replaced one.
	StatusCode int
	Photo      photo.Photo
}

// Service turns upload notifications into indexed photo documents.
// Each step runs once; retries are left to the event source.
type Service struct {
	objects   ObjectReader
	detector  LabelDetector
	photos    PhotoWriter
	maxLabels int
	logger    *zap.Logger
}

// New creates an ingest service.
func New(objects ObjectReader, detector LabelDetector, photos PhotoWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		objects:   objects,
		detector:  detector,
		photos:    photos,
		maxLabels: photo.MaxLabels,
		logger:    logger,
	}
}

// WithMaxLabels lowers the number of labels requested from the detector (capped at photo.MaxLabels).
func (s *Service) WithMaxLabels(n int) *Service {
	if n > 0 && n <= photo.MaxLabels {
		s.maxLabels = n
	}
	return s
}

// Ingest fetches the image, detects labels and writes one document.
// Any failure ends the invocation and nothing is written.
func (s *Service) Ingest(ctx context.Context, up photo.Upload) (Outcome, error) {
	log := s.logger.With(zap.String("bucket", up.Bucket), zap.String("key", up.Key))

	if err := up.Validate(); err != nil {
		metrics.IngestTotal.WithLabelValues("invalid").Inc()
		return Outcome{}, err
	}
	log.Info("Processing upload")

	image, err := s.objects.Get(ctx, up.Bucket, up.Key)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("retrieval_failed").Inc()
		log.Error("Failed to retrieve image", zap.Error(err))
		return Outcome{}, ensure(err, domain.ErrObjectRetrieval, "get object")
	}
	log.Debug("Image retrieved", zap.Int("bytes", len(image)))

	labels, err := s.detector.DetectLabels(ctx, image, s.maxLabels)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("detection_failed").Inc()
		log.Error("Failed to detect labels", zap.Error(err))
		return Outcome{}, ensure(err, domain.ErrLabelDetection, "detect labels")
	}
	names := photo.Names(labels)
	log.Info("Labels detected", zap.Strings("labels", names))

	p, err := photo.New(up, names)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("invalid").Inc()
		return Outcome{}, err
	}

	status, err := s.photos.Create(ctx, p)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("index_failed").Inc()
		log.Error("Failed to index photo", zap.Int("index_status", status), zap.Error(err))
		return Outcome{}, ensure(err, domain.ErrIndexWrite, "index photo")
	}

	metrics.IngestTotal.WithLabelValues("indexed").Inc()
	log.Info("Photo indexed", zap.Int("index_status", status), zap.Int("labels", len(p.Labels())))

	if status == 0 {
		status = http.StatusCreated
	}
	return Outcome{StatusCode: status, Photo: p}, nil
}

// IngestAll processes the records of one notification in order and stops at the first failure.
// Outcomes of records processed before the failure are returned alongside the error.
func (s *Service) IngestAll(ctx context.Context, uploads []photo.Upload) ([]Outcome, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no records", domain.ErrInvalidUpload)
	}

	outcomes := make([]Outcome, 0, len(uploads))
	for _, up := range uploads {
		out, err := s.Ingest(ctx, up)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// ensure wraps err with sentinel unless an adapter already did.
func ensure(err, sentinel error, op string) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel, err)
}
