package rekognition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

const providerName = "rekognition"

// api is the subset of the Rekognition client used here.
type api interface {
	DetectLabels(
		ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options),
	) (*rekognition.DetectLabelsOutput, error)
}

// Detector is a label detection provider backed by Amazon Rekognition.
type Detector struct {
	client        api
	minConfidence float32
	logger        *zap.Logger
}

// Config holds Rekognition detector settings.
type Config struct {
	AWS           aws.Config
	MinConfidence float32 // 0 = service default
	Logger        *zap.Logger
}

// NewDetector creates a Rekognition detector from a resolved AWS config.
func NewDetector(cfg Config) *Detector {
	return newDetector(rekognition.NewFromConfig(cfg.AWS), cfg.MinConfidence, cfg.Logger)
}

func newDetector(client api, minConfidence float32, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{client: client, minConfidence: minConfidence, logger: logger}
}

// DetectLabels implements photo.Detector. Labels come back in Rekognition's order.
func (d *Detector) DetectLabels(ctx context.Context, image []byte, maxLabels int) ([]photo.Label, error) {
	input := &rekognition.DetectLabelsInput{
		Image:     &types.Image{Bytes: image},
		MaxLabels: aws.Int32(int32(maxLabels)), //nolint:gosec // bounded by photo.MaxLabels
	}
	if d.minConfidence > 0 {
		input.MinConfidence = aws.Float32(d.minConfidence)
	}

	start := time.Now()
	out, err := d.client.DetectLabels(ctx, input)
	if err != nil {
		metrics.DetectionRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return nil, parseAPIError(err)
	}
	metrics.DetectionRequestsTotal.WithLabelValues(providerName, "success").Inc()
	metrics.DetectionRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	labels := make([]photo.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, photo.Label{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}
	if maxLabels > 0 && len(labels) > maxLabels {
		labels = labels[:maxLabels]
	}
	return labels, nil
}

// parseAPIError keeps the service error code and wraps domain.ErrLabelDetection.
func parseAPIError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("rekognition %s: %s: %w", apiErr.ErrorCode(), apiErr.ErrorMessage(), domain.ErrLabelDetection)
	}
	return fmt.Errorf("rekognition request failed: %w: %w", domain.ErrLabelDetection, err)
}
