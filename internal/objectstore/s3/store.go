package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kailas-cloud/photosearch/internal/domain"
)

// api is the subset of the S3 client used here.
type api interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store reads uploaded images from S3.
type Store struct {
	client api
}

// New creates an S3 store from a resolved AWS config.
func New(cfg aws.Config, opts ...Option) *Store {
	var st settings
	for _, opt := range opts {
		opt(&st)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = st.usePathStyle
		if st.endpoint != "" {
			o.BaseEndpoint = aws.String(st.endpoint)
		}
	})
	return &Store{client: client}
}

// Get downloads the whole object.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3://%s/%s not found: %w", bucket, key, domain.ErrObjectRetrieval)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %v: %w", bucket, key, err, domain.ErrObjectRetrieval)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %v: %w", bucket, key, err, domain.ErrObjectRetrieval)
	}
	return data, nil
}
