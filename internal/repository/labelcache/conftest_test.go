package labelcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

type mockDetector struct {
	labels []photo.Label
	err    error
	calls  int
}

func (m *mockDetector) DetectLabels(_ context.Context, _ []byte, _ int) ([]photo.Label, error) {
	m.calls++
	return m.labels, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedDetector(t *testing.T, inner *mockDetector) (*CachedDetector, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cd := New(inner, ms, time.Hour, nil, zap.NewNop())
	return cd, ms
}
