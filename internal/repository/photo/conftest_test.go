package photo

import (
	"context"
	"encoding/json"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	indexFn  func(ctx context.Context, index, id string, body []byte) (int, error)
	searchFn func(ctx context.Context, index string, body []byte) ([]json.RawMessage, error)
}

func (m *mockStore) IndexDocument(ctx context.Context, index, id string, body []byte) (int, error) {
	if m.indexFn != nil {
		return m.indexFn(ctx, index, id, body)
	}
	return 201, nil
}

func (m *mockStore) Search(ctx context.Context, index string, body []byte) ([]json.RawMessage, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return nil, nil
}
