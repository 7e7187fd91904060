package db

import (
	"context"
	"encoding/json"
	"time"
)

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is the facade of the key-value backend used for label caching.
type Cache interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// DocumentIndex provides document writes and queries against a search index.
type DocumentIndex interface {
	Pinger
	IndexDocument(ctx context.Context, index, id string, body []byte) (int, error)
	Search(ctx context.Context, index string, body []byte) ([]json.RawMessage, error)
}
