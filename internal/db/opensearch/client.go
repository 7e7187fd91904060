package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	ossigner "github.com/opensearch-project/opensearch-go/v4/signer"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/db"
	"github.com/kailas-cloud/photosearch/internal/metrics"
)

// Compile-time check: Client implements db.DocumentIndex.
var _ db.DocumentIndex = (*Client)(nil)

// Config holds search index connection settings.
type Config struct {
	Host    string // hostname, optionally with port
	Scheme  string // https (default) or http
	Timeout time.Duration
	Signer  ossigner.Signer // nil sends unsigned requests
	Logger  *zap.Logger
}

// Client talks to an OpenSearch/Elasticsearch REST endpoint through opensearchapi.
type Client struct {
	api     *opensearchapi.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates an index client. Retries are disabled: a failed call fails the invocation.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses:    []string{scheme + "://" + strings.TrimSuffix(cfg.Host, "/")},
			Signer:       cfg.Signer,
			DisableRetry: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}

	return &Client{api: api, timeout: cfg.Timeout, logger: logger}, nil
}

// IndexDocument writes a JSON document. An empty id lets the index assign one (POST /<index>/_doc);
// otherwise the document is stored under id (PUT /<index>/_doc/<id>), replacing any previous version.
// id is placed in the path as is and must not contain '/'.
// Returns the index status code (201 created, 200 replaced).
func (c *Client) IndexDocument(ctx context.Context, index, id string, body []byte) (int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := opensearchapi.IndexReq{Index: index, DocumentID: id, Body: bytes.NewReader(body)}

	start := time.Now()
	resp, err := c.api.Index(ctx, req)
	var raw *opensearch.Response
	if resp != nil {
		raw = resp.Inspect().Response
	}
	status := c.observe(db.OpIndex, start, raw, err)
	if err != nil {
		return status, wrap(db.OpIndex, status, err)
	}
	return status, nil
}

// Search runs a query DSL body against /<index>/_search and returns the _source of every hit, in order.
func (c *Client) Search(ctx context.Context, index string, body []byte) ([]json.RawMessage, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := c.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    bytes.NewReader(body),
	})
	var raw *opensearch.Response
	if resp != nil {
		raw = resp.Inspect().Response
	}
	status := c.observe(db.OpSearch, start, raw, err)
	if err != nil {
		return nil, wrap(db.OpSearch, status, err)
	}

	sources := make([]json.RawMessage, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		sources = append(sources, h.Source)
	}
	return sources, nil
}

// Ping checks that the cluster answers on its root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := c.api.Ping(ctx, &opensearchapi.PingReq{})
	status := c.observe(db.OpPing, start, resp, err)
	if err != nil {
		return wrap(db.OpPing, status, err)
	}
	if resp != nil && resp.IsError() {
		return &db.Error{Op: db.OpPing, Err: &db.StatusError{Code: status, Body: http.StatusText(status)}}
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// observe records request metrics and returns the answer status (0 when none arrived).
func (c *Client) observe(op string, start time.Time, resp *opensearch.Response, err error) int {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	outcome := statusClass(status)
	if status == 0 && err != nil {
		outcome = "error"
	}
	metrics.IndexRequestsTotal.WithLabelValues(op, outcome).Inc()
	metrics.IndexRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	c.logger.Debug("index request",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
		zap.Error(err),
	)
	return status
}

// wrap keeps the index answer for non-2xx statuses and the transport cause otherwise.
func wrap(op string, status int, err error) error {
	if status >= 300 {
		return &db.Error{Op: op, Err: &db.StatusError{Code: status, Body: err.Error()}}
	}
	var dbErr *db.Error
	if errors.As(err, &dbErr) {
		return err
	}
	return &db.Error{Op: op, Err: err}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code == 0:
		return "none"
	default:
		return "2xx"
	}
}
