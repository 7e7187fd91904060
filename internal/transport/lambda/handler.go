// Package lambda adapts the ingest and search services to AWS Lambda events.
package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
	"github.com/kailas-cloud/photosearch/internal/transport/response"
	"github.com/kailas-cloud/photosearch/internal/transport/s3event"
	"github.com/kailas-cloud/photosearch/internal/usecase/ingest"
)

// Ingester indexes upload notifications.
type Ingester interface {
	IngestAll(ctx context.Context, uploads []photo.Upload) ([]ingest.Outcome, error)
}

// Searcher answers label queries.
type Searcher interface {
	Search(ctx context.Context, query string) ([]result.Result, error)
}

// IngestResult is the value returned to the S3 trigger.
type IngestResult struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// IndexHandler handles S3 upload notifications.
type IndexHandler struct {
	ingest Ingester
	logger *zap.Logger
}

// NewIndexHandler creates an IndexHandler.
func NewIndexHandler(ingest Ingester, logger *zap.Logger) *IndexHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexHandler{ingest: ingest, logger: logger}
}

// Handle indexes every record of ev. Failures are reported in the result, never as a Lambda error,
// so the invocation is not retried.
func (h *IndexHandler) Handle(ctx context.Context, ev events.S3Event) (IngestResult, error) {
	outcomes, err := h.ingest.IngestAll(ctx, s3event.Uploads(ev))
	if err != nil {
		status, body := response.IngestError(err)
		h.logger.Error("Ingest failed",
			zap.Int("records", len(ev.Records)),
			zap.Int("indexed", len(outcomes)),
			zap.Error(err),
		)
		return IngestResult{StatusCode: status, Body: encode(body)}, nil
	}

	status, body := response.NewIngestResponse(outcomes)
	return IngestResult{StatusCode: status, Body: encode(body)}, nil
}

// SearchHandler handles API Gateway proxy requests.
type SearchHandler struct {
	search Searcher
	logger *zap.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(search Searcher, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{search: search, logger: logger}
}

// Handle answers ?q= with matching photos.
func (h *SearchHandler) Handle(
	ctx context.Context,
	req events.APIGatewayProxyRequest,
) (events.APIGatewayProxyResponse, error) {
	log := h.logger.With(zap.String("request_id", req.RequestContext.RequestID))

	results, err := h.search.Search(ctx, req.QueryStringParameters["q"])
	if err != nil {
		status, body := response.SearchError(err)
		if errors.Is(err, domain.ErrInvalidQuery) {
			log.Info("Rejected search without query")
		} else {
			log.Error("Search failed", zap.Error(err))
		}
		return proxyResponse(status, body), nil
	}

	return proxyResponse(http.StatusOK, response.NewSearchResponse(results)), nil
}

func proxyResponse(status int, v any) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    response.Headers(),
		Body:       encode(v),
	}
}

func encode(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return `{"message":"internal error"}`
	}
	return string(raw)
}
