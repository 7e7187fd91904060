// Package response holds the JSON bodies and error mapping shared by the HTTP and Lambda transports.
package response

import (
	"errors"
	"net/http"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
	"github.com/kailas-cloud/photosearch/internal/usecase/ingest"
)

// Client-facing messages. Internal error detail never leaves the process.
const (
	MsgNoQuery        = "No query provided"
	MsgSearchFailed   = "Failed to perform the search due to a server error."
	MsgInvalidUpload  = "Invalid upload event"
	MsgRetrieveFailed = "Failed to retrieve image"
	MsgDetectFailed   = "Failed to detect labels"
	MsgIndexFailed    = "Failed to index image"
	MsgIndexed        = "Successfully indexed image"
	MsgInternal       = "internal error"
)

// CORS and content headers attached to every JSON response.
const (
	HeaderContentType = "Content-Type"
	HeaderAllowOrigin = "Access-Control-Allow-Origin"
	ContentTypeJSON   = "application/json"
	AllowAnyOrigin    = "*"
)

// Headers returns the header set every JSON response carries.
func Headers() map[string]string {
	return map[string]string{
		HeaderContentType: ContentTypeJSON,
		HeaderAllowOrigin: AllowAnyOrigin,
	}
}

// SearchItem is one entry of a search answer.
type SearchItem struct {
	URL    string   `json:"url"`
	Labels []string `json:"labels"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Results []SearchItem `json:"results"`
}

// ErrorResponse is the body of any failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// IngestResponse is the body of an ingest invocation.
type IngestResponse struct {
	Message   string   `json:"message"`
	ObjectKey string   `json:"objectKey,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

// NewSearchResponse converts domain results. The results array is never null.
func NewSearchResponse(results []result.Result) SearchResponse {
	items := make([]SearchItem, 0, len(results))
	for i := range results {
		labels := results[i].Labels()
		if labels == nil {
			labels = []string{}
		}
		items = append(items, SearchItem{URL: results[i].URL(), Labels: labels})
	}
	return SearchResponse{Results: items}
}

// NewIngestResponse builds the success answer for one notification.
// The status is the index answer of the last record; key and labels are reported for single-record events.
func NewIngestResponse(outcomes []ingest.Outcome) (int, IngestResponse) {
	status := http.StatusCreated
	resp := IngestResponse{Message: MsgIndexed}
	if len(outcomes) == 0 {
		return status, resp
	}
	if last := outcomes[len(outcomes)-1]; last.StatusCode != 0 {
		status = last.StatusCode
	}
	if len(outcomes) == 1 {
		p := outcomes[0].Photo
		resp.ObjectKey = p.ObjectKey()
		resp.Labels = p.Labels()
	}
	return status, resp
}

// SearchError maps a search failure to a status code and body.
func SearchError(err error) (int, ErrorResponse) {
	if errors.Is(err, domain.ErrInvalidQuery) {
		return http.StatusBadRequest, ErrorResponse{Message: MsgNoQuery}
	}
	return http.StatusInternalServerError, ErrorResponse{Message: MsgSearchFailed}
}

// IngestError maps an ingest failure to a status code and body.
func IngestError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrInvalidUpload):
		return http.StatusBadRequest, ErrorResponse{Message: MsgInvalidUpload}
	case errors.Is(err, domain.ErrObjectRetrieval):
		return http.StatusInternalServerError, ErrorResponse{Message: MsgRetrieveFailed}
	case errors.Is(err, domain.ErrLabelDetection):
		return http.StatusInternalServerError, ErrorResponse{Message: MsgDetectFailed}
	case errors.Is(err, domain.ErrIndexWrite):
		return http.StatusInternalServerError, ErrorResponse{Message: MsgIndexFailed}
	default:
		return http.StatusInternalServerError, ErrorResponse{Message: MsgInternal}
	}
}
