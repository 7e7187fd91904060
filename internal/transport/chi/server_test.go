package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gochi "github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
	"github.com/kailas-cloud/photosearch/internal/transport/response"
	healthuc "github.com/kailas-cloud/photosearch/internal/usecase/health"
	"github.com/kailas-cloud/photosearch/internal/usecase/ingest"
)

// --- Mocks ---

type mockSearcher struct {
	results []result.Result
	err     error
	query   string
}

func (m *mockSearcher) Search(_ context.Context, q string) ([]result.Result, error) {
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	if strings.TrimSpace(q) == "" {
		return nil, domain.ErrInvalidQuery
	}
	return m.results, nil
}

type mockIngester struct {
	uploads  []photo.Upload
	outcomes []ingest.Outcome
	err      error
}

func (m *mockIngester) IngestAll(_ context.Context, uploads []photo.Upload) ([]ingest.Outcome, error) {
	m.uploads = uploads
	return m.outcomes, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestRouter(s *Server) http.Handler {
	r := gochi.NewRouter()
	r.Use(CORSMiddleware())
	s.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func assertJSONHeaders(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
}

// --- Tests ---

func TestSearch_OK(t *testing.T) {
	searcher := &mockSearcher{results: []result.Result{
		result.New("https://bucket.s3.amazonaws.com/a.jpg", []string{"Dog", "Pet"}),
	}}
	h := newTestRouter(NewServer(searcher, &mockIngester{}, &mockHealth{}, nil))

	rr := do(t, h, http.MethodGet, "/search?q=dog", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	assertJSONHeaders(t, rr)
	if searcher.query != "dog" {
		t.Errorf("query = %q", searcher.query)
	}
	want := `{"results":[{"url":"https://bucket.s3.amazonaws.com/a.jpg","labels":["Dog","Pet"]}]}`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestSearch_NoResults(t *testing.T) {
	h := newTestRouter(NewServer(&mockSearcher{}, &mockIngester{}, &mockHealth{}, nil))

	rr := do(t, h, http.MethodGet, "/search?q=zebra", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"results":[]}` {
		t.Errorf("body = %s", got)
	}
}

func TestSearch_MissingQuery_400(t *testing.T) {
	h := newTestRouter(NewServer(&mockSearcher{}, &mockIngester{}, &mockHealth{}, nil))

	for _, target := range []string{"/search", "/search?q="} {
		rr := do(t, h, http.MethodGet, target, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", target, rr.Code)
		}
		assertJSONHeaders(t, rr)
		var body response.ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Message != "No query provided" {
			t.Errorf("%s: message = %q", target, body.Message)
		}
	}
}

func TestSearch_IndexFailure_500(t *testing.T) {
	searcher := &mockSearcher{err: fmt.Errorf("search: %w: status 503", domain.ErrIndexUnavailable)}
	h := newTestRouter(NewServer(searcher, &mockIngester{}, &mockHealth{}, nil))

	rr := do(t, h, http.MethodGet, "/search?q=dog", "")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", rr.Code)
	}
	assertJSONHeaders(t, rr)
	want := `{"message":"Failed to perform the search due to a server error."}`
	if got := strings.TrimSpace(rr.Body.String()); got != want {
		t.Errorf("body = %s", got)
	}
}

const s3Notification = `{"Records":[{"eventTime":"2024-03-01T12:30:45.123Z",` +
	`"s3":{"bucket":{"name":"photos"},"object":{"key":"my+dog.jpg"}}}]}`

func TestIngest_OK(t *testing.T) {
	up := photo.Upload{Bucket: "photos", Key: "my dog.jpg", EventTime: time.Now()}
	p, err := photo.New(up, []string{"Dog"})
	if err != nil {
		t.Fatalf("photo.New: %v", err)
	}
	ingester := &mockIngester{outcomes: []ingest.Outcome{{StatusCode: http.StatusCreated, Photo: p}}}
	h := newTestRouter(NewServer(&mockSearcher{}, ingester, &mockHealth{}, nil))

	rr := do(t, h, http.MethodPost, "/ingest", s3Notification)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201", rr.Code)
	}
	assertJSONHeaders(t, rr)
	if len(ingester.uploads) != 1 || ingester.uploads[0].Key != "my dog.jpg" {
		t.Errorf("unexpected uploads %+v", ingester.uploads)
	}
	var body response.IngestResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ObjectKey != "my dog.jpg" || len(body.Labels) != 1 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestIngest_MalformedBody_400(t *testing.T) {
	ingester := &mockIngester{}
	h := newTestRouter(NewServer(&mockSearcher{}, ingester, &mockHealth{}, nil))

	rr := do(t, h, http.MethodPost, "/ingest", "{not json")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rr.Code)
	}
	if ingester.uploads != nil {
		t.Error("ingest must not run on malformed body")
	}
}

func TestIngest_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"no records", fmt.Errorf("%w: no records", domain.ErrInvalidUpload), http.StatusBadRequest, "Invalid upload event"},
		{"retrieval", fmt.Errorf("get object: %w", domain.ErrObjectRetrieval), http.StatusInternalServerError, "Failed to retrieve image"},
		{"detection", fmt.Errorf("detect: %w", domain.ErrLabelDetection), http.StatusInternalServerError, "Failed to detect labels"},
		{"index", fmt.Errorf("index: %w", domain.ErrIndexWrite), http.StatusInternalServerError, "Failed to index image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(NewServer(&mockSearcher{}, &mockIngester{err: tt.err}, &mockHealth{}, nil))

			rr := do(t, h, http.MethodPost, "/ingest", s3Notification)

			if rr.Code != tt.wantStatus {
				t.Errorf("got %d, want %d", rr.Code, tt.wantStatus)
			}
			var body response.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMsg)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		report     healthuc.Report
		wantStatus int
	}{
		{"healthy", healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"index": healthuc.CheckOK}}, http.StatusOK},
		{"degraded", healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{"index": healthuc.CheckError}}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(NewServer(&mockSearcher{}, &mockIngester{}, &mockHealth{report: tt.report}, nil))

			rr := do(t, h, http.MethodGet, "/health", "")

			if rr.Code != tt.wantStatus {
				t.Errorf("got %d, want %d", rr.Code, tt.wantStatus)
			}
			var body healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != string(tt.report.Status) {
				t.Errorf("status = %q", body.Status)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	h := newTestRouter(NewServer(&mockSearcher{}, &mockIngester{}, &mockHealth{}, nil))

	rr := do(t, h, http.MethodGet, "/metrics", "")

	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want 200", rr.Code)
	}
}

func TestSearch_UnknownError_500(t *testing.T) {
	h := newTestRouter(NewServer(&mockSearcher{err: errors.New("boom")}, &mockIngester{}, &mockHealth{}, nil))

	rr := do(t, h, http.MethodGet, "/search?q=dog", "")

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("got %d, want 500", rr.Code)
	}
}
