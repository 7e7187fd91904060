package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/domain"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/photosearch/internal/logger"
	"github.com/kailas-cloud/photosearch/internal/transport/response"
	"github.com/kailas-cloud/photosearch/internal/transport/s3event"
	healthuc "github.com/kailas-cloud/photosearch/internal/usecase/health"
	"github.com/kailas-cloud/photosearch/internal/usecase/ingest"
)

// maxEventBytes bounds the notification body accepted by POST /ingest.
const maxEventBytes = 1 << 20

// Searcher answers label queries.
type Searcher interface {
	Search(ctx context.Context, query string) ([]result.Result, error)
}

// Ingester indexes upload notifications.
type Ingester interface {
	IngestAll(ctx context.Context, uploads []photo.Upload) ([]ingest.Outcome, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the photo search HTTP API.
type Server struct {
	search Searcher
	ingest Ingester
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, ingest Ingester, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search: search,
		ingest: ingest,
		health: health,
		logger: logger,
	}
}

// Register mounts the API routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Get("/search", s.Search)
	r.Post("/ingest", s.Ingest)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles GET /search?q=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	results, err := s.search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		status, body := response.SearchError(err)
		if errors.Is(err, domain.ErrInvalidQuery) {
			log.Info("Rejected search without query")
		} else {
			log.Error("Search failed", zap.Error(err))
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, response.NewSearchResponse(results))
}

// Ingest handles POST /ingest with an S3 event notification body.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, response.MsgInvalidUpload)
		return
	}
	var ev events.S3Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Info("Malformed upload notification", zap.Error(err))
		writeError(w, http.StatusBadRequest, response.MsgInvalidUpload)
		return
	}

	outcomes, err := s.ingest.IngestAll(r.Context(), s3event.Uploads(ev))
	if err != nil {
		status, body := response.IngestError(err)
		log.Error("Ingest failed", zap.Int("indexed", len(outcomes)), zap.Error(err))
		writeJSON(w, status, body)
		return
	}

	status, body := response.NewIngestResponse(outcomes)
	writeJSON(w, status, body)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logpkg.FromContextOr(r.Context(), s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(response.HeaderContentType, response.ContentTypeJSON)
	w.Header().Set(response.HeaderAllowOrigin, response.AllowAnyOrigin)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response.ErrorResponse{Message: message})
}
