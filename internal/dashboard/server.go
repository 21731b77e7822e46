// Package dashboard serves the score predictor over HTTP: server-rendered
// pages for exploring the dataset and requesting predictions, a JSON API, a
// websocket prediction stream, health and Prometheus metrics.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"student-predictor/internal/common"
	"student-predictor/internal/dataset"
	"student-predictor/internal/metrics"
	"student-predictor/internal/ml"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// HistoryReader lists stored predictions, newest first.
type HistoryReader interface {
	Recent(n int) ([]ml.Prediction, error)
	Count() (int, error)
}

// Config holds the server settings.
type Config struct {
	Port          int
	PreviewRows   int
	HistogramBins int
	// Gatherer backs /metrics; the default registry when nil.
	Gatherer prometheus.Gatherer
}

// Server is the dashboard and API server.
type Server struct {
	cfg      Config
	svc      *ml.Service
	data     *dataset.Dataset
	history  HistoryReader
	metrics  *metrics.Wrapper
	router   *mux.Router
	server   *http.Server
	upgrader websocket.Upgrader
	pages    *template.Template

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
}

// Option configures optional collaborators.
type Option func(*Server)

// WithDataset enables the Data and Graphs views.
func WithDataset(d *dataset.Dataset) Option {
	return func(s *Server) { s.data = d }
}

// WithHistory enables /api/v1/history.
func WithHistory(h HistoryReader) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics records HTTP and websocket metrics.
func WithMetrics(m *metrics.Wrapper) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer wires routes and middleware around svc.
func NewServer(cfg Config, svc *ml.Service, opts ...Option) *Server {
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = common.DefaultPreviewRows
	}
	if cfg.HistogramBins <= 0 {
		cfg.HistogramBins = common.DefaultHistogramBins
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:      cfg,
		svc:      svc,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		pages:    parsePages(),
		clients:  make(map[*websocket.Conn]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.metrics.DatasetRowsSet(s.data.Len())
	}

	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)

	r.HandleFunc("/", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredictForm).Methods(http.MethodPost)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	api.HandleFunc("/vector", s.handleVector).Methods(http.MethodPost)
	api.HandleFunc("/schema", s.handleSchema).Methods(http.MethodGet)
	api.HandleFunc("/model", s.handleModel).Methods(http.MethodGet)
	api.HandleFunc("/data/preview", s.handlePreview).Methods(http.MethodGet)
	api.HandleFunc("/data/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/data/distribution", s.handleDistribution).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router = r
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().
		Str("address", s.server.Addr).
		Str("backend", s.svc.Backend()).
		Int("schema_columns", s.svc.Schema().Len()).
		Msg("Starting dashboard server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes websocket clients and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.clientsMu.Lock()
	for c := range s.clients {
		c.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.clientsMu.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}
	log.Info().Msg("Dashboard server stopped")
	return nil
}
