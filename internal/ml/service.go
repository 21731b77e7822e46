package ml

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"student-predictor/internal/features"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MetricsInterface defines the metrics recorded by the prediction service.
type MetricsInterface interface {
	PredictionsInc(backend string)
	PredictionFailuresInc(backend string)
	InvalidProfilesInc()
	PredictLatencyObserve(seconds float64)
	ScoresObserve(s Scores)
	BaselineEncodingInc(field string, declared bool)
	ModelAgeSet(seconds float64)
	TimeoutsInc()
}

// HistoryRecorder persists completed predictions.
type HistoryRecorder interface {
	RecordPrediction(p Prediction) error
}

// Prediction is the outcome of one encode-and-predict pass.
type Prediction struct {
	ID        string           `json:"id"`
	Profile   features.Profile `json:"profile"`
	Scores    Scores           `json:"scores"`
	Average   float64          `json:"average"`
	Progress  int              `json:"progress"`
	Baseline  []features.Field `json:"baseline_fields,omitempty"`
	Backend   string           `json:"backend"`
	LatencyMs float64          `json:"latency_ms"`
	CreatedAt time.Time        `json:"created_at"`
}

// HealthStatus summarises the service for the health endpoint.
type HealthStatus struct {
	Healthy         bool    `json:"healthy"`
	Backend         string  `json:"backend"`
	ModelVersion    string  `json:"model_version"`
	SchemaColumns   int     `json:"schema_columns"`
	PredictionCount int64   `json:"prediction_count"`
	ErrorCount      int64   `json:"error_count"`
	ErrorRate       float64 `json:"error_rate"`
	AverageLatency  float64 `json:"average_latency_ms"`
	LastError       string  `json:"last_error,omitempty"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
}

type performanceStats struct {
	mu           sync.RWMutex
	predictions  int64
	errors       int64
	totalLatency time.Duration
	lastError    string
	startTime    time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMetrics records prediction metrics.
func WithMetrics(m MetricsInterface) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithHistory appends every successful prediction to r.
func WithHistory(r HistoryRecorder) ServiceOption {
	return func(s *Service) { s.history = r }
}

// WithMetadata attaches model metadata for reporting.
func WithMetadata(md ModelMetadata) ServiceOption {
	return func(s *Service) { s.metadata = md }
}

// Service ties the encoder to a predictor. All of its collaborators are
// read-only after construction, so Predict may be called concurrently.
type Service struct {
	encoder   *features.Encoder
	predictor Predictor
	metrics   MetricsInterface
	history   HistoryRecorder
	metadata  ModelMetadata
	stats     *performanceStats
}

type widther interface {
	Width() int
}

// NewService fails with features.ErrSchemaMismatch when the predictor
// reports an input width different from the encoder's schema.
func NewService(enc *features.Encoder, p Predictor, opts ...ServiceOption) (*Service, error) {
	if enc == nil || p == nil {
		return nil, fmt.Errorf("service needs an encoder and a predictor")
	}
	if w, ok := p.(widther); ok {
		if err := enc.Schema().CheckWidth(p.Name()+" predictor", w.Width()); err != nil {
			return nil, err
		}
	}

	s := &Service{
		encoder:   enc,
		predictor: p,
		stats:     &performanceStats{startTime: time.Now()},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metadata.Backend == "" {
		s.metadata.Backend = p.Name()
	}

	for _, issue := range enc.Audit() {
		log.Warn().
			Str("field", string(issue.Field)).
			Str("value", issue.Value).
			Str("column", issue.Column).
			Str("reason", issue.Reason).
			Msg("feature schema disagrees with declared encoding")
	}

	if s.metrics != nil {
		s.metrics.ModelAgeSet(s.metadata.Age().Seconds())
	}

	return s, nil
}

// Schema returns the feature schema in use.
func (s *Service) Schema() *features.Schema { return s.encoder.Schema() }

// Encoder returns the encoder in use.
func (s *Service) Encoder() *features.Encoder { return s.encoder }

// Metadata returns the loaded model's metadata.
func (s *Service) Metadata() ModelMetadata { return s.metadata }

// Backend names the predictor in use.
func (s *Service) Backend() string { return s.predictor.Name() }

// Encode validates and encodes p without predicting.
func (s *Service) Encode(p features.Profile) (features.Encoding, error) {
	return s.encoder.Encode(p)
}

// Predict runs one encode-and-predict pass for p.
func (s *Service) Predict(ctx context.Context, p features.Profile) (Prediction, error) {
	start := time.Now()

	enc, err := s.encoder.Encode(p)
	if err != nil {
		if s.metrics != nil && errors.Is(err, features.ErrInvalidProfile) {
			s.metrics.InvalidProfilesInc()
		}
		return Prediction{}, err
	}
	s.recordBaselines(p, enc)

	scores, err := s.predict(ctx, enc.Vector)
	if err != nil {
		return Prediction{}, err
	}

	pred := Prediction{
		ID:        uuid.NewString(),
		Profile:   p,
		Scores:    scores,
		Average:   scores.Average(),
		Progress:  scores.Progress(),
		Baseline:  enc.Baseline,
		Backend:   s.predictor.Name(),
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		CreatedAt: time.Now().UTC(),
	}

	if s.history != nil {
		if err := s.history.RecordPrediction(pred); err != nil {
			log.Warn().Err(err).Str("prediction_id", pred.ID).Msg("failed to record prediction history")
		}
	}

	log.Debug().
		Str("prediction_id", pred.ID).
		Interface("profile", p).
		Interface("scores", scores).
		Float64("average", pred.Average).
		Msg("prediction completed")

	return pred, nil
}

// PredictVector predicts from an already encoded vector, checking its width.
func (s *Service) PredictVector(ctx context.Context, x []float64) (Scores, error) {
	if err := s.Schema().CheckWidth("request", len(x)); err != nil {
		return Scores{}, err
	}
	return s.predict(ctx, x)
}

func (s *Service) predict(ctx context.Context, x []float64) (Scores, error) {
	start := time.Now()
	scores, err := s.predictor.Predict(ctx, x)
	elapsed := time.Since(start)

	s.stats.mu.Lock()
	s.stats.totalLatency += elapsed
	if err != nil {
		s.stats.errors++
		s.stats.lastError = err.Error()
	} else {
		s.stats.predictions++
	}
	s.stats.mu.Unlock()

	if s.metrics != nil {
		s.metrics.PredictLatencyObserve(elapsed.Seconds())
		if err != nil {
			s.metrics.PredictionFailuresInc(s.predictor.Name())
		} else {
			s.metrics.PredictionsInc(s.predictor.Name())
			s.metrics.ScoresObserve(scores)
		}
	}

	if err != nil {
		log.Error().Err(err).Str("backend", s.predictor.Name()).Msg("prediction failed")
		return Scores{}, fmt.Errorf("%s predict: %w", s.predictor.Name(), err)
	}
	return scores, nil
}

func (s *Service) recordBaselines(p features.Profile, enc features.Encoding) {
	if len(enc.Baseline) == 0 {
		return
	}
	unexpected := make(map[features.Field]bool, len(enc.Unexpected))
	for _, f := range enc.Unexpected {
		unexpected[f] = true
		log.Warn().
			Str("field", string(f)).
			Str("value", p.Value(f)).
			Str("column", features.ColumnName(f, p.Value(f))).
			Msg("category has no schema column and is not the declared baseline")
	}
	if s.metrics == nil {
		return
	}
	for _, f := range enc.Baseline {
		s.metrics.BaselineEncodingInc(string(f), !unexpected[f])
	}
}

// Health reports counters accumulated since start-up.
func (s *Service) Health() HealthStatus {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	total := s.stats.predictions + s.stats.errors
	h := HealthStatus{
		Backend:         s.predictor.Name(),
		ModelVersion:    s.metadata.Version,
		SchemaColumns:   s.Schema().Len(),
		PredictionCount: s.stats.predictions,
		ErrorCount:      s.stats.errors,
		LastError:       s.stats.lastError,
		UptimeSeconds:   time.Since(s.stats.startTime).Seconds(),
	}
	if total > 0 {
		h.ErrorRate = float64(s.stats.errors) / float64(total)
		h.AverageLatency = float64(s.stats.totalLatency.Milliseconds()) / float64(total)
	}
	// Healthy until more than half of the attempts fail.
	h.Healthy = total == 0 || h.ErrorRate <= 0.5
	return h
}
