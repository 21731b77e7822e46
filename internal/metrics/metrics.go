// Package metrics provides Prometheus metrics collection for the score predictor.
// It defines the prediction, encoding, HTTP and storage metrics exposed on the
// /metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	Predictions        *prometheus.CounterVec // Successful predictions per backend
	PredictionFailures *prometheus.CounterVec // Failed predictions per backend
	InvalidProfiles    prometheus.Counter     // Profiles rejected before encoding
	PredictLatency     prometheus.Histogram   // Backend latency in seconds
	PredictedScores    *prometheus.HistogramVec
	ModelAge           prometheus.Gauge   // Seconds since the model was trained
	PythonTimeouts     prometheus.Counter // Python helper calls that hit the timeout

	// Encoding metrics
	BaselineEncodings *prometheus.CounterVec // One-hot fields encoded all-zero, by field and declared

	// HTTP and websocket metrics
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	WSConnections    prometheus.Gauge
	WSMessages       prometheus.Counter
	HistoryWrites    prometheus.Counter
	HistoryFailures  prometheus.Counter
	DatasetRowsTotal prometheus.Gauge

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of successful score predictions",
		}, []string{"backend"}),
		PredictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed score predictions",
		}, []string{"backend"}),
		InvalidProfiles: factory.NewCounter(prometheus.CounterOpts{
			Name: "invalid_profiles_total",
			Help: "Total number of profiles rejected by validation",
		}),
		PredictLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predict_latency_seconds",
			Help:    "Prediction backend latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		PredictedScores: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "predicted_score",
			Help:    "Distribution of predicted scores per subject",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}, []string{"subject"}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded model in seconds",
		}),
		PythonTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "python_timeouts_total",
			Help: "Total number of python helper timeouts",
		}),
		BaselineEncodings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "baseline_encodings_total",
			Help: "One-hot fields encoded as all-zero, by field and whether the value is the declared baseline",
		}, []string{"field", "declared"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Number of open websocket connections",
		}),
		WSMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_messages_total",
			Help: "Total number of websocket prediction requests",
		}),
		HistoryWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "history_writes_total",
			Help: "Total number of predictions written to history",
		}),
		HistoryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "history_failures_total",
			Help: "Total number of failed history writes",
		}),
		DatasetRowsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Number of rows in the loaded exploration dataset",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
