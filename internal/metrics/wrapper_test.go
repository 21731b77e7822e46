package metrics

import (
	"testing"

	"student-predictor/internal/ml"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestWrapper() (*Metrics, *Wrapper) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)
	return m, NewWrapper(m)
}

func TestNewWrapper(t *testing.T) {
	m, wrapper := newTestWrapper()

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.Metrics() != m {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestWrapper_PredictionCounters(t *testing.T) {
	m, wrapper := newTestWrapper()

	wrapper.PredictionsInc("native")
	wrapper.PredictionsInc("native")
	wrapper.PredictionsInc("python")
	wrapper.PredictionFailuresInc("python")

	if v := testutil.ToFloat64(m.Predictions.WithLabelValues("native")); v != 2 {
		t.Errorf("Expected 2 native predictions, got %f", v)
	}
	if v := testutil.ToFloat64(m.Predictions.WithLabelValues("python")); v != 1 {
		t.Errorf("Expected 1 python prediction, got %f", v)
	}
	if v := testutil.ToFloat64(m.PredictionFailures.WithLabelValues("python")); v != 1 {
		t.Errorf("Expected 1 python failure, got %f", v)
	}
	if v := testutil.ToFloat64(m.ErrorsTotal); v != 1 {
		t.Errorf("Expected failures to count as errors, got %f", v)
	}
}

func TestWrapper_InvalidAndTimeouts(t *testing.T) {
	m, wrapper := newTestWrapper()

	wrapper.InvalidProfilesInc()
	wrapper.TimeoutsInc()

	if v := testutil.ToFloat64(m.InvalidProfiles); v != 1 {
		t.Errorf("Expected 1 invalid profile, got %f", v)
	}
	if v := testutil.ToFloat64(m.PythonTimeouts); v != 1 {
		t.Errorf("Expected 1 timeout, got %f", v)
	}
	if v := testutil.ToFloat64(m.ErrorsTotal); v != 1 {
		t.Errorf("Expected 1 error, got %f", v)
	}
}

func TestWrapper_BaselineEncodings(t *testing.T) {
	m, wrapper := newTestWrapper()

	wrapper.BaselineEncodingInc("race/ethnicity", true)
	wrapper.BaselineEncodingInc("race/ethnicity", true)
	wrapper.BaselineEncodingInc("parental education", false)

	tests := []struct {
		field    string
		declared string
		want     float64
	}{
		{"race/ethnicity", "true", 2},
		{"race/ethnicity", "false", 0},
		{"parental education", "false", 1},
	}
	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.declared, func(t *testing.T) {
			got := testutil.ToFloat64(m.BaselineEncodings.WithLabelValues(tt.field, tt.declared))
			if got != tt.want {
				t.Errorf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestWrapper_ScoresObserve(t *testing.T) {
	m, wrapper := newTestWrapper()

	wrapper.ScoresObserve(ml.Scores{Math: 65, Reading: 70, Writing: 72})
	wrapper.ScoresObserve(ml.Scores{Math: 80, Reading: 82, Writing: 79})

	if n := testutil.CollectAndCount(m.PredictedScores); n != 3 {
		t.Errorf("Expected one series per subject, got %d", n)
	}
}

func TestWrapper_LatencyAndModelAge(t *testing.T) {
	m, wrapper := newTestWrapper()

	for _, v := range []float64{0.001, 0.005, 0.01} {
		wrapper.PredictLatencyObserve(v)
	}
	if n := testutil.CollectAndCount(m.PredictLatency); n != 1 {
		t.Errorf("Expected latency histogram to be collected, got %d", n)
	}

	wrapper.ModelAgeSet(3600)
	if v := testutil.ToFloat64(m.ModelAge); v != 3600 {
		t.Errorf("Expected model age 3600, got %f", v)
	}
}

func TestWrapper_HTTPAndWebsocket(t *testing.T) {
	m, wrapper := newTestWrapper()

	wrapper.HTTPObserve("/api/v1/predict", 200, 0.01)
	wrapper.HTTPObserve("/api/v1/predict", 400, 0.002)
	wrapper.HTTPObserve("/api/v1/predict", 200, 0.02)

	if v := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/predict", "200")); v != 2 {
		t.Errorf("Expected 2 successful requests, got %f", v)
	}
	if v := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/predict", "400")); v != 1 {
		t.Errorf("Expected 1 bad request, got %f", v)
	}

	wrapper.WSConnectionsAdd(1)
	wrapper.WSConnectionsAdd(1)
	wrapper.WSConnectionsAdd(-1)
	wrapper.WSMessagesInc()
	if v := testutil.ToFloat64(m.WSConnections); v != 1 {
		t.Errorf("Expected 1 open connection, got %f", v)
	}
	if v := testutil.ToFloat64(m.WSMessages); v != 1 {
		t.Errorf("Expected 1 websocket message, got %f", v)
	}
}

func TestWrapper_HistoryAndDataset(t *testing.T) {
	m, wrapper := newTestWrapper()

	wrapper.HistoryWriteInc(true)
	wrapper.HistoryWriteInc(false)
	wrapper.DatasetRowsSet(1000)

	if v := testutil.ToFloat64(m.HistoryWrites); v != 1 {
		t.Errorf("Expected 1 history write, got %f", v)
	}
	if v := testutil.ToFloat64(m.HistoryFailures); v != 1 {
		t.Errorf("Expected 1 history failure, got %f", v)
	}
	if v := testutil.ToFloat64(m.DatasetRowsTotal); v != 1000 {
		t.Errorf("Expected 1000 dataset rows, got %f", v)
	}
}

func TestNewWithRegistry_Isolated(t *testing.T) {
	// Two registries must not collide on registration.
	_ = NewWithRegistry(prometheus.NewRegistry())
	_ = NewWithRegistry(prometheus.NewRegistry())
}
