package ml

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions int
	failures    int
	invalid     int
	latencySum  float64
	scores      []Scores
	baselines   map[string]int
	unexpected  map[string]int
	modelAge    float64
	timeouts    int
}

func (m *MockMetrics) PredictionsInc(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) PredictionFailuresInc(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) InvalidProfilesInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalid++
}

func (m *MockMetrics) PredictLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) ScoresObserve(s Scores) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, s)
}

func (m *MockMetrics) BaselineEncodingInc(field string, declared bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baselines == nil {
		m.baselines = map[string]int{}
		m.unexpected = map[string]int{}
	}
	if declared {
		m.baselines[field]++
	} else {
		m.unexpected[field]++
	}
}

func (m *MockMetrics) ModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) TimeoutsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts++
}

// stubPredictor returns fixed scores or a fixed error.
type stubPredictor struct {
	scores Scores
	err    error
	width  int
	calls  int
	last   []float64
}

func (s *stubPredictor) Name() string { return "stub" }

func (s *stubPredictor) Width() int { return s.width }

func (s *stubPredictor) Predict(_ context.Context, x []float64) (Scores, error) {
	s.calls++
	s.last = append([]float64(nil), x...)
	return s.scores, s.err
}

// trainedColumns mirrors get_dummies(drop_first=True) on the students dataset.
var trainedColumns = []string{
	"gender_male",
	"race/ethnicity_group B",
	"race/ethnicity_group C",
	"race/ethnicity_group D",
	"race/ethnicity_group E",
	"parental level of education_bachelor's degree",
	"parental level of education_high school",
	"parental level of education_master's degree",
	"parental level of education_some college",
	"parental level of education_some high school",
	"lunch_standard",
	"test preparation course_none",
}

type artifactPaths struct {
	schema, scaler, model string
}

// writeArtifacts writes a consistent set of native artifacts. The model has
// unit coefficients on gender_male and lunch_standard so results are easy to
// reason about.
func writeArtifacts(t *testing.T, dir string, columns []string) artifactPaths {
	t.Helper()
	n := len(columns)

	mean := make([]float64, n)
	scale := make([]float64, n)
	for i := range scale {
		scale[i] = 1
	}

	coef := make([][]float64, 3)
	for i := range coef {
		coef[i] = make([]float64, n)
		coef[i][0] = float64(i + 1)
		if n > 10 {
			coef[i][10] = 10
		}
	}

	paths := artifactPaths{
		schema: filepath.Join(dir, "features.json"),
		scaler: filepath.Join(dir, "scaler.json"),
		model:  filepath.Join(dir, "model.json"),
	}
	writeJSON(t, paths.schema, columns)
	writeJSON(t, paths.scaler, ScalerFile{Mean: mean, Scale: scale})
	writeJSON(t, paths.model, ModelFile{
		Targets:   Targets,
		Coef:      coef,
		Intercept: []float64{60, 65, 70},
	})
	return paths
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
