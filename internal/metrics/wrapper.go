package metrics

import (
	"strconv"

	"student-predictor/internal/ml"
)

// Wrapper adapts Metrics to the interfaces consumed by the ml and storage packages.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

// Metrics returns the wrapped collectors.
func (w *Wrapper) Metrics() *Metrics {
	return w.m
}

func (w *Wrapper) PredictionsInc(backend string) {
	w.m.Predictions.WithLabelValues(backend).Inc()
}

func (w *Wrapper) PredictionFailuresInc(backend string) {
	w.m.PredictionFailures.WithLabelValues(backend).Inc()
	w.m.ErrorsTotal.Inc()
}

func (w *Wrapper) InvalidProfilesInc() {
	w.m.InvalidProfiles.Inc()
}

func (w *Wrapper) PredictLatencyObserve(seconds float64) {
	w.m.PredictLatency.Observe(seconds)
}

func (w *Wrapper) ScoresObserve(s ml.Scores) {
	for i, v := range s.Values() {
		w.m.PredictedScores.WithLabelValues(subject(i)).Observe(v)
	}
}

func (w *Wrapper) BaselineEncodingInc(field string, declared bool) {
	w.m.BaselineEncodings.WithLabelValues(field, strconv.FormatBool(declared)).Inc()
}

func (w *Wrapper) ModelAgeSet(seconds float64) {
	w.m.ModelAge.Set(seconds)
}

func (w *Wrapper) TimeoutsInc() {
	w.m.PythonTimeouts.Inc()
	w.m.ErrorsTotal.Inc()
}

// HistoryWriteInc counts a history write outcome.
func (w *Wrapper) HistoryWriteInc(ok bool) {
	if ok {
		w.m.HistoryWrites.Inc()
		return
	}
	w.m.HistoryFailures.Inc()
	w.m.ErrorsTotal.Inc()
}

// HTTPObserve records one served request.
func (w *Wrapper) HTTPObserve(route string, code int, seconds float64) {
	w.m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	w.m.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

// WSConnectionsAdd tracks open websocket connections.
func (w *Wrapper) WSConnectionsAdd(delta float64) {
	w.m.WSConnections.Add(delta)
}

func (w *Wrapper) WSMessagesInc() {
	w.m.WSMessages.Inc()
}

func (w *Wrapper) DatasetRowsSet(n int) {
	w.m.DatasetRowsTotal.Set(float64(n))
}

func subject(i int) string {
	switch i {
	case 0:
		return "math"
	case 1:
		return "reading"
	default:
		return "writing"
	}
}

var _ ml.MetricsInterface = (*Wrapper)(nil)
