package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"student-predictor/internal/common"
	"student-predictor/internal/dataset"
	"student-predictor/internal/features"
	"student-predictor/internal/ml"

	"github.com/rs/zerolog/log"
)

// VectorRequest carries an already encoded feature vector.
type VectorRequest struct {
	Features []float64 `json:"features"`
}

// VectorResponse is the reply to a VectorRequest.
type VectorResponse struct {
	Scores  ml.Scores `json:"scores"`
	Average float64   `json:"average"`
	Backend string    `json:"backend"`
}

// FieldInfo describes one selector of the profile form.
type FieldInfo struct {
	Name     features.Field `json:"name"`
	Prefix   string         `json:"prefix"`
	Kind     string         `json:"kind"`
	Domain   []string       `json:"domain"`
	Baseline string         `json:"baseline,omitempty"`
}

// SchemaResponse describes the feature layout in use.
type SchemaResponse struct {
	Features []string    `json:"features"`
	Fields   []FieldInfo `json:"fields"`
	Issues   []string    `json:"issues,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

// predictStatus maps prediction errors onto HTTP status codes.
func predictStatus(err error) int {
	switch {
	case errors.Is(err, features.ErrInvalidProfile), errors.Is(err, features.ErrSchemaMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var p features.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request: "+err.Error()))
		return
	}

	pred, err := s.svc.Predict(r.Context(), p)
	if err != nil {
		writeError(w, r, predictStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func (s *Server) handleVector(w http.ResponseWriter, r *http.Request) {
	var req VectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("invalid request: "+err.Error()))
		return
	}
	if len(req.Features) == 0 {
		writeError(w, r, http.StatusBadRequest, errors.New("features cannot be empty"))
		return
	}

	scores, err := s.svc.PredictVector(r.Context(), req.Features)
	if err != nil {
		writeError(w, r, predictStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, VectorResponse{Scores: scores, Average: scores.Average(), Backend: s.svc.Backend()})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	enc := s.svc.Encoder()
	baselines := enc.Baselines()

	resp := SchemaResponse{Features: s.svc.Schema().Names()}
	for _, f := range features.Fields() {
		kind, _ := features.KindOf(f)
		info := FieldInfo{
			Name:     f,
			Prefix:   features.Prefix(f),
			Kind:     "one-hot",
			Domain:   features.Domain(f),
			Baseline: baselines[f],
		}
		if kind == features.Binary {
			info.Kind = "binary"
		}
		resp.Fields = append(resp.Fields, info)
	}
	for _, is := range enc.Audit() {
		resp.Issues = append(resp.Issues, is.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Metadata())
}

// intParam reads a positive integer query parameter bounded by max.
func intParam(r *http.Request, name string, def, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, errors.New(name + " must be an integer between 1 and " + strconv.Itoa(max))
	}
	return n, nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "rows", s.cfg.PreviewRows, common.MaxPreviewRows)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	rows := s.data.Preview(n)
	if rows == nil {
		rows = []dataset.Row{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns": s.data.Columns(),
		"rows":    rows,
		"total":   s.data.Len(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rows, cols := s.data.Shape()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shape":    []int{rows, cols},
		"describe": s.data.Describe(),
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	bins, err := intParam(r, "bins", s.cfg.HistogramBins, 100)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	hist := make(map[string][]dataset.Bin, len(dataset.NumericColumns))
	for _, col := range dataset.NumericColumns {
		h, err := s.data.Histogram(col, bins)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err)
			return
		}
		hist[col] = h
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"histograms": hist,
		"categories": s.data.CategoryCounts(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, r, http.StatusNotFound, errors.New("prediction history is disabled"))
		return
	}
	limit, err := intParam(r, "limit", common.DefaultHistoryLimit, common.MaxHistoryRows)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	items, err := s.history.Recent(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read prediction history")
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	total, err := s.history.Count()
	if err != nil {
		log.Error().Err(err).Msg("Failed to count prediction history")
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []ml.Prediction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": items,
		"total":       total,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.svc.Health()

	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"service":         health,
		"dataset_rows":    s.data.Len(),
		"history_enabled": s.history != nil,
	})
}
