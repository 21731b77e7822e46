package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"student-predictor/internal/features"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// ScalerFile is the exported state of a fitted StandardScaler.
type ScalerFile struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// ModelFile is the exported state of a fitted multi-output linear regression.
type ModelFile struct {
	Targets   []string    `json:"targets"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// StandardScaler applies (x - mean) / scale column by column.
type StandardScaler struct {
	mean  *mat.VecDense
	scale *mat.VecDense
}

// NewStandardScaler builds a scaler from fitted statistics. A zero scale is
// treated as 1, matching how constant columns are fitted.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("scaler has no columns")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler mean has %d columns, scale has %d", len(mean), len(scale))
	}

	sc := make([]float64, len(scale))
	for i, v := range scale {
		if v == 0 {
			v = 1
		}
		sc[i] = v
	}
	return &StandardScaler{
		mean:  mat.NewVecDense(len(mean), append([]float64(nil), mean...)),
		scale: mat.NewVecDense(len(sc), sc),
	}, nil
}

// Width is the number of inputs the scaler was fitted on.
func (s *StandardScaler) Width() int { return s.mean.Len() }

// Transform returns the scaled copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != s.Width() {
		return nil, fmt.Errorf("scaler expects %d inputs, got %d", s.Width(), len(x))
	}
	v := mat.NewVecDense(len(x), append([]float64(nil), x...))
	v.SubVec(v, s.mean)
	v.DivElemVec(v, s.scale)
	return v.RawVector().Data, nil
}

// LinearModel evaluates coef·x + intercept for every target.
type LinearModel struct {
	coef      *mat.Dense
	intercept *mat.VecDense
}

// NewLinearModel checks that coef is a dense targets×inputs matrix.
func NewLinearModel(coef [][]float64, intercept []float64) (*LinearModel, error) {
	if len(coef) == 0 || len(coef[0]) == 0 {
		return nil, fmt.Errorf("model has no coefficients")
	}
	if len(intercept) != len(coef) {
		return nil, fmt.Errorf("model has %d coefficient rows but %d intercepts", len(coef), len(intercept))
	}

	rows, cols := len(coef), len(coef[0])
	data := make([]float64, 0, rows*cols)
	for i, row := range coef {
		if len(row) != cols {
			return nil, fmt.Errorf("coefficient row %d has %d values, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return &LinearModel{
		coef:      mat.NewDense(rows, cols, data),
		intercept: mat.NewVecDense(rows, append([]float64(nil), intercept...)),
	}, nil
}

// Width is the number of inputs the model was fitted on.
func (m *LinearModel) Width() int {
	_, c := m.coef.Dims()
	return c
}

// Outputs is the number of predicted targets.
func (m *LinearModel) Outputs() int {
	r, _ := m.coef.Dims()
	return r
}

// Predict returns one value per target.
func (m *LinearModel) Predict(x []float64) ([]float64, error) {
	if len(x) != m.Width() {
		return nil, fmt.Errorf("model expects %d inputs, got %d", m.Width(), len(x))
	}
	var y mat.VecDense
	y.MulVec(m.coef, mat.NewVecDense(len(x), x))
	y.AddVec(&y, m.intercept)
	return y.RawVector().Data, nil
}

// NativePredictor evaluates exported scaler and model coefficients in process.
type NativePredictor struct {
	scaler *StandardScaler
	model  *LinearModel
}

// NewNativePredictor checks that scaler and model agree on the input width
// and that the model emits exactly the three score targets.
func NewNativePredictor(scaler *StandardScaler, model *LinearModel) (*NativePredictor, error) {
	if scaler.Width() != model.Width() {
		return nil, fmt.Errorf("%w: scaler has %d inputs, model has %d", features.ErrSchemaMismatch, scaler.Width(), model.Width())
	}
	if model.Outputs() != len(Targets) {
		return nil, fmt.Errorf("model predicts %d targets, expected %d", model.Outputs(), len(Targets))
	}
	return &NativePredictor{scaler: scaler, model: model}, nil
}

// Width is the number of inputs expected by Predict.
func (p *NativePredictor) Width() int { return p.scaler.Width() }

func (p *NativePredictor) Name() string { return "native" }

func (p *NativePredictor) Predict(ctx context.Context, x []float64) (Scores, error) {
	if err := ctx.Err(); err != nil {
		return Scores{}, err
	}
	scaled, err := p.scaler.Transform(x)
	if err != nil {
		return Scores{}, err
	}
	out, err := p.model.Predict(scaled)
	if err != nil {
		return Scores{}, err
	}
	return ScoresFrom(out)
}

// LoadNative reads the JSON artifacts exported by the training pipeline and
// fails with features.ErrSchemaMismatch when their widths disagree with the
// schema.
func LoadNative(schemaPath, scalerPath, modelPath string) (*NativePredictor, *features.Schema, error) {
	schema, err := features.LoadSchema(schemaPath)
	if err != nil {
		return nil, nil, err
	}

	var sf ScalerFile
	if err := readJSON(scalerPath, &sf); err != nil {
		return nil, nil, fmt.Errorf("load scaler: %w", err)
	}
	scaler, err := NewStandardScaler(sf.Mean, sf.Scale)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: scaler %s: %v", features.ErrSchemaMismatch, scalerPath, err)
	}
	if err := schema.CheckWidth("scaler", scaler.Width()); err != nil {
		return nil, nil, err
	}

	var mf ModelFile
	if err := readJSON(modelPath, &mf); err != nil {
		return nil, nil, fmt.Errorf("load model: %w", err)
	}
	if len(mf.Targets) > 0 && len(mf.Targets) != len(Targets) {
		return nil, nil, fmt.Errorf("model %s declares targets %q, expected %q", modelPath, mf.Targets, Targets)
	}
	model, err := NewLinearModel(mf.Coef, mf.Intercept)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: model %s: %v", features.ErrSchemaMismatch, modelPath, err)
	}
	if err := schema.CheckWidth("model", model.Width()); err != nil {
		return nil, nil, err
	}

	p, err := NewNativePredictor(scaler, model)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("schema_path", schemaPath).
		Str("scaler_path", scalerPath).
		Str("model_path", modelPath).
		Int("columns", schema.Len()).
		Msg("native model artifacts loaded")

	return p, schema, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
