package ml

import (
	"fmt"
	"time"

	"student-predictor/internal/features"
)

// ArtifactConfig selects a local backend and its model artifacts.
type ArtifactConfig struct {
	Backend    string
	SchemaPath string
	ScalerPath string
	ModelPath  string
	PythonPath string
	Timeout    time.Duration
}

// Artifacts is a loaded predictor together with the schema it was fitted on.
type Artifacts struct {
	Predictor Predictor
	Schema    *features.Schema
	Metadata  ModelMetadata
}

// LoadArtifacts loads the configured backend. Missing files and width
// disagreements are returned as errors so start-up can fail fast.
func LoadArtifacts(cfg ArtifactConfig, metrics MetricsInterface) (*Artifacts, error) {
	var (
		p      Predictor
		schema *features.Schema
		err    error
	)

	switch cfg.Backend {
	case "", "native":
		p, schema, err = LoadNative(cfg.SchemaPath, cfg.ScalerPath, cfg.ModelPath)
	case "python":
		p, schema, err = NewPythonPredictor(PythonConfig{
			ModelPath:  cfg.ModelPath,
			ScalerPath: cfg.ScalerPath,
			SchemaPath: cfg.SchemaPath,
			PythonPath: cfg.PythonPath,
			Timeout:    cfg.Timeout,
		}, metrics)
	default:
		return nil, fmt.Errorf("backend %q has no local artifacts", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	md := LoadMetadata(cfg.ModelPath, p.Name())
	if err := checkMetadataFeatures(md.Features, schema); err != nil {
		return nil, err
	}

	return &Artifacts{Predictor: p, Schema: schema, Metadata: md}, nil
}

// checkMetadataFeatures requires a non-empty metadata feature list to match
// the schema column for column.
func checkMetadataFeatures(names []string, schema *features.Schema) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != schema.Len() {
		return fmt.Errorf("%w: metadata lists %d features, schema has %d",
			features.ErrSchemaMismatch, len(names), schema.Len())
	}
	for i, col := range schema.Names() {
		if names[i] != col {
			return fmt.Errorf("%w: metadata feature %d is %q, schema has %q",
				features.ErrSchemaMismatch, i, names[i], col)
		}
	}
	return nil
}
