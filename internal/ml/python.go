package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"student-predictor/internal/features"

	"github.com/rs/zerolog/log"
)

// ErrBackendUnavailable is returned when a backend cannot be started.
var ErrBackendUnavailable = errors.New("prediction backend unavailable")

const inferenceScriptName = "score_inference.py"

// PythonConfig locates the pickled artifacts and the interpreter.
type PythonConfig struct {
	ModelPath  string
	ScalerPath string
	SchemaPath string
	// PythonPath and ScriptPath are discovered when empty.
	PythonPath string
	ScriptPath string
	Timeout    time.Duration
}

// PythonPredictor runs the pickled scaler and model through a helper
// script, one process per prediction.
type PythonPredictor struct {
	cfg        PythonConfig
	pythonPath string
	scriptPath string
	metrics    MetricsInterface
}

type pythonRequest struct {
	Mode     string    `json:"mode"`
	Features []float64 `json:"features,omitempty"`
}

type pythonResponse struct {
	Predictions []float64 `json:"predictions,omitempty"`
	Features    []string  `json:"features,omitempty"`
	ScalerWidth int       `json:"scaler_width,omitempty"`
	ModelWidth  int       `json:"model_width,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// NewPythonPredictor checks the artifacts exist, finds an interpreter with
// scikit-learn, reads the feature list from the pickled schema and verifies
// that scaler and model were fitted on the same width.
func NewPythonPredictor(cfg PythonConfig, metrics MetricsInterface) (*PythonPredictor, *features.Schema, error) {
	for _, path := range []string{cfg.ModelPath, cfg.ScalerPath, cfg.SchemaPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, nil, fmt.Errorf("model artifact: %w", err)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	pythonPath := cfg.PythonPath
	if pythonPath == "" {
		var err error
		if pythonPath, err = findPython(); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}

	scriptPath, err := locateScript(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	p := &PythonPredictor{
		cfg:        cfg,
		pythonPath: pythonPath,
		scriptPath: scriptPath,
		metrics:    metrics,
	}

	schema, err := p.loadSchema(context.Background())
	if err != nil {
		return nil, nil, err
	}

	if err := p.warmUp(schema.Len()); err != nil {
		return nil, nil, fmt.Errorf("%w: health check: %v", ErrBackendUnavailable, err)
	}

	log.Info().
		Str("python_path", pythonPath).
		Str("script_path", scriptPath).
		Str("model_path", cfg.ModelPath).
		Int("columns", schema.Len()).
		Msg("pickled model artifacts loaded")

	return p, schema, nil
}

func (p *PythonPredictor) Name() string { return "python" }

func (p *PythonPredictor) Predict(ctx context.Context, x []float64) (Scores, error) {
	for i, v := range x {
		if v != v {
			return Scores{}, fmt.Errorf("feature %d is NaN", i)
		}
	}

	resp, err := p.run(ctx, pythonRequest{Mode: "predict", Features: x})
	if err != nil {
		return Scores{}, err
	}
	return ScoresFrom(resp.Predictions)
}

func (p *PythonPredictor) loadSchema(ctx context.Context) (*features.Schema, error) {
	resp, err := p.run(ctx, pythonRequest{Mode: "schema"})
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", p.cfg.SchemaPath, err)
	}

	schema, err := features.NewSchema(resp.Features)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", p.cfg.SchemaPath, err)
	}
	if resp.ScalerWidth > 0 {
		if err := schema.CheckWidth("scaler", resp.ScalerWidth); err != nil {
			return nil, err
		}
	}
	if resp.ModelWidth > 0 {
		if err := schema.CheckWidth("model", resp.ModelWidth); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

// warmUp runs one prediction on an all-zero vector so that a model which
// cannot be unpickled or applied fails at start-up.
func (p *PythonPredictor) warmUp(width int) error {
	_, err := p.run(context.Background(), pythonRequest{Mode: "predict", Features: make([]float64, width)})
	return err
}

func (p *PythonPredictor) run(parent context.Context, req pythonRequest) (*pythonResponse, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(parent, p.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.pythonPath, p.scriptPath, p.cfg.ModelPath, p.cfg.ScalerPath, p.cfg.SchemaPath)
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Error().
			Err(err).
			Str("python_path", p.pythonPath).
			Str("script_path", p.scriptPath).
			Str("mode", req.Mode).
			Str("stderr", stderr.String()).
			Str("stdout", stdout.String()).
			Dur("timeout", p.cfg.Timeout).
			Bool("context_cancelled", ctx.Err() != nil).
			Msg("python inference execution failed")

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			if p.metrics != nil {
				p.metrics.TimeoutsInc()
			}
			return nil, fmt.Errorf("prediction timeout after %v", p.cfg.Timeout)
		}

		// The helper reports its own failures as JSON on stdout.
		var resp pythonResponse
		if json.Unmarshal(stdout.Bytes(), &resp) == nil && resp.Error != "" {
			return nil, fmt.Errorf("python inference error: %s", resp.Error)
		}
		if strings.Contains(stderr.String(), "No module named") {
			return nil, fmt.Errorf("python dependency missing: %w, stderr: %s", err, stderr.String())
		}
		return nil, fmt.Errorf("python inference failed: %w, stderr: %s", err, stderr.String())
	}

	var resp pythonResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		log.Error().
			Err(err).
			Str("stdout", stdout.String()).
			Str("stderr", stderr.String()).
			Msg("failed to parse python response")
		return nil, fmt.Errorf("failed to parse response: %w, stdout: %s", err, stdout.String())
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("python inference error: %s", resp.Error)
	}

	log.Debug().
		Str("mode", req.Mode).
		Interface("predictions", resp.Predictions).
		Msg("python helper call succeeded")

	return &resp, nil
}

func locateScript(cfg PythonConfig) (string, error) {
	if cfg.ScriptPath != "" {
		if _, err := os.Stat(cfg.ScriptPath); err != nil {
			return "", fmt.Errorf("inference script: %w", err)
		}
		return cfg.ScriptPath, nil
	}

	modelDir := filepath.Dir(cfg.ModelPath)
	candidates := []string{
		filepath.Join(modelDir, inferenceScriptName),
		filepath.Join(filepath.Dir(modelDir), "scripts", inferenceScriptName),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}

	embedded := filepath.Join(modelDir, "score_inference_embedded.py")
	if err := createInferenceScript(embedded); err != nil {
		return "", fmt.Errorf("create inference script: %w", err)
	}
	return embedded, nil
}

func findPython() (string, error) {
	var candidates []string

	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		candidates = append(candidates,
			filepath.Join(venv, "bin", "python3"),
			filepath.Join(venv, "bin", "python"),
			filepath.Join(venv, "Scripts", "python.exe"),
		)
	}

	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		for _, root := range []string{execDir, filepath.Dir(execDir)} {
			candidates = append(candidates,
				filepath.Join(root, "venv", "bin", "python3"),
				filepath.Join(root, ".venv", "bin", "python3"),
			)
		}
	}

	for _, name := range []string{"python3", "python", "python3.12", "python3.11", "python3.10"} {
		if path, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, path)
		}
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err != nil {
			continue
		}
		cmd := exec.Command(c, "-c", "import sys, pickle, sklearn; print('Python', sys.version)")
		if out, err := cmd.Output(); err == nil && strings.Contains(string(out), "Python 3") {
			log.Info().Str("python_path", c).Msg("using python interpreter")
			return c, nil
		}
	}

	return "", fmt.Errorf("no Python 3 interpreter with scikit-learn found")
}

func createInferenceScript(scriptPath string) error {
	script := `#!/usr/bin/env python3
"""
Score inference helper for student-predictor (embedded version).

Usage: score_inference.py <model.pkl> <scaler.pkl> <features.pkl>
Reads one JSON request from stdin and writes one JSON response to stdout.
"""
import json
import pickle
import sys


def load(path):
    with open(path, "rb") as f:
        return pickle.load(f)


def width(obj):
    return int(getattr(obj, "n_features_in_", 0))


def main():
    if len(sys.argv) != 4:
        print(json.dumps({"error": "usage: score_inference.py <model> <scaler> <features>"}))
        sys.exit(1)

    model_path, scaler_path, features_path = sys.argv[1:4]

    try:
        request = json.load(sys.stdin)
        model = load(model_path)
        scaler = load(scaler_path)
        columns = [str(c) for c in load(features_path)]

        if request.get("mode") == "schema":
            print(json.dumps({
                "features": columns,
                "scaler_width": width(scaler),
                "model_width": width(model),
            }))
            return

        row = [request["features"]]
        try:
            import pandas as pd
            row = pd.DataFrame(row, columns=columns)
        except ImportError:
            pass

        preds = model.predict(scaler.transform(row))[0]
        print(json.dumps({"predictions": [float(v) for v in preds]}))

    except Exception as e:
        print(json.dumps({"error": str(e)}))
        sys.exit(1)


if __name__ == "__main__":
    main()
`

	return os.WriteFile(scriptPath, []byte(script), 0o755)
}
