package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ModelMetadata describes the trained model, as written by the training pipeline.
type ModelMetadata struct {
	Version      string    `json:"version"`
	Algorithm    string    `json:"algorithm"`
	TrainedAt    time.Time `json:"trained_at"`
	Targets      []string  `json:"targets"`
	Features     []string  `json:"features,omitempty"`
	TrainingRows int       `json:"training_rows"`
	R2           float64   `json:"r2"`
	MAE          float64   `json:"mae"`
	Backend      string    `json:"backend"`
	ModelPath    string    `json:"model_path"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// LoadMetadata reads model_metadata.json next to the model, falling back to
// the newest model_metadata_*.json. Missing metadata yields defaults built
// from the model file itself.
func LoadMetadata(modelPath, backend string) ModelMetadata {
	md, err := loadModelMetadata(modelPath)
	if err != nil {
		md = &ModelMetadata{
			Version:   "unknown",
			Algorithm: "multi-target linear regression",
			Targets:   Targets,
		}
		if info, statErr := os.Stat(modelPath); statErr == nil {
			md.TrainedAt = info.ModTime()
		}
	}
	md.Backend = backend
	md.ModelPath = modelPath
	md.LoadedAt = time.Now()
	if len(md.Targets) == 0 {
		md.Targets = Targets
	}
	return *md
}

// Age is the time since training, or zero when unknown.
func (m ModelMetadata) Age() time.Duration {
	if m.TrainedAt.IsZero() {
		return 0
	}
	return time.Since(m.TrainedAt)
}

func loadModelMetadata(modelPath string) (*ModelMetadata, error) {
	dir := filepath.Dir(modelPath)
	primary := filepath.Join(dir, "model_metadata.json")

	if md, err := decodeMetadata(primary); err == nil {
		return md, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "model_metadata_*.json"))
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no metadata files found in %s", dir)
	}
	sort.Strings(matches)
	return decodeMetadata(matches[len(matches)-1])
}

func decodeMetadata(path string) (*ModelMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var md ModelMetadata
	if err := json.NewDecoder(file).Decode(&md); err != nil {
		return nil, err
	}
	return &md, nil
}
