package cfg

import (
	"strings"
	"testing"
	"time"

	"student-predictor/internal/features"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		Port:           8501,
		Backend:        "native",
		SchemaPath:     "models/features.json",
		ScalerPath:     "models/scaler.json",
		ModelPath:      "models/model.json",
		PredictTimeout: 5 * time.Second,
		DatasetPath:    "data/StudentsPerformance.csv",
		PreviewRows:    10,
		Baselines:      features.DefaultBaselines(),
		LogLevel:       "info",
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	if err := validateSettings(settings); err != nil {
		t.Errorf("Expected valid config to pass, got error: %v", err)
	}
}

func TestValidateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Settings)
		errMsg string
	}{
		{"port too low", func(s *Settings) { s.Port = 80 }, "port must be between"},
		{"port too high", func(s *Settings) { s.Port = 70000 }, "port must be between"},
		{"unknown backend", func(s *Settings) { s.Backend = "onnx" }, "model backend must be one of"},
		{"empty schema path", func(s *Settings) { s.SchemaPath = "" }, "schema path cannot be empty"},
		{"empty scaler path", func(s *Settings) { s.Backend = "python"; s.ScalerPath = " " }, "scaler path cannot be empty"},
		{"remote without URL", func(s *Settings) { s.Backend = "remote" }, "remote URL is required"},
		{"remote with relative URL", func(s *Settings) { s.Backend = "remote"; s.RemoteURL = "scorer:8501" }, "absolute http(s) URL"},
		{"timeout too short", func(s *Settings) { s.PredictTimeout = 100 * time.Millisecond }, "predict timeout must be between"},
		{"timeout too long", func(s *Settings) { s.PredictTimeout = 2 * time.Minute }, "predict timeout must be between"},
		{"no preview rows", func(s *Settings) { s.PreviewRows = 0 }, "preview rows must be between"},
		{"too many preview rows", func(s *Settings) { s.PreviewRows = 5000 }, "preview rows must be between"},
		{"required dataset without path", func(s *Settings) { s.DatasetRequired = true; s.DatasetPath = "" }, "dataset path is required"},
		{"baseline on binary field", func(s *Settings) { s.Baselines[features.Gender] = "female" }, "not a one-hot field"},
		{"baseline outside domain", func(s *Settings) { s.Baselines[features.TestPreparation] = "partial" }, "is not a level of"},
		{"unknown log level", func(s *Settings) { s.LogLevel = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.modify(settings)

			err := validateSettings(settings)
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateSettings_BoundaryValues(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Settings)
	}{
		{"min port", func(s *Settings) { s.Port = 1024 }},
		{"max port", func(s *Settings) { s.Port = 65535 }},
		{"min timeout", func(s *Settings) { s.PredictTimeout = time.Second }},
		{"max timeout", func(s *Settings) { s.PredictTimeout = time.Minute }},
		{"one preview row", func(s *Settings) { s.PreviewRows = 1 }},
		{"max preview rows", func(s *Settings) { s.PreviewRows = 1000 }},
		{"remote https", func(s *Settings) { s.Backend = "remote"; s.RemoteURL = "https://scores.example.com" }},
		{"no baselines", func(s *Settings) { s.Baselines = nil }},
		{"upper-case log level", func(s *Settings) { s.LogLevel = "DEBUG" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.modify(settings)

			if err := validateSettings(settings); err != nil {
				t.Errorf("Expected boundary value to pass, got error: %v", err)
			}
		})
	}
}
