package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"student-predictor/internal/features"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Port != 8501 {
					t.Errorf("expected default port 8501, got %d", settings.Port)
				}
				if settings.Backend != "native" {
					t.Errorf("expected native backend, got %s", settings.Backend)
				}
				if settings.SchemaPath != "models/features.json" {
					t.Errorf("expected default schema path, got %s", settings.SchemaPath)
				}
				if settings.PredictTimeout != 5*time.Second {
					t.Errorf("expected default timeout 5s, got %v", settings.PredictTimeout)
				}
				if settings.PreviewRows != 10 {
					t.Errorf("expected 10 preview rows, got %d", settings.PreviewRows)
				}
				if settings.DataPath != "" {
					t.Errorf("expected history disabled by default, got %s", settings.DataPath)
				}
				if settings.Baselines[features.RaceEthnicity] != "group A" {
					t.Errorf("expected default race baseline, got %v", settings.Baselines)
				}
				if settings.StrictBaselines {
					t.Error("expected lenient baselines by default")
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"PORT":             "9000",
				"MODEL_BACKEND":    "python",
				"SCHEMA_PATH":      "artifacts/features.pkl",
				"SCALER_PATH":      "artifacts/scaler.pkl",
				"MODEL_PATH":       "artifacts/model_multi.pkl",
				"PYTHON_PATH":      "/usr/bin/python3",
				"PREDICT_TIMEOUT":  "10s",
				"DATA_PATH":        "/var/lib/scorer",
				"PREVIEW_ROWS":     "25",
				"STRICT_BASELINES": "true",
				"DATASET_REQUIRED": "true",
				"LOG_LEVEL":        "debug",
				"LOG_PRETTY":       "true",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Port != 9000 {
					t.Errorf("expected port 9000, got %d", settings.Port)
				}
				if settings.Backend != "python" {
					t.Errorf("expected python backend, got %s", settings.Backend)
				}
				if settings.ModelPath != "artifacts/model_multi.pkl" {
					t.Errorf("unexpected model path %s", settings.ModelPath)
				}
				if settings.PythonPath != "/usr/bin/python3" {
					t.Errorf("unexpected python path %s", settings.PythonPath)
				}
				if settings.PredictTimeout != 10*time.Second {
					t.Errorf("expected timeout 10s, got %v", settings.PredictTimeout)
				}
				if settings.PreviewRows != 25 {
					t.Errorf("expected 25 preview rows, got %d", settings.PreviewRows)
				}
				if !settings.StrictBaselines || !settings.DatasetRequired || !settings.LogPretty {
					t.Errorf("expected boolean overrides to apply: %+v", settings)
				}
			},
		},
		{
			name: "remote backend",
			envVars: map[string]string{
				"MODEL_BACKEND": "remote",
				"REMOTE_URL":    "http://scorer:8501",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.RemoteURL != "http://scorer:8501" {
					t.Errorf("unexpected remote URL %s", settings.RemoteURL)
				}
			},
		},
		{
			name:    "remote backend without URL",
			envVars: map[string]string{"MODEL_BACKEND": "remote"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			envVars: map[string]string{"MODEL_BACKEND": "onnx"},
			wantErr: true,
		},
		{
			name:    "port out of range",
			envVars: map[string]string{"PORT": "80"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name       string
		yamlConfig string
		envVars    map[string]string
		wantErr    bool
		validate   func(t *testing.T, settings Settings)
	}{
		{
			name: "full config",
			yamlConfig: `
server:
  port: 8600
model:
  backend: native
  schemaPath: "m/features.json"
  scalerPath: "m/scaler.json"
  modelPath: "m/model.json"
  predictTimeout: "3s"
encoding:
  baselines:
    parental level of education: "some high school"
  strictBaselines: true
dataset:
  path: "d/students.csv"
  previewRows: 15
system:
  dataPath: "/tmp/history"
  logLevel: "warn"
`,
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Port != 8600 {
					t.Errorf("expected port 8600, got %d", settings.Port)
				}
				if settings.SchemaPath != "m/features.json" {
					t.Errorf("unexpected schema path %s", settings.SchemaPath)
				}
				if settings.PredictTimeout != 3*time.Second {
					t.Errorf("expected timeout 3s, got %v", settings.PredictTimeout)
				}
				if got := settings.Baselines[features.ParentalEducation]; got != "some high school" {
					t.Errorf("expected overridden parental baseline, got %q", got)
				}
				if got := settings.Baselines[features.RaceEthnicity]; got != "group A" {
					t.Errorf("expected default race baseline to survive, got %q", got)
				}
				if !settings.StrictBaselines {
					t.Error("expected strict baselines")
				}
				if settings.DatasetPath != "d/students.csv" || settings.PreviewRows != 15 {
					t.Errorf("unexpected dataset settings %s %d", settings.DatasetPath, settings.PreviewRows)
				}
				if settings.DataPath != "/tmp/history" || settings.LogLevel != "warn" {
					t.Errorf("unexpected system settings %s %s", settings.DataPath, settings.LogLevel)
				}
			},
		},
		{
			name:       "minimal config uses defaults",
			yamlConfig: "server:\n  port: 8502\n",
			wantErr:    false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Backend != "native" {
					t.Errorf("expected native backend, got %s", settings.Backend)
				}
				if settings.PredictTimeout != 5*time.Second {
					t.Errorf("expected default timeout, got %v", settings.PredictTimeout)
				}
				if settings.PreviewRows != 10 {
					t.Errorf("expected default preview rows, got %d", settings.PreviewRows)
				}
			},
		},
		{
			name:       "environment overrides config",
			yamlConfig: "server:\n  port: 8600\nmodel:\n  backend: native\n",
			envVars: map[string]string{
				"PORT":          "8700",
				"MODEL_BACKEND": "remote",
				"REMOTE_URL":    "https://scores.example.com",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.Port != 8700 {
					t.Errorf("expected env port 8700, got %d", settings.Port)
				}
				if settings.Backend != "remote" {
					t.Errorf("expected env backend, got %s", settings.Backend)
				}
			},
		},
		{
			name:       "baseline for unknown field",
			yamlConfig: "encoding:\n  baselines:\n    age: \"12\"\n",
			wantErr:    true,
		},
		{
			name:       "baseline outside domain",
			yamlConfig: "encoding:\n  baselines:\n    race/ethnicity: \"group Z\"\n",
			wantErr:    true,
		},
		{
			name:       "unparsable predict timeout",
			yamlConfig: "model:\n  predictTimeout: \"5 seconds\"\n",
			wantErr:    true,
		},
		{
			name:       "invalid YAML",
			yamlConfig: "server: [port",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yamlConfig), 0o644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			settings, err := loadFromYAML(configPath)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("uses CONFIG_FILE when set", func(t *testing.T) {
		clearTestEnv(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(configPath, []byte("server:\n  port: 8999\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CONFIG_FILE", configPath)

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.Port != 8999 {
			t.Errorf("expected port from file, got %d", settings.Port)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

		if _, err := Load(); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("falls back to environment", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("PORT", "8123")

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.Port != 8123 {
			t.Errorf("expected port 8123, got %d", settings.Port)
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearTestEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PORT=8765\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Already set variables win over the file.
	t.Setenv("LOG_LEVEL", "warn")
	// Registers cleanup for the variable the file introduces.
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("PORT"); got != "8765" {
		t.Errorf("expected PORT from .env, got %q", got)
	}
	if got := os.Getenv("LOG_LEVEL"); got != "warn" {
		t.Errorf("expected existing LOG_LEVEL to be kept, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
		t.Errorf("missing .env must not be an error, got %v", err)
	}
}

// clearTestEnv clears potentially conflicting environment variables
func clearTestEnv(t *testing.T) {
	envVars := []string{
		"CONFIG_FILE", "PORT", "MODEL_BACKEND", "SCHEMA_PATH", "SCALER_PATH",
		"MODEL_PATH", "PYTHON_PATH", "REMOTE_URL", "PREDICT_TIMEOUT", "DATASET_PATH",
		"DATASET_REQUIRED", "DATA_PATH", "PREVIEW_ROWS", "STRICT_BASELINES",
		"LOG_LEVEL", "LOG_PRETTY",
	}

	for _, env := range envVars {
		if val := os.Getenv(env); val != "" {
			t.Setenv(env, "")
		}
	}
}
