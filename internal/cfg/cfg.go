package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"student-predictor/internal/common"
	"student-predictor/internal/features"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Port            int
	Backend         string
	SchemaPath      string
	ScalerPath      string
	ModelPath       string
	PythonPath      string
	RemoteURL       string
	PredictTimeout  time.Duration
	DatasetPath     string
	DatasetRequired bool
	DataPath        string
	PreviewRows     int
	Baselines       map[features.Field]string
	StrictBaselines bool
	LogLevel        string
	LogPretty       bool
}

type ConfigFile struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Model struct {
		Backend        string `yaml:"backend"`
		SchemaPath     string `yaml:"schemaPath"`
		ScalerPath     string `yaml:"scalerPath"`
		ModelPath      string `yaml:"modelPath"`
		PythonPath     string `yaml:"pythonPath"`
		RemoteURL      string `yaml:"remoteURL"`
		PredictTimeout string `yaml:"predictTimeout"`
	} `yaml:"model"`

	Encoding struct {
		Baselines       map[string]string `yaml:"baselines"`
		StrictBaselines bool              `yaml:"strictBaselines"`
	} `yaml:"encoding"`

	Dataset struct {
		Path        string `yaml:"path"`
		Required    bool   `yaml:"required"`
		PreviewRows int    `yaml:"previewRows"`
	} `yaml:"dataset"`

	System struct {
		DataPath  string `yaml:"dataPath"`
		LogLevel  string `yaml:"logLevel"`
		LogPretty bool   `yaml:"logPretty"`
	} `yaml:"system"`
}

// LoadDotEnv loads KEY=VALUE pairs from path (".env" when empty) into the
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	timeout := common.DefaultPredictTimeout
	if raw := config.Model.PredictTimeout; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid model.predictTimeout %q: %w", raw, err)
		}
		timeout = d
	}

	baselines, err := parseBaselines(config.Encoding.Baselines)
	if err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	settings := Settings{
		Port:            getIntFromEnvOrConfig(common.EnvPort, config.Server.Port, common.DefaultPort),
		Backend:         getEnvOrDefault(common.EnvModelBackend, orDefault(config.Model.Backend, common.DefaultModelBackend)),
		SchemaPath:      getEnvOrDefault(common.EnvSchemaPath, orDefault(config.Model.SchemaPath, common.DefaultSchemaPath)),
		ScalerPath:      getEnvOrDefault(common.EnvScalerPath, orDefault(config.Model.ScalerPath, common.DefaultScalerPath)),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.ModelPath, common.DefaultModelPath)),
		PythonPath:      getEnvOrDefault(common.EnvPythonPath, config.Model.PythonPath),
		RemoteURL:       getEnvOrDefault(common.EnvRemoteURL, config.Model.RemoteURL),
		PredictTimeout:  getDurationOrDefault(common.EnvPredictTimeout, timeout),
		DatasetPath:     getEnvOrDefault(common.EnvDatasetPath, orDefault(config.Dataset.Path, common.DefaultDatasetPath)),
		DatasetRequired: getBoolFromEnvOrConfig(common.EnvDatasetRequired, config.Dataset.Required),
		DataPath:        getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		PreviewRows:     getIntFromEnvOrConfig(common.EnvPreviewRows, config.Dataset.PreviewRows, common.DefaultPreviewRows),
		Baselines:       baselines,
		StrictBaselines: getBoolFromEnvOrConfig(common.EnvStrictBaselines, config.Encoding.StrictBaselines),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
		LogPretty:       getBoolFromEnvOrConfig(common.EnvLogPretty, config.System.LogPretty),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Port:            getIntOrDefault(common.EnvPort, common.DefaultPort),
		Backend:         getEnvOrDefault(common.EnvModelBackend, common.DefaultModelBackend),
		SchemaPath:      getEnvOrDefault(common.EnvSchemaPath, common.DefaultSchemaPath),
		ScalerPath:      getEnvOrDefault(common.EnvScalerPath, common.DefaultScalerPath),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		PythonPath:      os.Getenv(common.EnvPythonPath), // discovered when empty
		RemoteURL:       os.Getenv(common.EnvRemoteURL),
		PredictTimeout:  getDurationOrDefault(common.EnvPredictTimeout, common.DefaultPredictTimeout),
		DatasetPath:     getEnvOrDefault(common.EnvDatasetPath, common.DefaultDatasetPath),
		DatasetRequired: getBoolOrDefault(common.EnvDatasetRequired, false),
		DataPath:        os.Getenv(common.EnvDataPath), // optional
		PreviewRows:     getIntOrDefault(common.EnvPreviewRows, common.DefaultPreviewRows),
		Baselines:       features.DefaultBaselines(),
		StrictBaselines: getBoolOrDefault(common.EnvStrictBaselines, false),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogPretty:       getBoolOrDefault(common.EnvLogPretty, false),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// parseBaselines merges configured baselines over the defaults. Keys may be
// field names or schema prefixes.
func parseBaselines(raw map[string]string) (map[features.Field]string, error) {
	out := features.DefaultBaselines()
	for k, v := range raw {
		f, ok := features.ParseField(k)
		if !ok {
			return nil, fmt.Errorf("baseline for unknown field %q", k)
		}
		out[f] = v
	}
	return out, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}

	switch settings.Backend {
	case common.BackendNative, common.BackendPython:
		for name, path := range map[string]string{
			"schema": settings.SchemaPath,
			"scaler": settings.ScalerPath,
			"model":  settings.ModelPath,
		} {
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("%s path cannot be empty for the %s backend", name, settings.Backend)
			}
		}
	case common.BackendRemote:
		if settings.RemoteURL == "" {
			return fmt.Errorf("remote URL is required for the remote backend")
		}
		u, err := url.Parse(settings.RemoteURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("remote URL must be an absolute http(s) URL, got %q", settings.RemoteURL)
		}
	default:
		return fmt.Errorf("model backend must be one of %s, %s, %s, got %q",
			common.BackendNative, common.BackendPython, common.BackendRemote, settings.Backend)
	}

	if settings.PredictTimeout < common.MinPredictTimeout || settings.PredictTimeout > common.MaxPredictTimeout {
		return fmt.Errorf("predict timeout must be between %v and %v, got %v",
			common.MinPredictTimeout, common.MaxPredictTimeout, settings.PredictTimeout)
	}

	if settings.PreviewRows < 1 || settings.PreviewRows > common.MaxPreviewRows {
		return fmt.Errorf("preview rows must be between 1 and %d, got %d", common.MaxPreviewRows, settings.PreviewRows)
	}

	if settings.DatasetRequired && settings.DatasetPath == "" {
		return fmt.Errorf("dataset path is required when the dataset is required")
	}

	for f, v := range settings.Baselines {
		if kind, ok := features.KindOf(f); !ok || kind != features.OneHot {
			return fmt.Errorf("baseline declared for %q, which is not a one-hot field", f)
		}
		if !features.InDomain(f, v) {
			return fmt.Errorf("baseline %q is not a level of %s", v, f)
		}
	}

	switch strings.ToLower(settings.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("log level %q is not recognised", settings.LogLevel)
	}

	return nil
}
