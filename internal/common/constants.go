package common

import "time"

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvDotEnvFile      = "DOTENV_FILE"
	EnvPort            = "PORT"
	EnvModelBackend    = "MODEL_BACKEND"
	EnvSchemaPath      = "SCHEMA_PATH"
	EnvScalerPath      = "SCALER_PATH"
	EnvModelPath       = "MODEL_PATH"
	EnvPythonPath      = "PYTHON_PATH"
	EnvRemoteURL       = "REMOTE_URL"
	EnvPredictTimeout  = "PREDICT_TIMEOUT"
	EnvDatasetPath     = "DATASET_PATH"
	EnvDatasetRequired = "DATASET_REQUIRED"
	EnvDataPath        = "DATA_PATH"
	EnvPreviewRows     = "PREVIEW_ROWS"
	EnvStrictBaselines = "STRICT_BASELINES"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogPretty       = "LOG_PRETTY"
)

// Model backends
const (
	BackendNative = "native"
	BackendPython = "python"
	BackendRemote = "remote"
)

// Configuration defaults
const (
	DefaultPort           = 8501
	DefaultModelBackend   = BackendNative
	DefaultSchemaPath     = "models/features.json"
	DefaultScalerPath     = "models/scaler.json"
	DefaultModelPath      = "models/model.json"
	DefaultDatasetPath    = "data/StudentsPerformance.csv"
	DefaultPreviewRows    = 10
	DefaultHistoryLimit   = 20
	DefaultHistogramBins  = 10
	DefaultLogLevel       = "info"
	DefaultPredictTimeout = 5 * time.Second
)

// Validation constants
const (
	MinPort           = 1024
	MaxPort           = 65535
	MaxPreviewRows    = 1000
	MaxHistoryRows    = 500
	MinPredictTimeout = time.Second
	MaxPredictTimeout = time.Minute
)
