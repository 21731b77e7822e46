package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"student-predictor/internal/cfg"
	"student-predictor/internal/client"
	"student-predictor/internal/common"
	"student-predictor/internal/dashboard"
	"student-predictor/internal/dataset"
	"student-predictor/internal/features"
	"student-predictor/internal/metrics"
	"student-predictor/internal/ml"
	"student-predictor/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := cfg.LoadDotEnv(os.Getenv(common.EnvDotEnvFile)); err != nil {
		log.Fatal().Err(err).Msg("dotenv load failed")
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	artifacts, err := loadBackend(c, mw)
	if err != nil {
		log.Fatal().Err(err).Str("backend", c.Backend).Msg("model load failed")
	}

	enc, err := features.NewEncoder(artifacts.Schema,
		features.WithBaselines(c.Baselines),
		features.WithStrictBaselines(c.StrictBaselines),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("feature encoder rejected the schema")
	}

	opts := []ml.ServiceOption{ml.WithMetrics(mw), ml.WithMetadata(artifacts.Metadata)}
	store := initializeStorage(c, mw)
	if store != nil {
		defer store.Close()
		opts = append(opts, ml.WithHistory(store))
	}

	svc, err := ml.NewService(enc, artifacts.Predictor, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("prediction service init failed")
	}

	data := loadDataset(c)

	srvOpts := []dashboard.Option{dashboard.WithDataset(data), dashboard.WithMetrics(mw)}
	if store != nil {
		srvOpts = append(srvOpts, dashboard.WithHistory(store))
	}
	srv := dashboard.NewServer(dashboard.Config{
		Port:          c.Port,
		PreviewRows:   c.PreviewRows,
		HistogramBins: common.DefaultHistogramBins,
		Gatherer:      prometheus.DefaultGatherer,
	}, svc, srvOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("dashboard server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, cancel, srv)
}

func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// loadBackend loads local artifacts, or for the remote backend asks the
// remote scorer for its schema.
func loadBackend(c cfg.Settings, mw *metrics.Wrapper) (*ml.Artifacts, error) {
	if c.Backend != common.BackendRemote {
		return ml.LoadArtifacts(ml.ArtifactConfig{
			Backend:    c.Backend,
			SchemaPath: c.SchemaPath,
			ScalerPath: c.ScalerPath,
			ModelPath:  c.ModelPath,
			PythonPath: c.PythonPath,
			Timeout:    c.PredictTimeout,
		}, mw)
	}

	rc := client.New(c.RemoteURL, c.PredictTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), c.PredictTimeout)
	defer cancel()

	schema, err := rc.Schema(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Str("remote_url", c.RemoteURL).Int("columns", schema.Len()).Msg("remote scorer schema loaded")

	return &ml.Artifacts{
		Predictor: client.NewVectorPredictor(rc, schema.Len()),
		Schema:    schema,
		Metadata:  ml.ModelMetadata{Version: "remote", Backend: common.BackendRemote, Targets: ml.Targets, LoadedAt: time.Now()},
	}, nil
}

// initializeStorage opens the prediction history if DATA_PATH is configured
func initializeStorage(c cfg.Settings, mw *metrics.Wrapper) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without history")
		return nil
	}
	store.SetObserver(mw)
	return store
}

// loadDataset loads the exploration dataset. A missing dataset only disables
// the Data and Graphs pages unless it is required.
func loadDataset(c cfg.Settings) *dataset.Dataset {
	if c.DatasetPath == "" {
		return nil
	}
	data, err := dataset.Load(c.DatasetPath)
	if err != nil {
		if c.DatasetRequired {
			log.Fatal().Err(err).Str("path", c.DatasetPath).Msg("dataset load failed")
		}
		log.Warn().Err(err).Str("path", c.DatasetPath).Msg("dataset unavailable, exploration pages disabled")
		return nil
	}
	return data
}

// waitForShutdown waits for shutdown signals and drains the server
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, srv *dashboard.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
		return
	}
	log.Info().Msg("server stopped")
}
