// Package ml applies an externally trained multi-output regression model to
// encoded student profiles. It loads the scaler, model and feature schema
// produced by the training pipeline, validates that their shapes agree, and
// turns a feature vector into math, reading and writing scores.
//
// Three backends share the Predictor interface: a native backend evaluating
// exported coefficients, a Python backend driving the pickled
// artifacts through a helper script, and a remote backend living in the
// client package.
package ml

import "context"

// Predictor scales an encoded feature vector and predicts the three scores.
type Predictor interface {
	// Predict returns the scores for one vector aligned with the schema.
	Predict(ctx context.Context, features []float64) (Scores, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}
