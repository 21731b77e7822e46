// Package client talks to a running scorer over its JSON API. It backs the
// remote prediction backend and the predict command.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"student-predictor/internal/features"
	"student-predictor/internal/ml"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	base string
	rest *resty.Client
}

// New builds a client for the scorer at base, e.g. http://localhost:8501.
func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second)
	}
	r.SetHeader("Accept", "application/json")
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

type apiError struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

type vectorRequest struct {
	Features []float64 `json:"features"`
}

type vectorResponse struct {
	Scores  ml.Scores `json:"scores"`
	Average float64   `json:"average"`
	Backend string    `json:"backend"`
}

// Health is the scorer's /health document.
type Health struct {
	Service        ml.HealthStatus `json:"service"`
	DatasetRows    int             `json:"dataset_rows"`
	HistoryEnabled bool            `json:"history_enabled"`
}

// PredictProfile asks the scorer to encode and predict p.
func (c *Client) PredictProfile(ctx context.Context, p features.Profile) (ml.Prediction, error) {
	var pred ml.Prediction
	apiErr := &apiError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(p).
		SetResult(&pred).
		SetError(apiErr).
		Post(c.base + "/api/v1/predict")
	if err := check(resp, err, apiErr, features.ErrInvalidProfile); err != nil {
		return ml.Prediction{}, err
	}
	return pred, nil
}

// PredictVector sends an encoded vector for scoring.
func (c *Client) PredictVector(ctx context.Context, x []float64) (ml.Scores, error) {
	var out vectorResponse
	apiErr := &apiError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(vectorRequest{Features: x}).
		SetResult(&out).
		SetError(apiErr).
		Post(c.base + "/api/v1/vector")
	if err := check(resp, err, apiErr, features.ErrSchemaMismatch); err != nil {
		return ml.Scores{}, err
	}
	return out.Scores, nil
}

// Schema fetches the column layout the remote model was trained on.
func (c *Client) Schema(ctx context.Context) (*features.Schema, error) {
	var out struct {
		Features []string `json:"features"`
	}
	apiErr := &apiError{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(apiErr).
		Get(c.base + "/api/v1/schema")
	if err := check(resp, err, apiErr, features.ErrSchemaMismatch); err != nil {
		return nil, err
	}
	return features.NewSchema(out.Features)
}

// Health returns the scorer's health. An unhealthy scorer answers 503 but
// still reports its state, so that body is decoded too.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&h).
		SetError(&h).
		Get(c.base + "/health")
	if err != nil {
		return Health{}, fmt.Errorf("%w: %v", ml.ErrBackendUnavailable, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusServiceUnavailable:
		return h, nil
	}
	return Health{}, fmt.Errorf("health: status %d, body: %s", resp.StatusCode(), resp.String())
}

// check turns a transport failure or an error status into an error.
// Client errors wrap badRequest; unreachable or overloaded scorers wrap
// ml.ErrBackendUnavailable.
func check(resp *resty.Response, err error, apiErr *apiError, badRequest error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", ml.ErrBackendUnavailable, err)
	}
	if !resp.IsError() {
		return nil
	}

	msg := apiErr.Error
	if msg == "" {
		msg = resp.String()
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", badRequest, msg)
	case code == http.StatusServiceUnavailable, code == http.StatusBadGateway, code == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d: %s", ml.ErrBackendUnavailable, code, msg)
	default:
		return fmt.Errorf("API error: status %d: %s", code, msg)
	}
}
