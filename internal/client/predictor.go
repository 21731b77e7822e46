package client

import (
	"context"

	"student-predictor/internal/ml"
)

// VectorPredictor scores vectors on another scorer. The remote side checks
// the width against its own schema.
type VectorPredictor struct {
	c     *Client
	width int
}

// NewVectorPredictor wraps c. width is the schema width fetched from the
// remote scorer.
func NewVectorPredictor(c *Client, width int) *VectorPredictor {
	return &VectorPredictor{c: c, width: width}
}

func (p *VectorPredictor) Name() string { return "remote" }

// Width is the number of inputs the remote model expects.
func (p *VectorPredictor) Width() int { return p.width }

func (p *VectorPredictor) Predict(ctx context.Context, x []float64) (ml.Scores, error) {
	return p.c.PredictVector(ctx, x)
}

var _ ml.Predictor = (*VectorPredictor)(nil)
