package ml

import (
	"fmt"
	"math"
)

// Targets are the model outputs in the order the model emits them.
var Targets = []string{"math score", "reading score", "writing score"}

// Scores is one predicted exam result.
type Scores struct {
	Math    float64 `json:"math"`
	Reading float64 `json:"reading"`
	Writing float64 `json:"writing"`
}

// ScoresFrom maps a raw model output row onto Scores.
func ScoresFrom(values []float64) (Scores, error) {
	if len(values) != len(Targets) {
		return Scores{}, fmt.Errorf("expected %d predicted values, got %d", len(Targets), len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Scores{}, fmt.Errorf("predicted %s is not finite: %v", Targets[i], v)
		}
	}
	return Scores{Math: values[0], Reading: values[1], Writing: values[2]}, nil
}

// Values returns the scores in target order.
func (s Scores) Values() []float64 {
	return []float64{s.Math, s.Reading, s.Writing}
}

// Average is the arithmetic mean of the three scores.
func (s Scores) Average() float64 {
	return (s.Math + s.Reading + s.Writing) / 3
}

// Progress is the average truncated to a whole percentage in [0, 100].
func (s Scores) Progress() int {
	avg := s.Average()
	switch {
	case avg <= 0:
		return 0
	case avg >= 100:
		return 100
	}
	return int(avg)
}
