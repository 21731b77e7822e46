package dataset

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary mirrors one column of a pandas describe() table.
type Summary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"25%"`
	P50    float64 `json:"50%"`
	P75    float64 `json:"75%"`
	Max    float64 `json:"max"`
}

// CategoryCount is one entry of a value_counts() listing.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Bin is one histogram bucket covering [Lower, Upper), the last one closed.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Describe summarises every numeric column. Std is the sample standard
// deviation (zero below two rows) and percentiles interpolate linearly
// between closest ranks.
func (d *Dataset) Describe() []Summary {
	out := make([]Summary, 0, len(NumericColumns))
	for _, col := range NumericColumns {
		xs, _ := d.Scores(col)
		s := Summary{Column: col, Count: len(xs)}
		// Empty columns report zeros rather than NaN so the table stays JSON-encodable.
		if len(xs) == 0 {
			out = append(out, s)
			continue
		}

		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)

		s.Mean = stat.Mean(sorted, nil)
		if len(sorted) > 1 {
			s.Std = stat.StdDev(sorted, nil)
		}
		s.Min = floats.Min(sorted)
		s.Max = floats.Max(sorted)
		s.P25 = percentile(sorted, 0.25)
		s.P50 = percentile(sorted, 0.50)
		s.P75 = percentile(sorted, 0.75)
		out = append(out, s)
	}
	return out
}

// percentile expects sorted input.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// CategoryCounts counts the levels of every categorical column, most frequent
// first and ties broken alphabetically.
func (d *Dataset) CategoryCounts() map[string][]CategoryCount {
	out := make(map[string][]CategoryCount, len(CategoricalColumns))
	for _, col := range CategoricalColumns {
		counts := map[string]int{}
		if d != nil {
			for _, r := range d.Rows {
				v, _ := r.Category(col)
				counts[v]++
			}
		}

		list := make([]CategoryCount, 0, len(counts))
		for v, n := range counts {
			list = append(list, CategoryCount{Value: v, Count: n})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count > list[j].Count
			}
			return list[i].Value < list[j].Value
		})
		out[col] = list
	}
	return out
}

// Histogram splits a numeric column into bins of equal width between its
// minimum and maximum. A constant column is centred in a unit-wide range.
func (d *Dataset) Histogram(col string, bins int) ([]Bin, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("bins must be positive, got %d", bins)
	}
	xs, err := d.Scores(col)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return []Bin{}, nil
	}

	lo, hi := floats.Min(xs), floats.Max(xs)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out, nil
}
