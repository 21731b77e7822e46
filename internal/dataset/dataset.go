// Package dataset loads the students CSV behind the exploration pages and
// computes the tables shown there: a preview, numeric summaries, category
// counts and score histograms.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"student-predictor/internal/features"

	"github.com/rs/zerolog/log"
)

// Column names of the students dataset.
const (
	ColGender            = "gender"
	ColRaceEthnicity     = "race/ethnicity"
	ColParentalEducation = "parental level of education"
	ColLunch             = "lunch"
	ColTestPreparation   = "test preparation course"
	ColMath              = "math score"
	ColReading           = "reading score"
	ColWriting           = "writing score"
)

// CategoricalColumns are the profile attributes, in file order.
var CategoricalColumns = []string{
	ColGender, ColRaceEthnicity, ColParentalEducation, ColLunch, ColTestPreparation,
}

// NumericColumns are the exam scores, in file order.
var NumericColumns = []string{ColMath, ColReading, ColWriting}

// ErrUnknownColumn is returned for a column the dataset does not carry.
var ErrUnknownColumn = errors.New("unknown column")

// Row is one student record.
type Row struct {
	Gender            string  `json:"gender"`
	RaceEthnicity     string  `json:"race/ethnicity"`
	ParentalEducation string  `json:"parental level of education"`
	Lunch             string  `json:"lunch"`
	TestPreparation   string  `json:"test preparation course"`
	Math              float64 `json:"math score"`
	Reading           float64 `json:"reading score"`
	Writing           float64 `json:"writing score"`
}

// Profile returns the row's categorical attributes as a profile.
func (r Row) Profile() features.Profile {
	return features.Profile{
		Gender:            r.Gender,
		RaceEthnicity:     r.RaceEthnicity,
		ParentalEducation: r.ParentalEducation,
		Lunch:             r.Lunch,
		TestPreparation:   r.TestPreparation,
	}
}

// Category returns the value of a categorical column.
func (r Row) Category(col string) (string, bool) {
	switch col {
	case ColGender:
		return r.Gender, true
	case ColRaceEthnicity:
		return r.RaceEthnicity, true
	case ColParentalEducation:
		return r.ParentalEducation, true
	case ColLunch:
		return r.Lunch, true
	case ColTestPreparation:
		return r.TestPreparation, true
	}
	return "", false
}

// Score returns the value of a numeric column.
func (r Row) Score(col string) (float64, bool) {
	switch col {
	case ColMath:
		return r.Math, true
	case ColReading:
		return r.Reading, true
	case ColWriting:
		return r.Writing, true
	}
	return 0, false
}

// Dataset is an immutable in-memory copy of the CSV.
type Dataset struct {
	Path    string
	Rows    []Row
	Skipped int
}

// Load reads the CSV at path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	ds.Path = path

	log.Info().
		Str("path", path).
		Int("rows", len(ds.Rows)).
		Int("skipped", ds.Skipped).
		Msg("dataset loaded")

	return ds, nil
}

// Parse reads a CSV with a header row. Columns may appear in any order and
// extra columns are ignored. Rows with the wrong arity or a non-numeric score
// are skipped and counted.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range append(append([]string(nil), CategoricalColumns...), NumericColumns...) {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("%w: header lacks %q", ErrUnknownColumn, col)
		}
	}

	ds := &Dataset{}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(rec) != len(header) {
			ds.Skipped++
			continue
		}

		row, ok := parseRow(rec, pos)
		if !ok {
			ds.Skipped++
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func parseRow(rec []string, pos map[string]int) (Row, bool) {
	get := func(col string) string { return strings.TrimSpace(rec[pos[col]]) }

	var scores [3]float64
	for i, col := range NumericColumns {
		v, err := strconv.ParseFloat(get(col), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Row{}, false
		}
		scores[i] = v
	}

	return Row{
		Gender:            get(ColGender),
		RaceEthnicity:     get(ColRaceEthnicity),
		ParentalEducation: get(ColParentalEducation),
		Lunch:             get(ColLunch),
		TestPreparation:   get(ColTestPreparation),
		Math:              scores[0],
		Reading:           scores[1],
		Writing:           scores[2],
	}, true
}

// Columns lists the dataset columns in file order.
func (d *Dataset) Columns() []string {
	return append(append([]string(nil), CategoricalColumns...), NumericColumns...)
}

// Len is the number of rows, zero for a nil dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Shape returns rows and columns.
func (d *Dataset) Shape() (int, int) {
	return d.Len(), len(CategoricalColumns) + len(NumericColumns)
}

// Preview returns the first n rows.
func (d *Dataset) Preview(n int) []Row {
	if n <= 0 || d.Len() == 0 {
		return nil
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return append([]Row(nil), d.Rows[:n]...)
}

// Scores returns one numeric column.
func (d *Dataset) Scores(col string) ([]float64, error) {
	if _, ok := (Row{}).Score(col); !ok {
		return nil, fmt.Errorf("%w: %q is not numeric", ErrUnknownColumn, col)
	}
	out := make([]float64, 0, d.Len())
	if d == nil {
		return out, nil
	}
	for _, r := range d.Rows {
		v, _ := r.Score(col)
		out = append(out, v)
	}
	return out, nil
}
