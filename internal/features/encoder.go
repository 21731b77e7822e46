package features

import (
	"fmt"
	"strings"
)

// DefaultBaselines returns the reference level of every one-hot field as
// dropped by get_dummies(drop_first=True): the lexically first level.
func DefaultBaselines() map[Field]string {
	return map[Field]string{
		RaceEthnicity:     "group A",
		ParentalEducation: "associate's degree",
		TestPreparation:   "completed",
	}
}

// Encoding is the result of encoding one profile.
type Encoding struct {
	// Vector is aligned with the schema, one slot per column.
	Vector []float64
	// Baseline lists the one-hot fields whose value had no column and were
	// therefore encoded as all zeros.
	Baseline []Field
	// Unexpected is the subset of Baseline whose value is not the declared
	// reference level of the field.
	Unexpected []Field
}

// Issue describes a disagreement between the schema and the declared encoding.
type Issue struct {
	Field  Field  `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
	Column string `json:"column,omitempty"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	var b strings.Builder
	if i.Field != "" {
		fmt.Fprintf(&b, "%s", i.Field)
	}
	if i.Value != "" {
		fmt.Fprintf(&b, "=%q", i.Value)
	}
	if i.Column != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "column %q", i.Column)
	}
	fmt.Fprintf(&b, ": %s", i.Reason)
	return b.String()
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithBaselines overrides the declared reference level of one-hot fields.
// Fields not present in m keep their default.
func WithBaselines(m map[Field]string) EncoderOption {
	return func(e *Encoder) {
		for f, v := range m {
			e.baselines[f] = v
		}
	}
}

// WithStrictBaselines makes NewEncoder fail when Audit reports any issue.
func WithStrictBaselines(strict bool) EncoderOption {
	return func(e *Encoder) {
		e.strict = strict
	}
}

// Encoder maps profiles onto a fixed schema. It is immutable after
// construction and safe for concurrent use.
type Encoder struct {
	schema    *Schema
	columns   map[Field]map[string]int
	indicator map[Field]int
	baselines map[Field]string
	strict    bool
}

// NewEncoder resolves every (field, value) pair against the schema once.
func NewEncoder(schema *Schema, opts ...EncoderOption) (*Encoder, error) {
	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: encoder needs a non-empty schema", ErrSchemaMismatch)
	}

	e := &Encoder{
		schema:    schema,
		columns:   make(map[Field]map[string]int),
		indicator: make(map[Field]int),
		baselines: DefaultBaselines(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for f, v := range e.baselines {
		kind, ok := KindOf(f)
		if !ok || kind != OneHot {
			return nil, fmt.Errorf("baseline declared for %q, which is not a one-hot field", f)
		}
		if !InDomain(f, v) {
			return nil, fmt.Errorf("baseline %q is not a level of %s", v, f)
		}
	}

	for _, s := range fieldDefs {
		switch s.kind {
		case Binary:
			if idx, ok := schema.Index(s.column); ok {
				e.indicator[s.field] = idx
			}
		case OneHot:
			cols := make(map[string]int, len(s.domain))
			for _, v := range s.domain {
				if idx, ok := schema.Index(ColumnName(s.field, v)); ok {
					cols[v] = idx
				}
			}
			e.columns[s.field] = cols
		}
	}

	if e.strict {
		if issues := e.Audit(); len(issues) > 0 {
			msgs := make([]string, len(issues))
			for i, is := range issues {
				msgs[i] = is.String()
			}
			return nil, fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(msgs, "; "))
		}
	}

	return e, nil
}

// ColumnName is the schema column a field value is expected to occupy:
// the fixed indicator for binary fields, "<prefix>_<value>" for one-hot fields.
func ColumnName(f Field, value string) string {
	s, ok := defFor(f)
	if !ok {
		return ""
	}
	if s.kind == Binary {
		return s.column
	}
	return s.prefix + "_" + value
}

// Schema returns the schema the encoder was built for.
func (e *Encoder) Schema() *Schema { return e.schema }

// Baselines returns a copy of the declared reference levels.
func (e *Encoder) Baselines() map[Field]string {
	out := make(map[Field]string, len(e.baselines))
	for f, v := range e.baselines {
		out[f] = v
	}
	return out
}

// Column reports the schema position representing value of field f.
// For binary fields both levels share the indicator column.
func (e *Encoder) Column(f Field, value string) (int, bool) {
	kind, ok := KindOf(f)
	if !ok || !InDomain(f, value) {
		return 0, false
	}
	if kind == Binary {
		idx, ok := e.indicator[f]
		return idx, ok
	}
	idx, ok := e.columns[f][value]
	return idx, ok
}

// Audit lists the places where the schema disagrees with the declared
// encoding: levels without a column that are not the reference level,
// reference levels that do have a column, missing binary indicators, and
// schema columns no field writes to.
func (e *Encoder) Audit() []Issue {
	var issues []Issue
	used := make(map[int]bool)

	for _, s := range fieldDefs {
		switch s.kind {
		case Binary:
			idx, ok := e.indicator[s.field]
			if !ok {
				issues = append(issues, Issue{Field: s.field, Column: s.column, Reason: "indicator column missing from schema"})
				continue
			}
			used[idx] = true
		case OneHot:
			baseline := e.baselines[s.field]
			for _, v := range s.domain {
				idx, ok := e.columns[s.field][v]
				switch {
				case ok && v == baseline:
					used[idx] = true
					issues = append(issues, Issue{Field: s.field, Value: v, Column: ColumnName(s.field, v), Reason: "declared baseline has a column"})
				case ok:
					used[idx] = true
				case v != baseline:
					issues = append(issues, Issue{Field: s.field, Value: v, Column: ColumnName(s.field, v), Reason: "no column and not the declared baseline"})
				}
			}
		}
	}

	for i, name := range e.schema.names {
		if !used[i] {
			issues = append(issues, Issue{Column: name, Reason: "column is not produced by any field"})
		}
	}
	return issues
}

// Encode validates p and builds its feature vector in schema order.
// A one-hot level without a column is not an error: it is the reference
// level, encoded as all zeros and reported in Encoding.Baseline.
func (e *Encoder) Encode(p Profile) (Encoding, error) {
	if err := p.Validate(); err != nil {
		return Encoding{}, err
	}

	enc := Encoding{Vector: make([]float64, e.schema.Len())}
	for _, s := range fieldDefs {
		v := p.Value(s.field)
		switch s.kind {
		case Binary:
			if idx, ok := e.indicator[s.field]; ok && v == s.positive {
				enc.Vector[idx] = 1
			}
		case OneHot:
			if idx, ok := e.columns[s.field][v]; ok {
				enc.Vector[idx] = 1
				continue
			}
			enc.Baseline = append(enc.Baseline, s.field)
			if e.baselines[s.field] != v {
				enc.Unexpected = append(enc.Unexpected, s.field)
			}
		}
	}
	return enc, nil
}

// Encode is a convenience for a single encoding with default baselines.
func Encode(p Profile, schema *Schema) ([]float64, error) {
	e, err := NewEncoder(schema)
	if err != nil {
		return nil, err
	}
	enc, err := e.Encode(p)
	if err != nil {
		return nil, err
	}
	return enc.Vector, nil
}
