// Package features turns a student's categorical profile into the numeric
// feature vector a trained score model expects.
//
// The column layout is fixed by the training pipeline and supplied as a
// Schema. Binary attributes collapse to a single indicator column; the other
// attributes are one-hot encoded with their reference level dropped, so a
// category without a column is encoded as all zeros.
package features

import (
	"errors"
	"fmt"
)

// ErrInvalidProfile is returned when a profile value is outside its field's domain.
var ErrInvalidProfile = errors.New("invalid student profile")

// Field identifies one categorical attribute of a student.
type Field string

const (
	Gender            Field = "gender"
	RaceEthnicity     Field = "race/ethnicity"
	ParentalEducation Field = "parental education"
	Lunch             Field = "lunch type"
	TestPreparation   Field = "test preparation"
)

// Kind tells how a field maps onto schema columns.
type Kind int

const (
	// Binary fields own a single indicator column.
	Binary Kind = iota
	// OneHot fields own one column per non-reference level.
	OneHot
)

type fieldDef struct {
	field  Field
	prefix string
	kind   Kind
	domain []string
	// only set for Binary fields
	column   string
	positive string
}

// Ordered as the dataset columns.
var fieldDefs = []fieldDef{
	{
		field:    Gender,
		prefix:   "gender",
		kind:     Binary,
		domain:   []string{"male", "female"},
		column:   "gender_male",
		positive: "male",
	},
	{
		field:  RaceEthnicity,
		prefix: "race/ethnicity",
		kind:   OneHot,
		domain: []string{"group A", "group B", "group C", "group D", "group E"},
	},
	{
		field:  ParentalEducation,
		prefix: "parental level of education",
		kind:   OneHot,
		domain: []string{
			"some high school",
			"high school",
			"some college",
			"associate's degree",
			"bachelor's degree",
			"master's degree",
		},
	},
	{
		field:    Lunch,
		prefix:   "lunch",
		kind:     Binary,
		domain:   []string{"standard", "free/reduced"},
		column:   "lunch_standard",
		positive: "standard",
	},
	{
		field:  TestPreparation,
		prefix: "test preparation course",
		kind:   OneHot,
		domain: []string{"completed", "none"},
	},
}

func defFor(f Field) (fieldDef, bool) {
	for _, s := range fieldDefs {
		if s.field == f {
			return s, true
		}
	}
	return fieldDef{}, false
}

// Fields returns every profile field in canonical order.
func Fields() []Field {
	out := make([]Field, len(fieldDefs))
	for i, s := range fieldDefs {
		out[i] = s.field
	}
	return out
}

// Domain returns the allowed values of a field, or nil for an unknown field.
func Domain(f Field) []string {
	s, ok := defFor(f)
	if !ok {
		return nil
	}
	return append([]string(nil), s.domain...)
}

// KindOf reports how f is encoded.
func KindOf(f Field) (Kind, bool) {
	s, ok := defFor(f)
	return s.kind, ok
}

// Prefix returns the dataset column name of f, which prefixes its one-hot columns.
func Prefix(f Field) string {
	s, _ := defFor(f)
	return s.prefix
}

// ParseField accepts either the field name or its dataset column name.
func ParseField(name string) (Field, bool) {
	for _, s := range fieldDefs {
		if string(s.field) == name || s.prefix == name {
			return s.field, true
		}
	}
	return "", false
}

// InDomain reports whether value is an allowed level of f.
func InDomain(f Field, value string) bool {
	s, ok := defFor(f)
	if !ok {
		return false
	}
	for _, v := range s.domain {
		if v == value {
			return true
		}
	}
	return false
}

// Profile holds the five categorical attributes entered for one prediction.
type Profile struct {
	Gender            string `json:"gender"`
	RaceEthnicity     string `json:"race_ethnicity"`
	ParentalEducation string `json:"parental_education"`
	Lunch             string `json:"lunch"`
	TestPreparation   string `json:"test_preparation"`
}

// DefaultProfile mirrors the first option of every selector.
func DefaultProfile() Profile {
	var p Profile
	for _, s := range fieldDefs {
		p = p.With(s.field, s.domain[0])
	}
	return p
}

// Value returns the profile's value for f.
func (p Profile) Value(f Field) string {
	switch f {
	case Gender:
		return p.Gender
	case RaceEthnicity:
		return p.RaceEthnicity
	case ParentalEducation:
		return p.ParentalEducation
	case Lunch:
		return p.Lunch
	case TestPreparation:
		return p.TestPreparation
	}
	return ""
}

// With returns a copy of p with f set to value. Unknown fields are ignored.
func (p Profile) With(f Field, value string) Profile {
	switch f {
	case Gender:
		p.Gender = value
	case RaceEthnicity:
		p.RaceEthnicity = value
	case ParentalEducation:
		p.ParentalEducation = value
	case Lunch:
		p.Lunch = value
	case TestPreparation:
		p.TestPreparation = value
	}
	return p
}

// Validate checks every field against its domain.
func (p Profile) Validate() error {
	for _, s := range fieldDefs {
		v := p.Value(s.field)
		if !InDomain(s.field, v) {
			return fmt.Errorf("%w: %s %q is not one of %q", ErrInvalidProfile, s.field, v, s.domain)
		}
	}
	return nil
}
