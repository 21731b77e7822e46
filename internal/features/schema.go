package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrSchemaMismatch marks a feature schema that cannot be trusted to line up
// with the model: missing, empty, malformed, or of the wrong width.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Schema is the ordered list of column names the model was trained on.
// It is immutable once built.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema validates names and builds a Schema. The slice is copied.
func NewSchema(names []string) (*Schema, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: schema is empty", ErrSchemaMismatch)
	}

	s := &Schema{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("%w: column %d has an empty name", ErrSchemaMismatch, i)
		}
		if prev, dup := s.index[n]; dup {
			return nil, fmt.Errorf("%w: column %q appears at %d and %d", ErrSchemaMismatch, n, prev, i)
		}
		s.names[i] = n
		s.index[n] = i
	}
	return s, nil
}

// ParseSchema decodes a flat JSON array of column names.
func ParseSchema(data []byte) (*Schema, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("%w: expected a flat list of column names: %v", ErrSchemaMismatch, err)
	}
	return NewSchema(names)
}

// LoadSchema reads a JSON schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	s, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// Len is the width of every encoded vector.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns a copy of the column names in order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.names...)
}

// Index returns the position of a column.
func (s *Schema) Index(name string) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[name]
	return i, ok
}

// CheckWidth fails with ErrSchemaMismatch when an artifact expects a
// different number of inputs than the schema provides.
func (s *Schema) CheckWidth(what string, width int) error {
	if width != s.Len() {
		return fmt.Errorf("%w: %s expects %d inputs, schema has %d columns", ErrSchemaMismatch, what, width, s.Len())
	}
	return nil
}

// MarshalJSON encodes the schema as its list of names.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}
