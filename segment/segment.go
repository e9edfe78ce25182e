package segment

import (
	"fmt"

	"github.com/hupe1980/segquery/distance"
	"github.com/hupe1980/segquery/index"
)

// FieldID identifies a schema field.
type FieldID int64

// DataType identifies the value type stored in a field.
type DataType int

const (
	// DataTypeFloatVector is a fixed-dimension float32 vector field.
	DataTypeFloatVector DataType = iota
)

// Field describes one schema field.
type Field struct {
	ID       FieldID
	Name     string
	DataType DataType
	Dim      int
}

// Schema is the immutable field layout of a segment.
type Schema struct {
	fields []Field
	byID   map[FieldID]int
}

// NewSchema builds a schema from the given fields. Field IDs must be unique
// and vector fields must carry a positive dimension.
func NewSchema(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema requires at least one field")
	}

	byID := make(map[FieldID]int, len(fields))
	for i, f := range fields {
		if _, dup := byID[f.ID]; dup {
			return nil, fmt.Errorf("duplicate field id %d", f.ID)
		}
		if f.DataType == DataTypeFloatVector && f.Dim <= 0 {
			return nil, fmt.Errorf("vector field %q has invalid dimension %d", f.Name, f.Dim)
		}
		byID[f.ID] = i
	}

	out := make([]Field, len(fields))
	copy(out, fields)
	return &Schema{fields: out, byID: byID}, nil
}

// Field looks up a field by id.
func (s *Schema) Field(id FieldID) (Field, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Fields returns a copy of the field list.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// FieldIndexing associates a schema field with its built index and the metric
// the index was built for. Index stays nil until the build completes; a nil
// Index means the field is not ready for search.
type FieldIndexing struct {
	Field  Field
	Metric distance.Metric
	Index  index.SearchableIndex
}

// Ready reports whether the field's index is fully built.
func (fi *FieldIndexing) Ready() bool {
	return fi != nil && fi.Index != nil
}

// IndexingRecord maps a sealed segment's fields to their indexing state.
// It is immutable after construction and safe to share across concurrent
// searches.
type IndexingRecord struct {
	entries map[FieldID]*FieldIndexing
}

// NewIndexingRecord builds the record for a sealed segment.
func NewIndexingRecord(entries ...*FieldIndexing) (*IndexingRecord, error) {
	m := make(map[FieldID]*FieldIndexing, len(entries))
	for _, fi := range entries {
		if fi == nil {
			return nil, fmt.Errorf("nil field indexing entry")
		}
		if _, dup := m[fi.Field.ID]; dup {
			return nil, fmt.Errorf("duplicate indexing entry for field %d", fi.Field.ID)
		}
		if fi.Index != nil {
			if fi.Index.Metric() != fi.Metric {
				return nil, fmt.Errorf("field %d index built for metric %v, record declares %v",
					fi.Field.ID, fi.Index.Metric(), fi.Metric)
			}
			if fi.Field.DataType == DataTypeFloatVector && fi.Index.Dim() != fi.Field.Dim {
				return nil, fmt.Errorf("field %d index dimension %d does not match schema dimension %d",
					fi.Field.ID, fi.Index.Dim(), fi.Field.Dim)
			}
		}
		m[fi.Field.ID] = fi
	}
	return &IndexingRecord{entries: m}, nil
}

// Get returns the indexing state for a field.
func (r *IndexingRecord) Get(id FieldID) (*FieldIndexing, bool) {
	fi, ok := r.entries[id]
	return fi, ok
}

// IsReady reports whether the field has a fully built index.
func (r *IndexingRecord) IsReady(id FieldID) bool {
	return r.entries[id].Ready()
}
