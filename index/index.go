package index

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/segquery/bitmask"
	"github.com/hupe1980/segquery/distance"
)

// Type identifies a concrete index implementation.
type Type string

const (
	TypeFlat    Type = "FLAT"
	TypeHNSW    Type = "HNSW"
	TypeIVFFlat Type = "IVF_FLAT"
)

// Mode identifies how an index holds its data.
type Mode int

const (
	// ModeMemory indicates a fully memory-resident index.
	ModeMemory Mode = iota
	// ModeMmap indicates an index backed by memory-mapped files.
	ModeMmap
)

func (m Mode) String() string {
	switch m {
	case ModeMemory:
		return "memory"
	case ModeMmap:
		return "mmap"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Canonical parameter keys. Backend-specific keys pass through opaquely.
const (
	// ParamTopK is the number of matches requested per query. Merged in by
	// the search validator; backends must honor it.
	ParamTopK = "topk"
	// ParamMetric is the canonical metric name (distance.Metric.String()).
	// Merged in by the search validator.
	ParamMetric = "metric_type"
	// ParamEF is the HNSW exploration factor.
	ParamEF = "ef"
	// ParamNProbe is the IVF probe count.
	ParamNProbe = "nprobe"
)

// Params is an opaque parameter set passed to a backend query.
type Params map[string]any

// Clone returns a shallow copy. A nil receiver clones to an empty set.
func (p Params) Clone() Params {
	out := make(Params, len(p)+2)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Int reads an integer-valued parameter, tolerating the numeric types that
// survive JSON round-trips.
func (p Params) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// String reads a string-valued parameter.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ErrDimensionMismatch indicates a query batch whose dimensionality does not
// match the index.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Dataset is a no-copy view over a raw query vector batch: NumQueries rows of
// Dim float32 values, laid out row-major in Data.
type Dataset struct {
	NumQueries int
	Dim        int
	Data       []float32
}

// NewDataset wraps a flat query buffer. The buffer is not copied and must
// stay immutable for the duration of the query.
func NewDataset(data []float32, numQueries, dim int) (Dataset, error) {
	if numQueries <= 0 || dim <= 0 {
		return Dataset{}, fmt.Errorf("invalid dataset shape: %d queries x %d dim", numQueries, dim)
	}
	if len(data) != numQueries*dim {
		return Dataset{}, fmt.Errorf("dataset buffer holds %d values, want %d queries x %d dim = %d",
			len(data), numQueries, dim, numQueries*dim)
	}
	return Dataset{NumQueries: numQueries, Dim: dim, Data: data}, nil
}

// Row returns the i-th query vector as a subslice of the backing buffer.
func (d Dataset) Row(i int) []float32 {
	return d.Data[i*d.Dim : (i+1)*d.Dim]
}

// ErrResultReleased is returned when releasing a RawResult twice.
var ErrResultReleased = errors.New("raw result already released")

// NoMatch is the offset placed in result slots for which the backend found no
// candidate (fewer eligible records than topk).
const NoMatch int64 = -1

// RawResult is the backend-owned output of one query: two parallel buffers of
// numQueries x topk entries. It is exclusively owned by the call that produced
// it until Release returns the buffers to the backend; Release must run
// exactly once and nothing may touch the buffers afterwards.
type RawResult struct {
	ids       []int64
	distances []float32
	released  atomic.Bool
	free      func(ids []int64, distances []float32)
}

// NewRawResult wraps backend buffers in a single-owner release guard.
// free may be nil for buffers that need no reclamation.
func NewRawResult(ids []int64, distances []float32, free func(ids []int64, distances []float32)) *RawResult {
	return &RawResult{ids: ids, distances: distances, free: free}
}

// IDs returns the backend-owned offset buffer.
func (r *RawResult) IDs() []int64 { return r.ids }

// Distances returns the backend-owned distance buffer.
func (r *RawResult) Distances() []float32 { return r.distances }

// Release returns the buffers to the backend. The second and any subsequent
// call fails with ErrResultReleased and does not free again.
func (r *RawResult) Release() error {
	if !r.released.CompareAndSwap(false, true) {
		return ErrResultReleased
	}
	if r.free != nil {
		r.free(r.ids, r.distances)
	}
	r.ids = nil
	r.distances = nil
	return nil
}

// Released reports whether the buffers have been released.
func (r *RawResult) Released() bool { return r.released.Load() }

// SearchableIndex is the query capability of a sealed index backend.
//
// Query runs the batched nearest-neighbor search restricted to records whose
// selection bit is 1. Implementations must never emit offsets at or beyond
// sel.Bits(): the selection buffer is zero-padded then inverted, so its
// trailing pad bits read as selected but correspond to no record. Slots
// without a candidate carry NoMatch and the metric's worst distance.
type SearchableIndex interface {
	Type() Type
	Mode() Mode
	Metric() distance.Metric
	Count() int
	Dim() int

	Query(ctx context.Context, ds Dataset, params Params, sel *bitmask.Selection) (*RawResult, error)
}
