package segment

import (
	"context"
	"fmt"

	"github.com/hupe1980/segquery/bitmask"
	"github.com/hupe1980/segquery/distance"
	"github.com/hupe1980/segquery/index"
)

// SearchInfo carries one search request against a sealed segment.
// It is immutable for the duration of the call.
type SearchInfo struct {
	// FieldID is the target vector field.
	FieldID FieldID
	// TopK is the number of best matches requested per query.
	TopK int
	// Metric is the requested ranking metric. It must equal the metric the
	// field's index was built for.
	Metric distance.Metric
	// Params holds backend-specific search parameters. Canonical topk and
	// metric keys are merged in during validation; other keys pass through
	// opaquely.
	Params index.Params
}

// Result is the caller-owned output of one sealed-segment search: two
// parallel sequences of NumQueries x TopK entries, where entry [q*TopK+r] is
// the r-th ranked match for query q. Offsets are internal to the segment;
// slots without a match hold index.NoMatch.
type Result struct {
	SegOffsets []int64
	Distances  []float32
	NumQueries int
	TopK       int
}

// Search runs one filtered search against a sealed segment.
//
// queryData is a row-major batch of numQueries vectors whose dimensionality
// is given by the target field; it is viewed, not copied. sel is the
// assembled selection mask for the segment (bit=1 means candidate); nil means
// unfiltered. The pipeline validates the request, dispatches it to the
// field's index backend, and copies the backend's raw buffers into a fresh
// Result, releasing the backend buffers on every path.
func Search(ctx context.Context, schema *Schema, record *IndexingRecord, info SearchInfo, queryData []float32, numQueries int, sel *bitmask.Selection) (res *Result, err error) {
	field, ok := schema.Field(info.FieldID)
	if !ok {
		return nil, &ErrFieldNotFound{Field: info.FieldID}
	}

	fi, ok := record.Get(info.FieldID)
	if !ok || !fi.Ready() {
		return nil, &ErrIndexNotReady{Field: info.FieldID}
	}
	if fi.Metric != info.Metric {
		return nil, &ErrMetricMismatch{Field: info.FieldID, Stored: fi.Metric, Requested: info.Metric}
	}

	params := info.Params.Clone()
	params[index.ParamTopK] = info.TopK
	params[index.ParamMetric] = fi.Metric.String()

	adapter, err := index.AdapterFor(fi.Index.Type())
	if err != nil {
		return nil, err
	}
	if err := adapter.CheckSearch(params, fi.Index.Type(), fi.Index.Mode()); err != nil {
		return nil, err
	}

	if sel != nil && sel.Bits() != fi.Index.Count() {
		return nil, &ErrSelectionMismatch{Field: info.FieldID, Records: fi.Index.Count(), Bits: sel.Bits()}
	}

	ds, err := index.NewDataset(queryData, numQueries, field.Dim)
	if err != nil {
		return nil, err
	}

	raw, err := fi.Index.Query(ctx, ds, params, sel)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := raw.Release(); rerr != nil && err == nil {
			res, err = nil, rerr
		}
	}()

	total := numQueries * info.TopK
	if len(raw.IDs()) < total || len(raw.Distances()) < total {
		return nil, fmt.Errorf("backend returned %d ids and %d distances, want %d each",
			len(raw.IDs()), len(raw.Distances()), total)
	}

	result := &Result{
		SegOffsets: make([]int64, total),
		Distances:  make([]float32, total),
		NumQueries: numQueries,
		TopK:       info.TopK,
	}
	copy(result.SegOffsets, raw.IDs()[:total])
	copy(result.Distances, raw.Distances()[:total])

	return result, nil
}
