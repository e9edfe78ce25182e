// Package flat provides a sealed brute-force index backend. It scans every
// eligible record, so recall is exact; it is the reference implementation of
// the index.SearchableIndex contract.
package flat

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/segquery/bitmask"
	"github.com/hupe1980/segquery/distance"
	"github.com/hupe1980/segquery/index"
)

// Compile-time check that Flat satisfies the backend contract.
var _ index.SearchableIndex = (*Flat)(nil)

// Flat is an immutable brute-force index over a fixed vector block.
// It is safe for concurrent queries.
type Flat struct {
	data   []float32 // row-major, count x dim
	count  int
	dim    int
	metric distance.Metric
	distFn distance.Func

	idPool   sync.Pool // []int64
	distPool sync.Pool // []float32
}

// New builds a sealed flat index over count vectors of the given
// dimensionality. The data buffer is row-major and is not copied; it must not
// be mutated afterwards.
func New(data []float32, count, dim int, metric distance.Metric) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension: %d", dim)
	}
	if count < 0 || len(data) != count*dim {
		return nil, fmt.Errorf("vector block holds %d values, want %d records x %d dim = %d",
			len(data), count, dim, count*dim)
	}
	distFn, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}
	return &Flat{
		data:   data,
		count:  count,
		dim:    dim,
		metric: metric,
		distFn: distFn,
	}, nil
}

func (f *Flat) Type() index.Type          { return index.TypeFlat }
func (f *Flat) Mode() index.Mode          { return index.ModeMemory }
func (f *Flat) Metric() distance.Metric   { return f.metric }
func (f *Flat) Count() int                { return f.count }
func (f *Flat) Dim() int                  { return f.dim }
func (f *Flat) vector(i int) []float32    { return f.data[i*f.dim : (i+1)*f.dim] }

// Query scans all records whose selection bit is 1 and returns the topk best
// per query, best-first. Offsets never reach sel.Bits(): the scan is bounded
// by the record count, so the selected pad bits past the true record count
// are never consulted.
func (f *Flat) Query(ctx context.Context, ds index.Dataset, params index.Params, sel *bitmask.Selection) (*index.RawResult, error) {
	topk, ok := params.Int(index.ParamTopK)
	if !ok || topk < 1 {
		return nil, &index.ErrInvalidParam{Key: index.ParamTopK, Value: params[index.ParamTopK], Reason: "missing or not a positive integer"}
	}
	if name, ok := params.String(index.ParamMetric); ok {
		m, err := distance.Parse(name)
		if err != nil {
			return nil, &index.ErrInvalidParam{Key: index.ParamMetric, Value: name, Reason: "unknown metric"}
		}
		if m != f.metric {
			return nil, fmt.Errorf("index built for metric %v, query requests %v", f.metric, m)
		}
	}
	if ds.Dim != f.dim {
		return nil, &index.ErrDimensionMismatch{Expected: f.dim, Actual: ds.Dim}
	}
	if sel != nil && sel.Bits() != f.count {
		return nil, fmt.Errorf("selection covers %d records, index holds %d", sel.Bits(), f.count)
	}

	total := ds.NumQueries * topk
	ids := f.getIDs(total)
	dists := f.getDistances(total)

	cands := candidateHeap{metric: f.metric}
	for q := 0; q < ds.NumQueries; q++ {
		if err := ctx.Err(); err != nil {
			f.putIDs(ids)
			f.putDistances(dists)
			return nil, err
		}

		query := ds.Row(q)
		cands.items = cands.items[:0]
		for i := 0; i < f.count; i++ {
			if sel != nil && !sel.Selected(i) {
				continue
			}
			d := f.distFn(query, f.vector(i))
			if len(cands.items) < topk {
				heap.Push(&cands, candidate{offset: int64(i), dist: d})
			} else if f.metric.Better(d, cands.items[0].dist) {
				cands.items[0] = candidate{offset: int64(i), dist: d}
				heap.Fix(&cands, 0)
			}
		}

		// Backend order is best-first within each query block.
		sort.Slice(cands.items, func(i, j int) bool {
			return f.metric.Better(cands.items[i].dist, cands.items[j].dist)
		})

		base := q * topk
		for r := 0; r < topk; r++ {
			if r < len(cands.items) {
				ids[base+r] = cands.items[r].offset
				dists[base+r] = cands.items[r].dist
			} else {
				ids[base+r] = index.NoMatch
				dists[base+r] = f.metric.Worst()
			}
		}
	}

	return index.NewRawResult(ids, dists, func(ids []int64, dists []float32) {
		f.putIDs(ids)
		f.putDistances(dists)
	}), nil
}

func (f *Flat) getIDs(n int) []int64 {
	if v := f.idPool.Get(); v != nil {
		buf := v.([]int64)
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]int64, n)
}

func (f *Flat) putIDs(buf []int64) {
	if buf != nil {
		f.idPool.Put(buf[:0])
	}
}

func (f *Flat) getDistances(n int) []float32 {
	if v := f.distPool.Get(); v != nil {
		buf := v.([]float32)
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]float32, n)
}

func (f *Flat) putDistances(buf []float32) {
	if buf != nil {
		f.distPool.Put(buf[:0])
	}
}

type candidate struct {
	offset int64
	dist   float32
}

// candidateHeap keeps the worst retained candidate at the top so it can be
// evicted in O(log k).
type candidateHeap struct {
	items  []candidate
	metric distance.Metric
}

func (h *candidateHeap) Len() int { return len(h.items) }

func (h *candidateHeap) Less(i, j int) bool {
	return h.metric.Better(h.items[j].dist, h.items[i].dist)
}

func (h *candidateHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *candidateHeap) Push(x any) { h.items = append(h.items, x.(candidate)) }

func (h *candidateHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}
