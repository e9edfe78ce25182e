package segquery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/segquery/bitmask"
	"github.com/hupe1980/segquery/distance"
	"github.com/hupe1980/segquery/index"
	"github.com/hupe1980/segquery/resource"
	"github.com/hupe1980/segquery/segment"
)

// SealedSegment is one immutable slice of a collection registered with a
// Searcher: its built indexes plus the per-shard validity bitsets that track
// which records have been deleted since sealing.
type SealedSegment struct {
	// ID identifies the segment in results and errors.
	ID int64
	// Record maps the segment's fields to their built indexes.
	Record *segment.IndexingRecord
	// Shards are the validity bitsets, one per shard, bit=1 meaning the
	// record is deleted. Empty means every record is visible.
	Shards []*bitmask.ShardBitset
}

// Hit is one ranked match of a fan-out search.
type Hit struct {
	// SegmentID is the segment the match lives in.
	SegmentID int64
	// SegOffset is the record's offset inside that segment.
	SegOffset int64
	// Distance is the match's score under the request metric.
	Distance float32
}

// Request is one batched fan-out search.
type Request struct {
	// FieldID is the target vector field.
	FieldID segment.FieldID
	// TopK is the number of best matches to return per query.
	TopK int
	// Metric is the requested ranking metric. It must equal the metric the
	// field's indexes were built for.
	Metric distance.Metric
	// Params holds backend-specific search parameters, e.g. ef or nprobe.
	Params index.Params
	// Queries is a row-major batch of NumQueries vectors.
	Queries []float32
	// NumQueries is the number of query vectors in the batch.
	NumQueries int
}

// Searcher runs filtered nearest-neighbor searches over a set of sealed
// segments sharing one schema. It is safe for concurrent use.
type Searcher struct {
	schema   *segment.Schema
	segments []*SealedSegment

	metrics    MetricsCollector
	logger     *Logger
	controller *resource.Controller
}

// New creates a Searcher over the given segments.
func New(schema *segment.Schema, segments []*SealedSegment, optFns ...Option) (*Searcher, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	seen := make(map[int64]struct{}, len(segments))
	for _, seg := range segments {
		if seg == nil || seg.Record == nil {
			return nil, fmt.Errorf("nil segment entry")
		}
		if _, dup := seen[seg.ID]; dup {
			return nil, fmt.Errorf("duplicate segment id %d", seg.ID)
		}
		seen[seg.ID] = struct{}{}
	}

	o := applyOptions(optFns)

	return &Searcher{
		schema:     schema,
		segments:   segments,
		metrics:    o.metricsCollector,
		logger:     o.logger,
		controller: o.controller,
	}, nil
}

// Segments returns the number of registered segments.
func (s *Searcher) Segments() int { return len(s.segments) }

// Search runs the request against every segment and merges the per-segment
// top-k lists into one ranked list per query, best first. Queries with fewer
// than TopK eligible matches return shorter lists.
func (s *Searcher) Search(ctx context.Context, req Request) (hits [][]Hit, err error) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		s.metrics.RecordSearch(req.TopK, len(s.segments), d, err)
		s.logger.LogSearch(ctx, req.TopK, req.NumQueries, len(s.segments), d, err)
	}()

	if req.TopK <= 0 {
		return nil, ErrInvalidK
	}
	if req.TopK > index.MaxTopK {
		return nil, &ErrTopKTooLarge{K: req.TopK, Limit: index.MaxTopK}
	}
	if req.NumQueries <= 0 || len(req.Queries) == 0 {
		return nil, ErrNoQueries
	}

	info := segment.SearchInfo{
		FieldID: req.FieldID,
		TopK:    req.TopK,
		Metric:  req.Metric,
		Params:  req.Params,
	}

	results := make([]*segment.Result, len(s.segments))

	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range s.segments {
		i, seg := i, seg
		g.Go(func() error {
			if err := s.controller.AcquireSearch(gctx); err != nil {
				return &ErrSegmentSearch{SegmentID: seg.ID, cause: err}
			}
			defer s.controller.ReleaseSearch()

			sel, err := s.assemble(gctx, seg)
			if err != nil {
				return &ErrSegmentSearch{SegmentID: seg.ID, cause: err}
			}

			segStart := time.Now()
			res, err := segment.Search(gctx, s.schema, seg.Record, info, req.Queries, req.NumQueries, sel)
			s.metrics.RecordSegmentSearch(time.Since(segStart), err)
			s.logger.LogSegmentSearch(gctx, seg.ID, time.Since(segStart), err)
			if err != nil {
				return &ErrSegmentSearch{SegmentID: seg.ID, cause: err}
			}

			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.merge(req, results), nil
}

// assemble builds the segment's selection mask from its validity shards.
// A segment without shards searches unfiltered.
func (s *Searcher) assemble(ctx context.Context, seg *SealedSegment) (*bitmask.Selection, error) {
	if len(seg.Shards) == 0 {
		return nil, nil
	}

	start := time.Now()
	sel, err := bitmask.Assemble(seg.Shards)
	if err != nil {
		s.logger.LogMaskAssembly(ctx, seg.ID, len(seg.Shards), 0, 0, err)
		return nil, err
	}
	s.metrics.RecordMaskAssembly(len(seg.Shards), sel.Bits(), time.Since(start))
	s.logger.LogMaskAssembly(ctx, seg.ID, len(seg.Shards), sel.Bits(), sel.SelectedCount(), nil)

	return sel, nil
}

// merge folds the per-segment result lists into one ranked list per query.
func (s *Searcher) merge(req Request, results []*segment.Result) [][]Hit {
	out := make([][]Hit, req.NumQueries)

	for q := 0; q < req.NumQueries; q++ {
		cands := make([]Hit, 0, len(results)*req.TopK)
		for i, res := range results {
			base := q * req.TopK
			for r := 0; r < req.TopK; r++ {
				off := res.SegOffsets[base+r]
				if off == index.NoMatch {
					break
				}
				cands = append(cands, Hit{
					SegmentID: s.segments[i].ID,
					SegOffset: off,
					Distance:  res.Distances[base+r],
				})
			}
		}

		sort.SliceStable(cands, func(a, b int) bool {
			return req.Metric.Better(cands[a].Distance, cands[b].Distance)
		})
		if len(cands) > req.TopK {
			cands = cands[:req.TopK]
		}
		out[q] = cands
	}

	return out
}
