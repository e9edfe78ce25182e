// This file implements a fluent search API on top of Searcher.Search.
package segquery

import (
	"context"

	"github.com/hupe1980/segquery/distance"
	"github.com/hupe1980/segquery/index"
	"github.com/hupe1980/segquery/segment"
)

// Query creates a new fluent search builder for the given query batch.
//
// Example:
//
//	hits, err := s.Query(vectors, 4).
//	    Field(fieldID).
//	    TopK(10).
//	    Metric(distance.MetricL2).
//	    Param(index.ParamEF, 100).
//	    Execute(ctx)
func (s *Searcher) Query(queries []float32, numQueries int) *SearchBuilder {
	return &SearchBuilder{
		searcher:   s,
		queries:    queries,
		numQueries: numQueries,
		topK:       10, // Default k
		metric:     distance.MetricL2,
	}
}

// SearchBuilder is a fluent builder for constructing fan-out searches.
type SearchBuilder struct {
	searcher   *Searcher
	queries    []float32
	numQueries int

	fieldID segment.FieldID
	topK    int
	metric  distance.Metric
	params  index.Params
}

// Field sets the target vector field.
func (sb *SearchBuilder) Field(id segment.FieldID) *SearchBuilder {
	sb.fieldID = id
	return sb
}

// TopK sets the number of nearest neighbors to return per query.
func (sb *SearchBuilder) TopK(k int) *SearchBuilder {
	sb.topK = k
	return sb
}

// Metric sets the ranking metric. It must equal the metric the field's
// indexes were built for.
func (sb *SearchBuilder) Metric(m distance.Metric) *SearchBuilder {
	sb.metric = m
	return sb
}

// Param sets one backend-specific search parameter, e.g. index.ParamEF.
func (sb *SearchBuilder) Param(key string, value any) *SearchBuilder {
	if sb.params == nil {
		sb.params = make(index.Params)
	}
	sb.params[key] = value
	return sb
}

// Execute runs the search and returns one ranked hit list per query.
func (sb *SearchBuilder) Execute(ctx context.Context) ([][]Hit, error) {
	return sb.searcher.Search(ctx, Request{
		FieldID:    sb.fieldID,
		TopK:       sb.topK,
		Metric:     sb.metric,
		Params:     sb.params,
		Queries:    sb.queries,
		NumQueries: sb.numQueries,
	})
}

// First runs a single-query search and returns only the best hit.
func (sb *SearchBuilder) First(ctx context.Context) (Hit, error) {
	sb.topK = 1
	hits, err := sb.Execute(ctx)
	if err != nil {
		return Hit{}, err
	}
	if len(hits) == 0 || len(hits[0]) == 0 {
		return Hit{}, ErrNoMatch
	}
	return hits[0][0], nil
}
