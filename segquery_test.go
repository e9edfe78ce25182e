package segquery

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segquery/bitmask"
	"github.com/hupe1980/segquery/distance"
	"github.com/hupe1980/segquery/index"
	"github.com/hupe1980/segquery/index/flat"
	"github.com/hupe1980/segquery/resource"
	"github.com/hupe1980/segquery/segment"
)

const testFieldID segment.FieldID = 100

func testSchema(t *testing.T, dim int) *segment.Schema {
	t.Helper()

	schema, err := segment.NewSchema(segment.Field{
		ID:       testFieldID,
		Name:     "embedding",
		DataType: segment.DataTypeFloatVector,
		Dim:      dim,
	})
	require.NoError(t, err)

	return schema
}

func testSegment(t *testing.T, id int64, vectors []float32, dim int, shards ...*bitmask.ShardBitset) *SealedSegment {
	t.Helper()

	count := len(vectors) / dim
	idx, err := flat.New(vectors, count, dim, distance.MetricL2)
	require.NoError(t, err)

	record, err := segment.NewIndexingRecord(&segment.FieldIndexing{
		Field: segment.Field{
			ID:       testFieldID,
			Name:     "embedding",
			DataType: segment.DataTypeFloatVector,
			Dim:      dim,
		},
		Metric: distance.MetricL2,
		Index:  idx,
	})
	require.NoError(t, err)

	return &SealedSegment{ID: id, Record: record, Shards: shards}
}

func TestNew_Validation(t *testing.T) {
	schema := testSchema(t, 2)
	seg := testSegment(t, 1, []float32{0, 0, 1, 0}, 2)

	t.Run("nil schema", func(t *testing.T) {
		_, err := New(nil, []*SealedSegment{seg})
		require.Error(t, err)
	})

	t.Run("no segments", func(t *testing.T) {
		_, err := New(schema, nil)
		require.ErrorIs(t, err, ErrNoSegments)
	})

	t.Run("duplicate segment id", func(t *testing.T) {
		other := testSegment(t, 1, []float32{2, 0}, 2)
		_, err := New(schema, []*SealedSegment{seg, other})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate segment id")
	})

	t.Run("ok", func(t *testing.T) {
		s, err := New(schema, []*SealedSegment{seg})
		require.NoError(t, err)
		assert.Equal(t, 1, s.Segments())
	})
}

func TestSearch_MergesAcrossSegments(t *testing.T) {
	schema := testSchema(t, 2)

	seg1 := testSegment(t, 1, []float32{
		0, 0,
		1, 0,
		2, 0,
		3, 0,
	}, 2)
	seg2 := testSegment(t, 2, []float32{
		0.5, 0,
		10, 0,
		11, 0,
		12, 0,
	}, 2)

	s, err := New(schema, []*SealedSegment{seg1, seg2})
	require.NoError(t, err)

	hits, err := s.Search(context.Background(), Request{
		FieldID:    testFieldID,
		TopK:       3,
		Metric:     distance.MetricL2,
		Queries:    []float32{0, 0},
		NumQueries: 1,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Len(t, hits[0], 3)

	// Global order across both segments, best first.
	assert.Equal(t, Hit{SegmentID: 1, SegOffset: 0, Distance: 0}, hits[0][0])
	assert.Equal(t, Hit{SegmentID: 2, SegOffset: 0, Distance: 0.25}, hits[0][1])
	assert.Equal(t, Hit{SegmentID: 1, SegOffset: 1, Distance: 1}, hits[0][2])
}

func TestSearch_DeletedRecordsExcluded(t *testing.T) {
	schema := testSchema(t, 2)

	deleted := bitmask.NewShardBitset(4)
	deleted.Exclude(0)

	seg1 := testSegment(t, 1, []float32{
		0, 0,
		1, 0,
		2, 0,
		3, 0,
	}, 2, deleted)
	seg2 := testSegment(t, 2, []float32{
		0.5, 0,
		10, 0,
	}, 2)

	s, err := New(schema, []*SealedSegment{seg1, seg2})
	require.NoError(t, err)

	hits, err := s.Search(context.Background(), Request{
		FieldID:    testFieldID,
		TopK:       2,
		Metric:     distance.MetricL2,
		Queries:    []float32{0, 0},
		NumQueries: 1,
	})
	require.NoError(t, err)
	require.Len(t, hits[0], 2)

	// Segment 1's exact match is deleted, so segment 2 wins.
	assert.Equal(t, Hit{SegmentID: 2, SegOffset: 0, Distance: 0.25}, hits[0][0])
	assert.Equal(t, Hit{SegmentID: 1, SegOffset: 1, Distance: 1}, hits[0][1])
}

func TestSearch_MultiQueryBatch(t *testing.T) {
	schema := testSchema(t, 2)

	seg := testSegment(t, 1, []float32{
		0, 0,
		5, 0,
	}, 2)

	s, err := New(schema, []*SealedSegment{seg})
	require.NoError(t, err)

	hits, err := s.Search(context.Background(), Request{
		FieldID: testFieldID,
		TopK:    1,
		Metric:  distance.MetricL2,
		Queries: []float32{
			0, 0,
			5, 0,
		},
		NumQueries: 2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, int64(0), hits[0][0].SegOffset)
	assert.Equal(t, int64(1), hits[1][0].SegOffset)
}

func TestSearch_ShortResultOnFewCandidates(t *testing.T) {
	schema := testSchema(t, 2)

	seg := testSegment(t, 1, []float32{0, 0, 1, 0}, 2)

	s, err := New(schema, []*SealedSegment{seg})
	require.NoError(t, err)

	hits, err := s.Search(context.Background(), Request{
		FieldID:    testFieldID,
		TopK:       5,
		Metric:     distance.MetricL2,
		Queries:    []float32{0, 0},
		NumQueries: 1,
	})
	require.NoError(t, err)
	assert.Len(t, hits[0], 2)
}

func TestSearch_RequestValidation(t *testing.T) {
	schema := testSchema(t, 2)
	seg := testSegment(t, 1, []float32{0, 0}, 2)

	s, err := New(schema, []*SealedSegment{seg})
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("zero k", func(t *testing.T) {
		_, err := s.Search(ctx, Request{
			FieldID:    testFieldID,
			Metric:     distance.MetricL2,
			Queries:    []float32{0, 0},
			NumQueries: 1,
		})
		require.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("k beyond limit", func(t *testing.T) {
		_, err := s.Search(ctx, Request{
			FieldID:    testFieldID,
			TopK:       index.MaxTopK + 1,
			Metric:     distance.MetricL2,
			Queries:    []float32{0, 0},
			NumQueries: 1,
		})
		var tooLarge *ErrTopKTooLarge
		require.ErrorAs(t, err, &tooLarge)
		assert.Equal(t, index.MaxTopK+1, tooLarge.K)
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := s.Search(ctx, Request{
			FieldID: testFieldID,
			TopK:    1,
			Metric:  distance.MetricL2,
		})
		require.ErrorIs(t, err, ErrNoQueries)
	})
}

func TestSearch_SegmentErrorTagged(t *testing.T) {
	schema := testSchema(t, 2)
	seg := testSegment(t, 7, []float32{0, 0}, 2)

	s, err := New(schema, []*SealedSegment{seg})
	require.NoError(t, err)

	// The segment's index is built for L2; requesting IP must fail.
	_, err = s.Search(context.Background(), Request{
		FieldID:    testFieldID,
		TopK:       1,
		Metric:     distance.MetricInnerProduct,
		Queries:    []float32{0, 0},
		NumQueries: 1,
	})
	require.Error(t, err)

	var segErr *ErrSegmentSearch
	require.ErrorAs(t, err, &segErr)
	assert.Equal(t, int64(7), segErr.SegmentID)

	var mismatch *segment.ErrMetricMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestSearch_UnknownField(t *testing.T) {
	schema := testSchema(t, 2)
	seg := testSegment(t, 1, []float32{0, 0}, 2)

	s, err := New(schema, []*SealedSegment{seg})
	require.NoError(t, err)

	_, err = s.Search(context.Background(), Request{
		FieldID:    999,
		TopK:       1,
		Metric:     distance.MetricL2,
		Queries:    []float32{0, 0},
		NumQueries: 1,
	})

	var notFound *segment.ErrFieldNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestSearch_CanceledContext(t *testing.T) {
	schema := testSchema(t, 2)
	seg := testSegment(t, 1, []float32{0, 0, 1, 0}, 2)

	s, err := New(schema, []*SealedSegment{seg})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Search(ctx, Request{
		FieldID:    testFieldID,
		TopK:       1,
		Metric:     distance.MetricL2,
		Queries:    []float32{0, 0},
		NumQueries: 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_WithResourceController(t *testing.T) {
	schema := testSchema(t, 2)

	segments := make([]*SealedSegment, 4)
	for i := range segments {
		segments[i] = testSegment(t, int64(i+1), []float32{float32(i), 0, float32(i + 10), 0}, 2)
	}

	s, err := New(schema, segments,
		WithResourceLimits(resource.Config{MaxConcurrentSearches: 2}),
	)
	require.NoError(t, err)

	hits, err := s.Search(context.Background(), Request{
		FieldID:    testFieldID,
		TopK:       3,
		Metric:     distance.MetricL2,
		Queries:    []float32{0, 0},
		NumQueries: 1,
	})
	require.NoError(t, err)
	assert.Len(t, hits[0], 3)
}

func TestSearch_MetricsRecorded(t *testing.T) {
	schema := testSchema(t, 2)

	deleted := bitmask.NewShardBitset(2)
	deleted.Exclude(1)

	seg := testSegment(t, 1, []float32{0, 0, 1, 0}, 2, deleted)

	metrics := &BasicMetricsCollector{}
	s, err := New(schema, []*SealedSegment{seg}, WithMetricsCollector(metrics))
	require.NoError(t, err)

	_, err = s.Search(context.Background(), Request{
		FieldID:    testFieldID,
		TopK:       1,
		Metric:     distance.MetricL2,
		Queries:    []float32{0, 0},
		NumQueries: 1,
	})
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SearchCount)
	assert.Equal(t, int64(0), stats.SearchErrors)
	assert.Equal(t, int64(1), stats.SegmentCount)
	assert.Equal(t, int64(1), stats.AssemblyCount)
	assert.Equal(t, int64(2), stats.AssemblyBits)
}

func TestSearch_Concurrent(t *testing.T) {
	schema := testSchema(t, 2)

	seg1 := testSegment(t, 1, []float32{0, 0, 1, 0, 2, 0}, 2)
	seg2 := testSegment(t, 2, []float32{3, 0, 4, 0, 5, 0}, 2)

	s, err := New(schema, []*SealedSegment{seg1, seg2},
		WithResourceLimits(resource.Config{MaxConcurrentSearches: 4}),
	)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := s.Search(context.Background(), Request{
				FieldID:    testFieldID,
				TopK:       2,
				Metric:     distance.MetricL2,
				Queries:    []float32{0, 0},
				NumQueries: 1,
			})
			if err != nil {
				errs <- err
				return
			}
			if len(hits[0]) != 2 || hits[0][0].SegOffset != 0 {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent search failed: %v", err)
	}
}
