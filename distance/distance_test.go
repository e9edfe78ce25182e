package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 0},
		{name: "unit apart", a: []float32{0, 0}, b: []float32{1, 0}, want: 1},
		{name: "mixed", a: []float32{1, 2, 3}, b: []float32{4, 6, 3}, want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SquaredL2(tt.a, tt.b), 1e-6)
		})
	}
}

func TestDot(t *testing.T) {
	assert.InDelta(t, float32(32), Dot([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-6)
	assert.InDelta(t, float32(0), Dot([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, float32(1), CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, float32(0), CosineSimilarity([]float32{1, 0}, []float32{0, 3}), 1e-6)
	assert.InDelta(t, float32(0), CosineSimilarity([]float32{0, 0}, []float32{1, 1}), 1e-6)
}

func TestMetricString(t *testing.T) {
	assert.Equal(t, "L2", MetricL2.String())
	assert.Equal(t, "IP", MetricInnerProduct.String())
	assert.Equal(t, "Cosine", MetricCosine.String())
	assert.Equal(t, "Unknown(42)", Metric(42).String())
}

func TestParse(t *testing.T) {
	for _, m := range []Metric{MetricL2, MetricInnerProduct, MetricCosine} {
		got, err := Parse(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := Parse("Hamming")
	assert.Error(t, err)
}

func TestOrdering(t *testing.T) {
	// L2 ranks ascending.
	assert.True(t, MetricL2.Better(1, 2))
	assert.False(t, MetricL2.Better(2, 1))

	// Inner product ranks descending.
	assert.True(t, MetricInnerProduct.Better(2, 1))
	assert.False(t, MetricInnerProduct.Better(1, 2))

	// Worst is worse than any real distance.
	assert.True(t, MetricL2.Better(1e30, MetricL2.Worst()))
	assert.True(t, MetricInnerProduct.Better(-1e30, MetricInnerProduct.Worst()))
}

func TestProvider(t *testing.T) {
	for _, m := range []Metric{MetricL2, MetricInnerProduct, MetricCosine} {
		fn, err := Provider(m)
		require.NoError(t, err)
		require.NotNil(t, fn)
	}

	_, err := Provider(Metric(99))
	assert.Error(t, err)
}
