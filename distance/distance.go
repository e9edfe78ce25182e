package distance

import (
	"fmt"
	"math"
)

// Metric represents the distance/similarity function used to rank candidates.
type Metric int

const (
	// MetricL2 is squared Euclidean distance. Smaller is better.
	MetricL2 Metric = iota

	// MetricInnerProduct is the (maximum) inner product. Larger is better.
	MetricInnerProduct

	// MetricCosine is cosine similarity. Larger is better.
	MetricCosine
)

// String returns the canonical metric name as expected by index backends.
func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricInnerProduct:
		return "IP"
	case MetricCosine:
		return "Cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// IsValid returns true if the metric is a recognized metric type.
func (m Metric) IsValid() bool {
	switch m {
	case MetricL2, MetricInnerProduct, MetricCosine:
		return true
	default:
		return false
	}
}

// Descending returns true if larger values rank better for this metric.
func (m Metric) Descending() bool {
	return m == MetricInnerProduct || m == MetricCosine
}

// Better reports whether distance a ranks strictly better than b under m.
func (m Metric) Better(a, b float32) bool {
	if m.Descending() {
		return a > b
	}
	return a < b
}

// Worst returns the sentinel distance ranking worse than any real candidate.
// It is used to pad absent result slots.
func (m Metric) Worst() float32 {
	if m.Descending() {
		return -math.MaxFloat32
	}
	return math.MaxFloat32
}

// Parse parses a canonical metric name.
func Parse(s string) (Metric, error) {
	switch s {
	case "L2":
		return MetricL2, nil
	case "IP":
		return MetricInnerProduct, nil
	case "Cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unknown metric: %q", s)
	}
}

// Func is a function type for distance calculation.
// Vectors must be the same length (caller's responsibility).
type Func func(a, b []float32) float32

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Dot calculates the dot product of two vectors.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// CosineSimilarity calculates the cosine similarity of two vectors.
// Returns 0 if either vector has zero norm.
func CosineSimilarity(a, b []float32) float32 {
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
}

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricInnerProduct:
		return Dot, nil
	case MetricCosine:
		return CosineSimilarity, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
