package vector

import "math"

// CosineSimilarity returns the cosine of the angle between a and b,
// in [-1, 1]. It returns exactly 0 when either vector has zero norm,
// avoiding a division by zero for degenerate inputs.
//
// The vectors are assumed to share a dimensionality; when they do not,
// the dot product runs over the shorter prefix while the norms cover
// each full vector. The function is symmetric in its arguments.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}

	na := norm(a)
	nb := norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

// Normalize scales v to unit Euclidean length in place. A zero vector
// is left unchanged.
func Normalize(v []float32) {
	n := norm(v)
	if n == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
