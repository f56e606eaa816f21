package similarity

import "math"

// Cosine returns the cosine similarity of a and b. ok is false when the
// vectors differ in length; they are never truncated or padded.
//
// A zero vector has no direction, so the result is NaN in that case.
func Cosine(a, b []float64) (score float64, ok bool) {
	if len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
