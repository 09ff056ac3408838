package domain

import "math"

// EmbeddingVector is a fixed-length numeric representation of one company
// document. Immutable once produced; it lives for the duration of a single
// analysis unless held by the result cache.
type EmbeddingVector struct {
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Values      []float64 `json:"values"`
}

// IsZero reports whether the vector carries no usable signal: either no
// embedding was produced at all or every component is zero.
func (v EmbeddingVector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// CosineSimilarity returns a similarity score in [0, 1].
//
// The raw cosine lands in [-1, 1]; it is rescaled via (cos+1)/2 so every
// downstream consumer works in one bounded unit interval. Empty vectors,
// mismatched lengths and zero-magnitude vectors all yield 0 rather than an
// error or NaN.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Floating-point drift can push the cosine a hair outside [-1, 1].
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return (cos + 1) / 2
}

// SimilarityLabel maps a [0, 1] similarity score to a qualitative
// match-strength label for presentation.
func SimilarityLabel(score float64) string {
	switch {
	case score >= 0.9:
		return "Very Strong Match"
	case score >= 0.75:
		return "Strong Match"
	case score >= 0.6:
		return "Moderate Match"
	case score >= 0.45:
		return "Weak Match"
	default:
		return "Very Weak Match"
	}
}
