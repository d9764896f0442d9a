// Package vectorstore provides cosine-similarity ranking primitives and an
// in-memory vector store used when Postgres-side ranking is unavailable.
package vectorstore

import "math"

// magnitude floor to avoid division by zero on degenerate vectors
const epsilon = 1e-9

// CosineSimilarity returns dot(a,b) / (|a| * |b|). Vectors of different
// lengths compare as 0; this should not occur while the embedding dimension
// invariant holds, but a stale row must rank last rather than poison a query.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	magA = math.Sqrt(magA)
	if magA < epsilon {
		magA = epsilon
	}
	magB = math.Sqrt(magB)
	if magB < epsilon {
		magB = epsilon
	}

	return dot / (magA * magB)
}
