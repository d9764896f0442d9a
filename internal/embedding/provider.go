// Package embedding turns text into fixed-dimension unit vectors through an
// ordered chain of backends, ending in a deterministic hash pseudo-embedding
// so retrieval plumbing keeps working without any external provider.
package embedding

import (
	"context"
	"log"
	"math"
)

const (
	// Dimensions is the fixed embedding dimension shared by every backend
	// and every stored vector (ada-002 compatible).
	Dimensions = 1536

	// MaxInputChars caps input length before embedding. Truncation is a
	// plain prefix cut so repeated calls on identical input are idempotent.
	MaxInputChars = 8000

	// MockBackendName identifies the terminal hash fallback. Callers check
	// this to tell degraded retrieval apart from real semantic search.
	MockBackendName = "mock"
)

// Backend produces an embedding vector for a text, or an error
type Backend interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result carries the vector plus the identity of the backend that produced
// it. Backend is MockBackendName when every real backend failed or none is
// configured.
type Result struct {
	Vector  []float32
	Backend string
}

// Mock reports whether the vector came from the hash fallback
func (r Result) Mock() bool {
	return r.Backend == MockBackendName
}

// Provider tries each configured backend in priority order and falls back to
// the deterministic pseudo-embedding when all of them fail.
type Provider struct {
	backends []Backend
}

// NewProvider creates a Provider with the given backend chain. An empty
// chain is valid: every Embed call then takes the mock path.
func NewProvider(backends ...Backend) *Provider {
	return &Provider{backends: backends}
}

// Backends returns the number of configured real backends
func (p *Provider) Backends() int {
	return len(p.backends)
}

// Embed produces a Dimensions-length vector for text. Never returns an
// error: provider failures are logged and absorbed by falling through the
// chain, and the hash fallback always succeeds. Absence of an API key is a
// configuration condition, not an error.
func (p *Provider) Embed(ctx context.Context, text string) Result {
	if len(text) > MaxInputChars {
		text = text[:MaxInputChars]
	}

	for _, backend := range p.backends {
		vec, err := backend.Embed(ctx, text)
		if err != nil {
			log.Printf("embedding: backend %s failed (%v); trying next", backend.Name(), err)
			continue
		}
		return Result{Vector: vec, Backend: backend.Name()}
	}

	return Result{Vector: mockEmbedding(text), Backend: MockBackendName}
}

// mockEmbedding builds a deterministic character-position frequency vector,
// L2-normalised to unit length. It has no semantic meaning; it exists so the
// schema and retrieval plumbing can be exercised without a live dependency.
func mockEmbedding(text string) []float32 {
	vec := make([]float64, Dimensions)
	for i, ch := range text {
		idx := (int(ch)*31 + i) % Dimensions
		if idx < 0 {
			idx += Dimensions
		}
		vec[idx]++
	}

	var magnitude float64
	for _, v := range vec {
		magnitude += v * v
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		magnitude = 1
	}

	out := make([]float32, Dimensions)
	for i, v := range vec {
		out[i] = float32(v / magnitude)
	}
	return out
}
