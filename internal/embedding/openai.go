package embedding

import (
	"context"

	"github.com/claritymed/regpilot/internal/openai"
)

// OpenAIBackend adapts the OpenAI client to the Backend interface
type OpenAIBackend struct {
	client *openai.Client
}

// NewOpenAIBackend creates a Backend backed by the OpenAI embeddings API
func NewOpenAIBackend(client *openai.Client) *OpenAIBackend {
	return &OpenAIBackend{client: client}
}

func (b *OpenAIBackend) Name() string {
	return "openai"
}

func (b *OpenAIBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	return b.client.GenerateEmbedding(ctx, text)
}
