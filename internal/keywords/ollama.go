package keywords

import (
	"context"
	"fmt"

	ollama "github.com/ollama/ollama/api"

	"github.com/dgallion1/docsift/internal/llm"
)

// OllamaEmbedder computes embeddings with a local Ollama server.
type OllamaEmbedder struct {
	client *ollama.Client
	model  string
}

// NewOllamaEmbedder connects to host; see llm.OllamaClient.
func NewOllamaEmbedder(host, model string) (*OllamaEmbedder, error) {
	client, err := llm.OllamaClient(host)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "all-minilm"
	}
	return &OllamaEmbedder{client: client, model: model}, nil
}

func (o *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := o.client.Embed(ctx, &ollama.EmbedRequest{
		Model: o.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed failed: %w", err)
	}
	return resp.Embeddings, nil
}
