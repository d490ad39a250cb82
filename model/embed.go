package model

import (
	"context"
	"log"

	"askpepper/types"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder returns the Ollama embedder configured in cfg.
func NewEmbedder(cfg types.EmbeddingConfig) Embedder {
	log.Printf("[EMBEDDER] Uses local Ollama for embeddings (%s)", cfg.Model)
	return NewOllamaEmbedder(cfg.Url, cfg.Model)
}
