package model

import (
	"context"
	"log"

	"readmekb/types"
)

type EmbedderInterface interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder wraps the Ollama embedder. Embeddings are optional: without a
// configured URL, or when the call fails, Embed returns a nil vector and the
// chunk is stored without one.
type Embedder struct {
	ollama *OllamaEmbedder
}

func NewEmbedder(cfg types.EmbeddingConfig) *Embedder {
	if cfg.URL == "" {
		log.Println("[EMBEDDER] OLLAMA_EMBEDDING_URL is not set, chunks are stored without embeddings")
		return &Embedder{}
	}
	log.Printf("[EMBEDDER] Uses local Ollama for embeddings (%s)", cfg.Model)
	return &Embedder{ollama: NewOllamaEmbedder(cfg.URL, cfg.Model)}
}

func (e *Embedder) Enabled() bool {
	return e.ollama != nil
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.ollama == nil {
		return nil, nil
	}
	embedding, err := e.ollama.Embed(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[EMBEDDER] Error Ollama embeddings: %v", err)
		return nil, nil
	}
	return embedding, nil
}
