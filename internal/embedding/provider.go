package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/cmdguard/internal/config"
	"github.com/xxxsen/cmdguard/internal/filestore"
)

// FeatureVector is a dense, fixed width text representation.
type FeatureVector []float32

type IEmbedder interface {
	Embed(ctx context.Context, text string) (FeatureVector, error)
	Dim() int
	ModelName() string
}

type Factory func(ctx context.Context, cfg config.EmbeddingConfig, store filestore.Store) (IEmbedder, error)

var registry = map[string]Factory{}

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func New(ctx context.Context, cfg config.EmbeddingConfig, store filestore.Store) (IEmbedder, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if key == "" {
		return nil, fmt.Errorf("embedding.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	return factory(ctx, cfg, store)
}
