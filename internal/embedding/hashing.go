package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/xxxsen/cmdguard/internal/config"
	"github.com/xxxsen/cmdguard/internal/filestore"
)

func init() {
	Register("hashing", createHashing)
}

// Hashing maps every lower-cased whitespace token to one of dim buckets (feature
// hashing). It needs no artifact.
type Hashing struct {
	model string
	dim   int
}

func createHashing(ctx context.Context, cfg config.EmbeddingConfig, _ filestore.Store) (IEmbedder, error) {
	_ = ctx
	return NewHashing(cfg.Model, cfg.Dim)
}

func NewHashing(model string, dim int) (*Hashing, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hashing dim must be positive, got %d", dim)
	}
	if model == "" {
		model = fmt.Sprintf("hashing-%d", dim)
	}
	return &Hashing{model: model, dim: dim}, nil
}

func (h *Hashing) Embed(ctx context.Context, text string) (FeatureVector, error) {
	_ = ctx
	vec := make(FeatureVector, h.dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		hs := fnv.New32a()
		_, _ = hs.Write([]byte(w))
		vec[int(hs.Sum32()%uint32(h.dim))] = 1.0
	}
	return vec, nil
}

func (h *Hashing) Dim() int {
	return h.dim
}

func (h *Hashing) ModelName() string {
	return h.model
}
