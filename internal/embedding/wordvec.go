package embedding

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cmdguard/internal/config"
	"github.com/xxxsen/cmdguard/internal/filestore"
)

const maxVectorLine = 4 << 20

func init() {
	Register("wordvec", createWordVec)
}

// WordVec averages pre-trained token vectors. OOV tokens count as zero vectors,
// so the result width never depends on the input.
type WordVec struct {
	model             string
	dim               int
	index             map[string]int
	values            []float32
	lowercaseFallback bool
}

func createWordVec(ctx context.Context, cfg config.EmbeddingConfig, store filestore.Store) (IEmbedder, error) {
	if store == nil {
		return nil, fmt.Errorf("artifact store is required")
	}
	start := time.Now()
	rc, err := store.Open(ctx, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open vectors: %w", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if strings.HasSuffix(strings.ToLower(cfg.Path), ".gz") {
		gz, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("open gzip vectors: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	wv, err := ReadWordVec(r, cfg.Model, cfg.Dim)
	if err != nil {
		return nil, err
	}
	wv.lowercaseFallback = cfg.LowercaseFallback
	logutil.GetLogger(ctx).Info("word vectors loaded",
		zap.String("model", wv.model),
		zap.String("path", cfg.Path),
		zap.Int("words", len(wv.index)),
		zap.Int("dim", wv.dim),
		zap.Duration("duration", time.Since(start)),
	)
	return wv, nil
}

// ReadWordVec parses the word2vec / GloVe text format. An optional "count dim"
// header is accepted. wantDim of 0 takes the width from the data.
func ReadWordVec(r io.Reader, model string, wantDim int) (*WordVec, error) {
	wv := &WordVec{model: model, dim: wantDim, index: make(map[string]int)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxVectorLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \r")
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if lineNo == 1 && len(fields) == 2 {
			if dim, ok := parseHeader(fields); ok {
				if wv.dim > 0 && wv.dim != dim {
					return nil, fmt.Errorf("vector header dim %d, configured %d", dim, wv.dim)
				}
				wv.dim = dim
				continue
			}
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: missing vector values", lineNo)
		}
		values := fields[1:]
		if wv.dim == 0 {
			wv.dim = len(values)
		}
		if len(values) != wv.dim {
			return nil, fmt.Errorf("line %d: got %d values, want %d", lineNo, len(values), wv.dim)
		}
		word := fields[0]
		if _, dup := wv.index[word]; dup {
			continue
		}
		offset := len(wv.values)
		for _, raw := range values {
			f, err := strconv.ParseFloat(raw, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse value %q: %w", lineNo, raw, err)
			}
			wv.values = append(wv.values, float32(f))
		}
		wv.index[word] = offset
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	if len(wv.index) == 0 {
		return nil, fmt.Errorf("vector table is empty")
	}
	return wv, nil
}

func parseHeader(fields []string) (int, bool) {
	if _, err := strconv.Atoi(fields[0]); err != nil {
		return 0, false
	}
	dim, err := strconv.Atoi(fields[1])
	if err != nil || dim <= 0 {
		return 0, false
	}
	return dim, true
}

func (w *WordVec) Embed(ctx context.Context, text string) (FeatureVector, error) {
	_ = ctx
	vec := make(FeatureVector, w.dim)
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return vec, nil
	}
	for _, tok := range tokens {
		v, ok := w.lookup(tok)
		if !ok {
			continue
		}
		for i := range vec {
			vec[i] += v[i]
		}
	}
	n := float32(len(tokens))
	for i := range vec {
		vec[i] /= n
	}
	return vec, nil
}

func (w *WordVec) lookup(token string) ([]float32, bool) {
	offset, ok := w.index[token]
	if !ok && w.lowercaseFallback {
		offset, ok = w.index[strings.ToLower(token)]
	}
	if !ok {
		return nil, false
	}
	return w.values[offset : offset+w.dim], true
}

func (w *WordVec) Dim() int {
	return w.dim
}

func (w *WordVec) ModelName() string {
	return w.model
}

func (w *WordVec) Words() int {
	return len(w.index)
}
