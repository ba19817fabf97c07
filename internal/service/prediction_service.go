package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cmdguard/internal/config"
	"github.com/xxxsen/cmdguard/internal/embedding"
	"github.com/xxxsen/cmdguard/internal/filestore"
	"github.com/xxxsen/cmdguard/internal/model"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
	"github.com/xxxsen/cmdguard/internal/xgb"
)

type IClassifier interface {
	Predict(x []float32) (*model.PredictionResult, error)
	NumFeature() int
}

type EmbedderLoader func(ctx context.Context) (embedding.IEmbedder, error)

type ClassifierLoader func(ctx context.Context) (IClassifier, error)

type predictionModels struct {
	embedder   embedding.IEmbedder
	classifier IClassifier
}

// PredictionService embeds a command string and scores it with the classifier.
// Both models are loaded on first use and shared read-only afterwards.
type PredictionService struct {
	models *lazy[*predictionModels]
}

func NewPredictionService(loadEmbedder EmbedderLoader, loadClassifier ClassifierLoader) *PredictionService {
	return &PredictionService{
		models: newLazy(func(ctx context.Context) (*predictionModels, error) {
			return loadPredictionModels(ctx, loadEmbedder, loadClassifier)
		}),
	}
}

func NewPredictionServiceFromConfig(cfg *config.Config, store filestore.Store) *PredictionService {
	return NewPredictionService(
		func(ctx context.Context) (embedding.IEmbedder, error) {
			return embedding.New(ctx, cfg.Embedding, store)
		},
		func(ctx context.Context) (IClassifier, error) {
			m, err := xgb.Load(ctx, store, cfg.Classifier.Path)
			if err != nil {
				return nil, err
			}
			m.SetThreshold(cfg.Classifier.Threshold)
			return m, nil
		},
	)
}

func loadPredictionModels(ctx context.Context, loadEmbedder EmbedderLoader, loadClassifier ClassifierLoader) (*predictionModels, error) {
	logger := logutil.GetLogger(ctx)
	start := time.Now()
	emb, err := loadEmbedder(ctx)
	if err != nil {
		logger.Error("load embedding model failed", zap.Error(err))
		return nil, wrapInit("embedding", err)
	}
	clf, err := loadClassifier(ctx)
	if err != nil {
		logger.Error("load classifier failed", zap.Error(err))
		return nil, wrapInit("classifier", err)
	}
	if emb.Dim() != clf.NumFeature() {
		err := fmt.Errorf("embedding width %d does not match classifier features %d", emb.Dim(), clf.NumFeature())
		logger.Error("prediction models incompatible", zap.Error(err))
		return nil, appErr.Initialization("pipeline", err)
	}
	logger.Info("prediction models ready",
		zap.String("embedding_model", emb.ModelName()),
		zap.Int("dim", emb.Dim()),
		zap.Duration("duration", time.Since(start)),
	)
	return &predictionModels{embedder: emb, classifier: clf}, nil
}

func wrapInit(stage string, err error) error {
	if appErr.IsInitialization(err) {
		return err
	}
	return appErr.Initialization(stage, err)
}

// Warmup forces the models to load. Callers should stop taking input if it fails.
func (s *PredictionService) Warmup(ctx context.Context) error {
	_, err := s.models.Get(ctx)
	return err
}

func (s *PredictionService) State() string {
	return s.models.State()
}

// Classify runs the full pipeline for one input. Empty text is valid input.
func (s *PredictionService) Classify(ctx context.Context, text string) (*model.PredictionResult, error) {
	m, err := s.models.Get(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embed input failed", zap.Error(err))
		return nil, fmt.Errorf("embed input: %w", err)
	}
	res, err := m.classifier.Predict(vec)
	if err != nil {
		logutil.GetLogger(ctx).Warn("predict failed", zap.Int("dim", len(vec)), zap.Error(err))
		return nil, err
	}
	logutil.GetLogger(ctx).Debug("command classified",
		zap.Int("input_len", len(text)),
		zap.Bool("is_malicious", res.IsMalicious),
		zap.Float64("probability", res.Probability),
	)
	return res, nil
}
