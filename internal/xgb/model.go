// Package xgb evaluates binary gradient boosted tree models saved in the XGBoost
// JSON format.
package xgb

import (
	"context"
	"fmt"
	"math"
	"time"

	json "github.com/goccy/go-json"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cmdguard/internal/filestore"
	"github.com/xxxsen/cmdguard/internal/model"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
)

const DefaultThreshold = 0.5

const (
	ObjectiveBinaryLogistic = "binary:logistic"
	ObjectiveRegLogistic    = "reg:logistic"
	ObjectiveBinaryLogitRaw = "binary:logitraw"
)

type Model struct {
	objective  string
	numFeature int
	baseMargin float64
	trees      []tree
	weights    []float64
	threshold  float64
	version    []int
}

// Load reads and decodes the model artifact. Every failure is an initialization error.
func Load(ctx context.Context, store filestore.Store, path string) (*Model, error) {
	start := time.Now()
	data, err := filestore.ReadAll(ctx, store, path)
	if err != nil {
		logutil.GetLogger(ctx).Error("read classifier artifact failed", zap.String("path", path), zap.Error(err))
		return nil, appErr.Initialization("classifier", err)
	}
	m, err := Parse(data)
	if err != nil {
		logutil.GetLogger(ctx).Error("decode classifier failed", zap.String("path", path), zap.Error(err))
		return nil, appErr.Initialization("classifier", err)
	}
	logutil.GetLogger(ctx).Info("classifier loaded",
		zap.String("path", path),
		zap.String("objective", m.objective),
		zap.Int("trees", len(m.trees)),
		zap.Int("num_feature", m.numFeature),
		zap.Ints("version", m.version),
		zap.Duration("duration", time.Since(start)),
	)
	return m, nil
}

func Parse(data []byte) (*Model, error) {
	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model json: %w", err)
	}
	l := f.Learner
	numClass, err := parseParam(l.LearnerModelParam.NumClass, 0)
	if err != nil {
		return nil, fmt.Errorf("num_class: %w", err)
	}
	if numClass > 2 {
		return nil, fmt.Errorf("multi-class model (num_class=%v) is not supported", numClass)
	}
	numTarget, err := parseParam(l.LearnerModelParam.NumTarget, 1)
	if err != nil {
		return nil, fmt.Errorf("num_target: %w", err)
	}
	if numTarget > 1 {
		return nil, fmt.Errorf("multi-target model (num_target=%v) is not supported", numTarget)
	}
	numFeature, err := parseParam(l.LearnerModelParam.NumFeature, 0)
	if err != nil {
		return nil, fmt.Errorf("num_feature: %w", err)
	}
	if numFeature <= 0 {
		return nil, fmt.Errorf("num_feature must be positive")
	}
	baseScore, err := parseParam(l.LearnerModelParam.BaseScore, 0.5)
	if err != nil {
		return nil, fmt.Errorf("base_score: %w", err)
	}
	baseMargin, err := baseMarginFor(l.Objective.Name, baseScore)
	if err != nil {
		return nil, err
	}

	m := &Model{
		objective:  l.Objective.Name,
		numFeature: int(numFeature),
		baseMargin: baseMargin,
		threshold:  DefaultThreshold,
		version:    f.Version,
	}
	var gb *gbtreeJSON
	switch l.GradientBooster.Name {
	case "gbtree":
		gb = l.GradientBooster.Model
	case "dart":
		if l.GradientBooster.GBTree != nil {
			gb = &l.GradientBooster.GBTree.Model
		}
	default:
		return nil, fmt.Errorf("unsupported booster %q", l.GradientBooster.Name)
	}
	if gb == nil {
		return nil, fmt.Errorf("booster %q has no trees", l.GradientBooster.Name)
	}
	for i, info := range gb.TreeInfo {
		if info != 0 {
			return nil, fmt.Errorf("tree %d belongs to output group %d, want 0", i, info)
		}
	}
	for i, tj := range gb.Trees {
		t, err := newTree(tj, m.numFeature)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.trees = append(m.trees, t)
	}
	m.weights = make([]float64, len(m.trees))
	for i := range m.weights {
		m.weights[i] = 1
	}
	if l.GradientBooster.Name == "dart" && len(l.GradientBooster.WeightDrop) > 0 {
		if len(l.GradientBooster.WeightDrop) != len(m.trees) {
			return nil, fmt.Errorf("weight_drop has %d entries for %d trees", len(l.GradientBooster.WeightDrop), len(m.trees))
		}
		copy(m.weights, l.GradientBooster.WeightDrop)
	}
	return m, nil
}

func baseMarginFor(objective string, baseScore float64) (float64, error) {
	switch objective {
	case ObjectiveBinaryLogistic, ObjectiveRegLogistic:
		if baseScore <= 0 || baseScore >= 1 {
			return 0, fmt.Errorf("base_score %v outside (0,1) for %s", baseScore, objective)
		}
		return -math.Log(1/baseScore - 1), nil
	case ObjectiveBinaryLogitRaw:
		return baseScore, nil
	default:
		return 0, fmt.Errorf("unsupported objective %q", objective)
	}
}

// SetThreshold changes the decision threshold, values outside (0,1) are ignored.
func (m *Model) SetThreshold(threshold float64) {
	if threshold > 0 && threshold < 1 {
		m.threshold = threshold
	}
}

func (m *Model) Threshold() float64 {
	return m.threshold
}

func (m *Model) NumFeature() int {
	return m.numFeature
}

func (m *Model) NumTrees() int {
	return len(m.trees)
}

func (m *Model) Objective() string {
	return m.objective
}

// Margin is the raw boosted score before the logistic transform.
func (m *Model) Margin(x []float32) (float64, error) {
	if len(x) != m.numFeature {
		return 0, appErr.Validation("feature vector has %d values, model expects %d", len(x), m.numFeature)
	}
	sum := m.baseMargin
	for i := range m.trees {
		sum += m.weights[i] * float64(m.trees[i].leafValue(x))
	}
	return sum, nil
}

func (m *Model) PredictProba(x []float32) (float64, error) {
	margin, err := m.Margin(x)
	if err != nil {
		return 0, err
	}
	return sigmoid(margin), nil
}

func (m *Model) Predict(x []float32) (*model.PredictionResult, error) {
	p, err := m.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return &model.PredictionResult{
		IsMalicious: p >= m.threshold,
		Probability: p,
		Threshold:   m.threshold,
	}, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
