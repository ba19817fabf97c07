package service

import (
	"context"

	"github.com/xxxsen/cmdguard/internal/config"
	"github.com/xxxsen/cmdguard/internal/dataset"
	"github.com/xxxsen/cmdguard/internal/filestore"
	"github.com/xxxsen/cmdguard/internal/insight"
	"github.com/xxxsen/cmdguard/internal/model"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
)

type RowsLoader func(ctx context.Context) ([]model.LabeledRow, error)

type InsightService struct {
	rows      *lazy[[]model.LabeledRow]
	tokenizer insight.Tokenizer
	topN      int
}

func NewInsightService(load RowsLoader, tokenizer insight.Tokenizer, topN int) *InsightService {
	if topN <= 0 {
		topN = insight.DefaultTopN
	}
	return &InsightService{
		rows: newLazy(func(ctx context.Context) ([]model.LabeledRow, error) {
			rows, err := load(ctx)
			if err != nil && !appErr.IsDataFormat(err) {
				return nil, wrapInit("dataset", err)
			}
			return rows, err
		}),
		tokenizer: tokenizer,
		topN:      topN,
	}
}

func NewInsightServiceFromConfig(cfg *config.Config, store filestore.Store) *InsightService {
	tokenizer := insight.Tokenizer{
		Lowercase:        cfg.Insights.Lowercase,
		StripPunctuation: cfg.Insights.StripPunctuation,
	}
	return NewInsightService(func(ctx context.Context) ([]model.LabeledRow, error) {
		return dataset.Load(ctx, store, cfg.Dataset)
	}, tokenizer, cfg.Insights.TopN)
}

func (s *InsightService) State() string {
	return s.rows.State()
}

// Insights ranks tokens for both labels. n <= 0 uses the configured default.
func (s *InsightService) Insights(ctx context.Context, n int) (*insight.Report, error) {
	rows, err := s.rows.Get(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.topN
	}
	return s.tokenizer.Report(rows, n), nil
}

func (s *InsightService) TopTokens(ctx context.Context, label bool, n int) ([]model.TokenCount, error) {
	rows, err := s.rows.Get(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.topN
	}
	return s.tokenizer.TopTokens(rows, label, n), nil
}
