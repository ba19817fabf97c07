// Package dataset reads the labelled command table used by the insights page.
package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cmdguard/internal/config"
	"github.com/xxxsen/cmdguard/internal/filestore"
	"github.com/xxxsen/cmdguard/internal/model"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
)

// Load returns the rows of the configured table in file order. A missing text or
// label column is a data format error and no rows are returned.
func Load(ctx context.Context, store filestore.Store, cfg config.DatasetConfig) ([]model.LabeledRow, error) {
	start := time.Now()
	logger := logutil.GetLogger(ctx).With(zap.String("path", cfg.Path))
	data, err := filestore.ReadAll(ctx, store, cfg.Path)
	if err != nil {
		logger.Error("read dataset failed", zap.Error(err))
		return nil, appErr.Initialization("dataset", err)
	}
	var table [][]string
	switch ext := strings.ToLower(filepath.Ext(cfg.Path)); ext {
	case ".xlsx", ".xlsm":
		table, err = readXLSX(data, cfg.Sheet)
	case ".csv":
		table, err = readCSV(data)
	default:
		err = appErr.DataFormat("unsupported dataset extension %q", ext)
	}
	if err != nil {
		logger.Error("parse dataset failed", zap.Error(err))
		return nil, err
	}
	rows, err := FromTable(ctx, table, cfg.TextColumn, cfg.LabelColumn)
	if err != nil {
		logger.Error("dataset rejected", zap.Error(err))
		return nil, err
	}
	logger.Info("dataset loaded", zap.Int("rows", len(rows)), zap.Duration("duration", time.Since(start)))
	return rows, nil
}

func readXLSX(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, appErr.DataFormat("open spreadsheet: %v", err)
	}
	defer f.Close()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, appErr.DataFormat("spreadsheet has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, appErr.DataFormat("read sheet %q: %v", sheet, err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, appErr.DataFormat("read csv: %v", err)
	}
	return rows, nil
}

// FromTable converts a header-first table into labelled rows. Short rows are padded
// with empty cells, fully blank rows are skipped. Rows whose label is neither 0 nor 1
// belong to no ranking and are dropped with a warning.
func FromTable(ctx context.Context, table [][]string, textColumn, labelColumn string) ([]model.LabeledRow, error) {
	if len(table) == 0 {
		return nil, appErr.DataFormat("dataset has no header row")
	}
	header := lo.Map(table[0], func(h string, _ int) string {
		return strings.TrimSpace(h)
	})
	textIdx := lo.IndexOf(header, textColumn)
	if textIdx < 0 {
		return nil, appErr.DataFormat("column %q not found", textColumn)
	}
	labelIdx := lo.IndexOf(header, labelColumn)
	if labelIdx < 0 {
		return nil, appErr.DataFormat("column %q not found", labelColumn)
	}
	rows := make([]model.LabeledRow, 0, len(table)-1)
	skipped := 0
	for i, rec := range table[1:] {
		if isBlank(rec) {
			continue
		}
		label, err := ParseLabel(cell(rec, labelIdx))
		if err != nil {
			skipped++
			logutil.GetLogger(ctx).Warn("skip unlabelled row", zap.Int("row", i+2), zap.Error(err))
			continue
		}
		rows = append(rows, model.LabeledRow{Text: cell(rec, textIdx), IsMalicious: label})
	}
	if skipped > 0 {
		logutil.GetLogger(ctx).Warn("dataset rows without a binary label", zap.Int("skipped", skipped), zap.Int("kept", len(rows)))
	}
	return rows, nil
}

// ParseLabel accepts 0/1 (also as floats) and true/false.
func ParseLabel(raw string) (bool, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "1", "true":
		return true, nil
	case "0", "false":
		return false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil && (f == 0 || f == 1) {
		return f == 1, nil
	}
	return false, fmt.Errorf("invalid label %q", raw)
}

func cell(rec []string, idx int) string {
	if idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
