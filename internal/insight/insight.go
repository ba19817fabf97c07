// Package insight computes word frequency rankings over the labelled dataset.
package insight

import (
	"sort"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/xxxsen/cmdguard/internal/model"
)

const DefaultTopN = 10

// Tokenizer splits prompt text into counted tokens. The zero value is the baseline:
// whitespace split, case and punctuation kept as is.
type Tokenizer struct {
	Lowercase        bool
	StripPunctuation bool
}

func (t Tokenizer) Tokens(text string) []string {
	fields := strings.Fields(text)
	if !t.Lowercase && !t.StripPunctuation {
		return fields
	}
	out := fields[:0]
	for _, f := range fields {
		if t.StripPunctuation {
			f = strings.TrimFunc(f, unicode.IsPunct)
		}
		if t.Lowercase {
			f = strings.ToLower(f)
		}
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// TopTokens counts tokens of the rows carrying label and returns at most n entries by
// descending count. Equal counts keep the order in which tokens first appeared.
// n <= 0 means DefaultTopN. An empty subset yields an empty slice.
func (t Tokenizer) TopTokens(rows []model.LabeledRow, label bool, n int) []model.TokenCount {
	if n <= 0 {
		n = DefaultTopN
	}
	subset := lo.Filter(rows, func(r model.LabeledRow, _ int) bool {
		return r.IsMalicious == label
	})
	index := make(map[string]int)
	counts := make([]model.TokenCount, 0)
	for _, row := range subset {
		for _, tok := range t.Tokens(row.Text) {
			if i, ok := index[tok]; ok {
				counts[i].Count++
				continue
			}
			index[tok] = len(counts)
			counts = append(counts, model.TokenCount{Token: tok, Count: 1})
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func TopTokens(rows []model.LabeledRow, label bool, n int) []model.TokenCount {
	return Tokenizer{}.TopTokens(rows, label, n)
}

// Report holds both rankings shown on the insights page.
type Report struct {
	Malicious []model.TokenCount `json:"malicious"`
	Benign    []model.TokenCount `json:"benign"`
}

func (t Tokenizer) Report(rows []model.LabeledRow, n int) *Report {
	return &Report{
		Malicious: t.TopTokens(rows, true, n),
		Benign:    t.TopTokens(rows, false, n),
	}
}
