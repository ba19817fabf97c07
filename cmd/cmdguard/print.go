package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/xxxsen/cmdguard/internal/insight"
	"github.com/xxxsen/cmdguard/internal/model"
)

func printPrediction(w io.Writer, res *model.PredictionResult) {
	fmt.Fprintln(w, "Prediction Result")
	fmt.Fprintf(w, "Is it malicious : %t\n", res.IsMalicious)
	fmt.Fprintf(w, "Probability of being malicious: %.4f\n", res.Percent())
}

const (
	maliciousTitle = "1. Most common words in prompts for Malicious Label:"
	benignTitle    = "2. Most common words in prompts for Non-Malicious Label:"
)

func printReport(w io.Writer, report *insight.Report) {
	printRanking(w, maliciousTitle, report.Malicious)
	fmt.Fprintln(w)
	printRanking(w, benignTitle, report.Benign)
}

func rankingTitle(malicious bool) string {
	if malicious {
		return maliciousTitle
	}
	return benignTitle
}

// parseLabelFlag returns nil when both labels are wanted.
func parseLabelFlag(raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "malicious", "1", "true":
		return lo.ToPtr(true), nil
	case "benign", "0", "false":
		return lo.ToPtr(false), nil
	}
	return nil, fmt.Errorf("invalid --label %q, want malicious or benign", raw)
}

func printRanking(w io.Writer, title string, counts []model.TokenCount) {
	fmt.Fprintln(w, title)
	if len(counts) == 0 {
		fmt.Fprintln(w, "No data available for generating insights.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Word", "Count"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for i, tc := range counts {
		table.Append([]string{strconv.Itoa(i + 1), tc.Token, strconv.Itoa(tc.Count)})
	}
	table.Render()
}
