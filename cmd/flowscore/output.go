package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/flowfi/flowai/internal/services"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResult(w io.Writer, r *services.AnalysisResult) error {
	fmt.Fprintf(w, "Risk score:  %s\n", r.RiskScore)
	fmt.Fprintf(w, "Valuation:   $%s\n", humanize.Comma(int64(r.Valuation)))
	fmt.Fprintf(w, "Confidence:  %.0f%%\n", r.Confidence*100)
	if r.Core != nil {
		fmt.Fprintf(w, "PD:          %.2f%%\n", r.Core.ProbabilityOfDefault*100)
	}
	if r.QuantumScore != nil {
		fmt.Fprintf(w, "Score:       %.1f/100\n", *r.QuantumScore)
	}
	fmt.Fprintf(w, "Model:       %s (%s)\n", r.ModelUsed, r.Source)
	if r.Document.Truncated {
		fmt.Fprintf(w, "Note:        document truncated to %s characters\n", humanize.Comma(int64(r.Document.Chars)))
	}
	fmt.Fprintf(w, "\n%s\n", r.Summary)
	if r.Reasoning != nil && *r.Reasoning != "" {
		fmt.Fprintf(w, "\n%s\n", *r.Reasoning)
	}
	return nil
}
