package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Document bundles a run's reports for serialization.
type Document struct {
	Run        RunInfo           `json:"run"`
	Diagnostic *DiagnosticReport `json:"diagnostic,omitempty"`
	Quality    *QualityReport    `json:"quality,omitempty"`
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (r DiagnosticReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "diagnostic: overall=%.1f validity=%.1f structure=%.1f",
		r.Overall, r.Validity, r.Structure)
	names := make([]string, 0, len(r.Columns))
	for name := range r.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  column %s: %.3f", name, r.Columns[name])
	}
	return b.String()
}

func (r QualityReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "quality: overall=%.1f shape_mean=%.3f pair_mean=%.3f",
		r.Overall, r.ShapeMean, r.PairMean)
	for _, line := range scoreLines("shape", r.ColumnShapes) {
		b.WriteString(line)
	}
	for _, line := range scoreLines("trend", r.PairTrends) {
		b.WriteString(line)
	}
	return b.String()
}

func scoreLines(prefix string, scores map[string]Score) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		s := scores[name]
		lines = append(lines, fmt.Sprintf("\n  %s %s: %s=%.3f", prefix, name, s.Metric, s.Value))
	}
	return lines
}
