// Package report scores synthetic tables: Diagnose for structural
// validity against a schema, Quality for statistical similarity to the
// real table. Both are pure functions of their inputs and every report
// owns its maps.
package report

import "time"

// Metric names used in Score entries.
const (
	MetricKSComplement = "ks_complement"
	MetricTVComplement = "tv_complement"
	MetricCorrelation  = "correlation_similarity"
	MetricContingency  = "contingency_similarity"
)

// Score is one metric result in [0,1].
type Score struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// DiagnosticReport carries the pass/fail health of a synthetic table.
// Overall, Validity and Structure are percentages on 0-100; Columns holds
// each schema column's validity share in [0,1]. A healthy run scores 100.
type DiagnosticReport struct {
	Overall   float64            `json:"overall"`
	Validity  float64            `json:"validity"`
	Structure float64            `json:"structure"`
	Columns   map[string]float64 `json:"columns"`
}

// Healthy reports a perfect diagnostic.
func (r DiagnosticReport) Healthy() bool { return r.Overall == 100 }

// QualityReport carries the statistical similarity scores. Overall is on
// 0-100; the per-column and per-pair scores are in [0,1]. Pair keys join
// the two column names with a comma.
type QualityReport struct {
	Overall      float64          `json:"overall"`
	ShapeMean    float64          `json:"shape_mean"`
	PairMean     float64          `json:"pair_mean"`
	ColumnShapes map[string]Score `json:"column_shapes"`
	PairTrends   map[string]Score `json:"pair_trends"`
}

// RunInfo identifies the generation run a report belongs to.
type RunInfo struct {
	RunID        string        `json:"run_id"`
	Backend      string        `json:"backend"`
	Seed         int64         `json:"seed"`
	Rows         int           `json:"rows"`
	SourceDigest uint64        `json:"source_digest"`
	Elapsed      time.Duration `json:"elapsed"`
}
