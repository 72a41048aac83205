// Package config defines the canonical, JSON-serializable configuration model
// for a generation run. It is intentionally small, explicit, and dependency-
// free so that run specs can be loaded from disk (or posted to the web UI) and
// passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in run spec
//     files under configs/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":      "demo",
//	  "source":   { "kind": "file", "path": "testdata/real.csv", "format": "csv" },
//	  "generate": { "backend": "copula", "primary_key": "id", "rows": 1000 },
//	  "output":   { "kind": "csv", "path": "out/synthetic.csv" }
//	}
package config

import (
	"encoding/json"

	"tabsynth/internal/schema"
	"tabsynth/internal/synth"
)

// Spec describes one full generation run in JSON. It is the top-level object
// decoded from a run spec file (e.g., configs/*.json).
type Spec struct {
	// Job names the run for metrics labeling and logs.
	Job string `json:"job"`

	// Source describes where the real input table comes from.
	Source Source `json:"source"`

	// Generate selects the backend and sampling parameters.
	Generate Generate `json:"generate"`

	// Infer tunes schema inference thresholds. Zero values mean defaults.
	Infer Infer `json:"infer"`

	// Evaluate controls the diagnostic and quality evaluators.
	Evaluate Evaluate `json:"evaluate"`

	// Output describes where the synthetic table and report are written.
	Output Output `json:"output"`

	Runtime Runtime `json:"runtime"`
}

// Source identifies the input data. Kind selects the implementation:
// "file", "http", or one of the SQL kinds ("postgres", "sqlite", "mysql",
// "mssql").
type Source struct {
	Kind string `json:"kind"`

	// Path is a local file path (file kind) or URL (http kind).
	Path string `json:"path"`

	// Format picks the decoder for file/http sources: "csv" or "json".
	// Empty means sniff from the path extension.
	Format string `json:"format"`

	// DSN is the connection string for SQL kinds.
	DSN string `json:"dsn"`

	// Table is a bare table name for SQL kinds; the whole table is read.
	Table string `json:"table"`

	// Query, when set, overrides Table with a full SELECT for SQL kinds.
	Query string `json:"query"`

	// Options is a free-form map interpreted by the decoder. For CSV,
	// typical keys include: has_header (bool), comma (string),
	// max_rows (int).
	Options Options `json:"options"`
}

// Generate selects the synthesizer backend and its parameters.
type Generate struct {
	// Backend is the registered backend tag: composite, copula,
	// adversarial, or autoencoder.
	Backend string `json:"backend"`

	// PrimaryKey optionally names the column promoted to a unique
	// identifier before fitting.
	PrimaryKey string `json:"primary_key"`

	// Rows is the number of synthetic rows to sample.
	Rows int `json:"rows"`

	// Seed fixes the sampling stream; 0 derives it from the input content.
	Seed int64 `json:"seed"`

	// Epochs bounds the training loop of iterative backends; 0 means the
	// backend default.
	Epochs int `json:"epochs"`

	// EnforceBounds and EnforceRounding toggle the continuous post-pass.
	// Absent means true.
	EnforceBounds   *bool `json:"enforce_bounds"`
	EnforceRounding *bool `json:"enforce_rounding"`
}

// Infer tunes schema inference. Zero values fall back to the schema
// package defaults.
type Infer struct {
	CategoricalMaxDistinct int     `json:"categorical_max_distinct"`
	CategoricalMaxRatio    float64 `json:"categorical_max_ratio"`
}

// Evaluate controls the evaluators run after sampling.
type Evaluate struct {
	// Enabled turns evaluation on or off. Absent means on.
	Enabled *bool `json:"enabled"`

	// Workers caps pair-metric parallelism; 0 falls back to
	// runtime.eval_workers, then GOMAXPROCS.
	Workers int `json:"workers"`

	// Bins is the discretization width for mixed column pairs; 0 means 10.
	Bins int `json:"bins"`

	// MinOverall is the quality score floor enforced by -strict; 0 means
	// no floor.
	MinOverall float64 `json:"min_overall"`
}

// Active reports whether evaluation is on.
func (e Evaluate) Active() bool {
	return e.Enabled == nil || *e.Enabled
}

// Output describes where results go. Kind is "csv" or one of the SQL
// kinds; empty means the synthetic table is not persisted.
type Output struct {
	Kind string `json:"kind"`

	// Path is the destination file for the csv kind.
	Path string `json:"path"`

	// DSN and Table address the destination for SQL kinds.
	DSN   string `json:"dsn"`
	Table string `json:"table"`

	// AutoCreateTable creates the destination table from the inferred
	// schema when it does not exist.
	AutoCreateTable bool `json:"auto_create_table"`

	// ReportPath, when set, writes the JSON run report there.
	ReportPath string `json:"report_path"`

	// Options is a free-form map interpreted by the sink.
	Options Options `json:"options"`
}

// Runtime controls process-level knobs.
type Runtime struct {
	// EvalWorkers is the fallback pair-metric parallelism when
	// evaluate.workers is unset.
	EvalWorkers int `json:"eval_workers"`

	// BatchSize is the row batch size used by SQL sinks; 0 means 500.
	BatchSize int `json:"batch_size"`
}

// SynthOptions translates the generate and infer blocks into backend
// options. This is the single point where config meets the synthesizer.
func (s Spec) SynthOptions() synth.Options {
	return synth.Options{
		Seed:            s.Generate.Seed,
		Epochs:          s.Generate.Epochs,
		EnforceBounds:   s.Generate.EnforceBounds,
		EnforceRounding: s.Generate.EnforceRounding,
		Infer: schema.InferOptions{
			CategoricalMaxDistinct: s.Infer.CategoricalMaxDistinct,
			CategoricalMaxRatio:    s.Infer.CategoricalMaxRatio,
		},
	}
}

// EvalWorkers resolves the pair-metric worker count: evaluate.workers,
// then runtime.eval_workers. Zero lets the evaluator pick GOMAXPROCS.
func (s Spec) EvalWorkers() int {
	if s.Evaluate.Workers > 0 {
		return s.Evaluate.Workers
	}
	return s.Runtime.EvalWorkers
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options is used for source/sink-specific configuration where the shape
// varies by implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Float returns the float64 value for key or def. Integer JSON values are
// accepted and widened.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character settings such as a
// CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive). This is useful for retrieving nested
// configuration blocks that will be unmarshaled into a typed struct by the
// caller.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
