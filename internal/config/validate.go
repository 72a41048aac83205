// Package config provides the run spec model and helpers.
//
// This file adds a lightweight linter/validator for Spec values. It performs
// static checks over a decoded Spec and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"tabsynth/internal/synth"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Spec.
//
// Path is a dotted path into the config (e.g. "source.kind",
// "generate.rows"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Source kinds with a matching loader, and output kinds with a matching
// sink.
var (
	knownSourceKinds = []string{"file", "http", "postgres", "sqlite", "mysql", "mssql"}
	knownOutputKinds = []string{"csv", "postgres", "sqlite", "mysql", "mssql"}
	knownFormats     = []string{"csv", "json"}
	knownBackends    = []string{synth.TagComposite, synth.TagCopula, synth.TagAdversarial, synth.TagAutoencoder}
)

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func sqlKind(kind string) bool {
	switch kind {
	case "postgres", "sqlite", "mysql", "mssql":
		return true
	}
	return false
}

// Validate performs static validation / linting of a Spec.
//
// It does not mutate the spec. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	var s config.Spec
//	if err := json.NewDecoder(r).Decode(&s); err != nil { ... }
//	issues := config.Validate(s)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func Validate(s Spec) []Issue {
	var issues []Issue

	// Top-level checks.
	if strings.TrimSpace(s.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(s.Source)...)
	issues = append(issues, validateGenerate(s.Generate)...)
	issues = append(issues, validateInfer(s.Infer)...)
	issues = append(issues, validateEvaluate(s.Evaluate)...)
	issues = append(issues, validateOutput(s.Output, s.Evaluate)...)
	issues = append(issues, validateRuntime(s.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}
	if !contains(knownSourceKinds, s.Kind) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; known kinds: %s", s.Kind, strings.Join(knownSourceKinds, ", ")),
		})
		return issues
	}

	switch {
	case s.Kind == "file" || s.Kind == "http":
		if strings.TrimSpace(s.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.path",
				Message:  fmt.Sprintf("%s source requires a non-empty path", s.Kind),
			})
		}
		if s.Format != "" && !contains(knownFormats, s.Format) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.format",
				Message:  fmt.Sprintf("unknown format %q; known formats: %s", s.Format, strings.Join(knownFormats, ", ")),
			})
		}
		if s.Kind == "http" && !strings.HasPrefix(s.Path, "http://") && !strings.HasPrefix(s.Path, "https://") {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.path",
				Message:  "http source path does not look like an http(s) URL",
			})
		}

	case sqlKind(s.Kind):
		if strings.TrimSpace(s.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.dsn",
				Message:  fmt.Sprintf("%s source requires a DSN", s.Kind),
			})
		}
		if strings.TrimSpace(s.Table) == "" && strings.TrimSpace(s.Query) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.table",
				Message:  "SQL sources require a table name or a query",
			})
		}
		if strings.TrimSpace(s.Table) != "" && strings.TrimSpace(s.Query) != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.query",
				Message:  "both table and query are set; the query wins",
			})
		}
	}

	return issues
}

// validateGenerate validates backend selection and sampling parameters.
func validateGenerate(g Generate) []Issue {
	var issues []Issue

	if strings.TrimSpace(g.Backend) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generate.backend",
			Message:  "generate.backend must not be empty",
		})
	} else if !contains(knownBackends, g.Backend) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generate.backend",
			Message:  fmt.Sprintf("unknown backend %q; known backends: %s", g.Backend, strings.Join(knownBackends, ", ")),
		})
	}

	if g.Rows <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generate.rows",
			Message:  fmt.Sprintf("rows=%d; the synthetic row count must be positive", g.Rows),
		})
	}

	if g.Epochs < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generate.epochs",
			Message:  "epochs must not be negative",
		})
	}
	if g.Epochs > 0 && (g.Backend == synth.TagComposite || g.Backend == synth.TagCopula) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "generate.epochs",
			Message:  fmt.Sprintf("epochs has no effect on the %s backend; only adversarial and autoencoder train iteratively", g.Backend),
		})
	}

	if g.Seed == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "generate.seed",
			Message:  "seed is 0, so the sampling seed derives from the input content; set an explicit seed to pin output across input changes",
		})
	}

	return issues
}

// validateInfer validates inference thresholds.
func validateInfer(i Infer) []Issue {
	var issues []Issue

	if i.CategoricalMaxDistinct < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "infer.categorical_max_distinct",
			Message:  "categorical_max_distinct must not be negative",
		})
	}
	if i.CategoricalMaxRatio < 0 || i.CategoricalMaxRatio > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "infer.categorical_max_ratio",
			Message:  fmt.Sprintf("categorical_max_ratio=%v; the ratio is a fraction in [0, 1]", i.CategoricalMaxRatio),
		})
	}

	return issues
}

// validateEvaluate validates evaluator settings.
func validateEvaluate(e Evaluate) []Issue {
	var issues []Issue

	if e.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "evaluate.workers",
			Message:  "workers must not be negative",
		})
	}
	if e.Bins < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "evaluate.bins",
			Message:  "bins must not be negative",
		})
	}
	if e.Bins == 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "evaluate.bins",
			Message:  "bins=1 collapses every mixed column pair into a single cell; the contingency score becomes vacuous",
		})
	}
	if e.MinOverall < 0 || e.MinOverall > 100 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "evaluate.min_overall",
			Message:  fmt.Sprintf("min_overall=%v; the quality floor is a percentage in [0, 100]", e.MinOverall),
		})
	}

	return issues
}

// validateOutput validates the sink and report destinations.
func validateOutput(o Output, e Evaluate) []Issue {
	var issues []Issue

	if strings.TrimSpace(o.Kind) != "" {
		if !contains(knownOutputKinds, o.Kind) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.kind",
				Message:  fmt.Sprintf("unknown output kind %q; known kinds: %s", o.Kind, strings.Join(knownOutputKinds, ", ")),
			})
			return issues
		}

		switch {
		case o.Kind == "csv":
			if strings.TrimSpace(o.Path) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "output.path",
					Message:  "csv output requires a non-empty path",
				})
			}
		case sqlKind(o.Kind):
			if strings.TrimSpace(o.DSN) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "output.dsn",
					Message:  fmt.Sprintf("%s output requires a DSN", o.Kind),
				})
			}
			if strings.TrimSpace(o.Table) == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "output.table",
					Message:  fmt.Sprintf("%s output requires a table name", o.Kind),
				})
			}
		}
	}

	if e.Active() && strings.TrimSpace(o.ReportPath) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "output.report_path",
			Message:  "evaluation is enabled but no report_path is set; scores will only appear in the log",
		})
	}

	return issues
}

// validateRuntime validates Runtime for obvious misconfigurations.
func validateRuntime(r Runtime) []Issue {
	var issues []Issue

	if r.EvalWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.eval_workers",
			Message:  "eval_workers must not be negative",
		})
	}
	if r.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  "batch_size must not be negative",
		})
	}

	return issues
}
