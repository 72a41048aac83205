package config

import (
	"strings"
	"testing"

	"tabsynth/internal/synth"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

// quietSpec returns a Spec that passes validation with zero issues. Tests
// mutate a copy to trigger exactly the finding under test.
func quietSpec() Spec {
	return Spec{
		Job: "test-job",
		Source: Source{
			Kind:   "file",
			Path:   "input.csv",
			Format: "csv",
		},
		Generate: Generate{
			Backend: synth.TagComposite,
			Rows:    100,
			Seed:    1,
		},
		Output: Output{
			ReportPath: "out/report.json",
		},
	}
}

/*
TestValidate_MissingJob verifies that a missing or empty Job field produces a
SeverityError with path "job".
*/
func TestValidate_MissingJob(t *testing.T) {
	s := quietSpec()
	s.Job = "  " // whitespace only

	issues := Validate(s)

	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
}

/*
TestValidate_ValidMinimal verifies that a well-formed spec produces no issues
(errors or warnings).
*/
func TestValidate_ValidMinimal(t *testing.T) {
	issues := Validate(quietSpec())
	if len(issues) != 0 {
		t.Fatalf("expected no issues for valid spec; got: %+v", issues)
	}
}

/*
TestValidateSource_Cases exercises validateSource with missing kind, unknown
kind, file/http-specific checks, and SQL-specific checks.
*/
func TestValidateSource_Cases(t *testing.T) {
	t.Run("missing_kind", func(t *testing.T) {
		issues := validateSource(Source{})
		if !hasIssue(t, issues, SeverityError, "source.kind", "must not be empty") {
			t.Fatalf("expected error for empty source.kind; got %+v", issues)
		}
	})

	t.Run("unknown_kind", func(t *testing.T) {
		issues := validateSource(Source{Kind: "weird"})
		if !hasIssue(t, issues, SeverityError, "source.kind", "unknown source kind") {
			t.Fatalf("expected error for unknown source.kind; got %+v", issues)
		}
	})

	t.Run("file_missing_path", func(t *testing.T) {
		issues := validateSource(Source{Kind: "file", Path: "  "})
		if !hasIssue(t, issues, SeverityError, "source.path", "non-empty path") {
			t.Fatalf("expected error for empty file path; got %+v", issues)
		}
	})

	t.Run("bad_format", func(t *testing.T) {
		issues := validateSource(Source{Kind: "file", Path: "x.dat", Format: "parquet"})
		if !hasIssue(t, issues, SeverityError, "source.format", "unknown format") {
			t.Fatalf("expected error for unknown format; got %+v", issues)
		}
	})

	t.Run("http_odd_path", func(t *testing.T) {
		issues := validateSource(Source{Kind: "http", Path: "ftp://host/data.csv"})
		if !hasIssue(t, issues, SeverityWarning, "source.path", "does not look like an http(s) URL") {
			t.Fatalf("expected warning for non-http URL; got %+v", issues)
		}
	})

	t.Run("sql_missing_dsn_and_table", func(t *testing.T) {
		issues := validateSource(Source{Kind: "postgres"})
		if !hasIssue(t, issues, SeverityError, "source.dsn", "requires a DSN") {
			t.Fatalf("expected error for empty dsn; got %+v", issues)
		}
		if !hasIssue(t, issues, SeverityError, "source.table", "table name or a query") {
			t.Fatalf("expected error for missing table/query; got %+v", issues)
		}
	})

	t.Run("sql_table_and_query", func(t *testing.T) {
		issues := validateSource(Source{
			Kind:  "sqlite",
			DSN:   "file:claims.db",
			Table: "claims",
			Query: "SELECT * FROM claims",
		})
		if !hasIssue(t, issues, SeverityWarning, "source.query", "the query wins") {
			t.Fatalf("expected warning for table+query; got %+v", issues)
		}
	})

	t.Run("file_ok", func(t *testing.T) {
		issues := validateSource(Source{Kind: "file", Path: "data.csv"})
		if len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})
}

/*
TestValidateGenerate_Cases covers:
  - empty backend (error),
  - unknown backend (error),
  - non-positive rows (error),
  - negative epochs (error),
  - epochs on a backend that does not train iteratively (warning),
  - seed 0 (warning),
  - a fully valid block (no issues).
*/
func TestValidateGenerate_Cases(t *testing.T) {
	t.Run("missing_backend", func(t *testing.T) {
		issues := validateGenerate(Generate{Rows: 10, Seed: 1})
		if !hasIssue(t, issues, SeverityError, "generate.backend", "must not be empty") {
			t.Fatalf("expected error for empty backend; got %+v", issues)
		}
	})

	t.Run("unknown_backend", func(t *testing.T) {
		issues := validateGenerate(Generate{Backend: "markov", Rows: 10, Seed: 1})
		if !hasIssue(t, issues, SeverityError, "generate.backend", "unknown backend") {
			t.Fatalf("expected error for unknown backend; got %+v", issues)
		}
	})

	t.Run("rows_not_positive", func(t *testing.T) {
		issues := validateGenerate(Generate{Backend: synth.TagCopula, Rows: 0, Seed: 1})
		if !hasIssue(t, issues, SeverityError, "generate.rows", "must be positive") {
			t.Fatalf("expected error for rows=0; got %+v", issues)
		}
	})

	t.Run("negative_epochs", func(t *testing.T) {
		issues := validateGenerate(Generate{Backend: synth.TagAdversarial, Rows: 10, Seed: 1, Epochs: -5})
		if !hasIssue(t, issues, SeverityError, "generate.epochs", "must not be negative") {
			t.Fatalf("expected error for negative epochs; got %+v", issues)
		}
	})

	t.Run("epochs_on_static_backend", func(t *testing.T) {
		issues := validateGenerate(Generate{Backend: synth.TagComposite, Rows: 10, Seed: 1, Epochs: 50})
		if !hasIssue(t, issues, SeverityWarning, "generate.epochs", "no effect") {
			t.Fatalf("expected warning for epochs on composite; got %+v", issues)
		}
	})

	t.Run("epochs_on_iterative_backend_ok", func(t *testing.T) {
		issues := validateGenerate(Generate{Backend: synth.TagAutoencoder, Rows: 10, Seed: 1, Epochs: 50})
		for _, iss := range issues {
			if iss.Path == "generate.epochs" {
				t.Fatalf("did not expect an epochs finding for autoencoder; got %+v", issues)
			}
		}
	})

	t.Run("seed_zero_note", func(t *testing.T) {
		issues := validateGenerate(Generate{Backend: synth.TagCopula, Rows: 10})
		if !hasIssue(t, issues, SeverityWarning, "generate.seed", "derives from the input content") {
			t.Fatalf("expected warning for seed=0; got %+v", issues)
		}
	})

	t.Run("valid_generate", func(t *testing.T) {
		issues := validateGenerate(Generate{Backend: synth.TagCopula, Rows: 10, Seed: 3})
		if len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})
}

/*
TestValidateInfer_Cases checks the inference threshold ranges. Zero values are
legal; they fall back to the schema package defaults.
*/
func TestValidateInfer_Cases(t *testing.T) {
	t.Run("negative_distinct", func(t *testing.T) {
		issues := validateInfer(Infer{CategoricalMaxDistinct: -1})
		if !hasIssue(t, issues, SeverityError, "infer.categorical_max_distinct", "must not be negative") {
			t.Fatalf("expected error for negative distinct; got %+v", issues)
		}
	})

	t.Run("ratio_out_of_range", func(t *testing.T) {
		for _, ratio := range []float64{-0.1, 1.5} {
			issues := validateInfer(Infer{CategoricalMaxRatio: ratio})
			if !hasIssue(t, issues, SeverityError, "infer.categorical_max_ratio", "fraction in [0, 1]") {
				t.Fatalf("expected error for ratio=%v; got %+v", ratio, issues)
			}
		}
	})

	t.Run("zero_values_ok", func(t *testing.T) {
		issues := validateInfer(Infer{})
		if len(issues) != 0 {
			t.Fatalf("expected no issues for defaults; got %+v", issues)
		}
	})
}

/*
TestValidateEvaluate_Cases checks worker/bin counts, the single-bin warning,
and the min_overall percentage range.
*/
func TestValidateEvaluate_Cases(t *testing.T) {
	t.Run("negatives", func(t *testing.T) {
		issues := validateEvaluate(Evaluate{Workers: -1, Bins: -2})
		if !hasIssue(t, issues, SeverityError, "evaluate.workers", "must not be negative") {
			t.Fatalf("expected error for negative workers; got %+v", issues)
		}
		if !hasIssue(t, issues, SeverityError, "evaluate.bins", "must not be negative") {
			t.Fatalf("expected error for negative bins; got %+v", issues)
		}
	})

	t.Run("single_bin_warning", func(t *testing.T) {
		issues := validateEvaluate(Evaluate{Bins: 1})
		if !hasIssue(t, issues, SeverityWarning, "evaluate.bins", "single cell") {
			t.Fatalf("expected warning for bins=1; got %+v", issues)
		}
	})

	t.Run("min_overall_out_of_range", func(t *testing.T) {
		for _, min := range []float64{-1, 101} {
			issues := validateEvaluate(Evaluate{MinOverall: min})
			if !hasIssue(t, issues, SeverityError, "evaluate.min_overall", "percentage in [0, 100]") {
				t.Fatalf("expected error for min_overall=%v; got %+v", min, issues)
			}
		}
	})

	t.Run("valid_evaluate", func(t *testing.T) {
		issues := validateEvaluate(Evaluate{Workers: 4, Bins: 10, MinOverall: 60})
		if len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})
}

/*
TestValidateOutput_Cases checks output kind, per-kind required fields, and the
report_path warning when evaluation is active.
*/
func TestValidateOutput_Cases(t *testing.T) {
	off := false
	evalOff := Evaluate{Enabled: &off}

	t.Run("empty_kind_ok", func(t *testing.T) {
		issues := validateOutput(Output{}, evalOff)
		if len(issues) != 0 {
			t.Fatalf("expected no issues when nothing is persisted; got %+v", issues)
		}
	})

	t.Run("unknown_kind", func(t *testing.T) {
		issues := validateOutput(Output{Kind: "weird"}, evalOff)
		if !hasIssue(t, issues, SeverityError, "output.kind", "unknown output kind") {
			t.Fatalf("expected error for unknown output.kind; got %+v", issues)
		}
	})

	t.Run("csv_missing_path", func(t *testing.T) {
		issues := validateOutput(Output{Kind: "csv"}, evalOff)
		if !hasIssue(t, issues, SeverityError, "output.path", "non-empty path") {
			t.Fatalf("expected error for empty csv path; got %+v", issues)
		}
	})

	t.Run("sql_missing_dsn_and_table", func(t *testing.T) {
		issues := validateOutput(Output{Kind: "mysql"}, evalOff)
		if !hasIssue(t, issues, SeverityError, "output.dsn", "requires a DSN") {
			t.Fatalf("expected error for empty dsn; got %+v", issues)
		}
		if !hasIssue(t, issues, SeverityError, "output.table", "requires a table name") {
			t.Fatalf("expected error for empty table; got %+v", issues)
		}
	})

	t.Run("report_warning_when_evaluating", func(t *testing.T) {
		issues := validateOutput(Output{Kind: "csv", Path: "out.csv"}, Evaluate{})
		if !hasIssue(t, issues, SeverityWarning, "output.report_path", "no report_path") {
			t.Fatalf("expected warning for missing report_path; got %+v", issues)
		}
	})

	t.Run("valid_postgres_output", func(t *testing.T) {
		o := Output{
			Kind:            "postgres",
			DSN:             "postgres://x",
			Table:           "public.t",
			AutoCreateTable: true,
			ReportPath:      "report.json",
		}
		issues := validateOutput(o, Evaluate{})
		if len(issues) != 0 {
			t.Fatalf("expected no issues; got %+v", issues)
		}
	})
}

/*
TestValidateRuntime_Cases checks Runtime for negative worker counts and batch
sizes. Zero values are legal defaults.
*/
func TestValidateRuntime_Cases(t *testing.T) {
	t.Run("negatives", func(t *testing.T) {
		issues := validateRuntime(Runtime{EvalWorkers: -1, BatchSize: -10})
		if !hasIssue(t, issues, SeverityError, "runtime.eval_workers", "must not be negative") {
			t.Fatalf("expected error for negative eval_workers; got %+v", issues)
		}
		if !hasIssue(t, issues, SeverityError, "runtime.batch_size", "must not be negative") {
			t.Fatalf("expected error for negative batch_size; got %+v", issues)
		}
	})

	t.Run("zero_values_ok", func(t *testing.T) {
		issues := validateRuntime(Runtime{})
		if len(issues) != 0 {
			t.Fatalf("expected no issues for zero runtime; got %+v", issues)
		}
	})
}

/*
TestIssue_Error verifies the error-string rendering used when an Issue is
surfaced through an error value.
*/
func TestIssue_Error(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "generate.rows", Message: "rows=0; the synthetic row count must be positive"}
	got := iss.Error()
	for _, want := range []string{"error", "generate.rows", "must be positive"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Error() = %q, missing %q", got, want)
		}
	}
}
