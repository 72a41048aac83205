// Package main wires the run spec to the ingest, synthesis, evaluation and
// sink layers. The orchestration lives here so the CLI layer in main.go stays
// thin: flag handling there, run sequencing here.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"tabsynth/internal/config"
	"tabsynth/internal/ingest"
	"tabsynth/internal/metrics"
	"tabsynth/internal/pipeline"
	"tabsynth/internal/report"
	"tabsynth/internal/sink"
)

// runOptions carries the CLI switches that change run behavior but have no
// place in the persisted spec.
type runOptions struct {
	// Strict enforces the evaluate.min_overall quality floor and is set by
	// the -strict flag.
	Strict bool
	// Verbose enables per-column schema logging.
	Verbose bool
}

// Package-level function variables so tests can substitute fakes without
// touching the filesystem or a live backend.
var (
	loadFn     = ingest.Load
	generateFn = pipeline.Generate
	openSinkFn = sink.Open
)

// run executes one generation run end to end: load the source table, fit and
// sample the configured backend, evaluate the result, then write the report
// and the synthetic rows. The quality floor is checked after the report is
// written so a failing run still leaves its report behind.
func run(ctx context.Context, spec config.Spec, opts runOptions) error {
	start := time.Now()

	tbl, err := loadFn(ctx, spec.Source)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	log.Printf("source: rows=%s columns=%d", humanize.Comma(int64(tbl.NumRows())), tbl.NumColumns())

	// Row counters for "real" and "synthetic" are recorded inside the
	// pipeline; the container only counts what it writes itself.
	res, err := generateFn(ctx, tbl, spec.Generate.Backend, spec.Generate.PrimaryKey, spec.Generate.Rows, spec.SynthOptions())
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if opts.Verbose {
		for _, name := range res.Schema.Columns() {
			kind, _ := res.Schema.Kind(name)
			log.Printf("schema: column=%s kind=%s", name, kind)
		}
	}

	doc := report.Document{
		Run: report.RunInfo{
			RunID:        res.RunID,
			Backend:      res.Backend,
			Seed:         res.Seed,
			Rows:         res.Synthetic.NumRows(),
			SourceDigest: tbl.Digest(),
			Elapsed:      res.Elapsed,
		},
	}

	if spec.Evaluate.Active() {
		diag := report.Diagnose(tbl, res.Synthetic, res.Schema)
		metrics.RecordScore(res.Backend, "diagnostic_overall", diag.Overall)
		log.Print(diag.String())

		qual, err := report.Quality(ctx, tbl, res.Synthetic, res.Schema, report.QualityOptions{
			Workers: spec.EvalWorkers(),
			Bins:    spec.Evaluate.Bins,
		})
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		metrics.RecordScore(res.Backend, "quality_overall", qual.Overall)
		log.Print(qual.String())

		doc.Diagnostic = &diag
		doc.Quality = &qual
	}

	if path := spec.Output.ReportPath; path != "" {
		if err := writeReport(path, doc); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Printf("report: wrote %s", path)
	}

	// The quality floor blocks the sink write, not the report: a rejected
	// run should still be inspectable.
	if doc.Quality != nil && spec.Evaluate.MinOverall > 0 && doc.Quality.Overall < spec.Evaluate.MinOverall {
		if opts.Strict {
			return fmt.Errorf("quality %.1f below evaluate.min_overall %.1f", doc.Quality.Overall, spec.Evaluate.MinOverall)
		}
		log.Printf("WARNING: quality %.1f below evaluate.min_overall %.1f", doc.Quality.Overall, spec.Evaluate.MinOverall)
	}

	if spec.Output.Kind != "" {
		written, err := writeSynthetic(ctx, spec, res)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		metrics.RecordRows(res.Backend, "written", written)
		log.Printf("output: kind=%s rows=%s", spec.Output.Kind, humanize.Comma(written))
	}

	log.Printf("run %s complete: backend=%s rows=%s elapsed=%s",
		res.RunID, res.Backend,
		humanize.Comma(int64(res.Synthetic.NumRows())),
		time.Since(start).Truncate(time.Millisecond))
	return nil
}

// writeSynthetic opens the configured sink and hands it the synthetic table,
// creating the destination table first when the spec asks for it.
func writeSynthetic(ctx context.Context, spec config.Spec, res *pipeline.Result) (int64, error) {
	s, err := openSinkFn(ctx, sinkConfigFromSpec(spec))
	if err != nil {
		return 0, err
	}
	defer s.Close()

	if spec.Output.AutoCreateTable && spec.Output.Table != "" {
		def, err := sink.BuildTableDef(spec.Output.Table, res.Schema, res.Synthetic)
		if err != nil {
			return 0, err
		}
		if err := s.EnsureTable(ctx, def); err != nil {
			return 0, err
		}
	}
	return s.Write(ctx, res.Synthetic)
}

func sinkConfigFromSpec(spec config.Spec) sink.Config {
	return sink.Config{
		Kind:       spec.Output.Kind,
		Path:       spec.Output.Path,
		DSN:        spec.Output.DSN,
		Table:      spec.Output.Table,
		AutoCreate: spec.Output.AutoCreateTable,
		BatchSize:  spec.Runtime.BatchSize,
	}
}

// writeReport renders the run document as indented JSON at path, creating
// parent directories as needed.
func writeReport(path string, doc report.Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteJSON(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
