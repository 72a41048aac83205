package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"tabsynth/internal/config"
	"tabsynth/internal/ingest"
	"tabsynth/internal/inspect"
	"tabsynth/internal/schema"
)

// main is the entrypoint for the schema probing CLI. It loads a table from a
// file or URL, infers the column kinds, and prints a line-per-column summary.
// With -emit-config it prints a starter run spec as JSON instead.
//
// The resulting spec is intended to be hand-edited and then used with
// cmd/tabsynth.
func main() {
	var (
		flagSource = flag.String(
			"source",
			"",
			"Path or URL of the source table (CSV or JSON)",
		)
		flagFormat = flag.String(
			"format",
			"",
			"Source format override: csv or json; empty sniffs from the name",
		)
		flagKey = flag.String(
			"key",
			"",
			"Column promoted to the unique primary key",
		)
		flagMaxDistinct = flag.Int(
			"max-distinct",
			0,
			"Categorical cutoff: max distinct values per column (0 uses the default)",
		)
		flagMaxRatio = flag.Float64(
			"max-ratio",
			0,
			"Categorical cutoff: max distinct/rows ratio (0 uses the default)",
		)
		flagEmitConfig = flag.Bool(
			"emit-config",
			false,
			"Print a starter run spec as JSON instead of the column summary",
		)
		flagBackend = flag.String(
			"backend",
			"composite",
			"Backend tag to target in the emitted spec: composite|copula|adversarial|autoencoder",
		)
		flagPretty = flag.Bool(
			"pretty",
			true,
			"Pretty-print JSON output",
		)
	)
	flag.Parse()

	if *flagSource == "" {
		fmt.Fprintln(os.Stderr, "missing -source")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	src := config.Source{Kind: "file", Path: *flagSource, Format: *flagFormat}
	if strings.HasPrefix(*flagSource, "http://") || strings.HasPrefix(*flagSource, "https://") {
		src.Kind = "http"
	}

	tbl, err := ingest.Load(ctx, src)
	if err != nil {
		log.Fatalf("load: %v", err)
	}

	sm := schema.Infer(tbl, schema.InferOptions{
		CategoricalMaxDistinct: *flagMaxDistinct,
		CategoricalMaxRatio:    *flagMaxRatio,
	})
	if *flagKey != "" {
		sm, err = sm.SetPrimaryKey(*flagKey)
		if err != nil {
			log.Fatalf("key: %v", err)
		}
	}

	profile := inspect.Inspect(tbl, sm)

	if *flagEmitConfig {
		spec := inspect.StarterSpec(*flagSource, profile, *flagBackend)
		if *flagMaxDistinct > 0 {
			spec.Infer.CategoricalMaxDistinct = *flagMaxDistinct
		}
		if *flagMaxRatio > 0 {
			spec.Infer.CategoricalMaxRatio = *flagMaxRatio
		}

		enc := json.NewEncoder(os.Stdout)
		if *flagPretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(spec); err != nil {
			log.Fatalf("encode spec: %v", err)
		}
		return
	}

	fmt.Print(profile.String())
}
