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
	"tabsynth/internal/metrics"
	"tabsynth/internal/metrics/datadog"
	"tabsynth/internal/metrics/prompush"

	// register all backends with the synth and sink factories.
	// config specifies which to use but we need to build in support for all of them.
	_ "tabsynth/internal/sink/all"
	_ "tabsynth/internal/synth/all"
)

// main is the entry point for the tabsynth binary. It loads the run spec,
// applies flag overrides, optionally initializes a metrics backend, and
// executes the generation run.
func main() {
	var (
		cfgPath           string
		sourceFlg         string
		backendFlg        string
		keyFlg            string
		rowsFlg           int
		seedFlg           int64
		outFlg            string
		reportFlg         string
		metricsBackendFlg string
		pushGatewayURLFlg string
		statsdAddrFlg     string
		validate          bool
		strict            bool
	)

	flag.StringVar(&cfgPath, "config", "", "run spec JSON path")
	flag.StringVar(&sourceFlg, "source", "", "input table path or URL (overrides source in the spec)")
	flag.StringVar(&backendFlg, "backend", "", "backend tag (composite, copula, adversarial, autoencoder)")
	flag.StringVar(&keyFlg, "key", "", "column promoted to a unique primary key")
	flag.IntVar(&rowsFlg, "rows", 0, "number of synthetic rows to sample")
	flag.Int64Var(&seedFlg, "seed", 0, "sampling seed (0 derives it from the input)")
	flag.StringVar(&outFlg, "out", "", "synthetic CSV destination (overrides output in the spec)")
	flag.StringVar(&reportFlg, "report", "", "JSON report destination")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (none, pushgateway, datadog)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "http://localhost:9091", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&statsdAddrFlg, "statsd-addr", "127.0.0.1:8125", "DogStatsD address for the datadog backend")
	flag.BoolVar(&validate, "validate", false, "validate the run spec and exit")
	flag.BoolVar(&strict, "strict", false, "treat validation warnings as errors and enforce evaluate.min_overall")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	var spec config.Spec
	specName := cfgPath
	if cfgPath != "" {
		f, err := os.Open(cfgPath)
		if err != nil {
			fatalf("open config: %v", err)
		}
		if err := json.NewDecoder(f).Decode(&spec); err != nil {
			f.Close()
			fatalf("decode config: %v", err)
		}
		f.Close()
	} else if sourceFlg == "" {
		fatalf("a run needs -config or -source; see -h")
	} else {
		specName = "(flags)"
	}

	// Flags override the spec, but only the flags actually passed.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			spec.Source.Kind = sourceKind(sourceFlg)
			spec.Source.Path = sourceFlg
		case "backend":
			spec.Generate.Backend = backendFlg
		case "key":
			spec.Generate.PrimaryKey = keyFlg
		case "rows":
			spec.Generate.Rows = rowsFlg
		case "seed":
			spec.Generate.Seed = seedFlg
		case "out":
			spec.Output.Kind = "csv"
			spec.Output.Path = outFlg
		case "report":
			spec.Output.ReportPath = reportFlg
		}
	})

	if spec.Job == "" {
		spec.Job = "tabsynth"
	}
	if spec.Generate.Backend == "" {
		spec.Generate.Backend = "composite"
	}

	// Validate the run spec.
	issues := config.Validate(spec)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
		if strict && iss.Severity == config.SeverityWarning {
			hasError = true
		}
	}
	if hasError {
		log.Printf("run spec is invalid: %v", specName)
		os.Exit(1)
	}

	// If validate flag is set, only validate the spec and exit.
	if validate {
		log.Printf("run spec is valid: %v", specName)
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		// Decide Pushgateway URL: flag → env → default.
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(spec.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
		} else {
			log.Printf("metrics: url=%v, backend=%v, job=%v", gwURL, backendName, spec.Job)
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{Addr: statsdAddrFlg, Namespace: "tabsynth"})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
		} else {
			log.Printf("metrics: addr=%v, backend=%v, job=%v", statsdAddrFlg, backendName, spec.Job)
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("run: source=%s backend=%s rows=%d output=%s",
			spec.Source.Kind, spec.Generate.Backend, spec.Generate.Rows, spec.Output.Kind)
	}

	if err := run(ctx, spec, runOptions{Strict: strict, Verbose: *verbose}); err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// sourceKind classifies a -source argument as a URL or a local file.
func sourceKind(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return "http"
	}
	return "file"
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
