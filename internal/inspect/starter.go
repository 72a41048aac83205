package inspect

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"tabsynth/internal/config"
)

// StarterSpec builds a runnable spec from a profile: the probed source as
// input, the profiled row count as the target, and CSV output files named
// after the dataset. The result is intended to be hand-edited and then used
// with cmd/tabsynth.
func StarterSpec(source string, p Profile, backend string) config.Spec {
	if backend == "" {
		backend = "composite"
	}
	name := datasetName(source)

	kind := "file"
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		kind = "http"
	}

	return config.Spec{
		Job:    name,
		Source: config.Source{Kind: kind, Path: source},
		Generate: config.Generate{
			Backend:    backend,
			PrimaryKey: p.PrimaryKey,
			Rows:       p.Rows,
		},
		Output: config.Output{
			Kind:       "csv",
			Path:       name + ".synthetic.csv",
			ReportPath: name + ".report.json",
		},
	}
}

// datasetName derives a job name from the source path or URL: final path
// segment, data extensions stripped, normalized to a lowercase ASCII
// identifier.
func datasetName(source string) string {
	s := source
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = path.Base(strings.TrimRight(s, "/"))
	for {
		ext := strings.ToLower(path.Ext(s))
		if ext != ".csv" && ext != ".json" && ext != ".gz" && ext != ".zip" {
			break
		}
		s = s[:len(s)-len(ext)]
	}
	return normalizeName(s)
}

// normalizeName converts arbitrary text into a lowercase ASCII identifier:
// accents stripped (NFD → remove Mn → NFC), [a-z0-9_] kept, separators
// collapsed to single underscores, "dataset" as the empty fallback.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevUnderscore = false
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		default:
			// drop anything else
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "dataset"
	}
	return name
}
