// Streaming CSV decoding with lenient quoting and width enforcement.
// Misaligned rows are skipped and counted rather than aborting the read;
// real-world exports routinely contain a handful of broken lines.

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"tabsynth/internal/config"
	"tabsynth/internal/table"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// csvOptions configures the CSV decoder. Zero values get defaults.
type csvOptions struct {
	// hasHeader indicates whether the first row contains column headers.
	// Without a header, columns are named col_0, col_1, ...
	hasHeader bool

	// comma is the field delimiter.
	comma rune

	// maxRows, when > 0, caps the number of data rows read.
	maxRows int
}

// csvOptionsFrom extracts decoder knobs from a generic source options map.
func csvOptionsFrom(o config.Options) csvOptions {
	return csvOptions{
		hasHeader: o.Bool("has_header", true),
		comma:     o.Rune("comma", ','),
		maxRows:   o.Int("max_rows", 0),
	}
}

// readCSV consumes CSV records from r and returns the decoded table along
// with the number of rows skipped due to parse errors or width mismatches.
//
// Headers are normalized to lowercase ASCII identifiers. Fields are trimmed;
// empty fields become nil. After reading, each column is assigned one value
// dtype by unanimous vote of its non-empty cells (int64, then float64, then
// bool, then string; the narrowest type every cell parses as wins), so tables
// enter the pipeline with uniform column dtypes.
func readCSV(r io.Reader, source string, opt csvOptions) (*table.Table, int, error) {
	cr := csv.NewReader(r)
	if opt.comma != 0 {
		cr.Comma = opt.comma
	}
	// Lenient mode: tolerate quoting oddities and enforce width ourselves so
	// a single bad row cannot abort the read.
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var headers []string
	var raw [][]string
	var skipped int

	if opt.hasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, 0, &FormatError{Source: source, Reason: fmt.Sprintf("read csv header: %v", err)}
		}
		headers = normalizeHeaders(h)
	}

	limit := 400
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < limit {
				log.Printf("ingest: %s: skipping row %d: %v", source, line, err)
			}
			skipped++
			continue
		}

		if headers == nil {
			// Headerless input: the first row fixes the width.
			headers = make([]string, len(row))
			for i := range headers {
				headers[i] = fmt.Sprintf("col_%d", i)
			}
		}
		if len(row) != len(headers) {
			if skipped < limit {
				log.Printf("ingest: %s: skipping row %d: incorrect number of fields (expected %d, got %d)",
					source, line, len(headers), len(row))
			}
			skipped++
			continue
		}

		trimmed := make([]string, len(row))
		for i, val := range row {
			trimmed[i] = strings.TrimSpace(val)
		}
		raw = append(raw, trimmed)

		if opt.maxRows > 0 && len(raw) >= opt.maxRows {
			break
		}
	}

	if headers == nil {
		return nil, skipped, &FormatError{Source: source, Reason: "csv input is empty"}
	}

	tbl, err := buildTyped(headers, raw)
	if err != nil {
		return nil, skipped, err
	}
	return tbl, skipped, nil
}

// buildTyped votes a dtype per column and materializes the typed table.
func buildTyped(headers []string, raw [][]string) (*table.Table, error) {
	parsers := make([]func(string) any, len(headers))
	for col := range headers {
		parsers[col] = voteParser(raw, col)
	}

	tbl, err := table.New(headers)
	if err != nil {
		return nil, err
	}
	row := make([]any, len(headers))
	for _, cells := range raw {
		for i, cell := range cells {
			if cell == "" {
				row[i] = nil
				continue
			}
			row[i] = parsers[i](cell)
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// voteParser picks the narrowest parser every non-empty cell of the column
// accepts: int64, then float64, then bool, then string.
func voteParser(raw [][]string, col int) func(string) any {
	allInt, allFloat, allBool := true, true, true
	seen := false
	for _, cells := range raw {
		cell := cells[col]
		if cell == "" {
			continue
		}
		seen = true
		if allInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			if _, err := strconv.ParseBool(cell); err != nil {
				allBool = false
			}
		}
		if !allInt && !allFloat && !allBool {
			break
		}
	}
	switch {
	case !seen:
		return func(s string) any { return s }
	case allInt:
		return func(s string) any { n, _ := strconv.ParseInt(s, 10, 64); return n }
	case allFloat:
		return func(s string) any { f, _ := strconv.ParseFloat(s, 64); return f }
	case allBool:
		return func(s string) any { b, _ := strconv.ParseBool(s); return b }
	default:
		return func(s string) any { return s }
	}
}

// normalizeHeaders produces canonical column names: BOM stripped from the
// first cell, each name lowered to an ASCII identifier, collisions given a
// numeric suffix so the table's unique-name invariant holds.
func normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	used := make(map[string]int, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		name := normalizeColumnName(c)
		if n, dup := used[name]; dup {
			used[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		used[name]++
		res[i] = name
	}
	return res
}

// normalizeColumnName converts arbitrary header text into a lowercase ASCII
// identifier suitable for SQL schemas:
//  1. lowercase
//  2. strip accents (NFD → remove Mn → NFC)
//  3. keep [a-z0-9_]; convert space/dash/dot to underscore; drop others
//  4. fallback to "col" if empty
func normalizeColumnName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Decompose → remove nonspacing marks (accents) → recompose.
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
		return "col"
	}
	return name
}
