// Package inspect profiles an ingested table against its inferred schema.
// It inventories every column (kind, distinct and null counts, value range or
// example labels) and can synthesize a starter run spec for cmd/tabsynth.
//
// Design goals:
//   - Tolerant to sparse input. Columns with nothing but nulls still profile;
//     ranges and samples are simply omitted.
//   - A profile is plain data: it marshals to JSON as-is and renders to a
//     line-per-column summary for terminal use.
package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"tabsynth/internal/schema"
	"tabsynth/internal/table"
)

// maxSamples caps the example labels kept per column.
const maxSamples = 3

// ColumnProfile aggregates what the prober saw in one column.
type ColumnProfile struct {
	Name     string      `json:"name"`
	Kind     schema.Kind `json:"kind"`
	Distinct int         `json:"distinct"`
	Nulls    int         `json:"nulls"`

	// Min and Max are rendered bounds, set for numeric columns only.
	Min string `json:"min,omitempty"`
	Max string `json:"max,omitempty"`

	// Samples holds up to three distinct labels in first-seen order, set for
	// categorical and boolean columns only.
	Samples []string `json:"samples,omitempty"`
}

// Profile is the full per-table inventory.
type Profile struct {
	Rows       int             `json:"rows"`
	PrimaryKey string          `json:"primary_key,omitempty"`
	Columns    []ColumnProfile `json:"columns"`
}

// Inspect profiles tbl column by column in table order. The schema supplies
// each column's kind and distinct count; null counts, ranges and samples come
// from a direct scan. Columns the schema does not know are skipped.
func Inspect(tbl *table.Table, sm schema.Model) Profile {
	p := Profile{
		Rows:       tbl.NumRows(),
		PrimaryKey: sm.PrimaryKey(),
	}

	for _, name := range tbl.Columns() {
		kind, ok := sm.Kind(name)
		if !ok {
			continue
		}
		cp := ColumnProfile{Name: name, Kind: kind}
		cp.Distinct, _ = sm.DistinctCount(name)

		switch kind {
		case schema.KindContinuous, schema.KindIdentifier:
			vals, nulls, ok := tbl.FloatColumn(name)
			cp.Nulls = nulls
			if ok && len(vals) > 0 {
				min, max := vals[0], vals[0]
				for _, v := range vals[1:] {
					if v < min {
						min = v
					}
					if v > max {
						max = v
					}
				}
				cp.Min = strconv.FormatFloat(min, 'g', -1, 64)
				cp.Max = strconv.FormatFloat(max, 'g', -1, 64)
			}
			if !ok {
				// Non-numeric identifier (e.g. a string key): fall back to a
				// label scan so nulls still count.
				_, cp.Nulls, _ = tbl.StringColumn(name)
			}

		default:
			labels, nulls, ok := tbl.StringColumn(name)
			cp.Nulls = nulls
			if ok {
				cp.Samples = sampleLabels(labels, maxSamples)
			}
		}

		p.Columns = append(p.Columns, cp)
	}
	return p
}

// sampleLabels keeps the first capN distinct labels in first-seen order.
func sampleLabels(labels []string, capN int) []string {
	var out []string
	for _, l := range labels {
		if l == "" {
			continue
		}
		dup := false
		for _, have := range out {
			if have == l {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, l)
			if len(out) == capN {
				break
			}
		}
	}
	return out
}

// String renders the profile as one line per column, after a short header:
//
//	rows: 30
//	key: id
//	id,identifier,distinct=30,nulls=0,range=1..30
//	cat,categorical,distinct=3,nulls=0,values=A|B|C
func (p Profile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows: %d\n", p.Rows)
	if p.PrimaryKey != "" {
		fmt.Fprintf(&b, "key: %s\n", p.PrimaryKey)
	}
	for _, c := range p.Columns {
		fmt.Fprintf(&b, "%s,%s,distinct=%d,nulls=%d", c.Name, c.Kind, c.Distinct, c.Nulls)
		if c.Min != "" || c.Max != "" {
			fmt.Fprintf(&b, ",range=%s..%s", c.Min, c.Max)
		}
		if len(c.Samples) > 0 {
			fmt.Fprintf(&b, ",values=%s", strings.Join(c.Samples, "|"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
