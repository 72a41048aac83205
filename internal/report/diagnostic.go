package report

import (
	"tabsynth/internal/schema"
	"tabsynth/internal/table"
)

// Diagnose scores a synthetic table against the schema it was generated
// under and the real table the schema was fitted from.
//
// Validity checks every schema column's values: categorical and boolean
// cells must come from the category set observed in the real column (nil
// only when the real column holds nils), identifier cells must be
// pairwise distinct and non-nil, continuous cells must be numeric or nil.
// Structure checks that the synthetic column set matches the schema and
// that each column's value dtypes fit its declared kind. The overall
// score is the mean of the two percentages; 100 means healthy and
// anything lower points at a synthesizer or schema defect.
func Diagnose(real, synth *table.Table, sm schema.Model) DiagnosticReport {
	rep := DiagnosticReport{Columns: make(map[string]float64, sm.NumColumns())}

	var validitySum float64
	for _, name := range sm.Columns() {
		kind, _ := sm.Kind(name)
		share := columnValidity(real, synth, name, kind)
		rep.Columns[name] = share
		validitySum += share
	}
	if n := sm.NumColumns(); n > 0 {
		rep.Validity = 100 * validitySum / float64(n)
	} else {
		rep.Validity = 100
	}

	rep.Structure = 100 * structureShare(synth, sm)
	rep.Overall = (rep.Validity + rep.Structure) / 2
	return rep
}

func columnValidity(real, synth *table.Table, name string, kind schema.Kind) float64 {
	cells, ok := synth.Column(name)
	if !ok {
		return 0
	}
	if len(cells) == 0 {
		return 1
	}

	switch kind {
	case schema.KindIdentifier:
		counts := make(map[string]int, len(cells))
		for _, v := range cells {
			if v != nil {
				counts[keyLabel(v)]++
			}
		}
		pass := 0
		for _, v := range cells {
			if v != nil && counts[keyLabel(v)] == 1 {
				pass++
			}
		}
		return float64(pass) / float64(len(cells))

	case schema.KindContinuous:
		pass := 0
		for _, v := range cells {
			if v == nil || table.IsNumeric(v) {
				pass++
			}
		}
		return float64(pass) / float64(len(cells))

	default: // categorical, boolean
		domain, nilOK := realDomain(real, name)
		pass := 0
		for _, v := range cells {
			if v == nil {
				if nilOK {
					pass++
				}
				continue
			}
			if domain[table.Label(v)] {
				pass++
			}
		}
		return float64(pass) / float64(len(cells))
	}
}

// realDomain collects the category labels of the real column and whether
// it contains nil.
func realDomain(real *table.Table, name string) (map[string]bool, bool) {
	cells, ok := real.Column(name)
	if !ok {
		return nil, false
	}
	domain := make(map[string]bool, 8)
	hasNil := false
	for _, v := range cells {
		if v == nil {
			hasNil = true
			continue
		}
		domain[table.Label(v)] = true
	}
	return domain, hasNil
}

// keyLabel distinguishes key values by dynamic type as well as content,
// so int64(1) and "1" never collide as keys.
func keyLabel(v any) string {
	switch v.(type) {
	case int64:
		return "i" + table.Label(v)
	case string:
		return "s" + table.Label(v)
	default:
		return "x" + table.Label(v)
	}
}

// structureShare is the fraction of the schema/synthetic column union
// that is present on both sides with value dtypes fitting the declared
// kind.
func structureShare(synth *table.Table, sm schema.Model) float64 {
	union := map[string]bool{}
	for _, name := range sm.Columns() {
		union[name] = true
	}
	for _, name := range synth.Columns() {
		union[name] = true
	}
	if len(union) == 0 {
		return 1
	}

	both := 0
	for name := range union {
		kind, inSchema := sm.Kind(name)
		cells, inSynth := synth.Column(name)
		if inSchema && inSynth && kindFits(kind, cells) {
			both++
		}
	}
	return float64(both) / float64(len(union))
}

// kindFits checks the non-null cells of a column against the declared
// kind: continuous needs numeric cells, boolean needs bools, identifier
// needs one consistent primitive type, categorical accepts anything.
func kindFits(kind schema.Kind, cells []any) bool {
	switch kind {
	case schema.KindContinuous:
		for _, v := range cells {
			if v != nil && !table.IsNumeric(v) {
				return false
			}
		}
	case schema.KindBoolean:
		for _, v := range cells {
			if v == nil {
				continue
			}
			if _, ok := v.(bool); !ok {
				return false
			}
		}
	case schema.KindIdentifier:
		seen := ""
		for _, v := range cells {
			if v == nil {
				return false
			}
			var t string
			switch v.(type) {
			case int64:
				t = "int"
			case string:
				t = "string"
			case float64:
				t = "float"
			case bool:
				t = "bool"
			}
			if seen == "" {
				seen = t
			} else if seen != t {
				return false
			}
		}
	}
	return true
}
