package schema

import (
	"strings"

	"tabsynth/internal/table"
)

// InferOptions exposes the inference thresholds as explicit configuration.
// The ambiguous case is a numeric column with few, heavily repeated values:
// it is demoted from continuous to categorical when BOTH limits hold, so
// ambiguity resolves in favor of categorical. The zero value means defaults.
type InferOptions struct {
	// CategoricalMaxDistinct is the largest distinct-value count a numeric
	// column may have and still be treated as a label column. Default 10.
	CategoricalMaxDistinct int

	// CategoricalMaxRatio is the largest distinct/non-null ratio a numeric
	// column may have and still be treated as a label column. Default 0.05.
	CategoricalMaxRatio float64

	// Truthy and Falsy are the accepted textual boolean spellings
	// (lowercased). Defaults: 1/t/true/yes/y and 0/f/false/no/n.
	Truthy []string
	Falsy  []string
}

const (
	defaultCategoricalMaxDistinct = 10
	defaultCategoricalMaxRatio    = 0.05
)

var (
	defaultTruthy = []string{"1", "t", "true", "yes", "y"}
	defaultFalsy  = []string{"0", "f", "false", "no", "n"}
)

func (o InferOptions) withDefaults() InferOptions {
	if o.CategoricalMaxDistinct <= 0 {
		o.CategoricalMaxDistinct = defaultCategoricalMaxDistinct
	}
	if o.CategoricalMaxRatio <= 0 {
		o.CategoricalMaxRatio = defaultCategoricalMaxRatio
	}
	if len(o.Truthy) == 0 {
		o.Truthy = defaultTruthy
	}
	if len(o.Falsy) == 0 {
		o.Falsy = defaultFalsy
	}
	return o
}

// Infer assigns a Kind to every column of tbl:
//
//   - boolean: all non-null values are native bools, or all are textual
//     booleans (per Truthy/Falsy) with at most two distinct spellings;
//   - continuous: all non-null values numeric, unless the column looks like
//     a low-cardinality label (see InferOptions), which demotes it to
//     categorical;
//   - categorical: everything else, including mixed and all-null columns.
//
// Identifier is never inferred; it is only assigned via SetPrimaryKey or
// Override.
func Infer(tbl *table.Table, opt InferOptions) Model {
	opt = opt.withDefaults()
	logical := make(map[string]bool, len(opt.Truthy)+len(opt.Falsy))
	for _, s := range opt.Truthy {
		logical[s] = true
	}
	for _, s := range opt.Falsy {
		logical[s] = true
	}

	cols := tbl.Columns()
	m := Model{
		cols:  cols,
		kinds: make(map[string]Kind, len(cols)),
		stats: make(map[string]colStats, len(cols)),
	}

	for _, name := range cols {
		vals, _ := tbl.Column(name)
		st := colStats{rows: len(vals)}

		allBool := true
		allNum := true
		allLogicalText := true
		distinct := make(map[any]struct{}, 64)

		for _, v := range vals {
			if v == nil {
				st.nulls++
				continue
			}
			distinct[v] = struct{}{}

			if _, ok := v.(bool); !ok {
				allBool = false
			}
			if !table.IsNumeric(v) {
				allNum = false
			}
			if s, ok := v.(string); !ok || !logical[strings.ToLower(strings.TrimSpace(s))] {
				allLogicalText = false
			}
		}
		st.distinct = len(distinct)
		nonNull := st.rows - st.nulls

		switch {
		case nonNull == 0:
			m.kinds[name] = KindCategorical
		case allBool:
			m.kinds[name] = KindBoolean
		case allLogicalText && st.distinct <= 2:
			m.kinds[name] = KindBoolean
		case allNum:
			if st.distinct <= opt.CategoricalMaxDistinct &&
				float64(st.distinct)/float64(nonNull) <= opt.CategoricalMaxRatio {
				m.kinds[name] = KindCategorical
			} else {
				m.kinds[name] = KindContinuous
			}
		default:
			m.kinds[name] = KindCategorical
		}
		m.stats[name] = st
	}
	return m
}
