package synth

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"tabsynth/internal/schema"
	"tabsynth/internal/stats"
	"tabsynth/internal/table"
)

// TableModel holds the fitted per-column marginal models for one table.
// Column order follows the fitted table. All backends sample from these
// models; what differs between backends is how draws are coupled and
// perturbed.
type TableModel struct {
	Columns []string
	Cols    []*ColumnModel

	// Rows is the fitted table's row count, Digest its content hash.
	Rows   int
	Digest uint64
}

// ColumnModel is the marginal model of a single column. Exactly one of
// Cont, Cat, Key is set, matching the column's schema kind (boolean
// columns use Cat).
type ColumnModel struct {
	Name string
	Kind schema.Kind

	Cont *ContinuousModel
	Cat  *CategoricalModel
	Key  *KeyPlan
}

// ContinuousModel is the empirical distribution of a numeric column.
type ContinuousModel struct {
	// Sorted non-null values; the quantile function interpolates over
	// these.
	Sorted []float64

	Min, Max float64
	Mean     float64
	Std      float64

	// Decimals is the maximum decimal precision observed; IsInt reports
	// that every non-null source cell was an int64.
	Decimals int
	IsInt    bool

	NullRate float64
}

// Quantile returns the empirical quantile at u in [0,1].
func (c *ContinuousModel) Quantile(u float64) float64 {
	return stats.Quantile(c.Sorted, u)
}

// Emit converts a raw sampled value into an output cell, applying the
// bounds and rounding policy. Integer-sourced columns round back to int64
// cells so the synthetic table keeps the source's value dtypes.
func (c *ContinuousModel) Emit(v float64, opts Options) any {
	if opts.BoundsEnforced() {
		if v < c.Min {
			v = c.Min
		}
		if v > c.Max {
			v = c.Max
		}
	}
	if opts.RoundingEnforced() {
		if c.IsInt {
			return int64(math.Round(v))
		}
		shift := math.Pow10(c.Decimals)
		v = math.Round(v*shift) / shift
	}
	return v
}

// CategoricalModel is the frequency table of a categorical or boolean
// column. Categories keep first-seen order, which makes sampling
// deterministic for a given table.
type CategoricalModel struct {
	// Labels are the canonical category labels; Values holds one
	// representative source cell per label so sampled cells keep the
	// source dtype (a bool column yields bools, not "true" strings).
	Labels []string
	Values []any

	// Weights are category probabilities among non-null cells; cum is the
	// running total used by Pick.
	Weights []float64
	cum     []float64

	NullRate float64
}

// Pick maps u in [0,1] onto a category by walking the cumulative weights.
// Category order is fixed, so nearby u land on the same category; copula
// backends exploit this to carry rank correlation through categoricals.
func (c *CategoricalModel) Pick(u float64) any {
	for i, edge := range c.cum {
		if u <= edge {
			return c.Values[i]
		}
	}
	return c.Values[len(c.Values)-1]
}

// Smooth returns a copy with weights tempered by t: t > 1 flattens the
// distribution toward uniform, t < 1 sharpens it, t == 1 is a plain copy.
func (c *CategoricalModel) Smooth(t float64) *CategoricalModel {
	out := &CategoricalModel{
		Labels:   c.Labels,
		Values:   c.Values,
		Weights:  make([]float64, len(c.Weights)),
		NullRate: c.NullRate,
	}
	if t <= 0 {
		t = 1
	}
	var total float64
	for i, w := range c.Weights {
		out.Weights[i] = math.Pow(w, 1/t)
		total += out.Weights[i]
	}
	if total <= 0 {
		copy(out.Weights, c.Weights)
		total = 1
	} else {
		for i := range out.Weights {
			out.Weights[i] /= total
		}
	}
	out.cum = cumulative(out.Weights)
	return out
}

// Encode maps a source cell onto (0,1) at the midpoint of its category's
// cumulative band, the numeric stand-in used for rank correlation. The
// second result is false for nil cells and unseen labels.
func (c *CategoricalModel) Encode(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	label := table.Label(v)
	lo := 0.0
	for i, l := range c.Labels {
		if l == label {
			return lo + c.Weights[i]/2, true
		}
		lo = c.cum[i]
	}
	return 0, false
}

func cumulative(ws []float64) []float64 {
	cum := make([]float64, len(ws))
	var run float64
	for i, w := range ws {
		run += w
		cum[i] = run
	}
	if n := len(cum); n > 0 {
		cum[n-1] = 1 // absorb accumulated float error
	}
	return cum
}

// FitColumns builds the marginal models for every schema column of tbl, in
// table column order. It is the shared first half of every backend's Fit.
// The table is only read.
func FitColumns(tbl *table.Table, sm schema.Model) (*TableModel, error) {
	if tbl.NumRows() == 0 {
		return nil, fmt.Errorf("table has no rows")
	}
	m := &TableModel{
		Columns: tbl.Columns(),
		Rows:    tbl.NumRows(),
		Digest:  tbl.Digest(),
	}
	for _, name := range m.Columns {
		kind, ok := sm.Kind(name)
		if !ok {
			return nil, fmt.Errorf("column %q missing from schema", name)
		}
		cells, _ := tbl.Column(name)
		cm := &ColumnModel{Name: name, Kind: kind}
		var err error
		switch kind {
		case schema.KindContinuous:
			cm.Cont, err = fitContinuous(name, cells)
		case schema.KindCategorical, schema.KindBoolean:
			cm.Cat, err = fitCategorical(name, cells)
		case schema.KindIdentifier:
			cm.Key, err = PlanKeys(name, cells)
		default:
			err = fmt.Errorf("column %q has unknown kind %q", name, kind)
		}
		if err != nil {
			return nil, err
		}
		m.Cols = append(m.Cols, cm)
	}
	return m, nil
}

func fitContinuous(name string, cells []any) (*ContinuousModel, error) {
	c := &ContinuousModel{IsInt: true}
	var nulls int
	for _, v := range cells {
		switch x := v.(type) {
		case nil:
			nulls++
		case int64:
			c.Sorted = append(c.Sorted, float64(x))
		case float64:
			c.IsInt = false
			if d := decimalsOf(x); d > c.Decimals {
				c.Decimals = d
			}
			c.Sorted = append(c.Sorted, x)
		default:
			return nil, fmt.Errorf("continuous column %q holds non-numeric value %v", name, v)
		}
	}
	if len(c.Sorted) == 0 {
		return nil, fmt.Errorf("continuous column %q has no non-null values", name)
	}
	sort.Float64s(c.Sorted)
	c.Min = c.Sorted[0]
	c.Max = c.Sorted[len(c.Sorted)-1]
	c.Mean = stats.Mean(c.Sorted)
	c.Std = stats.Std(c.Sorted)
	c.NullRate = float64(nulls) / float64(len(cells))
	return c, nil
}

// decimalsOf counts the digits after the decimal point in the shortest
// exact representation of v.
func decimalsOf(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

func fitCategorical(name string, cells []any) (*CategoricalModel, error) {
	c := &CategoricalModel{}
	counts := map[string]int{}
	var nulls, seen int
	for _, v := range cells {
		if v == nil {
			nulls++
			continue
		}
		label := table.Label(v)
		if _, ok := counts[label]; !ok {
			c.Labels = append(c.Labels, label)
			c.Values = append(c.Values, v)
		}
		counts[label]++
		seen++
	}
	if seen == 0 {
		return nil, fmt.Errorf("categorical column %q has no non-null values", name)
	}
	c.Weights = make([]float64, len(c.Labels))
	for i, label := range c.Labels {
		c.Weights[i] = float64(counts[label]) / float64(seen)
	}
	c.cum = cumulative(c.Weights)
	c.NullRate = float64(nulls) / float64(len(cells))
	return c, nil
}

// SampleCell draws one cell from the column's marginal, consuming the
// null draw first so that every backend spends the source identically.
// Key columns are not handled here; they are drawn in bulk per batch.
func (cm *ColumnModel) SampleCell(rng *rand.Rand, opts Options) any {
	switch {
	case cm.Cont != nil:
		if cm.Cont.NullRate > 0 && rng.Float64() < cm.Cont.NullRate {
			return nil
		}
		return cm.Cont.Emit(cm.Cont.Quantile(rng.Float64()), opts)
	case cm.Cat != nil:
		if cm.Cat.NullRate > 0 && rng.Float64() < cm.Cat.NullRate {
			return nil
		}
		return cm.Cat.Pick(rng.Float64())
	}
	return nil
}

// Assemble builds a table from per-column cell slices in model column
// order. Every slice must hold exactly n cells.
func (m *TableModel) Assemble(cols [][]any, n int) (*table.Table, error) {
	if len(cols) != len(m.Cols) {
		return nil, fmt.Errorf("assemble: got %d columns, model has %d", len(cols), len(m.Cols))
	}
	for j := range cols {
		if len(cols[j]) != n {
			return nil, fmt.Errorf("assemble: column %q has %d cells, want %d", m.Columns[j], len(cols[j]), n)
		}
	}
	out, err := table.New(m.Columns)
	if err != nil {
		return nil, err
	}
	row := make([]any, len(cols))
	for i := 0; i < n; i++ {
		for j := range cols {
			row[j] = cols[j][i]
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}
