package report

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"tabsynth/internal/schema"
	"tabsynth/internal/stats"
	"tabsynth/internal/table"
)

// nullBucket is the frequency-profile category for nil cells. The NUL
// prefix keeps it out of any real label's way.
const nullBucket = "\x00null"

// QualityOptions tunes the quality evaluation.
type QualityOptions struct {
	// Workers caps the pair-scoring goroutines. Zero means GOMAXPROCS.
	Workers int

	// Bins is the equal-width bin count used to discretize the
	// continuous side of a mixed pair. Zero means 10.
	Bins int
}

func (o QualityOptions) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o QualityOptions) bins() int {
	if o.Bins > 0 {
		return o.Bins
	}
	return 10
}

// Quality scores the statistical similarity of a synthetic table to the
// real one: a shape score per evaluated column (KS-complement for
// continuous, TV-complement for categorical and boolean) and a trend
// score per unordered pair of evaluated columns (correlation similarity
// for continuous pairs, contingency similarity otherwise, with the
// continuous side of a mixed pair discretized over the combined observed
// range). Identifier columns are excluded. Columns and pairs whose
// metric is undefined are skipped rather than scored.
//
// Pair scores run on a bounded worker pool; the only error surfaced is
// context cancellation.
func Quality(ctx context.Context, real, synth *table.Table, sm schema.Model, opt QualityOptions) (QualityReport, error) {
	rep := QualityReport{
		ColumnShapes: map[string]Score{},
		PairTrends:   map[string]Score{},
	}

	type column struct {
		name string
		kind schema.Kind
	}
	var evaluated []column
	for _, name := range sm.Columns() {
		kind, _ := sm.Kind(name)
		if kind == schema.KindIdentifier {
			continue
		}
		if _, ok := real.ColumnIndex(name); !ok {
			continue
		}
		if _, ok := synth.ColumnIndex(name); !ok {
			continue
		}
		evaluated = append(evaluated, column{name, kind})
	}

	// Shape scores are cheap; compute them inline.
	for _, col := range evaluated {
		if col.kind == schema.KindContinuous {
			d, ok := stats.KSComplement(numericCells(real, col.name), numericCells(synth, col.name))
			if ok {
				rep.ColumnShapes[col.name] = Score{Metric: MetricKSComplement, Value: d}
			}
			continue
		}
		v, ok := stats.TVComplement(labelCells(real, col.name), labelCells(synth, col.name))
		if ok {
			rep.ColumnShapes[col.name] = Score{Metric: MetricTVComplement, Value: v}
		}
	}

	// Mixed pairs bin the continuous side over the combined range of both
	// tables, so precompute one binner per continuous column.
	binners := map[string]*binner{}
	for _, col := range evaluated {
		if col.kind == schema.KindContinuous {
			binners[col.name] = newBinner(
				append(numericCells(real, col.name), numericCells(synth, col.name)...),
				opt.bins(),
			)
		}
	}

	type pair struct {
		a, b column
	}
	var pairs []pair
	for i := 0; i < len(evaluated); i++ {
		for j := i + 1; j < len(evaluated); j++ {
			pairs = append(pairs, pair{evaluated[i], evaluated[j]})
		}
	}

	type pairResult struct {
		key   string
		score Score
		skip  bool
	}
	results := make([]pairResult, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.workers())
	for i, p := range pairs {
		i, p := i, p // capture range variables
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := p.a.name + "," + p.b.name
			if p.a.kind == schema.KindContinuous && p.b.kind == schema.KindContinuous {
				v, ok := correlationSimilarity(real, synth, p.a.name, p.b.name)
				if !ok {
					results[i] = pairResult{skip: true}
					return nil
				}
				results[i] = pairResult{key: key, score: Score{Metric: MetricCorrelation, Value: v}}
				return nil
			}
			la := labelerFor(p.a.kind, binners[p.a.name])
			lb := labelerFor(p.b.kind, binners[p.b.name])
			v := stats.TVComplementFreq(
				jointFreq(real, p.a.name, p.b.name, la, lb),
				jointFreq(synth, p.a.name, p.b.name, la, lb),
			)
			results[i] = pairResult{key: key, score: Score{Metric: MetricContingency, Value: v}}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return QualityReport{}, err
	}
	for _, r := range results {
		if !r.skip && r.key != "" {
			rep.PairTrends[r.key] = r.score
		}
	}

	rep.ShapeMean = meanScore(rep.ColumnShapes)
	rep.PairMean = meanScore(rep.PairTrends)
	switch {
	case len(rep.ColumnShapes) > 0 && len(rep.PairTrends) > 0:
		rep.Overall = 100 * (rep.ShapeMean + rep.PairMean) / 2
	case len(rep.ColumnShapes) > 0:
		rep.Overall = 100 * rep.ShapeMean
	case len(rep.PairTrends) > 0:
		rep.Overall = 100 * rep.PairMean
	}
	return rep, nil
}

func meanScore(m map[string]Score) float64 {
	if len(m) == 0 {
		return 0
	}
	var sum float64
	for _, s := range m {
		sum += s.Value
	}
	return sum / float64(len(m))
}

// numericCells returns the column's non-null numeric values; anything
// else is dropped.
func numericCells(t *table.Table, name string) []float64 {
	cells, ok := t.Column(name)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(cells))
	for _, v := range cells {
		switch x := v.(type) {
		case int64:
			out = append(out, float64(x))
		case float64:
			out = append(out, x)
		}
	}
	return out
}

// labelCells returns the column's category labels, with nil cells in
// their own bucket.
func labelCells(t *table.Table, name string) []string {
	cells, ok := t.Column(name)
	if !ok {
		return nil
	}
	out := make([]string, len(cells))
	for i, v := range cells {
		if v == nil {
			out[i] = nullBucket
			continue
		}
		out[i] = table.Label(v)
	}
	return out
}

// correlationSimilarity is 1 - |r_real - r_synth| / 2 over the Pearson
// correlations of the pair within each table, using rows where both
// cells are numeric. ok is false when either correlation is undefined.
func correlationSimilarity(real, synth *table.Table, a, b string) (float64, bool) {
	rr, ok := pairPearson(real, a, b)
	if !ok {
		return 0, false
	}
	rs, ok := pairPearson(synth, a, b)
	if !ok {
		return 0, false
	}
	return 1 - math.Abs(rr-rs)/2, true
}

func pairPearson(t *table.Table, a, b string) (float64, bool) {
	ca, okA := t.Column(a)
	cb, okB := t.Column(b)
	if !okA || !okB {
		return 0, false
	}
	var xs, ys []float64
	for i := range ca {
		x, okX := asFloat(ca[i])
		y, okY := asFloat(cb[i])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return stats.Pearson(xs, ys)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// jointFreq builds the pair's joint frequency profile over all rows.
func jointFreq(t *table.Table, a, b string, la, lb func(any) string) map[string]float64 {
	ca, okA := t.Column(a)
	cb, okB := t.Column(b)
	if !okA || !okB || len(ca) == 0 {
		return map[string]float64{}
	}
	counts := map[string]int{}
	for i := range ca {
		counts[la(ca[i])+"\x1f"+lb(cb[i])]++
	}
	freq := make(map[string]float64, len(counts))
	for k, c := range counts {
		freq[k] = float64(c) / float64(len(ca))
	}
	return freq
}

func labelerFor(kind schema.Kind, bn *binner) func(any) string {
	if kind == schema.KindContinuous {
		return bn.label
	}
	return func(v any) string {
		if v == nil {
			return nullBucket
		}
		return table.Label(v)
	}
}

// binner assigns equal-width bin labels over a fixed range.
type binner struct {
	lo, hi float64
	bins   int
}

func newBinner(vals []float64, bins int) *binner {
	lo, hi, ok := stats.MinMax(vals)
	if !ok {
		return &binner{bins: bins}
	}
	return &binner{lo: lo, hi: hi, bins: bins}
}

func (b *binner) label(v any) string {
	x, ok := asFloat(v)
	if !ok {
		return nullBucket
	}
	if b.hi <= b.lo {
		return "b0"
	}
	i := int(float64(b.bins) * (x - b.lo) / (b.hi - b.lo))
	if i < 0 {
		i = 0
	}
	if i >= b.bins {
		i = b.bins - 1
	}
	return fmt.Sprintf("b%d", i)
}
