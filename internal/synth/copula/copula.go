// Package copula implements the statistical backend: per-column empirical
// marginals tied together by a Gaussian copula over the columns' Spearman
// rank correlations. Output is a pure function of the fitted table and
// the seed.
package copula

import (
	"context"
	"fmt"
	"math"

	"tabsynth/internal/schema"
	"tabsynth/internal/stats"
	"tabsynth/internal/synth"
	"tabsynth/internal/table"
)

func init() {
	synth.Register(synth.TagCopula, func(opts synth.Options) synth.Backend {
		return &Backend{core: synth.NewCore(synth.TagCopula, opts)}
	})
}

// ridge is the shrinkage ladder applied to the correlation matrix until
// its Cholesky factorization succeeds.
var ridge = []float64{0, 1e-6, 1e-4, 1e-3, 1e-2, 0.05, 0.1, 0.25, 0.5}

// Backend couples marginal draws through a factored correlation matrix.
type Backend struct {
	core synth.Core

	// coupled holds model column indexes participating in the copula
	// (everything but key columns); chol is the lower-triangular factor
	// of their correlation matrix, in coupled order.
	coupled []int
	chol    [][]float64
}

// New constructs the backend directly, bypassing the registry.
func New(opts synth.Options) *Backend {
	return &Backend{core: synth.NewCore(synth.TagCopula, opts)}
}

func (b *Backend) Tag() string { return b.core.Tag() }

func (b *Backend) Fit(ctx context.Context, tbl *table.Table, sm schema.Model) (synth.State, error) {
	if err := ctx.Err(); err != nil {
		return synth.State{}, err
	}
	m, st, err := b.core.Refit(tbl, sm)
	if err != nil {
		return synth.State{}, err
	}

	b.coupled = b.coupled[:0]
	for i, cm := range m.Cols {
		if cm.Key == nil {
			b.coupled = append(b.coupled, i)
		}
	}

	enc := encodeRows(tbl, m, b.coupled)
	corr, err := rankCorrelation(enc)
	if err != nil {
		return synth.State{}, &synth.TrainingError{Backend: b.Tag(), Err: err}
	}
	chol, ok := factorize(corr)
	if !ok {
		return synth.State{}, &synth.TrainingError{
			Backend: b.Tag(),
			Err:     fmt.Errorf("correlation matrix is not positive definite after %d ridge retries", len(ridge)),
		}
	}
	b.chol = chol
	return st, nil
}

// encodeRows maps each coupled column's cells onto a numeric stand-in for
// rank correlation: continuous cells as-is, categorical cells at their
// cumulative-band midpoint, nulls and unseen labels as NaN.
func encodeRows(tbl *table.Table, m *synth.TableModel, coupled []int) [][]float64 {
	enc := make([][]float64, len(coupled))
	for k, ci := range coupled {
		cm := m.Cols[ci]
		cells, _ := tbl.Column(cm.Name)
		col := make([]float64, len(cells))
		for r, v := range cells {
			col[r] = math.NaN()
			switch {
			case cm.Cont != nil:
				switch x := v.(type) {
				case int64:
					col[r] = float64(x)
				case float64:
					col[r] = x
				}
			case cm.Cat != nil:
				if e, ok := cm.Cat.Encode(v); ok {
					col[r] = e
				}
			}
		}
		enc[k] = col
	}
	return enc
}

// rankCorrelation builds the Gaussian copula correlation matrix from
// pairwise-complete Spearman coefficients. Undefined pairs (constant or
// too sparse) contribute zero correlation.
func rankCorrelation(enc [][]float64) ([][]float64, error) {
	d := len(enc)
	corr := make([][]float64, d)
	for i := range corr {
		corr[i] = make([]float64, d)
		corr[i][i] = 1
	}
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			var xs, ys []float64
			for r := range enc[i] {
				if math.IsNaN(enc[i][r]) || math.IsNaN(enc[j][r]) {
					continue
				}
				xs = append(xs, enc[i][r])
				ys = append(ys, enc[j][r])
			}
			rho, ok := stats.Spearman(xs, ys)
			if !ok {
				continue
			}
			if math.IsNaN(rho) || math.IsInf(rho, 0) {
				return nil, fmt.Errorf("non-finite rank correlation between columns %d and %d", i, j)
			}
			// Spearman to Gaussian-copula correlation.
			r := 2 * math.Sin(math.Pi*rho/6)
			corr[i][j] = r
			corr[j][i] = r
		}
	}
	return corr, nil
}

// factorize returns the Cholesky factor of corr, shrinking toward the
// identity step by step until the factorization succeeds.
func factorize(corr [][]float64) ([][]float64, bool) {
	d := len(corr)
	work := make([][]float64, d)
	for i := range work {
		work[i] = make([]float64, d)
	}
	for _, lambda := range ridge {
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				work[i][j] = (1 - lambda) * corr[i][j]
				if i == j {
					work[i][j] += lambda
				}
			}
		}
		if l, ok := cholesky(work); ok {
			return l, true
		}
	}
	return nil, false
}

func cholesky(a [][]float64) ([][]float64, bool) {
	d := len(a)
	l := make([][]float64, d)
	for i := range l {
		l[i] = make([]float64, d)
	}
	for i := 0; i < d; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				if sum <= 0 {
					return nil, false
				}
				l[i][i] = math.Sqrt(sum)
			} else {
				l[i][j] = sum / l[j][j]
			}
		}
	}
	return l, true
}

func (b *Backend) Sample(ctx context.Context, st synth.State, n int) (*table.Table, error) {
	m, rng, err := b.core.Resolve(st, n)
	if err != nil {
		return nil, err
	}

	// Correlated uniforms, one vector per row: u = Phi(L * eps).
	d := len(b.coupled)
	uniform := make([][]float64, d)
	for k := range uniform {
		uniform[k] = make([]float64, n)
	}
	eps := make([]float64, d)
	for r := 0; r < n; r++ {
		for k := range eps {
			eps[k] = rng.NormFloat64()
		}
		for k := 0; k < d; k++ {
			var z float64
			for j := 0; j <= k; j++ {
				z += b.chol[k][j] * eps[j]
			}
			uniform[k][r] = stats.NormalCDF(z)
		}
	}

	pos := make(map[int]int, d)
	for k, ci := range b.coupled {
		pos[ci] = k
	}
	opts := b.core.Opts()
	cols := make([][]any, len(m.Cols))
	for i, cm := range m.Cols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cm.Key != nil {
			keys, err := cm.Key.Sample(rng, n)
			if err != nil {
				return nil, err
			}
			cols[i] = keys
			continue
		}
		us := uniform[pos[i]]
		cells := make([]any, n)
		for r := 0; r < n; r++ {
			switch {
			case cm.Cont != nil:
				if cm.Cont.NullRate > 0 && rng.Float64() < cm.Cont.NullRate {
					continue
				}
				cells[r] = cm.Cont.Emit(cm.Cont.Quantile(us[r]), opts)
			case cm.Cat != nil:
				if cm.Cat.NullRate > 0 && rng.Float64() < cm.Cat.NullRate {
					continue
				}
				cells[r] = cm.Cat.Pick(us[r])
			}
		}
		cols[i] = cells
	}
	return m.Assemble(cols, n)
}
