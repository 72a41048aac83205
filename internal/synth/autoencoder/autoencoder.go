// Package autoencoder implements the latent backend: continuous columns
// are encoded as z-scores under a diagonal Gaussian latent prior and
// decoded by blending the Gaussian inverse transform with the empirical
// quantile function. The blend per column follows its skewness, so
// near-Gaussian columns decode parametrically and skewed ones lean on the
// empirical distribution. Categorical columns sample from mildly
// temperature-smoothed frequencies. Stochastic, reproducible per seed.
package autoencoder

import (
	"context"

	"tabsynth/internal/schema"
	"tabsynth/internal/stats"
	"tabsynth/internal/synth"
	"tabsynth/internal/table"
)

func init() {
	synth.Register(synth.TagAutoencoder, func(opts synth.Options) synth.Backend {
		return &Backend{core: synth.NewCore(synth.TagAutoencoder, opts)}
	})
}

// latentTemp is the smoothing applied to categorical frequencies.
const latentTemp = 1.15

// Backend decodes latent Gaussian draws through per-column blends.
type Backend struct {
	core synth.Core

	// blend per model column: weight of the Gaussian decode in [0,1];
	// zero for non-continuous columns.
	blend []float64

	smoothed []*synth.CategoricalModel
}

// New constructs the backend directly, bypassing the registry.
func New(opts synth.Options) *Backend {
	return &Backend{core: synth.NewCore(synth.TagAutoencoder, opts)}
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
	b.blend = make([]float64, len(m.Cols))
	b.smoothed = make([]*synth.CategoricalModel, len(m.Cols))
	for i, cm := range m.Cols {
		switch {
		case cm.Cont != nil:
			b.blend[i] = 1 / (1 + skewness(cm.Cont))
		case cm.Cat != nil:
			b.smoothed[i] = cm.Cat.Smooth(latentTemp)
		}
	}
	return st, nil
}

// skewness returns |E[((x-mean)/std)^3]| of the fitted values; zero for a
// constant column.
func skewness(c *synth.ContinuousModel) float64 {
	if c.Std == 0 {
		return 0
	}
	var sum float64
	for _, v := range c.Sorted {
		z := (v - c.Mean) / c.Std
		sum += z * z * z
	}
	s := sum / float64(len(c.Sorted))
	if s < 0 {
		s = -s
	}
	return s
}

func (b *Backend) Sample(ctx context.Context, st synth.State, n int) (*table.Table, error) {
	m, rng, err := b.core.Resolve(st, n)
	if err != nil {
		return nil, err
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
		cells := make([]any, n)
		for r := range cells {
			switch {
			case cm.Cont != nil:
				c := cm.Cont
				if c.NullRate > 0 && rng.Float64() < c.NullRate {
					continue
				}
				z := rng.NormFloat64()
				gauss := c.Mean + z*c.Std
				emp := c.Quantile(stats.NormalCDF(z))
				a := b.blend[i]
				cells[r] = c.Emit(a*gauss+(1-a)*emp, opts)
			case cm.Cat != nil:
				sm := b.smoothed[i]
				if sm.NullRate > 0 && rng.Float64() < sm.NullRate {
					continue
				}
				cells[r] = sm.Pick(rng.Float64())
			}
		}
		cols[i] = cells
	}
	return m.Assemble(cols, n)
}
