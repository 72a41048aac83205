// Package adversarial implements the iterative backend: a generator
// proposes batches from the fitted marginals under jitter and temperature
// parameters, a critic scores each batch against the real columns' moment
// and frequency statistics, and the parameters descend that loss over a
// fixed number of epochs. Training and sampling are stochastic but
// reproducible for a given seed.
package adversarial

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"tabsynth/internal/schema"
	"tabsynth/internal/stats"
	"tabsynth/internal/synth"
	"tabsynth/internal/table"
)

func init() {
	synth.Register(synth.TagAdversarial, func(opts synth.Options) synth.Backend {
		return &Backend{core: synth.NewCore(synth.TagAdversarial, opts)}
	})
}

// criticBatch is the number of rows the critic scores per epoch.
const criticBatch = 256

// Backend trains jitter (continuous noise scale, in units of the column
// std) and temperature (categorical smoothing) against the real table's
// statistics.
type Backend struct {
	core synth.Core

	jitter float64
	temp   float64

	// smoothed caches the temperature-adjusted frequency tables, aligned
	// to the model's columns; nil for non-categorical columns.
	smoothed []*synth.CategoricalModel
}

// New constructs the backend directly, bypassing the registry.
func New(opts synth.Options) *Backend {
	return &Backend{core: synth.NewCore(synth.TagAdversarial, opts)}
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

	rng := b.core.TrainRand()
	jitter, temp := 0.5, 2.0
	best := b.criticLoss(m, rng, jitter, temp)
	if !finite(best) {
		return synth.State{}, &synth.TrainingError{Backend: b.Tag(), Err: fmt.Errorf("non-finite starting loss %v", best)}
	}

	// Random-restart hill climb: perturb one parameter per epoch, keep
	// the change when the critic improves, shrink the step when it does
	// not.
	step := 0.5
	for epoch := 0; epoch < b.core.Opts().TrainingEpochs(); epoch++ {
		nj, nt := jitter, temp
		if epoch%2 == 0 {
			nj = clampParam(jitter * math.Exp(step*(rng.Float64()*2-1)))
		} else {
			nt = clampParam(temp * math.Exp(step*(rng.Float64()*2-1)))
		}
		loss := b.criticLoss(m, rng, nj, nt)
		if !finite(loss) {
			return synth.State{}, &synth.TrainingError{Backend: b.Tag(), Err: fmt.Errorf("non-finite loss %v at epoch %d", loss, epoch)}
		}
		if loss < best {
			best, jitter, temp = loss, nj, nt
		} else if step > 0.02 {
			step *= 0.98
		}
	}

	b.jitter = jitter
	b.temp = temp
	b.smoothed = make([]*synth.CategoricalModel, len(m.Cols))
	for i, cm := range m.Cols {
		if cm.Cat != nil {
			b.smoothed[i] = cm.Cat.Smooth(temp)
		}
	}
	return st, nil
}

func clampParam(v float64) float64 {
	return math.Min(math.Max(v, 0.01), 10)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// criticLoss generates one batch under (jitter, temp) and scores it: the
// scaled moment error of each continuous column plus the total variation
// distance of each categorical column.
func (b *Backend) criticLoss(m *synth.TableModel, rng *rand.Rand, jitter, temp float64) float64 {
	var loss float64
	for _, cm := range m.Cols {
		switch {
		case cm.Cont != nil:
			c := cm.Cont
			batch := make([]float64, criticBatch)
			for i := range batch {
				batch[i] = c.Quantile(rng.Float64()) + jitter*c.Std*rng.NormFloat64()
			}
			scale := c.Std
			if scale == 0 {
				scale = 1
			}
			loss += math.Abs(stats.Mean(batch)-c.Mean) / scale
			loss += math.Abs(stats.Std(batch)-c.Std) / scale
		case cm.Cat != nil:
			sm := cm.Cat.Smooth(temp)
			labels := make([]string, criticBatch)
			for i := range labels {
				labels[i] = table.Label(sm.Pick(rng.Float64()))
			}
			target := map[string]float64{}
			for i, l := range cm.Cat.Labels {
				target[l] = cm.Cat.Weights[i]
			}
			loss += 1 - stats.TVComplementFreq(target, stats.Frequencies(labels))
		}
	}
	return loss
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
				v := c.Quantile(rng.Float64()) + b.jitter*c.Std*rng.NormFloat64()
				cells[r] = c.Emit(v, opts)
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
