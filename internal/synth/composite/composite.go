// Package composite implements the preset backend: every column is drawn
// independently from its fitted marginal model. No coupling, no training
// loop, so it is the cheapest backend and the default for smoke runs.
package composite

import (
	"context"

	"tabsynth/internal/schema"
	"tabsynth/internal/synth"
	"tabsynth/internal/table"
)

func init() {
	synth.Register(synth.TagComposite, func(opts synth.Options) synth.Backend {
		return &Backend{core: synth.NewCore(synth.TagComposite, opts)}
	})
}

// Backend samples columns independently. Deterministic given the fitted
// table and seed.
type Backend struct {
	core synth.Core
}

// New constructs the backend directly, bypassing the registry.
func New(opts synth.Options) *Backend {
	return &Backend{core: synth.NewCore(synth.TagComposite, opts)}
}

func (b *Backend) Tag() string { return b.core.Tag() }

func (b *Backend) Fit(ctx context.Context, tbl *table.Table, sm schema.Model) (synth.State, error) {
	if err := ctx.Err(); err != nil {
		return synth.State{}, err
	}
	_, st, err := b.core.Refit(tbl, sm)
	return st, err
}

func (b *Backend) Sample(ctx context.Context, st synth.State, n int) (*table.Table, error) {
	m, rng, err := b.core.Resolve(st, n)
	if err != nil {
		return nil, err
	}
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
		for j := range cells {
			cells[j] = cm.SampleCell(rng, b.core.Opts())
		}
		cols[i] = cells
	}
	return m.Assemble(cols, n)
}
