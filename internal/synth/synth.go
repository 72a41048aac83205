// Package synth defines the synthesizer backend contract and the fitted
// column models shared by every backend implementation.
//
// A Backend is fitted against a real table and a schema, and then sampled
// for synthetic rows. Fitting returns an opaque State token; sampling
// requires a token from the most recent fit of the same backend instance,
// so a re-fit invalidates earlier tokens and a token can never be replayed
// against a different backend.
//
// Concrete backends live in subpackages (copula, adversarial, autoencoder,
// composite) and register themselves with the factory at init time.
// Importing internal/synth/all enables all built-in backends.
//
// A Backend instance is not safe for concurrent use; callers that generate
// concurrently construct one instance per goroutine via New.
package synth

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"

	"tabsynth/internal/schema"
	"tabsynth/internal/table"
)

// Tags of the built-in backends.
const (
	TagCopula      = "copula"
	TagAdversarial = "adversarial"
	TagAutoencoder = "autoencoder"
	TagComposite   = "composite"
)

// Backend is a trainable synthesizer for one table.
type Backend interface {
	// Tag returns the registry tag of the backend.
	Tag() string

	// Fit trains the backend on tbl under sm and returns a state token for
	// Sample. Fit never mutates tbl. Training failures are reported as
	// *TrainingError.
	Fit(ctx context.Context, tbl *table.Table, sm schema.Model) (State, error)

	// Sample produces exactly n synthetic rows using the fit identified by
	// st. A zero, stale, or foreign token fails with *NotFittedError.
	Sample(ctx context.Context, st State, n int) (*table.Table, error)
}

// State identifies one successful Fit of one Backend instance. The fitted
// parameters live inside the backend; the token only proves which fit a
// Sample call refers to.
type State struct {
	backend string
	core    uint64
	gen     uint64
}

// Backend returns the tag of the backend that issued the token, or ""
// for the zero State.
func (s State) Backend() string { return s.backend }

var coreSeq atomic.Uint64

// Core carries the bookkeeping common to all backends: options, the fitted
// column models, the derived sampling seed, and the fit generation that
// backs State tokens. Backends embed a Core and layer their training
// parameters on top.
type Core struct {
	tag   string
	opts  Options
	id    uint64
	gen   uint64
	model *TableModel
	seed  int64
}

// NewCore returns a Core for a backend registered under tag.
func NewCore(tag string, opts Options) Core {
	return Core{tag: tag, opts: opts, id: coreSeq.Add(1)}
}

// Tag returns the backend tag.
func (c *Core) Tag() string { return c.tag }

// Opts returns the options the backend was constructed with.
func (c *Core) Opts() Options { return c.opts }

// Seed returns the sampling seed of the current fit.
func (c *Core) Seed() int64 { return c.seed }

// Refit fits the shared column models against tbl and issues a fresh state
// token, invalidating any token from an earlier fit of this instance.
// Degenerate inputs (no rows, non-numeric continuous columns, all-null
// columns) fail with *TrainingError.
func (c *Core) Refit(tbl *table.Table, sm schema.Model) (*TableModel, State, error) {
	m, err := FitColumns(tbl, sm)
	if err != nil {
		return nil, State{}, &TrainingError{Backend: c.tag, Err: err}
	}
	c.model = m
	c.seed = c.opts.SeedFor(c.tag, m.Digest)
	c.gen++
	return m, State{backend: c.tag, core: c.id, gen: c.gen}, nil
}

// Fitted resolves a state token to the fitted model. Zero tokens, tokens
// minted by another backend instance, and tokens superseded by a later
// Refit all fail with *NotFittedError.
func (c *Core) Fitted(st State) (*TableModel, error) {
	if c.model == nil || st.core != c.id || st.gen == 0 || st.gen != c.gen {
		return nil, &NotFittedError{Backend: c.tag}
	}
	return c.model, nil
}

// Resolve is the common Sample prologue: it validates the token and the
// requested row count and returns the model together with a fresh
// deterministic source. Two Sample calls on the same fit see identical
// draw sequences.
func (c *Core) Resolve(st State, n int) (*TableModel, *rand.Rand, error) {
	m, err := c.Fitted(st)
	if err != nil {
		return nil, nil, err
	}
	if n <= 0 {
		return nil, nil, fmt.Errorf("synth: sample size must be positive, got %d", n)
	}
	return m, rand.New(rand.NewSource(c.seed)), nil
}

// TrainRand returns a deterministic source for training passes, distinct
// from the sampling stream so that training length does not shift sample
// output.
func (c *Core) TrainRand() *rand.Rand {
	return rand.New(rand.NewSource(c.seed ^ 0x7f4a7c15))
}
