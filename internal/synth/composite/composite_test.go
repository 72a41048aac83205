package composite

import (
	"context"
	"errors"
	"testing"

	"tabsynth/internal/schema"
	"tabsynth/internal/synth"
	"tabsynth/internal/table"
)

func fixture(t *testing.T) (*table.Table, schema.Model) {
	t.Helper()
	tbl, err := table.New([]string{"id", "cat", "val"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rows := [][]any{
		{int64(1), "A", 1.0},
		{int64(2), "A", 2.0},
		{int64(3), "B", 3.0},
		{int64(4), "B", 4.0},
	}
	for _, r := range rows {
		if err := tbl.AppendRow(r); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	sm, err := schema.Infer(tbl, schema.InferOptions{}).SetPrimaryKey("id")
	if err != nil {
		t.Fatalf("SetPrimaryKey: %v", err)
	}
	return tbl, sm
}

// TestFitSample runs the backend end to end and checks the sampled
// table's shape, key distinctness, and value ranges.
func TestFitSample(t *testing.T) {
	t.Parallel()

	tbl, sm := fixture(t)
	ctx := context.Background()
	b := New(synth.Options{Seed: 7})

	before := tbl.Digest()
	st, err := b.Fit(ctx, tbl, sm)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	out, err := b.Sample(ctx, st, 4)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if tbl.Digest() != before {
		t.Fatalf("input table mutated by fit/sample")
	}

	if out.NumRows() != 4 {
		t.Fatalf("NumRows = %d, want 4", out.NumRows())
	}
	ids := map[any]bool{}
	for i := 0; i < out.NumRows(); i++ {
		id, _ := out.Value(i, "id")
		v, ok := id.(int64)
		if !ok || v < 1 || v > 4 {
			t.Fatalf("row %d: id = %v (%T), want int64 in [1,4]", i, id, id)
		}
		if ids[id] {
			t.Fatalf("duplicate id %v", id)
		}
		ids[id] = true

		cat, _ := out.Value(i, "cat")
		if cat != "A" && cat != "B" {
			t.Fatalf("row %d: cat = %v, want A or B", i, cat)
		}

		val, _ := out.Value(i, "val")
		f, ok := val.(float64)
		if !ok || f < 1 || f > 4 {
			t.Fatalf("row %d: val = %v (%T), want float64 in [1,4]", i, val, val)
		}
	}
}

// TestSampleDeterministic checks that the same seed reproduces the same
// table, and that repeated samples from one fit are identical.
func TestSampleDeterministic(t *testing.T) {
	t.Parallel()

	tbl, sm := fixture(t)
	ctx := context.Background()

	run := func(seed int64) *table.Table {
		b := New(synth.Options{Seed: seed})
		st, err := b.Fit(ctx, tbl, sm)
		if err != nil {
			t.Fatalf("Fit: %v", err)
		}
		out, err := b.Sample(ctx, st, 50)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		return out
	}

	if !run(9).Equal(run(9)) {
		t.Fatalf("same seed produced different tables")
	}

	b := New(synth.Options{Seed: 9})
	st, err := b.Fit(ctx, tbl, sm)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	first, err := b.Sample(ctx, st, 50)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	second, err := b.Sample(ctx, st, 50)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !first.Equal(second) {
		t.Fatalf("two samples from one fit differ")
	}
}

// TestSampleStateRules checks the not-fitted failures: zero token, token
// from a superseded fit.
func TestSampleStateRules(t *testing.T) {
	t.Parallel()

	tbl, sm := fixture(t)
	ctx := context.Background()
	b := New(synth.Options{Seed: 1})

	var nf *synth.NotFittedError
	if _, err := b.Sample(ctx, synth.State{}, 2); !errors.As(err, &nf) {
		t.Fatalf("Sample(zero state) = %v, want *NotFittedError", err)
	}

	st1, err := b.Fit(ctx, tbl, sm)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := b.Fit(ctx, tbl, sm); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := b.Sample(ctx, st1, 2); !errors.As(err, &nf) {
		t.Fatalf("Sample(superseded state) = %v, want *NotFittedError", err)
	}
}

// TestSampleKeySpaceExhausted asks for more rows than the key range
// holds.
func TestSampleKeySpaceExhausted(t *testing.T) {
	t.Parallel()

	tbl, sm := fixture(t)
	ctx := context.Background()
	b := New(synth.Options{Seed: 1})

	st, err := b.Fit(ctx, tbl, sm)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	_, err = b.Sample(ctx, st, 5)
	var sie *synth.SamplingInfeasibleError
	if !errors.As(err, &sie) {
		t.Fatalf("Sample(5) = %v, want *SamplingInfeasibleError", err)
	}
	if sie.Column != "id" || sie.Requested != 5 || sie.Available != 4 {
		t.Fatalf("error = %+v, want id/5/4", sie)
	}
}

// TestRegistryWiring resolves the backend through the registry.
func TestRegistryWiring(t *testing.T) {
	t.Parallel()

	b, err := synth.New(synth.TagComposite, synth.Options{})
	if err != nil {
		t.Fatalf("synth.New: %v", err)
	}
	if b.Tag() != synth.TagComposite {
		t.Fatalf("Tag = %q, want %q", b.Tag(), synth.TagComposite)
	}
}
