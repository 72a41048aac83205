package autoencoder

import (
	"context"
	"testing"

	"tabsynth/internal/schema"
	"tabsynth/internal/synth"
	"tabsynth/internal/table"
)

func fixture(t *testing.T) (*table.Table, schema.Model) {
	t.Helper()
	tbl, err := table.New([]string{"id", "flag", "score"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 1; i <= 24; i++ {
		if err := tbl.AppendRow([]any{int64(100 + i), i%3 == 0, int64(i * i)}); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	sm, err := schema.Infer(tbl, schema.InferOptions{}).SetPrimaryKey("id")
	if err != nil {
		t.Fatalf("SetPrimaryKey: %v", err)
	}
	return tbl, sm
}

// TestFitSample decodes latent draws and checks shape, dtypes, and
// bounds.
func TestFitSample(t *testing.T) {
	t.Parallel()

	tbl, sm := fixture(t)
	ctx := context.Background()
	b := New(synth.Options{Seed: 13})

	before := tbl.Digest()
	st, err := b.Fit(ctx, tbl, sm)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	out, err := b.Sample(ctx, st, 20)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if tbl.Digest() != before {
		t.Fatalf("input table mutated")
	}
	if out.NumRows() != 20 {
		t.Fatalf("NumRows = %d, want 20", out.NumRows())
	}
	for i := 0; i < out.NumRows(); i++ {
		flag, _ := out.Value(i, "flag")
		if _, ok := flag.(bool); !ok {
			t.Fatalf("flag = %v (%T), want bool", flag, flag)
		}
		score, _ := out.Value(i, "score")
		// Source cells are all int64, so decoded cells are too.
		v, ok := score.(int64)
		if !ok {
			t.Fatalf("score = %v (%T), want int64", score, score)
		}
		if v < 1 || v > 576 {
			t.Fatalf("score %d outside observed bounds [1, 576]", v)
		}
	}
}

// TestSampleDeterministic checks seed reproducibility.
func TestSampleDeterministic(t *testing.T) {
	t.Parallel()

	tbl, sm := fixture(t)
	ctx := context.Background()

	run := func() *table.Table {
		b := New(synth.Options{Seed: 77})
		st, err := b.Fit(ctx, tbl, sm)
		if err != nil {
			t.Fatalf("Fit: %v", err)
		}
		out, err := b.Sample(ctx, st, 40)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		return out
	}
	if !run().Equal(run()) {
		t.Fatalf("same seed produced different tables")
	}
}

// TestSkewness checks the blend input: symmetric samples score near
// zero, skewed samples score positive.
func TestSkewness(t *testing.T) {
	t.Parallel()

	sym := &synth.ContinuousModel{Sorted: []float64{1, 2, 3, 4, 5}}
	sym.Mean = 3
	sym.Std = 1.4142135623730951
	if s := skewness(sym); s > 1e-9 {
		t.Fatalf("skewness(symmetric) = %v, want ~0", s)
	}

	skewed := &synth.ContinuousModel{Sorted: []float64{1, 1, 1, 1, 100}}
	skewed.Mean = 20.8
	skewed.Std = 39.6
	if s := skewness(skewed); s < 1 {
		t.Fatalf("skewness(skewed) = %v, want > 1", s)
	}

	flat := &synth.ContinuousModel{Sorted: []float64{7, 7, 7}, Std: 0}
	if s := skewness(flat); s != 0 {
		t.Fatalf("skewness(constant) = %v, want 0", s)
	}
}
