package synth

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func intCells(vals ...int64) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// TestKeyPlanExactFit draws the entire integer space and expects a
// permutation of it.
func TestKeyPlanExactFit(t *testing.T) {
	t.Parallel()

	p, err := PlanKeys("id", intCells(1, 2, 3, 4))
	if err != nil {
		t.Fatalf("PlanKeys: %v", err)
	}
	if space, bounded := p.Space(); !bounded || space != 4 {
		t.Fatalf("Space = %d,%v, want 4,true", space, bounded)
	}

	keys, err := p.Sample(rand.New(rand.NewSource(3)), 4)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	seen := map[any]bool{}
	for _, k := range keys {
		v, ok := k.(int64)
		if !ok || v < 1 || v > 4 {
			t.Fatalf("key %v (%T) outside observed range", k, k)
		}
		if seen[k] {
			t.Fatalf("duplicate key %v", k)
		}
		seen[k] = true
	}
	if len(seen) != 4 {
		t.Fatalf("drew %d distinct keys, want 4", len(seen))
	}
}

// TestKeyPlanInfeasible checks the typed error fires before any keys are
// produced, for both integer and value plans.
func TestKeyPlanInfeasible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cells     []any
		n         int
		available uint64
	}{
		{"integer range exhausted", intCells(1, 2, 3, 4), 5, 4},
		{"distinct values exhausted", []any{"a", "b", "a"}, 3, 2},
	}
	for _, tt := range tests {
		tt := tt // capture range variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := PlanKeys("k", tt.cells)
			if err != nil {
				t.Fatalf("PlanKeys: %v", err)
			}
			_, err = p.Sample(rand.New(rand.NewSource(1)), tt.n)
			var sie *SamplingInfeasibleError
			if !errors.As(err, &sie) {
				t.Fatalf("Sample = %v, want *SamplingInfeasibleError", err)
			}
			if sie.Column != "k" || sie.Requested != tt.n || sie.Available != tt.available {
				t.Fatalf("error = %+v, want column k, requested %d, available %d", sie, tt.n, tt.available)
			}
		})
	}
}

// TestKeyPlanSparseRange draws a small batch from a wide range and checks
// distinctness and range membership.
func TestKeyPlanSparseRange(t *testing.T) {
	t.Parallel()

	p, err := PlanKeys("id", intCells(0, 999_999))
	if err != nil {
		t.Fatalf("PlanKeys: %v", err)
	}
	keys, err := p.Sample(rand.New(rand.NewSource(11)), 500)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(keys) != 500 {
		t.Fatalf("got %d keys, want 500", len(keys))
	}
	seen := map[int64]bool{}
	for _, k := range keys {
		v := k.(int64)
		if v < 0 || v > 999_999 {
			t.Fatalf("key %d outside [0, 999999]", v)
		}
		if seen[v] {
			t.Fatalf("duplicate key %d", v)
		}
		seen[v] = true
	}
}

// TestKeyPlanHugeRange exercises the map-tracked path where the span is
// too wide for a bitmap.
func TestKeyPlanHugeRange(t *testing.T) {
	t.Parallel()

	p, err := PlanKeys("id", intCells(-1_000_000_000_000, 1_000_000_000_000))
	if err != nil {
		t.Fatalf("PlanKeys: %v", err)
	}
	keys, err := p.Sample(rand.New(rand.NewSource(5)), 1000)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	seen := map[int64]bool{}
	for _, k := range keys {
		v := k.(int64)
		if v < -1_000_000_000_000 || v > 1_000_000_000_000 {
			t.Fatalf("key %d outside range", v)
		}
		if seen[v] {
			t.Fatalf("duplicate key %d", v)
		}
		seen[v] = true
	}
}

// TestKeyPlanValues checks that non-integer keys are drawn as a
// permutation of the observed distinct values.
func TestKeyPlanValues(t *testing.T) {
	t.Parallel()

	p, err := PlanKeys("code", []any{"u-1", "u-2", "u-3", "u-2"})
	if err != nil {
		t.Fatalf("PlanKeys: %v", err)
	}
	if space, bounded := p.Space(); !bounded || space != 3 {
		t.Fatalf("Space = %d,%v, want 3,true", space, bounded)
	}
	keys, err := p.Sample(rand.New(rand.NewSource(2)), 3)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	got := map[any]bool{}
	for _, k := range keys {
		got[k] = true
	}
	for _, want := range []string{"u-1", "u-2", "u-3"} {
		if !got[want] {
			t.Fatalf("keys %v missing %q", keys, want)
		}
	}
}

// TestKeyPlanDeterministic checks that the same source yields the same
// keys.
func TestKeyPlanDeterministic(t *testing.T) {
	t.Parallel()

	p, err := PlanKeys("id", intCells(0, 100_000))
	if err != nil {
		t.Fatalf("PlanKeys: %v", err)
	}
	a, err := p.Sample(rand.New(rand.NewSource(9)), 50)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	b, err := p.Sample(rand.New(rand.NewSource(9)), 50)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same source produced different keys:\n%v\n%v", a, b)
	}
}

// TestPlanKeysRejectsNulls checks fitting fails on a null key cell.
func TestPlanKeysRejectsNulls(t *testing.T) {
	t.Parallel()

	if _, err := PlanKeys("id", []any{int64(1), nil}); err == nil {
		t.Fatalf("PlanKeys with null = nil error, want error")
	}
	if _, err := PlanKeys("id", nil); err == nil {
		t.Fatalf("PlanKeys with no cells = nil error, want error")
	}
}
