package synth

import (
	"fmt"
	"math"
	"math/rand"

	"tabsynth/internal/bitmap"
)

// maxBitmapSpan bounds the key range for which allocation tracking uses a
// bitmap (8 MiB of words); wider ranges fall back to a map.
const maxBitmapSpan = 1 << 26

// KeyPlan generates primary key values. Integer key columns draw without
// replacement, uniformly, from the observed inclusive [min, max] range;
// any other key column draws a permutation of the observed distinct
// values. Both spaces are finite, so a batch larger than the space fails
// with *SamplingInfeasibleError before producing rows.
type KeyPlan struct {
	Column string

	// Integer plan. span is max-min+1 in uint64 arithmetic; span == 0
	// encodes the full int64 range.
	isInt    bool
	min, max int64
	span     uint64

	// Value plan: observed distinct values in first-seen order.
	values []any
}

// PlanKeys fits a key plan from the column's cells. Nulls are rejected;
// a key column that passed schema validation has none.
func PlanKeys(column string, cells []any) (*KeyPlan, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("key column %q has no values", column)
	}
	p := &KeyPlan{Column: column, isInt: true}
	seen := map[string]struct{}{}
	for _, v := range cells {
		if v == nil {
			return nil, fmt.Errorf("key column %q holds a null", column)
		}
		if _, ok := v.(int64); !ok {
			p.isInt = false
		}
	}
	if p.isInt {
		p.min = math.MaxInt64
		p.max = math.MinInt64
		for _, v := range cells {
			x := v.(int64)
			if x < p.min {
				p.min = x
			}
			if x > p.max {
				p.max = x
			}
		}
		p.span = uint64(p.max) - uint64(p.min) + 1
		return p, nil
	}
	for _, v := range cells {
		label := fmt.Sprintf("%T:%v", v, v)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		p.values = append(p.values, v)
	}
	return p, nil
}

// Space returns the number of distinct keys the plan can produce. The
// second result is false only for an integer plan spanning the full int64
// range, which no batch can exhaust.
func (p *KeyPlan) Space() (uint64, bool) {
	if !p.isInt {
		return uint64(len(p.values)), true
	}
	if p.span == 0 {
		return 0, false
	}
	return p.span, true
}

// Sample draws n pairwise-distinct keys.
func (p *KeyPlan) Sample(rng *rand.Rand, n int) ([]any, error) {
	if space, bounded := p.Space(); bounded && uint64(n) > space {
		return nil, &SamplingInfeasibleError{Column: p.Column, Requested: n, Available: space}
	}
	if !p.isInt {
		out := make([]any, n)
		for i, j := range rng.Perm(len(p.values))[:n] {
			out[i] = p.values[j]
		}
		return out, nil
	}
	return p.sampleInts(rng, n), nil
}

func (p *KeyPlan) sampleInts(rng *rand.Rand, n int) []any {
	out := make([]any, 0, n)

	// Dense request: over half the range is needed, so materialize and
	// shuffle. The slice is at most 2n entries.
	if p.span != 0 && p.span <= uint64(2*n) {
		all := make([]int64, p.span)
		for i := range all {
			all[i] = p.min + int64(i)
		}
		rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		for _, v := range all[:n] {
			out = append(out, v)
		}
		return out
	}

	// Sparse request: rejection sampling, expected under two draws per key.
	// Modest ranges track allocations in a bitmap, wide ones in a map.
	if p.span != 0 && p.span <= maxBitmapSpan {
		taken := bitmap.New(int(p.span))
		for len(out) < n {
			off := int(rng.Int63n(int64(p.span)))
			if taken.Has(off) {
				continue
			}
			taken.Add(off)
			out = append(out, p.min+int64(off))
		}
		return out
	}

	taken := make(map[int64]struct{}, n)
	for len(out) < n {
		u := rng.Uint64()
		if p.span != 0 {
			u %= p.span
		}
		v := p.min + int64(u)
		if _, ok := taken[v]; ok {
			continue
		}
		taken[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
