// Package stats implements the small numeric toolkit behind schema
// inference, synthesis, and table evaluation: moments, quantiles, rank and
// product-moment correlation, and the distribution distances used for
// scoring (Kolmogorov-Smirnov and total variation complements).
//
// Everything operates on plain float64/string slices; callers extract
// columns first. Functions that can be undefined on their input (empty
// slices, zero variance) return an explicit ok flag instead of NaN.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Variance returns the population variance around the mean, or 0 for an
// empty slice.
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

// Std returns the population standard deviation.
func Std(xs []float64) float64 { return math.Sqrt(Variance(xs)) }

// MinMax returns the smallest and largest value. ok is false for an empty
// slice.
func MinMax(xs []float64) (lo, hi float64, ok bool) {
	if len(xs) == 0 {
		return 0, 0, false
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi, true
}

// Quantile returns the q-th quantile (0 ≤ q ≤ 1) of sorted with linear
// interpolation between adjacent order statistics. sorted must be ascending
// and non-empty.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Pearson returns the product-moment correlation of two equal-length
// samples. ok is false when the correlation is undefined: fewer than two
// points, length mismatch, or zero variance on either side.
func Pearson(xs, ys []float64) (r float64, ok bool) {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0, false
	}
	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	r = sxy / math.Sqrt(sxx*syy)
	// Guard against drift just outside [-1,1] from accumulation order.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// Ranks returns the 1-based rank of every value, with tied runs assigned
// their average rank (the convention Spearman correlation expects).
func Ranks(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		// Average rank across the tied run [i..j].
		avg := (float64(i+1) + float64(j+1)) / 2
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

// Spearman returns the rank correlation of two equal-length samples: the
// Pearson correlation of their average ranks. ok is false when undefined.
func Spearman(xs, ys []float64) (float64, bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, false
	}
	return Pearson(Ranks(xs), Ranks(ys))
}
