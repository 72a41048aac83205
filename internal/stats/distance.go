package stats

import (
	"math"
	"sort"
)

// KSStatistic returns the two-sample Kolmogorov-Smirnov statistic: the
// largest absolute gap between the empirical CDFs of a and b. ok is false
// when either sample is empty.
func KSStatistic(a, b []float64) (d float64, ok bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}
	sa := append([]float64(nil), a...)
	sb := append([]float64(nil), b...)
	sort.Float64s(sa)
	sort.Float64s(sb)

	na, nb := float64(len(sa)), float64(len(sb))
	var i, j int
	for i < len(sa) && j < len(sb) {
		// Advance past ties on the smaller current value so both CDFs are
		// evaluated just after the jump.
		if sa[i] <= sb[j] {
			v := sa[i]
			for i < len(sa) && sa[i] == v {
				i++
			}
			if v == sb[j] {
				for j < len(sb) && sb[j] == v {
					j++
				}
			}
		} else {
			v := sb[j]
			for j < len(sb) && sb[j] == v {
				j++
			}
		}
		gap := math.Abs(float64(i)/na - float64(j)/nb)
		if gap > d {
			d = gap
		}
	}
	// One side exhausted: the remaining gap is the other CDF's distance to 1.
	if gap := math.Abs(1 - float64(j)/nb); i == len(sa) && gap > d {
		d = gap
	}
	if gap := math.Abs(float64(i)/na - 1); j == len(sb) && gap > d {
		d = gap
	}
	return d, true
}

// KSComplement returns 1 − KSStatistic(a, b): 1.0 means the empirical
// distributions are indistinguishable. ok is false when either sample is
// empty.
func KSComplement(a, b []float64) (float64, bool) {
	d, ok := KSStatistic(a, b)
	if !ok {
		return 0, false
	}
	return 1 - d, true
}

// Frequencies returns the normalized frequency profile of labels.
// An empty input yields an empty map.
func Frequencies(labels []string) map[string]float64 {
	out := make(map[string]float64, 16)
	if len(labels) == 0 {
		return out
	}
	inc := 1 / float64(len(labels))
	for _, l := range labels {
		out[l] += inc
	}
	return out
}

// TVComplementFreq returns 1 − ½·Σ|p(c) − q(c)| over the union of
// categories of two normalized frequency profiles. Identical profiles score
// 1.0; disjoint ones 0.0.
func TVComplementFreq(p, q map[string]float64) float64 {
	var dist float64
	for c, pv := range p {
		dist += math.Abs(pv - q[c])
	}
	for c, qv := range q {
		if _, seen := p[c]; !seen {
			dist += qv
		}
	}
	score := 1 - dist/2
	// Normalized profiles keep dist within [0,2]; clamp residual float error.
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	return score
}

// TVComplement returns the total-variation complement of two label samples.
// ok is false when either sample is empty.
func TVComplement(a, b []string) (float64, bool) {
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}
	return TVComplementFreq(Frequencies(a), Frequencies(b)), true
}

// NormalCDF returns Φ(x) for the standard normal distribution.
func NormalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// Coefficients of Acklam's rational approximation to the standard normal
// quantile (relative error below 1.2e-9 across the open unit interval).
var (
	nqA = [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00,
	}
	nqB = [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01,
	}
	nqC = [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00,
	}
	nqD = [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00,
	}
)

// NormalQuantile returns Φ⁻¹(p). p outside (0,1) maps to ±Inf.
func NormalQuantile(p float64) float64 {
	switch {
	case p <= 0:
		return math.Inf(-1)
	case p >= 1:
		return math.Inf(1)
	}

	const pLow = 0.02425
	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((nqC[0]*q+nqC[1])*q+nqC[2])*q+nqC[3])*q+nqC[4])*q + nqC[5]) /
			((((nqD[0]*q+nqD[1])*q+nqD[2])*q+nqD[3])*q + 1)
	case p > 1-pLow:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((nqC[0]*q+nqC[1])*q+nqC[2])*q+nqC[3])*q+nqC[4])*q + nqC[5]) /
			((((nqD[0]*q+nqD[1])*q+nqD[2])*q+nqD[3])*q + 1)
	default:
		q := p - 0.5
		r := q * q
		return (((((nqA[0]*r+nqA[1])*r+nqA[2])*r+nqA[3])*r+nqA[4])*r + nqA[5]) * q /
			(((((nqB[0]*r+nqB[1])*r+nqB[2])*r+nqB[3])*r+nqB[4])*r + 1)
	}
}
