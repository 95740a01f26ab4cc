// Package stats holds the small numeric helpers shared by the odds, staking
// and performance code. Every function degrades to 0 instead of dividing by zero.
package stats

import "math"

// Sum returns the sum of values
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Mean returns the arithmetic mean, or 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Variance returns the population variance, or 0 for an empty slice
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return sumSq / float64(len(values))
}

// StdDev returns the population standard deviation
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// SharpeRatio returns mean/stddev of per-period returns with no risk-free rate.
// Returns 0 when the returns have no dispersion.
func SharpeRatio(returns []float64) float64 {
	sd := StdDev(returns)
	if sd == 0 {
		return 0
	}
	return Mean(returns) / sd
}

// SafeDiv returns num/den, or 0 when den is 0
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Clamp bounds v to [lo, hi]. When lo > hi, lo wins.
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Normalize scales values so they sum to 1.
// Returns nil when the values sum to 0.
func Normalize(values []float64) []float64 {
	total := Sum(values)
	if total == 0 {
		return nil
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / total
	}
	return out
}

// MaxDrawdown folds a balance curve and returns the largest peak-to-trough
// fall in absolute terms along with that fall as a fraction of its peak.
func MaxDrawdown(curve []float64) (absolute, fraction float64) {
	if len(curve) == 0 {
		return 0, 0
	}

	peak := curve[0]
	for _, balance := range curve {
		if balance > peak {
			peak = balance
		}
		dd := peak - balance
		if dd > absolute {
			absolute = dd
			fraction = SafeDiv(dd, peak)
		}
	}

	return absolute, fraction
}
