package strategy

import "math"

// RollingMean computes a simple moving average over a trailing window.
// Positions with fewer than period values average what is available, so the
// output has no warm-up gap.
func RollingMean(values []float64, period int) []float64 {
	n := len(values)
	result := make([]float64, n)
	if n == 0 || period <= 0 {
		return result
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += values[i]
		if i >= period {
			sum -= values[i-period]
		}
		window := i + 1
		if window > period {
			window = period
		}
		result[i] = sum / float64(window)
	}
	return result
}

// RSI computes the relative strength index over closes using rolling-mean
// gains and losses. Returns a series the same length as closes.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	result := make([]float64, n)
	if n == 0 || period <= 0 {
		return result
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := RollingMean(gains, period)
	avgLoss := RollingMean(losses, period)

	for i := 0; i < n; i++ {
		if avgLoss[i] == 0 {
			// No losses in the window: RS → +inf, RSI → 100
			if avgGain[i] == 0 {
				result[i] = 0
			} else {
				result[i] = 100
			}
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		result[i] = 100 - (100 / (1 + rs))
	}
	return result
}

// Momentum returns the percentage change from the first to the last close
func Momentum(closes []float64) float64 {
	if len(closes) < 2 || closes[0] <= 0 {
		return 0
	}
	return (closes[len(closes)-1] - closes[0]) / closes[0] * 100
}

// PctChange returns the percentage change between two values, zero when the
// base is zero or not finite
func PctChange(prev, cur float64) float64 {
	if prev == 0 || math.IsNaN(prev) || math.IsNaN(cur) {
		return 0
	}
	return (cur/prev - 1) * 100
}
