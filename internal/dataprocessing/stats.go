package dataprocessing

import (
	"math"
	"sort"
)

// calculateMean computes the arithmetic mean of a slice of float64 values.
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateMedian computes the median. The input slice is copied, not
// reordered.
func calculateMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// percentile returns the p-th percentile (0..100) of an already sorted
// slice, interpolating linearly between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// modeString returns the most frequent non-empty value. Ties break toward
// the value seen first, so reruns are stable.
func modeString(values []string) (string, bool) {
	counts := make(map[string]int, 64)
	for _, v := range values {
		if v == "" {
			continue
		}
		counts[v]++
	}
	if len(counts) == 0 {
		return "", false
	}

	best := ""
	bestCount := 0
	for _, v := range values {
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}

	return best, true
}
