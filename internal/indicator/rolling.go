package indicator

// RollingMax computes the maximum of values over a trailing window of the
// given size (inclusive of the current index), one value per input index.
// Windows at the start of the series shrink to the available observations.
func RollingMax(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		window = 1
	}
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		max := values[start]
		for j := start + 1; j <= i; j++ {
			if values[j] > max {
				max = values[j]
			}
		}
		out[i] = max
	}
	return out
}
