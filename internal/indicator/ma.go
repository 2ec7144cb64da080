package indicator

// MovingAverage computes the simple moving average of prices over the given
// window, one value per input index. Indices before the window is full
// average over however many observations exist so far (partial window),
// so the output always has the same length as the input.
func MovingAverage(prices []float64, window int) []float64 {
	out := make([]float64, len(prices))
	if window <= 0 {
		window = 1
	}
	sum := 0.0
	for i, p := range prices {
		sum += p
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= prices[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}
