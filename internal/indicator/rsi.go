package indicator

// RSI computes a Wilder-style relative strength index over the given period,
// one value per input index.
//
// Smoothing policy: average gain and loss are exponentially smoothed with
// alpha = 1/period starting from the very first day-over-day delta. There is
// no simple-average warm-up over the first period, so early values differ
// slightly from a textbook Wilder RSI. When the smoothed average loss is
// zero the value is 0, not 100. Both choices are kept deliberately so that
// stored history remains comparable across versions; do not change either
// without migrating existing indicator rows.
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 || len(closes) < 2 {
		return out
	}
	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain += alpha * (gain - avgGain)
			avgLoss += alpha * (loss - avgLoss)
		}
		if avgLoss == 0 {
			out[i] = 0
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}
