package calculator

import "math"

// CalculateRSI computes Wilder's RSI over closes as an exponential moving
// average of gains and losses with alpha = 1/period. The average is seeded
// with the first bar (which has no prior close, so its gain and loss are 0)
// and is defined once period observations exist.
//
// When the average loss is zero the RSI saturates to 100. A flat series has
// neither gains nor losses and yields ok == false.
func CalculateRSI(closes []float64, period int) (rsi float64, ok bool) {
	series := CalculateRSISeries(closes, period)
	if len(series) == 0 {
		return 0, false
	}
	last := series[len(series)-1]
	if math.IsNaN(last) {
		return 0, false
	}
	return last, true
}

// CalculateRSISeries returns the RSI aligned with closes, NaN where undefined.
func CalculateRSISeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := range closes {
		var gain, loss float64
		if i > 0 {
			change := closes[i] - closes[i-1]
			if change > 0 {
				gain = change
			} else {
				loss = -change
			}
		}
		if i == 0 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = (1-alpha)*avgGain + alpha*gain
			avgLoss = (1-alpha)*avgLoss + alpha*loss
		}

		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return math.NaN()
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
