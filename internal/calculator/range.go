package calculator

import (
	"errors"
	"math"
)

// TradingDaysPerYear is the lookback used for 52-week ranges on daily bars.
const TradingDaysPerYear = 252

// CalculateRange scans the most recent lookback values and returns the high and low.
// A non-positive lookback scans everything.
func CalculateRange(values []float64, lookback int) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, errors.New("no values provided")
	}
	n := len(values)
	start := 0
	if lookback > 0 && n > lookback {
		start = n - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if values[i] > high {
			high = values[i]
		}
		if values[i] < low {
			low = values[i]
		}
	}
	return high, low, nil
}
