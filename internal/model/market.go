package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Closes extracts the close prices of bars in order.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Quote is a point-in-time quote for a symbol.
type Quote struct {
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Volume    int64   `json:"volume"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	PrevClose float64 `json:"prev_close"`
}

// TechnicalSnapshot holds the latest indicator values for one price series.
type TechnicalSnapshot struct {
	Price       float64 `json:"price"`
	SMA20       float64 `json:"sma20"`
	SMA50       float64 `json:"sma50"`
	SMA100      float64 `json:"sma100"`
	RSI14       float64 `json:"rsi14"`
	AboveSMA20  bool    `json:"above_sma20"`
	AboveSMA50  bool    `json:"above_sma50"`
	AboveSMA100 bool    `json:"above_sma100"`
	BelowSMA20  bool    `json:"below_sma20"`
	BelowSMA50  bool    `json:"below_sma50"`
	BelowSMA100 bool    `json:"below_sma100"`
	RSILabel    string  `json:"rsi_label"`
}

// MarketData is one refresh pass worth of provider data. It is treated as
// immutable once returned by the collector.
type MarketData struct {
	Quotes      map[string]Quote                       `json:"quotes"`
	Chains      map[string]map[string][]OptionContract `json:"chains"`      // symbol -> expiration key -> rows
	Historical  map[string][]OHLCV                     `json:"historical"`  // symbol -> ascending bars
	Expirations map[string]map[int]time.Time           `json:"expirations"` // symbol -> target DTE -> expiration
	Stale       bool                                   `json:"stale_warning"`
	LastError   string                                 `json:"last_error,omitempty"`
	LastRefresh time.Time                              `json:"last_refresh"`
}

// Last returns the last traded price for symbol, or 0 when unknown.
func (m *MarketData) Last(symbol string) float64 {
	if m == nil {
		return 0
	}
	return m.Quotes[symbol].Last
}

// ExpirationKey is the map key used for a chain expiration.
func ExpirationKey(t time.Time) string {
	return t.Format("2006-01-02")
}
