package model

import "fmt"

// Color is a traffic-light classification.
type Color string

const (
	Unknown Color = "unknown" // before any data has arrived
	Green   Color = "green"
	Yellow  Color = "yellow"
	Red     Color = "red"
)

// Strategy selects which option type is analyzed and which directional
// bias the index classifier applies.
type Strategy string

const (
	ShortCalls      Strategy = "short_calls"
	CashSecuredPuts Strategy = "cash_secured_puts"
)

// ParseStrategy maps a string to a Strategy. Empty input selects ShortCalls.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", ShortCalls:
		return ShortCalls, nil
	case CashSecuredPuts:
		return CashSecuredPuts, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", s)
	}
}

// OptionType returns the option type the strategy sells.
func (s Strategy) OptionType() OptionType {
	if s == CashSecuredPuts {
		return Put
	}
	return Call
}

// Label is the human-readable strategy name.
func (s Strategy) Label() string {
	if s == CashSecuredPuts {
		return "Cash-Secured Puts"
	}
	return "Short Calls"
}

// TrafficLight is a color with the explanation that produced it.
type TrafficLight struct {
	Color  Color  `json:"color"`
	Reason string `json:"reason"`
}

// ETFStatus summarizes the green contracts available on one ETF.
type ETFStatus struct {
	Symbol      string  `json:"symbol"`
	LastPrice   float64 `json:"last_price"`
	GreenCalls  int     `json:"green_calls"`
	GreenPuts   int     `json:"green_puts"`
	TotalGreen  int     `json:"total_green"`
	YellowCount int     `json:"yellow_count"`
	StatusColor Color   `json:"status_color"`
}
