package model

import "time"

// OptionType is either a call or a put.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Greeks holds Black-Scholes sensitivities. Theta is per calendar day,
// vega per one point of implied volatility.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// OptionContract is one row of an option chain as delivered by a provider.
type OptionContract struct {
	ContractID        string     `json:"contract_id"`
	Type              OptionType `json:"type"`
	Expiration        time.Time  `json:"expiration"`
	DTE               int        `json:"dte"`
	Strike            float64    `json:"strike"`
	Bid               float64    `json:"bid"`
	Ask               float64    `json:"ask"`
	Last              float64    `json:"last"`
	Volume            int64      `json:"volume"`
	OpenInterest      int64      `json:"open_interest"`
	ImpliedVolatility float64    `json:"implied_volatility"`
	Greeks            *Greeks    `json:"greeks,omitempty"` // nil when neither supplied nor computable
}

// Delta returns the contract delta and whether it is known.
func (c OptionContract) Delta() (float64, bool) {
	if c.Greeks == nil {
		return 0, false
	}
	return c.Greeks.Delta, true
}

// EnrichedContract is an OptionContract plus computed analytics and flags.
type EnrichedContract struct {
	OptionContract
	Mid               float64 `json:"mid"`
	AnnReturn         float64 `json:"ann_return"`
	ReturnOK          bool    `json:"return_ok"`
	DeltaOK           bool    `json:"delta_ok"`
	DeltaInFocus      bool    `json:"delta_in_focus"`
	LiquidityOK       bool    `json:"liquidity_ok"`
	LiquidityMarginal bool    `json:"liquidity_marginal"`
}

// PayoffPoint is the P/L of a short option at one underlying price at expiry.
type PayoffPoint struct {
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
}

// Payoff is an expiry P/L table for a short option.
type Payoff struct {
	Points    []PayoffPoint `json:"points"`
	Breakeven float64       `json:"breakeven"`
}
