package strategy

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"PremiumSentinel/internal/config"
	"PremiumSentinel/internal/model"
)

// SelectedReturnFloor is the absolute annualized return below which a
// selected contract is always red, whatever the configured target.
const SelectedReturnFloor = 20.0

// EvaluateOption classifies one enriched contract. The rules form an ordered
// cascade where the first match wins.
func EvaluateOption(row model.EnrichedContract, vix, index model.Color, cfg *config.Config) model.TrafficLight {
	oi, vol := row.OpenInterest, row.Volume

	if !row.ReturnOK {
		return red(fmt.Sprintf("Annualized return %.1f%% below target", row.AnnReturn))
	}
	if !row.DeltaOK {
		return red(fmt.Sprintf("Delta %s outside allowed band", formatDelta(row.OptionContract)))
	}
	if oi < cfg.Liquidity.MarginalOI || vol == 0 {
		return red(fmt.Sprintf("Very low liquidity (OI=%d, Vol=%d)", oi, vol))
	}
	if vix == model.Red && index == model.Red {
		return red("High-risk environment – VIX and index both red")
	}

	vixOK := vix == model.Green || vix == model.Yellow
	indexOK := index == model.Green || index == model.Yellow
	if row.LiquidityOK && vixOK && indexOK {
		return model.TrafficLight{
			Color:  model.Green,
			Reason: fmt.Sprintf("✓ %.1f%% annualized, delta in band, liquidity OK, VIX & index regime supportive", row.AnnReturn),
		}
	}

	var issues []string
	if !row.LiquidityOK {
		issues = append(issues, fmt.Sprintf("Marginal liquidity (OI=%d, Vol=%d)", oi, vol))
	}
	switch vix {
	case model.Yellow:
		issues = append(issues, "VIX in yellow zone")
	case model.Red:
		issues = append(issues, "VIX in red zone")
	case model.Unknown:
		issues = append(issues, "VIX unavailable")
	}
	if index == model.Yellow || index == model.Red {
		issues = append(issues, "Index technical is "+string(index))
	}
	if len(issues) == 0 {
		return model.TrafficLight{Color: model.Yellow, Reason: "Near threshold"}
	}
	return model.TrafficLight{Color: model.Yellow, Reason: strings.Join(issues, "; ")}
}

// EvaluateSelected rates the contract a user picked from the chain.
func EvaluateSelected(annReturn float64, oi, volume int64, cfg *config.Config) model.TrafficLight {
	liq := cfg.Liquidity
	liquidityOK := oi >= liq.MinOI && volume >= liq.MinVolume
	liquidityPoor := oi < liq.MarginalOI || volume == 0

	switch {
	case annReturn >= cfg.AnnualizedReturnTarget && liquidityOK:
		return model.TrafficLight{Color: model.Green, Reason: "Meets all targets"}
	case annReturn < SelectedReturnFloor || liquidityPoor:
		return red("Below minimum thresholds")
	default:
		return model.TrafficLight{Color: model.Yellow, Reason: "Near threshold – review carefully"}
	}
}

// SummarizeETFs tallies green and yellow contracts per configured ETF across
// every expiration in chains (symbol -> expiration key -> enriched rows).
// Missing or empty chains are skipped.
func SummarizeETFs(
	chains map[string]map[string][]model.EnrichedContract,
	prices map[string]float64,
	vix, sp, ndx model.Color,
	cfg *config.Config,
) []model.ETFStatus {
	out := make([]model.ETFStatus, 0, len(cfg.ETFs))
	for _, sym := range cfg.ETFs {
		st := model.ETFStatus{Symbol: sym, LastPrice: round2(prices[sym])}
		index := IndexColorFor(sym, sp, ndx, cfg)

		for _, rows := range chains[sym] {
			for _, row := range rows {
				switch EvaluateOption(row, vix, index, cfg).Color {
				case model.Green:
					if row.Type == model.Call {
						st.GreenCalls++
					} else {
						st.GreenPuts++
					}
				case model.Yellow:
					st.YellowCount++
				}
			}
		}

		st.TotalGreen = st.GreenCalls + st.GreenPuts
		switch {
		case st.TotalGreen > 0:
			st.StatusColor = model.Green
		case st.YellowCount > 0:
			st.StatusColor = model.Yellow
		default:
			st.StatusColor = model.Red
		}
		out = append(out, st)
	}
	return out
}

func red(reason string) model.TrafficLight {
	return model.TrafficLight{Color: model.Red, Reason: reason}
}

func formatDelta(c model.OptionContract) string {
	d, ok := c.Delta()
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(d, 'f', -1, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
