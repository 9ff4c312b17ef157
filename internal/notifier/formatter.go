package notifier

import (
	"fmt"
	"html"
	"strings"

	"PremiumSentinel/internal/analytics"
	"PremiumSentinel/internal/board"
	"PremiumSentinel/internal/model"
	"PremiumSentinel/internal/watch"
)

// Dot renders a color as an emoji.
func Dot(c model.Color) string {
	switch c {
	case model.Green:
		return "🟢"
	case model.Yellow:
		return "🟡"
	case model.Red:
		return "🔴"
	default:
		return "⚪"
	}
}

func light(l model.TrafficLight) string {
	return fmt.Sprintf("%s %s", Dot(l.Color), html.EscapeString(l.Reason))
}

// FormatBoard formats the full board into a Telegram message.
func FormatBoard(b *board.Board) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 <b>PremiumSentinel</b> | %s | %s\n", b.Strategy.Label(), b.LastRefresh.Format("2006-01-02 15:04")))
	if b.Stale {
		sb.WriteString("⚠️ Data may be stale")
		if b.LastError != "" {
			sb.WriteString(": " + html.EscapeString(b.LastError))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(FormatVIX(b))
	sb.WriteString("\n")
	sb.WriteString(formatIndex("S&amp;P 500", b.SP500))
	sb.WriteString(formatIndex("Nasdaq", b.Nasdaq))
	sb.WriteString("\n")
	sb.WriteString(FormatETFs(b))
	return sb.String()
}

// FormatVIX formats the volatility panel.
func FormatVIX(b *board.Board) string {
	v := b.VIX
	var sb strings.Builder
	sb.WriteString("🌡 <b>VIX Regime</b>\n")
	if v.Level > 0 {
		sb.WriteString(fmt.Sprintf("Level: %.2f (%+.2f, %+.2f%%)\n", v.Level, v.Change, v.ChangePct))
		if v.High52w > 0 {
			sb.WriteString(fmt.Sprintf("52w range: %.2f – %.2f | IV rank: %.1f%%\n", v.Low52w, v.High52w, v.IVRank))
		}
	}
	sb.WriteString(light(v.Light) + "\n")
	return sb.String()
}

func formatIndex(name string, p board.IndexPanel) string {
	t := p.Technicals
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 <b>%s</b> (%s)\n", name, html.EscapeString(p.Symbol)))
	if t.Price > 0 {
		sb.WriteString(fmt.Sprintf("Price: %.2f | SMA20 %s | SMA50 %s | SMA100 %s\n", t.Price, sma(t.SMA20), sma(t.SMA50), sma(t.SMA100)))
	}
	sb.WriteString(fmt.Sprintf("RSI(14): %.1f %s\n", t.RSI14, t.RSILabel))
	sb.WriteString(light(p.Light) + "\n")
	return sb.String()
}

func sma(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatETFs formats the per-ETF green contract summary.
func FormatETFs(b *board.Board) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎯 <b>ETF Status</b> | %d green total\n", b.TotalGreen()))
	for _, st := range b.ETFs {
		sb.WriteString(fmt.Sprintf("%s %s %.2f: %d calls, %d puts green, %d yellow\n",
			Dot(st.StatusColor), st.Symbol, st.LastPrice, st.GreenCalls, st.GreenPuts, st.YellowCount))
	}
	return sb.String()
}

// FormatChanges formats regime transitions into an alert.
func FormatChanges(changes []watch.Change, s model.Strategy) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🚦 <b>Regime change</b> | %s\n\n", s.Label()))
	for _, c := range changes {
		sb.WriteString(fmt.Sprintf("<b>%s</b>: %s %s → %s %s\n", html.EscapeString(c.Subject), Dot(c.From), c.From, Dot(c.To), c.To))
		if c.Reason != "" {
			sb.WriteString("   " + html.EscapeString(c.Reason) + "\n")
		}
	}
	return sb.String()
}

// FormatDailySummary is the board followed by the best green contract per
// ETF and target DTE.
func FormatDailySummary(b *board.Board, dtes []int) string {
	var sb strings.Builder
	sb.WriteString("🗓 <b>Daily summary</b>\n")
	sb.WriteString(FormatBoard(b))

	var picks []string
	for _, st := range b.ETFs {
		for _, dte := range dtes {
			for _, row := range b.Chain(st.Symbol, dte, analytics.Filter{}) {
				if row.Light.Color != model.Green {
					continue
				}
				picks = append(picks, fmt.Sprintf("• %s %s %.2f %s: mid %.2f, %.1f%% ann., OI %d",
					st.Symbol, model.ExpirationKey(row.Expiration), row.Strike, row.Type, row.Mid, row.AnnReturn, row.OpenInterest))
				break
			}
		}
	}
	sb.WriteString("\n⭐ <b>Top picks</b>\n")
	if len(picks) == 0 {
		sb.WriteString("No green contracts today\n")
	} else {
		sb.WriteString(strings.Join(picks, "\n") + "\n")
	}
	return sb.String()
}
