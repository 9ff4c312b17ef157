package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"PremiumSentinel/internal/analytics"
	"PremiumSentinel/internal/board"
	"PremiumSentinel/internal/collector"
	"PremiumSentinel/internal/model"
	"PremiumSentinel/internal/notifier"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		mock     bool
		asJSON   bool
		strategy string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one refresh pass and print the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := model.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			cfg := a.cfg.Current()
			p := newProvider(cfg)
			if mock {
				p = collector.NewMockProvider()
			}
			stk := a.buildStack(cmd.Context(), p, nil)
			defer stk.Close()

			md, err := stk.collector.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			b := board.Build(md, cfg, st)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			}
			fmt.Print(notifier.FormatBoard(b))
			printChains(b, cfg.ETFs, cfg.ExpirationsDTE)
			return nil
		},
	}
	cmd.Flags().BoolVar(&mock, "mock", false, "use the synthetic data provider")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the board as JSON")
	cmd.Flags().StringVar(&strategy, "strategy", string(model.ShortCalls), "short_calls or cash_secured_puts")
	return cmd
}

func printChains(b *board.Board, etfs []string, dtes []int) {
	for _, etf := range etfs {
		for _, dte := range dtes {
			rows := b.Chain(etf, dte, analytics.Filter{})
			if len(rows) == 0 {
				continue
			}
			fmt.Printf("\n%s %d DTE (%s)\n", etf, dte, model.ExpirationKey(rows[0].Expiration))
			fmt.Printf("%-22s %8s %7s %7s %8s %7s %7s  %s\n", "contract", "strike", "mid", "delta", "ann%", "OI", "vol", "light")
			for _, r := range rows {
				delta := "N/A"
				if d, ok := r.Delta(); ok {
					delta = fmt.Sprintf("%.2f", d)
				}
				fmt.Printf("%-22s %8.2f %7.2f %7s %8.1f %7d %7d  %s %s\n",
					r.ContractID, r.Strike, r.Mid, delta, r.AnnReturn, r.OpenInterest, r.Volume, notifier.Dot(r.Light.Color), r.Light.Reason)
			}
		}
	}
}
