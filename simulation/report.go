package simulation

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func pct(d decimal.Decimal) string { return d.Mul(hundred).StringFixed(4) + "%" }

// PrintSummary writes a human readable run report.
func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Simulation Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", s.RunID)
	fmt.Fprintf(w, "Model:         %s\n", s.PricingModel)
	fmt.Fprintf(w, "Seed:          %d\n", s.Seed)
	fmt.Fprintf(w, "Days:          %d x %d blocks\n", s.Days, s.BlocksPerDay)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Market")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Spot Price:    %s\n", s.SpotPrice.StringFixed(6))
	fmt.Fprintf(w, "Pool APR:      %s\n", pct(s.PoolAPR))
	fmt.Fprintf(w, "Share Price:   %s\n", s.State.SharePrice.StringFixed(6))
	fmt.Fprintf(w, "Shares:        %s\n", s.State.ShareReserves.StringFixed(2))
	fmt.Fprintf(w, "Bonds:         %s\n", s.State.BondReserves.StringFixed(2))
	fmt.Fprintf(w, "Liquidity:     %s\n", s.TotalLiquidity.StringFixed(2))
	fmt.Fprintf(w, "Fees:          %s\n", s.State.TotalFees.StringFixed(2))
	if s.Closed {
		fmt.Fprintln(w, "Status:        closed")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.Trades)
	fmt.Fprintf(w, "Skipped:       %d\n", s.Skipped)

	if len(s.Agents) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Agents")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "%-5s %-7s %16s %16s %12s\n", "addr", "policy", "worth", "pnl", "apr")
		for _, a := range s.Agents {
			fmt.Fprintf(w, "%-5d %-7s %16s %16s %12s\n",
				a.Address, a.Policy, a.Worth.StringFixed(2), a.PnL.StringFixed(2), pct(a.APR))
		}
	}

	fmt.Fprintln(w)
}

// PrintSweep writes one line per run.
func PrintSweep(w io.Writer, runs []Summary) {
	fmt.Fprintf(w, "%-8s %8s %8s %12s %12s %18s\n", "seed", "trades", "skipped", "spot", "apr", "liquidity")
	for _, s := range runs {
		fmt.Fprintf(w, "%-8d %8d %8d %12s %12s %18s\n",
			s.Seed, s.Trades, s.Skipped, s.SpotPrice.StringFixed(6), pct(s.PoolAPR), s.TotalLiquidity.StringFixed(2))
	}
}
