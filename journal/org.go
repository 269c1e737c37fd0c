package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block, with every
// field in a PROPERTIES drawer for easy search.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade: %s agent %d (%s)", t.Action, t.Agent, shortID(t.ID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TRADE_ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	b.WriteString(fmt.Sprintf(":DAY: %d\n", t.Day))
	b.WriteString(fmt.Sprintf(":BLOCK: %d\n", t.Block))
	b.WriteString(fmt.Sprintf(":TIME: %s\n", t.Time.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":ACTION: %s\n", t.Action))
	b.WriteString(fmt.Sprintf(":AMOUNT: %s\n", t.Amount.StringFixed(6)))
	if t.MintTime.Valid {
		b.WriteString(fmt.Sprintf(":MINT_TIME: %s\n", t.MintTime.Decimal))
	}
	b.WriteString(fmt.Sprintf(":FEE: %s\n", t.Fee.StringFixed(6)))
	b.WriteString(fmt.Sprintf(":SPOT_PRICE: %s\n", t.SpotPrice.StringFixed(6)))
	b.WriteString(fmt.Sprintf(":STATUS: %s\n", t.Status))
	if t.Error != "" {
		b.WriteString(fmt.Sprintf(":ERROR: %s\n", t.Error))
	}
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Pool after\n")
	b.WriteString(fmt.Sprintf("- shares %s, bonds %s, lp %s\n",
		t.State.ShareReserves.StringFixed(2), t.State.BondReserves.StringFixed(2), t.State.LPReserves.StringFixed(2)))
	b.WriteString(fmt.Sprintf("- share price %s\n", t.State.SharePrice.StringFixed(6)))

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
