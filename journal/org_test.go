package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	result := FormatTradeOrg(testTrade("01H0000000000000000000000A", 2))

	assert.Contains(t, result, "** Trade: CLOSE_LONG agent 3 (01H00000)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01H0000000000000000000000A")
	assert.Contains(t, result, ":DAY: 2")
	assert.Contains(t, result, ":TIME: 2023-01-03T00:00:00Z")
	assert.Contains(t, result, ":AMOUNT: 1000.500000")
	assert.Contains(t, result, ":MINT_TIME: 0.001")
	assert.Contains(t, result, ":STATUS: applied")
	assert.NotContains(t, result, ":ERROR:")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Pool after")
}

func TestFormatTradeOrgSkipped(t *testing.T) {
	t.Parallel()

	rec := testTrade("short", 0)
	rec.Status = StatusSkipped
	rec.Error = "insufficient liquidity"
	rec.MintTime.Valid = false

	result := FormatTradeOrg(rec)
	assert.Contains(t, result, "(short)")
	assert.Contains(t, result, ":ERROR: insufficient liquidity")
	assert.NotContains(t, result, ":MINT_TIME:")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	result := FormatTradesOrg([]TradeRecord{testTrade("a", 0), testTrade("b", 0)})
	assert.Equal(t, 2, strings.Count(result, "** Trade:"))
	assert.Empty(t, FormatTradesOrg(nil))
}

func TestRunOrg(t *testing.T) {
	t.Parallel()

	run := RunRecord{
		RunID:        "run-1",
		Created:      time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
		Seed:         7,
		PricingModel: "yieldspace",
		Days:         3,
		BlocksPerDay: 2,
		TargetAPR:    d("0.05"),
		FinalAPR:     d("0.051"),
		FinalSpot:    d("0.99"),
		SharePrice:   d("1"),
		Liquidity:    d("1000"),
		TotalFees:    d("1.5"),
		Notes:        []string{"liquidated at end"},
	}

	s, err := FormatRunOrg(run)
	require.NoError(t, err)
	assert.Contains(t, s, "* SIMULATION: yieldspace seed 7")
	assert.Contains(t, s, ":RUN_ID:      run-1")
	assert.Contains(t, s, "| Target APR %   | 5.0000 |")
	assert.Contains(t, s, "| Spot price     | 0.990000 |")
	assert.Contains(t, s, "| Fees collected | 1.50 |")
	assert.Contains(t, s, "- liquidated at end")
	assert.Contains(t, s, "[2023-04-01 Sat 12:00]")

	path := filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, WriteRunOrg(path, run))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, s, string(data))
}
