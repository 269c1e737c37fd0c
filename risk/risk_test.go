package risk

import (
	"testing"

	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pool() market.State {
	s := market.NewState(d("1"), d("1"), d("0.1"), d("0.005"))
	s.ShareReserves = d("100")
	s.BondReserves = d("200")
	s.LPReserves = d("100")
	return s
}

func TestMaxLong(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "33.333333333333333333", MaxLong(pool(), d("0.5")).String())
	assert.True(t, MaxLong(pool(), decimal.Zero).IsZero())

	s := pool()
	s.BondReserves = d("100")
	assert.True(t, MaxLong(s, d("1")).IsZero(), "price already at one")
}

func TestMaxShort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "200", MaxShort(pool(), d("0.5")).String())

	s := pool()
	s.BaseBuffer = d("40")
	assert.Equal(t, "120", MaxShort(s, d("0.5")).String())

	s.BaseBuffer = d("100")
	assert.True(t, MaxShort(s, d("0.5")).IsZero())
}

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		x, lo, hi string
		want      string
	}{
		{"inside", "5", "1", "10", "5"},
		{"below", "0.5", "1", "10", "1"},
		{"above", "11", "1", "10", "10"},
		{"no upper bound", "11", "1", "0", "11"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Clamp(d(tt.x), d(tt.lo), d(tt.hi)).String())
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	bounds := NewBounds(pool(), d("0.5"))
	wallet := WalletSnapshot{Base: d("1000")}

	tests := []struct {
		name   string
		policy Policy
		intent TradeIntent
		wallet WalletSnapshot
		codes  []string
	}{
		{"small long ok", DefaultPolicy(), TradeIntent{market.OpenLong, d("5")}, wallet, nil},
		{"zero amount", DefaultPolicy(), TradeIntent{market.OpenLong, decimal.Zero}, wallet, []string{"NO_AMOUNT"}},
		{"below minimum", DefaultPolicy(), TradeIntent{market.OpenLong, d("0.5")}, wallet, []string{"AMOUNT_TOO_SMALL"}},
		{"long too large", DefaultPolicy(), TradeIntent{market.OpenLong, d("50")}, wallet, []string{"LONG_TOO_LARGE", "TRADE_TOO_LARGE"}},
		{"short within bounds", Policy{MinTradeAmount: d("1")}, TradeIntent{market.OpenShort, d("150")}, wallet, nil},
		{"short too large", Policy{MinTradeAmount: d("1")}, TradeIntent{market.OpenShort, d("250")}, wallet, []string{"SHORT_TOO_LARGE"}},
		{"short deposit exceeds base", Policy{}, TradeIntent{market.OpenShort, d("100")}, WalletSnapshot{Base: d("40")}, []string{"INSUFFICIENT_BASE"}},
		{"too many positions", Policy{MaxOpenPositions: 2}, TradeIntent{market.OpenLong, d("5")}, WalletSnapshot{Base: d("10"), OpenLongs: 1, OpenShorts: 1}, []string{"TOO_MANY_POSITIONS"}},
		{"liquidity ignores pool bounds", DefaultPolicy(), TradeIntent{market.AddLiquidity, d("500")}, wallet, nil},
		{"liquidity needs base", DefaultPolicy(), TradeIntent{market.AddLiquidity, d("5000")}, wallet, []string{"INSUFFICIENT_BASE"}},
		{"close is not sized", DefaultPolicy(), TradeIntent{market.CloseLong, d("1e9")}, WalletSnapshot{}, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Evaluate(tt.policy, tt.intent, tt.wallet, bounds)
			assert.Equal(t, len(tt.codes) == 0, got.Allowed)
			assert.Len(t, got.Violations, len(tt.codes))
			for _, c := range tt.codes {
				assert.True(t, got.Has(c), "missing %s in %+v", c, got.Violations)
			}
		})
	}
}

func TestSnapshotWallet(t *testing.T) {
	w := market.NewWallet(3, d("10"))
	snap := SnapshotWallet(w)
	assert.Equal(t, 0, snap.OpenLongs)
	assert.True(t, snap.Base.Equal(d("10")))
}
