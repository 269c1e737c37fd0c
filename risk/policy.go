package risk

import (
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

type Policy struct {
	// Trade constraints
	MinTradeAmount decimal.Decimal // 1 base or bond

	// Exposure limits
	MaxTradeFraction decimal.Decimal // 0.1 of total liquidity, zero disables
	MaxOpenPositions int             // longs + shorts, zero disables
}

func DefaultPolicy() Policy {
	return Policy{
		MinTradeAmount:   decimal.NewFromInt(1),
		MaxTradeFraction: decimal.RequireFromString("0.1"),
	}
}

type TradeIntent struct {
	Type   market.ActionType
	Amount decimal.Decimal // base for longs and liquidity, bonds for shorts
}

type WalletSnapshot struct {
	Base       decimal.Decimal
	OpenLongs  int
	OpenShorts int
}

// Bounds describe what the pool can absorb right now.
type Bounds struct {
	SpotPrice      decimal.Decimal
	TotalLiquidity decimal.Decimal
	MaxLong        decimal.Decimal // base
	MaxShort       decimal.Decimal // bonds
}

// SnapshotWallet counts the open positions of w.
func SnapshotWallet(w *market.Wallet) WalletSnapshot {
	return WalletSnapshot{
		Base:       w.Base,
		OpenLongs:  len(w.Longs()),
		OpenShorts: len(w.Shorts()),
	}
}
