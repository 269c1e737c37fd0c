// Package pricing implements the bonding-curve math behind the pool. A
// Model never mutates state: it reads a market.State snapshot and returns
// the deltas a trade would apply to the pool and to the trader's wallet.
package pricing

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// TradeResult is the quote for one trade. Fee is in base and is already
// reflected in both Market and Trader; it is reported separately for the
// ledger. SpotPrice is the pool price before the trade.
type TradeResult struct {
	Market    market.Deltas
	Trader    market.WalletDelta
	Fee       decimal.Decimal
	SpotPrice decimal.Decimal
}

// Model prices trades for one curve variant.
//
// term is the pool's position duration. remaining is the same stretch
// with Days set to the days left on the position being closed.
type Model interface {
	Name() string

	CalcTimeStretch(apr decimal.Decimal) (decimal.Decimal, error)
	CalcLiquidity(s market.State, targetLiquidity, targetAPR decimal.Decimal, term market.StretchedTime) (shares, bonds decimal.Decimal, err error)
	CalcTotalLiquidityFromReservesAndPrice(s market.State, sharePrice decimal.Decimal) decimal.Decimal
	CalcSpotPrice(s market.State, term market.StretchedTime) (decimal.Decimal, error)
	CalcAPRFromReserves(s market.State, term market.StretchedTime) (decimal.Decimal, error)

	CalcOpenLong(s market.State, base decimal.Decimal, term market.StretchedTime) (TradeResult, error)
	CalcCloseLong(s market.State, bonds decimal.Decimal, term, remaining market.StretchedTime) (TradeResult, error)
	CalcOpenShort(s market.State, bonds decimal.Decimal, term market.StretchedTime) (TradeResult, error)
	CalcCloseShort(s market.State, bonds, openSharePrice decimal.Decimal, term, remaining market.StretchedTime) (TradeResult, error)

	// Liquidity is priced against the pool's present value at market time
	// now, in years.
	CalcPresentValue(s market.State, term market.StretchedTime, now decimal.Decimal) decimal.Decimal
	CalcAddLiquidity(s market.State, base, targetAPR decimal.Decimal, term market.StretchedTime, now decimal.Decimal) (TradeResult, error)
	CalcRemoveLiquidity(s market.State, lpTokens decimal.Decimal, term market.StretchedTime, now decimal.Decimal) (TradeResult, error)
}

var models = map[string]func() Model{
	"hyperdrive": func() Model { return NewHyperdrive() },
	"yieldspace": func() Model { return NewYieldSpace() },
}

// ByName returns the model registered under name (case-insensitive).
func ByName(name string) (Model, error) {
	ctor, ok := models[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Wrapf(market.ErrConfiguration, "unknown pricing model %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(models))
	for n := range models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
