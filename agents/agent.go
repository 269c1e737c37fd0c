// Package agents holds the trading policies that drive a simulation. An
// agent only sees the market through View and only changes its own wallet
// through UpdateWallet, after the market has committed a trade.
package agents

import (
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// View is the read-only side of the market handed to agents.
type View interface {
	State() market.State
	Term() market.StretchedTime
	Time() decimal.Decimal
	SpotPrice() (decimal.Decimal, error)
	PoolAPR() (decimal.Decimal, error)
	TotalLiquidity() decimal.Decimal
	// PresentValue is the pool's worth to its LPs, in shares.
	PresentValue() decimal.Decimal
	DaysRemaining(mintTime decimal.Decimal) (decimal.Decimal, error)
}

type Agent interface {
	Address() int
	Policy() string
	Wallet() *market.Wallet

	// Action returns the trades the agent wants this block, possibly none.
	Action(v View) []market.Action

	// UpdateWallet applies a committed trade's delta at market time now.
	UpdateWallet(d market.WalletDelta, now decimal.Decimal) error

	// LiquidationActions closes every open position: shorts, then longs,
	// then liquidity.
	LiquidationActions(v View) []market.Action

	FinalReport(v View) Report
}

// Report is an agent's result at the end of a run. Spend is the
// time-weighted average of base committed to the market.
type Report struct {
	Address           int             `json:"address"`
	Policy            string          `json:"policy"`
	Budget            decimal.Decimal `json:"budget"`
	Base              decimal.Decimal `json:"base"`
	Worth             decimal.Decimal `json:"worth"`
	PnL               decimal.Decimal `json:"pnl"`
	Spend             decimal.Decimal `json:"spend"`
	HoldingPeriodRate decimal.Decimal `json:"holding_period_rate"`
	APR               decimal.Decimal `json:"apr"`
	FeesPaid          decimal.Decimal `json:"fees_paid"`
	LPTokens          decimal.Decimal `json:"lp_tokens"`
	OpenLongs         int             `json:"open_longs"`
	OpenShorts        int             `json:"open_shorts"`
}

// Base carries the wallet and bookkeeping shared by every policy.
type Base struct {
	address int
	policy  string
	budget  decimal.Decimal
	wallet  *market.Wallet

	lastUpdate decimal.Decimal
	timeSpend  decimal.Decimal // Σ Δt · (budget − base)
}

func NewBase(address int, policy string, budget decimal.Decimal) *Base {
	return &Base{
		address:    address,
		policy:     policy,
		budget:     budget,
		wallet:     market.NewWallet(address, budget),
		lastUpdate: decimal.Zero,
		timeSpend:  decimal.Zero,
	}
}

func (b *Base) Address() int                { return b.address }
func (b *Base) Policy() string              { return b.policy }
func (b *Base) Budget() decimal.Decimal     { return b.budget }
func (b *Base) Wallet() *market.Wallet      { return b.wallet }
func (b *Base) Action(View) []market.Action { return nil }

func (b *Base) UpdateWallet(d market.WalletDelta, now decimal.Decimal) error {
	if err := b.wallet.Apply(d); err != nil {
		return err
	}
	spent := b.budget.Sub(b.wallet.Base.Sub(d.Base))
	b.timeSpend = b.timeSpend.Add(fixedpoint.Mul(now.Sub(b.lastUpdate), spent))
	b.lastUpdate = now
	return nil
}

func (b *Base) LiquidationActions(View) []market.Action {
	var out []market.Action
	for _, p := range b.wallet.Shorts() {
		out = append(out, market.NewCloseAction(market.CloseShort, b.address, p.Balance, p.MintTime))
	}
	for _, p := range b.wallet.Longs() {
		out = append(out, market.NewCloseAction(market.CloseLong, b.address, p.Balance, p.MintTime))
	}
	if b.wallet.LPTokens.IsPositive() {
		out = append(out, market.NewAction(market.RemoveLiquidity, b.address, b.wallet.LPTokens))
	}
	return out
}

// FinalReport marks open positions at the spot price: a long is worth
// balance·p, a short its margin grown by c/c0 less the cost to buy the
// bonds back, and LP tokens their share of the unreserved liquidity.
func (b *Base) FinalReport(v View) Report {
	s := v.State()
	price, err := v.SpotPrice()
	if err != nil {
		price = decimal.Zero
	}

	worth := b.wallet.Base
	longs := b.wallet.Longs()
	for _, p := range longs {
		worth = worth.Add(fixedpoint.Mul(p.Balance, price))
	}
	shorts := b.wallet.Shorts()
	for _, p := range shorts {
		if p.OpenSharePrice.IsPositive() {
			grown := fixedpoint.Div(fixedpoint.Mul(p.Margin, s.SharePrice), p.OpenSharePrice)
			worth = worth.Add(grown.Sub(fixedpoint.Mul(p.Balance, price)))
		}
	}
	if b.wallet.LPTokens.IsPositive() && s.LPReserves.IsPositive() {
		share := fixedpoint.Div(fixedpoint.Mul(b.wallet.LPTokens, v.PresentValue()), s.LPReserves)
		worth = worth.Add(fixedpoint.Mul(share, s.SharePrice))
	}

	r := Report{
		Address:           b.address,
		Policy:            b.policy,
		Budget:            b.budget,
		Base:              b.wallet.Base,
		Worth:             worth,
		PnL:               worth.Sub(b.budget),
		Spend:             decimal.Zero,
		HoldingPeriodRate: decimal.Zero,
		APR:               decimal.Zero,
		FeesPaid:          b.wallet.FeesPaid,
		LPTokens:          b.wallet.LPTokens,
		OpenLongs:         len(longs),
		OpenShorts:        len(shorts),
	}
	if now := v.Time(); now.IsPositive() {
		r.Spend = fixedpoint.Div(b.timeSpend, now)
		if !r.Spend.IsZero() {
			r.HoldingPeriodRate = fixedpoint.Div(r.PnL, r.Spend)
		}
		r.APR = fixedpoint.Div(r.HoldingPeriodRate, now)
	}
	return r
}
