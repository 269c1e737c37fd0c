package market

import (
	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/shopspring/decimal"
)

// State is the pool's reserve and ledger snapshot. Only the market engine
// replaces it, one trade at a time.
type State struct {
	ShareReserves        decimal.Decimal `json:"share_reserves"`
	BondReserves         decimal.Decimal `json:"bond_reserves"`
	LPReserves           decimal.Decimal `json:"lp_reserves"`
	BaseBuffer           decimal.Decimal `json:"base_buffer"`
	BondBuffer           decimal.Decimal `json:"bond_buffer"`
	SharePrice           decimal.Decimal `json:"share_price"`
	InitSharePrice       decimal.Decimal `json:"init_share_price"`
	VaultAPR             decimal.Decimal `json:"vault_apr"`
	TradeFeePercent      decimal.Decimal `json:"trade_fee_percent"`
	RedemptionFeePercent decimal.Decimal `json:"redemption_fee_percent"`
	TotalFees            decimal.Decimal `json:"total_fees"`

	// Bond-weighted mint times (years) of the open longs and shorts.
	LongAverageMintTime  decimal.Decimal `json:"long_average_mint_time"`
	ShortAverageMintTime decimal.Decimal `json:"short_average_mint_time"`
}

// Deltas is a signed change to the pool reserves produced by a pricing
// model.
type Deltas struct {
	Shares     decimal.Decimal
	Bonds      decimal.Decimal
	LP         decimal.Decimal
	BaseBuffer decimal.Decimal
	BondBuffer decimal.Decimal
	Fees       decimal.Decimal

	// Mint time of the bonds moved through BaseBuffer and BondBuffer. The
	// market stamps these; pricing models leave them zero.
	LongMintTime  decimal.Decimal
	ShortMintTime decimal.Decimal
}

// NewState returns an empty pool at the given share price and fees.
func NewState(sharePrice, initSharePrice, tradeFee, redemptionFee decimal.Decimal) State {
	return State{
		ShareReserves:        decimal.Zero,
		BondReserves:         decimal.Zero,
		LPReserves:           decimal.Zero,
		BaseBuffer:           decimal.Zero,
		BondBuffer:           decimal.Zero,
		SharePrice:           sharePrice,
		InitSharePrice:       initSharePrice,
		VaultAPR:             decimal.Zero,
		TradeFeePercent:      tradeFee,
		RedemptionFeePercent: redemptionFee,
		TotalFees:            decimal.Zero,
		LongAverageMintTime:  decimal.Zero,
		ShortAverageMintTime: decimal.Zero,
	}
}

// Apply returns a copy of s with d added. s is not modified.
func (s State) Apply(d Deltas) State {
	s.ShareReserves = s.ShareReserves.Add(d.Shares)
	s.BondReserves = s.BondReserves.Add(d.Bonds)
	s.LPReserves = s.LPReserves.Add(d.LP)
	s.LongAverageMintTime = averageMintTime(s.LongAverageMintTime, s.BaseBuffer, d.LongMintTime, d.BaseBuffer)
	s.ShortAverageMintTime = averageMintTime(s.ShortAverageMintTime, s.BondBuffer, d.ShortMintTime, d.BondBuffer)
	s.BaseBuffer = s.BaseBuffer.Add(d.BaseBuffer)
	s.BondBuffer = s.BondBuffer.Add(d.BondBuffer)
	s.TotalFees = s.TotalFees.Add(d.Fees)
	return s
}

// averageMintTime folds delta bonds minted at t into an average over total
// bonds. Removing bonds takes their mint time back out.
func averageMintTime(avg, total, t, delta decimal.Decimal) decimal.Decimal {
	if delta.IsZero() {
		return avg
	}
	next := total.Add(delta)
	if !next.IsPositive() {
		return decimal.Zero
	}
	return fixedpoint.Div(fixedpoint.Mul(avg, total).Add(fixedpoint.Mul(t, delta)), next)
}

// IsEmpty reports whether the pool holds no liquidity yet.
func (s State) IsEmpty() bool {
	return s.ShareReserves.IsZero() && s.LPReserves.IsZero()
}

// BaseReserves is the share reserves valued in base.
func (s State) BaseReserves() decimal.Decimal {
	return fixedpoint.Mul(s.ShareReserves, s.SharePrice)
}

// Validate checks the reserve and buffer invariants. Reserve shortfalls wrap
// ErrInsufficientLiquidity; states no trade can legally produce wrap
// ErrInvariantViolation.
func (s State) Validate() error {
	switch {
	case s.SharePrice.Sign() <= 0:
		return errors.Wrapf(ErrInvariantViolation, "share price %s must be positive", s.SharePrice)
	case s.ShareReserves.IsNegative():
		return errors.Wrapf(ErrInsufficientLiquidity, "share reserves %s < 0", s.ShareReserves)
	case s.BondReserves.IsNegative():
		return errors.Wrapf(ErrInsufficientLiquidity, "bond reserves %s < 0", s.BondReserves)
	case s.LPReserves.IsNegative():
		return errors.Wrapf(ErrInsufficientLiquidity, "lp reserves %s < 0", s.LPReserves)
	case s.BaseBuffer.IsNegative() || s.BondBuffer.IsNegative():
		return errors.Wrapf(ErrInvariantViolation, "negative buffer base=%s bond=%s", s.BaseBuffer, s.BondBuffer)
	case fixedpoint.Div(s.BaseBuffer, s.SharePrice).GreaterThan(s.ShareReserves):
		return errors.Wrapf(ErrInsufficientLiquidity,
			"base buffer %s exceeds base reserves %s", s.BaseBuffer, s.BaseReserves())
	case s.BondBuffer.GreaterThan(s.BondReserves):
		return errors.Wrapf(ErrInsufficientLiquidity,
			"bond buffer %s exceeds bond reserves %s", s.BondBuffer, s.BondReserves)
	}
	return nil
}
