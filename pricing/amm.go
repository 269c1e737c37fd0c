package pricing

import (
	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// splitFunc divides the bonds of a close into a flat part redeemed 1:1 at
// the current share price and a curve part traded at stretched time t.
type splitFunc func(bonds decimal.Decimal, term, remaining market.StretchedTime) (flat, onCurve, t decimal.Decimal)

// amm is the trade math shared by both variants. They differ only in how
// a close is split between the flat and the curve part.
type amm struct {
	name  string
	split splitFunc
}

func (m amm) Name() string { return m.name }

func (m amm) CalcTimeStretch(apr decimal.Decimal) (decimal.Decimal, error) {
	return calcTimeStretch(apr)
}

func (m amm) CalcLiquidity(s market.State, targetLiquidity, targetAPR decimal.Decimal, term market.StretchedTime) (decimal.Decimal, decimal.Decimal, error) {
	if targetLiquidity.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, errors.Wrapf(market.ErrInvalidTarget, "target liquidity %s must be positive", targetLiquidity)
	}
	if targetAPR.LessThanOrEqual(fixedpoint.One.Neg()) {
		return decimal.Zero, decimal.Zero, errors.Wrapf(market.ErrInvalidTarget, "target apr %s must be above -1", targetAPR)
	}
	ts := term.StretchedTime()
	if ts.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, errors.Wrapf(market.ErrInvalidTarget, "stretched term %s must be positive", ts)
	}
	growth := fixedpoint.One.Add(fixedpoint.Mul(targetAPR, term.NormalizedTime()))
	if growth.Sign() <= 0 {
		return decimal.Zero, decimal.Zero, errors.Wrapf(market.ErrInvalidTarget, "apr %s over the term loses all principal", targetAPR)
	}

	shares := fixedpoint.Div(targetLiquidity, s.SharePrice)
	g, err := fixedpoint.Pow(growth, fixedpoint.Recip(ts))
	if err != nil {
		return decimal.Zero, decimal.Zero, errors.Wrapf(market.ErrInvalidTarget, "bond reserves: %v", err)
	}
	bonds := fixedpoint.Mul(fixedpoint.Mul(s.InitSharePrice, shares), g)
	return shares, bonds, nil
}

// CalcTotalLiquidityFromReservesAndPrice values the pool in base. Bonds do
// not add to it in either variant.
func (m amm) CalcTotalLiquidityFromReservesAndPrice(s market.State, sharePrice decimal.Decimal) decimal.Decimal {
	return fixedpoint.Mul(s.ShareReserves, sharePrice)
}

func (m amm) CalcSpotPrice(s market.State, term market.StretchedTime) (decimal.Decimal, error) {
	return spotPrice(s, term.StretchedTime())
}

func (m amm) CalcAPRFromReserves(s market.State, term market.StretchedTime) (decimal.Decimal, error) {
	p, err := spotPrice(s, term.StretchedTime())
	if err != nil {
		return decimal.Zero, err
	}
	return aprFromPrice(p, term.NormalizedTime()), nil
}

func requirePositive(what string, v decimal.Decimal) error {
	if v.Sign() <= 0 {
		return errors.Wrapf(market.ErrInvalidTrade, "%s %s must be positive", what, v)
	}
	return nil
}

func requireLiquidity(s market.State) error {
	if s.ShareReserves.Sign() <= 0 || s.BondReserves.Sign() <= 0 {
		return errors.Wrap(market.ErrInsufficientLiquidity, "pool has no liquidity")
	}
	return nil
}

// priceAtMostOne rejects reserves whose spot price would exceed 1, which
// is a negative rate.
func priceAtMostOne(s market.State, dz, dy decimal.Decimal) error {
	z := fixedpoint.Mul(s.InitSharePrice, s.ShareReserves.Add(dz))
	y := s.BondReserves.Add(dy)
	if z.GreaterThan(y) {
		return errors.Wrapf(market.ErrInsufficientLiquidity, "spot price would exceed 1 (mu*z=%s, y=%s)", z, y)
	}
	return nil
}

// feeRate is (1-p)*phi, the curve fee per unit traded.
func feeRate(p, phi decimal.Decimal) decimal.Decimal {
	return fixedpoint.Mul(fixedpoint.One.Sub(p), phi)
}

func (m amm) CalcOpenLong(s market.State, base decimal.Decimal, term market.StretchedTime) (TradeResult, error) {
	if err := requirePositive("base", base); err != nil {
		return TradeResult{}, err
	}
	if err := requireLiquidity(s); err != nil {
		return TradeResult{}, err
	}
	t := term.StretchedTime()
	p, err := spotPrice(s, t)
	if err != nil {
		return TradeResult{}, err
	}
	cv, err := newCurve(s, t)
	if err != nil {
		return TradeResult{}, err
	}

	dz := fixedpoint.Div(base, s.SharePrice)
	dy, err := cv.bondsOutGivenSharesIn(dz)
	if err != nil {
		return TradeResult{}, errors.Wrap(err, "open long")
	}

	// fee is charged in bonds, (1/p - 1)*phi*base, worth (1-p)*phi*base
	feeBonds := fixedpoint.Mul(fixedpoint.Mul(fixedpoint.Div(fixedpoint.One, p).Sub(fixedpoint.One), s.TradeFeePercent), base)
	fee := fixedpoint.Mul(feeRate(p, s.TradeFeePercent), base)
	bondsOut := dy.Sub(feeBonds)
	if bondsOut.Sign() <= 0 {
		return TradeResult{}, errors.Wrapf(market.ErrInvalidTrade, "open long of %s buys no bonds after fees", base)
	}
	if err := priceAtMostOne(s, dz, bondsOut.Neg()); err != nil {
		return TradeResult{}, errors.Wrap(err, "open long")
	}

	return TradeResult{
		Market: market.Deltas{
			Shares:     dz,
			Bonds:      bondsOut.Neg(),
			BaseBuffer: bondsOut,
			Fees:       fee,
		},
		Trader: market.WalletDelta{
			Base:     base.Neg(),
			FeesPaid: fee,
			Longs:    []market.Position{{Balance: bondsOut, OpenSharePrice: s.SharePrice}},
		},
		Fee:       fee,
		SpotPrice: p,
	}, nil
}

func (m amm) CalcCloseLong(s market.State, bonds decimal.Decimal, term, remaining market.StretchedTime) (TradeResult, error) {
	if err := requirePositive("bonds", bonds); err != nil {
		return TradeResult{}, err
	}
	if err := requireLiquidity(s); err != nil {
		return TradeResult{}, err
	}
	flat, onCurve, t := m.split(bonds, term, remaining)
	p, err := spotPrice(s, t)
	if err != nil {
		return TradeResult{}, err
	}

	shares := fixedpoint.Div(flat, s.SharePrice)
	if onCurve.Sign() > 0 {
		cv, err := newCurve(s, t)
		if err != nil {
			return TradeResult{}, err
		}
		dz, err := cv.sharesOutGivenBondsIn(onCurve)
		if err != nil {
			return TradeResult{}, errors.Wrap(err, "close long")
		}
		shares = shares.Add(dz)
	}

	fee := fixedpoint.Mul(feeRate(p, s.TradeFeePercent), onCurve).
		Add(fixedpoint.Mul(s.RedemptionFeePercent, flat))
	baseOut := fixedpoint.Mul(s.SharePrice, shares).Sub(fee)
	if baseOut.Sign() <= 0 {
		return TradeResult{}, errors.Wrapf(market.ErrInvalidTrade, "close long of %s returns nothing after fees", bonds)
	}

	return TradeResult{
		Market: market.Deltas{
			Shares:     fixedpoint.Div(baseOut, s.SharePrice).Neg(),
			Bonds:      onCurve,
			BaseBuffer: bonds.Neg(),
			Fees:       fee,
		},
		Trader: market.WalletDelta{
			Base:     baseOut,
			FeesPaid: fee,
			Longs:    []market.Position{{Balance: bonds.Neg()}},
		},
		Fee:       fee,
		SpotPrice: p,
	}, nil
}

func (m amm) CalcOpenShort(s market.State, bonds decimal.Decimal, term market.StretchedTime) (TradeResult, error) {
	if err := requirePositive("bonds", bonds); err != nil {
		return TradeResult{}, err
	}
	if err := requireLiquidity(s); err != nil {
		return TradeResult{}, err
	}
	t := term.StretchedTime()
	p, err := spotPrice(s, t)
	if err != nil {
		return TradeResult{}, err
	}
	cv, err := newCurve(s, t)
	if err != nil {
		return TradeResult{}, err
	}

	dz, err := cv.sharesOutGivenBondsIn(bonds)
	if err != nil {
		return TradeResult{}, errors.Wrap(err, "open short")
	}
	fee := fixedpoint.Mul(feeRate(p, s.TradeFeePercent), bonds)
	proceeds := fixedpoint.Mul(s.SharePrice, dz).Sub(fee)
	if proceeds.Sign() <= 0 {
		return TradeResult{}, errors.Wrapf(market.ErrInvalidTrade, "open short of %s sells for nothing after fees", bonds)
	}
	deposit := bonds.Sub(proceeds)
	if deposit.IsNegative() {
		return TradeResult{}, errors.Wrapf(market.ErrInsufficientLiquidity, "short proceeds %s exceed face value %s", proceeds, bonds)
	}

	return TradeResult{
		Market: market.Deltas{
			Shares:     fixedpoint.Div(proceeds, s.SharePrice).Neg(),
			Bonds:      bonds,
			BondBuffer: bonds,
			Fees:       fee,
		},
		Trader: market.WalletDelta{
			Base:     deposit.Neg(),
			FeesPaid: fee,
			Shorts: []market.Position{{
				Balance:        bonds,
				OpenSharePrice: s.SharePrice,
				Margin:         bonds,
			}},
		},
		Fee:       fee,
		SpotPrice: p,
	}, nil
}

// CalcCloseShort buys back bonds for the trader. The trader gets the escrow
// grown by the share price since open, less the cost; the result may be
// negative.
func (m amm) CalcCloseShort(s market.State, bonds, openSharePrice decimal.Decimal, term, remaining market.StretchedTime) (TradeResult, error) {
	if err := requirePositive("bonds", bonds); err != nil {
		return TradeResult{}, err
	}
	if err := requirePositive("open share price", openSharePrice); err != nil {
		return TradeResult{}, errors.Wrap(market.ErrInvalidPosition, err.Error())
	}
	if err := requireLiquidity(s); err != nil {
		return TradeResult{}, err
	}
	flat, onCurve, t := m.split(bonds, term, remaining)
	p, err := spotPrice(s, t)
	if err != nil {
		return TradeResult{}, err
	}

	cost := flat
	if onCurve.Sign() > 0 {
		cv, err := newCurve(s, t)
		if err != nil {
			return TradeResult{}, err
		}
		dz, err := cv.sharesInGivenBondsOut(onCurve)
		if err != nil {
			return TradeResult{}, errors.Wrap(err, "close short")
		}
		cost = cost.Add(fixedpoint.Mul(s.SharePrice, dz))
	}
	fee := fixedpoint.Mul(feeRate(p, s.TradeFeePercent), onCurve).
		Add(fixedpoint.Mul(s.RedemptionFeePercent, flat))
	cost = cost.Add(fee)

	dz := fixedpoint.Div(cost, s.SharePrice)
	if onCurve.Sign() > 0 && t.Sign() > 0 {
		if err := priceAtMostOne(s, dz, onCurve.Neg()); err != nil {
			return TradeResult{}, errors.Wrap(err, "close short")
		}
	}
	payout := fixedpoint.Div(fixedpoint.Mul(bonds, s.SharePrice), openSharePrice).Sub(cost)

	return TradeResult{
		Market: market.Deltas{
			Shares:     dz,
			Bonds:      onCurve.Neg(),
			BondBuffer: bonds.Neg(),
			Fees:       fee,
		},
		Trader: market.WalletDelta{
			Base:     payout,
			FeesPaid: fee,
			Shorts:   []market.Position{{Balance: bonds.Neg(), Margin: bonds.Neg()}},
		},
		Fee:       fee,
		SpotPrice: p,
	}, nil
}

// CalcAddLiquidity seeds a pool without LP supply. Later deposits mint LP
// tokens against the pool's present value and scale bonds with shares,
// which keeps the pool rate where it is.
func (m amm) CalcAddLiquidity(s market.State, base, targetAPR decimal.Decimal, term market.StretchedTime, now decimal.Decimal) (TradeResult, error) {
	if err := requirePositive("base", base); err != nil {
		return TradeResult{}, err
	}
	if s.LPReserves.IsZero() {
		return m.seed(s, base, targetAPR, term)
	}
	if s.ShareReserves.Sign() <= 0 {
		return TradeResult{}, errors.Wrap(market.ErrInsufficientLiquidity, "lp supply without share reserves")
	}

	p, err := spotPrice(s, term.StretchedTime())
	if err != nil {
		return TradeResult{}, err
	}
	pv := m.presentValue(s, term, now)
	if pv.Sign() <= 0 {
		return TradeResult{}, errors.Wrapf(market.ErrInsufficientLiquidity, "present value %s leaves nothing to price lp tokens against", pv)
	}
	dz := fixedpoint.Div(base, s.SharePrice)
	lp := fixedpoint.Div(fixedpoint.Mul(dz, s.LPReserves), pv)
	dy := fixedpoint.Div(fixedpoint.Mul(s.BondReserves, dz), s.ShareReserves)

	return TradeResult{
		Market:    market.Deltas{Shares: dz, Bonds: dy, LP: lp},
		Trader:    market.WalletDelta{Base: base.Neg(), LPTokens: lp},
		Fee:       decimal.Zero,
		SpotPrice: p,
	}, nil
}

// seed mints one LP token per share deposited. An empty pool is priced at
// targetAPR. Shares the last LP left behind to back open longs keep their
// current rate.
func (m amm) seed(s market.State, base, targetAPR decimal.Decimal, term market.StretchedTime) (TradeResult, error) {
	var shares, bonds decimal.Decimal
	if s.ShareReserves.IsPositive() && s.BondReserves.IsPositive() {
		shares = fixedpoint.Div(base, s.SharePrice)
		bonds = fixedpoint.Div(fixedpoint.Mul(s.BondReserves, shares), s.ShareReserves)
	} else {
		var err error
		shares, bonds, err = m.CalcLiquidity(s, base, targetAPR, term)
		if err != nil {
			return TradeResult{}, err
		}
	}
	p, err := spotPrice(s, term.StretchedTime())
	if err != nil {
		return TradeResult{}, err
	}
	return TradeResult{
		Market:    market.Deltas{Shares: shares, Bonds: bonds, LP: shares},
		Trader:    market.WalletDelta{Base: base.Neg(), LPTokens: shares},
		Fee:       decimal.Zero,
		SpotPrice: p,
	}, nil
}

// CalcRemoveLiquidity pays out the LP share of the pool's present value.
// The payout must fit in the shares not reserved for open longs; the last
// LP out takes at most those.
func (m amm) CalcRemoveLiquidity(s market.State, lpTokens decimal.Decimal, term market.StretchedTime, now decimal.Decimal) (TradeResult, error) {
	if err := requirePositive("lp tokens", lpTokens); err != nil {
		return TradeResult{}, err
	}
	if s.LPReserves.Sign() <= 0 || lpTokens.GreaterThan(s.LPReserves) {
		return TradeResult{}, errors.Wrapf(market.ErrInsufficientLiquidity, "remove %s of %s lp tokens", lpTokens, s.LPReserves)
	}
	p, err := spotPrice(s, term.StretchedTime())
	if err != nil {
		return TradeResult{}, err
	}
	free := s.ShareReserves.Sub(fixedpoint.Div(s.BaseBuffer, s.SharePrice))
	if free.Sign() <= 0 {
		return TradeResult{}, errors.Wrap(market.ErrInsufficientLiquidity, "all shares are reserved for open longs")
	}

	dz := m.presentValue(s, term, now)
	if lpTokens.LessThan(s.LPReserves) {
		dz = fixedpoint.Div(fixedpoint.Mul(dz, lpTokens), s.LPReserves)
		if dz.GreaterThan(free) {
			return TradeResult{}, errors.Wrapf(market.ErrInsufficientLiquidity,
				"lp claim of %s shares exceeds %s unreserved", dz, free)
		}
	} else if dz.GreaterThan(free) {
		dz = free
	}
	if dz.Sign() <= 0 {
		return TradeResult{}, errors.Wrapf(market.ErrInsufficientLiquidity, "lp tokens are worth %s shares", dz)
	}
	dy := fixedpoint.Div(fixedpoint.Mul(s.BondReserves, dz), s.ShareReserves)
	baseOut := fixedpoint.Mul(s.SharePrice, dz)

	return TradeResult{
		Market:    market.Deltas{Shares: dz.Neg(), Bonds: dy.Neg(), LP: lpTokens.Neg()},
		Trader:    market.WalletDelta{Base: baseOut, LPTokens: lpTokens.Neg()},
		Fee:       decimal.Zero,
		SpotPrice: p,
	}, nil
}

// CalcPresentValue is the pool's worth to its LPs in shares at market time
// now (years).
func (m amm) CalcPresentValue(s market.State, term market.StretchedTime, now decimal.Decimal) decimal.Decimal {
	return m.presentValue(s, term, now)
}

// presentValue is the share reserves, less what closing every open long
// would take out, plus what closing every open short would put in. Both
// sides close at their average mint time and pay no fees.
func (m amm) presentValue(s market.State, term market.StretchedTime, now decimal.Decimal) decimal.Decimal {
	pv := s.ShareReserves
	if s.BaseBuffer.IsPositive() {
		flat, onCurve, t := m.split(s.BaseBuffer, term, agedTerm(term, now, s.LongAverageMintTime))
		pv = pv.Sub(fixedpoint.Div(flat, s.SharePrice))
		if onCurve.IsPositive() {
			pv = pv.Sub(closeShares(s, onCurve, t, true))
		}
	}
	if s.BondBuffer.IsPositive() {
		flat, onCurve, t := m.split(s.BondBuffer, term, agedTerm(term, now, s.ShortAverageMintTime))
		pv = pv.Add(fixedpoint.Div(flat, s.SharePrice))
		if onCurve.IsPositive() {
			pv = pv.Add(closeShares(s, onCurve, t, false))
		}
	}
	return pv
}

// agedTerm is term with Days set to what is left on bonds minted at mint.
func agedTerm(term market.StretchedTime, now, mint decimal.Decimal) market.StretchedTime {
	if mint.GreaterThan(now) {
		mint = now
	}
	years, err := market.YearsRemaining(now, mint, term.NormalizedTime())
	if err != nil {
		return term
	}
	return term.WithDays(market.UnnormDays(years, term.NormalizingConstant))
}

// closeShares prices bonds on the curve: shares out for selling bonds to
// the pool (longs) or shares in for buying them back (shorts). When the
// pool cannot absorb the trade the bonds are marked at spot instead.
func closeShares(s market.State, bonds, t decimal.Decimal, sell bool) decimal.Decimal {
	if cv, err := newCurve(s, t); err == nil {
		var dz decimal.Decimal
		if sell {
			dz, err = cv.sharesOutGivenBondsIn(bonds)
		} else {
			dz, err = cv.sharesInGivenBondsOut(bonds)
		}
		if err == nil {
			return dz
		}
	}
	p, err := spotPrice(s, t)
	if err != nil || !p.IsPositive() {
		p = fixedpoint.One
	}
	return fixedpoint.Div(fixedpoint.Mul(bonds, p), s.SharePrice)
}
