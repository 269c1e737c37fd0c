// Package sim holds the market engine: the only code that mutates pool
// state. Every trade is quoted by a pricing.Model, checked, and committed
// in one assignment.
package sim

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/rustyeddy/elfsim/pricing"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Receipt is what a committed trade realized. Trader has the mint times
// filled in and is ready to apply to the wallet.
type Receipt struct {
	Action    market.Action
	Trader    market.WalletDelta
	Fee       decimal.Decimal
	SpotPrice decimal.Decimal
	Time      decimal.Decimal
	State     market.State
}

type Market struct {
	mu        sync.Mutex
	model     pricing.Model
	state     market.State
	term      market.StretchedTime
	targetAPR decimal.Decimal
	time      decimal.Decimal // years since start
	closed    bool
	log       *logrus.Entry
}

// NewMarket wraps an initial pool state. The pool is usually empty and
// seeded by a first AddLiquidity at targetAPR.
func NewMarket(model pricing.Model, state market.State, term market.StretchedTime, targetAPR decimal.Decimal, log *logrus.Entry) (*Market, error) {
	if model == nil {
		return nil, errors.Wrap(market.ErrConfiguration, "market: pricing model is required")
	}
	if err := state.Validate(); err != nil {
		return nil, errors.Wrap(err, "market: initial state")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Market{
		model:     model,
		state:     state,
		term:      term,
		targetAPR: targetAPR,
		time:      decimal.Zero,
		log:       log.WithField("component", "market"),
	}, nil
}

func (m *Market) Model() pricing.Model { return m.model }

// Term is fixed for the life of the market.
func (m *Market) Term() market.StretchedTime { return m.term }

func (m *Market) TargetAPR() decimal.Decimal { return m.targetAPR }

// State returns a copy of the pool state.
func (m *Market) State() market.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Market) Time() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time
}

func (m *Market) SpotPrice() (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model.CalcSpotPrice(m.state, m.term)
}

func (m *Market) PoolAPR() (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model.CalcAPRFromReserves(m.state, m.term)
}

// PresentValue is the pool's worth to its LPs, in shares.
func (m *Market) PresentValue() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model.CalcPresentValue(m.state, m.term, m.time)
}

func (m *Market) TotalLiquidity() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model.CalcTotalLiquidityFromReservesAndPrice(m.state, m.state.SharePrice)
}

// DaysRemaining is the time left, in days, on a position minted at
// mintTime.
func (m *Market) DaysRemaining(mintTime decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.daysRemainingLocked(mintTime)
}

func (m *Market) daysRemainingLocked(mintTime decimal.Decimal) (decimal.Decimal, error) {
	years, err := market.YearsRemaining(m.time, mintTime, m.term.NormalizedTime())
	if err != nil {
		return decimal.Zero, err
	}
	return market.UnnormDays(years, m.term.NormalizingConstant), nil
}

func (m *Market) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close stops the market. Every later ApplyAction fails with
// ErrMarketClosed.
func (m *Market) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// AdvanceTime moves the clock to t years. Time never goes backwards.
func (m *Market) AdvanceTime(t decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.LessThan(m.time) {
		return errors.Wrapf(market.ErrInvariantViolation, "advance time: %s is before %s", t, m.time)
	}
	m.time = t
	return nil
}

func (m *Market) SetVaultAPR(apr decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.VaultAPR = apr
}

// AccrueVaultYield grows the share price by days of vault yield, either
// compounding daily or as simple interest on the initial share price.
func (m *Market) AccrueVaultYield(days int64, compound bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if days <= 0 {
		return nil
	}
	daily := fixedpoint.Div(m.state.VaultAPR, market.DaysPerYear)
	n := decimal.NewFromInt(days)

	var c decimal.Decimal
	if compound {
		growth, err := fixedpoint.Pow(fixedpoint.One.Add(daily), n)
		if err != nil {
			return errors.Wrapf(market.ErrInvariantViolation, "accrue vault yield: %v", err)
		}
		c = fixedpoint.Mul(m.state.SharePrice, growth)
	} else {
		c = m.state.SharePrice.Add(fixedpoint.Mul(m.state.InitSharePrice, daily.Mul(n)))
	}

	next := m.state
	next.SharePrice = c
	if err := next.Validate(); err != nil {
		return errors.Wrap(market.ErrInvariantViolation, err.Error())
	}
	m.state = next
	return nil
}

// ApplyAction quotes action against the pool and the trader's wallet and,
// if every check passes, commits the new pool state. The wallet is only
// read; the caller applies Receipt.Trader to it. On error nothing changes.
func (m *Market) ApplyAction(action market.Action, w *market.Wallet) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Receipt{}, errors.Wrapf(market.ErrMarketClosed, "%s", action.Type)
	}
	if err := action.Validate(); err != nil {
		return Receipt{}, err
	}
	if w == nil || w.Address != action.Agent {
		return Receipt{}, errors.Wrapf(market.ErrInvalidTrade, "%s: wallet does not belong to agent %d", action.Type, action.Agent)
	}

	res, err := m.quoteLocked(action, w)
	if err != nil {
		return Receipt{}, err
	}

	next := m.state.Apply(res.Market)
	if err := next.Validate(); err != nil {
		return Receipt{}, errors.Wrap(err, action.Type.String())
	}
	if err := checkConservation(res); err != nil {
		return Receipt{}, errors.Wrap(err, action.Type.String())
	}
	if base := w.Base.Add(res.Trader.Base); base.IsNegative() {
		return Receipt{}, errors.Wrapf(market.ErrInvalidTrade,
			"%s: agent %d has %s base, trade needs %s", action.Type, w.Address, w.Base, res.Trader.Base.Neg())
	}

	m.state = next

	m.log.WithFields(logrus.Fields{
		"action": action.Type.String(),
		"agent":  action.Agent,
		"amount": action.TradeAmount.String(),
		"fee":    res.Fee.String(),
		"time":   m.time.String(),
	}).Debug("trade applied")

	return Receipt{
		Action:    action,
		Trader:    res.Trader,
		Fee:       res.Fee,
		SpotPrice: res.SpotPrice,
		Time:      m.time,
		State:     next,
	}, nil
}

func (m *Market) quoteLocked(a market.Action, w *market.Wallet) (pricing.TradeResult, error) {
	switch a.Type {
	case market.OpenLong:
		res, err := m.model.CalcOpenLong(m.state, a.TradeAmount, m.term)
		stampOpen(res.Trader.Longs, m.time)
		res.Market.LongMintTime = m.time
		return res, err

	case market.OpenShort:
		res, err := m.model.CalcOpenShort(m.state, a.TradeAmount, m.term)
		stampOpen(res.Trader.Shorts, m.time)
		res.Market.ShortMintTime = m.time
		return res, err

	case market.CloseLong:
		pos, ok := w.Long(a.MintTime.Decimal)
		if !ok {
			return pricing.TradeResult{}, errors.Wrapf(market.ErrInvalidPosition, "no long minted at %s", a.MintTime.Decimal)
		}
		remaining, err := m.checkCloseLocked(a, pos)
		if err != nil {
			return pricing.TradeResult{}, err
		}
		res, err := m.model.CalcCloseLong(m.state, a.TradeAmount, m.term, remaining)
		if err != nil {
			return res, err
		}
		stampClose(res.Trader.Longs, pos, a.TradeAmount)
		res.Market.LongMintTime = pos.MintTime
		return res, nil

	case market.CloseShort:
		pos, ok := w.Short(a.MintTime.Decimal)
		if !ok {
			return pricing.TradeResult{}, errors.Wrapf(market.ErrInvalidPosition, "no short minted at %s", a.MintTime.Decimal)
		}
		remaining, err := m.checkCloseLocked(a, pos)
		if err != nil {
			return pricing.TradeResult{}, err
		}
		res, err := m.model.CalcCloseShort(m.state, a.TradeAmount, pos.OpenSharePrice, m.term, remaining)
		if err != nil {
			return res, err
		}
		stampClose(res.Trader.Shorts, pos, a.TradeAmount)
		res.Market.ShortMintTime = pos.MintTime
		return res, nil

	case market.AddLiquidity:
		return m.model.CalcAddLiquidity(m.state, a.TradeAmount, m.targetAPR, m.term, m.time)

	case market.RemoveLiquidity:
		if a.TradeAmount.GreaterThan(w.LPTokens) {
			return pricing.TradeResult{}, errors.Wrapf(market.ErrInvalidPosition,
				"remove %s lp tokens, wallet holds %s", a.TradeAmount, w.LPTokens)
		}
		return m.model.CalcRemoveLiquidity(m.state, a.TradeAmount, m.term, m.time)
	}
	return pricing.TradeResult{}, errors.Wrapf(market.ErrInvalidTrade, "unknown action %s", a.Type)
}

// checkCloseLocked validates a close against the wallet's position and
// returns the time left on it.
func (m *Market) checkCloseLocked(a market.Action, pos market.Position) (market.StretchedTime, error) {
	if a.TradeAmount.GreaterThan(pos.Balance) {
		return market.StretchedTime{}, errors.Wrapf(market.ErrInvalidPosition,
			"%s %s exceeds balance %s at mint %s", a.Type, a.TradeAmount, pos.Balance, pos.MintTime)
	}
	if a.OpenSharePrice.Valid && !a.OpenSharePrice.Decimal.Equal(pos.OpenSharePrice) {
		return market.StretchedTime{}, errors.Wrapf(market.ErrInvalidPosition,
			"open share price %s does not match position (%s)", a.OpenSharePrice.Decimal, pos.OpenSharePrice)
	}
	days, err := m.daysRemainingLocked(pos.MintTime)
	if err != nil {
		return market.StretchedTime{}, err
	}
	return m.term.WithDays(days), nil
}

func stampOpen(ps []market.Position, now decimal.Decimal) {
	for i := range ps {
		ps[i].MintTime = now
	}
}

// stampClose keys the position deltas to pos and releases margin pro rata.
func stampClose(ps []market.Position, pos market.Position, amount decimal.Decimal) {
	margin := pos.Margin
	if amount.LessThan(pos.Balance) {
		margin = fixedpoint.Div(fixedpoint.Mul(pos.Margin, amount), pos.Balance)
	}
	for i := range ps {
		ps[i].MintTime = pos.MintTime
		ps[i].OpenSharePrice = pos.OpenSharePrice
		if !pos.Margin.IsZero() {
			ps[i].Margin = margin.Neg()
		}
	}
}

// checkConservation ties the pool's ledgers to the trader's: every bond
// the pool owes is held by the trader, and the same fee is booked on both
// sides.
func checkConservation(r pricing.TradeResult) error {
	longs := decimal.Zero
	for _, p := range r.Trader.Longs {
		longs = longs.Add(p.Balance)
	}
	shorts := decimal.Zero
	for _, p := range r.Trader.Shorts {
		shorts = shorts.Add(p.Balance)
	}

	switch {
	case r.Fee.IsNegative():
		return errors.Wrapf(market.ErrInvariantViolation, "negative fee %s", r.Fee)
	case !r.Fee.Equal(r.Market.Fees) || !r.Fee.Equal(r.Trader.FeesPaid):
		return errors.Wrapf(market.ErrInvariantViolation,
			"fee mismatch: quote %s pool %s trader %s", r.Fee, r.Market.Fees, r.Trader.FeesPaid)
	case !r.Market.BaseBuffer.Equal(longs):
		return errors.Wrapf(market.ErrInvariantViolation,
			"base buffer moved %s, trader longs moved %s", r.Market.BaseBuffer, longs)
	case !r.Market.BondBuffer.Equal(shorts):
		return errors.Wrapf(market.ErrInvariantViolation,
			"bond buffer moved %s, trader shorts moved %s", r.Market.BondBuffer, shorts)
	case !r.Market.LP.Equal(r.Trader.LPTokens):
		return errors.Wrapf(market.ErrInvariantViolation,
			"lp supply moved %s, trader lp moved %s", r.Market.LP, r.Trader.LPTokens)
	}
	return nil
}
