// Package simulation runs a market through days × blocks of agent trading.
// A run is single-threaded and fully determined by its configuration: one
// seeded random source feeds the vault process and every agent.
package simulation

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/agents"
	"github.com/rustyeddy/elfsim/config"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/internal/id"
	"github.com/rustyeddy/elfsim/journal"
	"github.com/rustyeddy/elfsim/market"
	"github.com/rustyeddy/elfsim/pricing"
	"github.com/rustyeddy/elfsim/sim"
	"github.com/rustyeddy/elfsim/vault"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BootstrapAddress is the wallet of the agent that seeds the pool.
const BootstrapAddress = 0

type Simulator struct {
	cfg   *config.Config
	log   *logrus.Entry
	rng   *rand.Rand
	ids   *id.Generator
	runID string
	start time.Time

	market    *sim.Market
	vault     vault.Process
	bootstrap agents.Agent
	agents    []agents.Agent

	history *journal.History
	sinks   journal.Multi

	initialized bool
	finished    bool
	trades      int
	skipped     int
	dayTrades   int
	daySkipped  int
}

// New builds a simulator from a validated copy of cfg. Records go to the
// in-memory history and then to each sink.
func New(cfg *config.Config, log *logrus.Logger, sinks ...journal.Journal) (*Simulator, error) {
	if cfg == nil {
		return nil, errors.Wrap(market.ErrConfiguration, "simulation: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := *cfg
	seed := c.Simulation.RandomSeed
	runID := RunID(&c)

	entry := log.WithFields(logrus.Fields{"run": runID, "seed": seed})
	rng := rand.New(rand.NewSource(seed))

	model, err := pricing.ByName(c.Simulation.PricingModel)
	if err != nil {
		return nil, err
	}
	targetAPR := fixedpoint.FromFloat(c.Market.TargetPoolAPR)
	stretch, err := model.CalcTimeStretch(targetAPR)
	if err != nil {
		return nil, err
	}
	term := market.NewStretchedTime(decimal.NewFromInt(int64(c.Market.NumPositionDays)), stretch)

	initPrice := fixedpoint.FromFloat(c.Market.InitSharePrice)
	state := market.NewState(initPrice, initPrice,
		fixedpoint.FromFloat(c.Market.TradeFeePercent),
		fixedpoint.FromFloat(c.Market.RedemptionFeePercent))
	m, err := sim.NewMarket(model, state, term, targetAPR, entry)
	if err != nil {
		return nil, err
	}

	start, err := c.Simulation.Start()
	if err != nil {
		return nil, errors.Wrapf(market.ErrConfiguration, "start time: %v", err)
	}
	vp, err := vault.FromConfig(c.VaultAPR, c.Simulation.NumTradingDays, start, rng)
	if err != nil {
		return nil, err
	}

	as, err := agents.FromConfig(c.Agents, BootstrapAddress+1, rng)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		cfg:       &c,
		log:       entry.WithField("component", "simulator"),
		rng:       rng,
		ids:       id.NewGenerator(seed),
		runID:     runID,
		start:     start,
		market:    m,
		vault:     vp,
		bootstrap: agents.NewLP(BootstrapAddress, fixedpoint.FromFloat(c.Market.TargetLiquidity)),
		agents:    as,
		history:   journal.NewHistory(),
		sinks:     journal.Multi(sinks),
	}, nil
}

func (s *Simulator) RunID() string             { return s.runID }
func (s *Simulator) Market() *sim.Market       { return s.market }
func (s *Simulator) History() *journal.History { return s.history }
func (s *Simulator) Config() config.Config     { return *s.cfg }

// Agents returns the bootstrap agent followed by the configured ones.
func (s *Simulator) Agents() []agents.Agent {
	return append([]agents.Agent{s.bootstrap}, s.agents...)
}

// Initialize seeds the pool with the bootstrap agent's liquidity at the
// target rate. It runs once; RunSimulation calls it if needed.
func (s *Simulator) Initialize() error {
	if s.initialized {
		return nil
	}
	if err := s.execute(s.bootstrap, s.bootstrap.Action(s.view()), 0, 0); err != nil {
		return err
	}
	if s.market.State().IsEmpty() {
		return errors.Wrap(market.ErrInvariantViolation, "initialize: pool was not seeded")
	}
	s.initialized = true

	apr, _ := s.market.PoolAPR()
	s.log.WithFields(logrus.Fields{
		"liquidity": s.market.TotalLiquidity().String(),
		"pool_apr":  apr.String(),
	}).Info("pool initialized")
	return nil
}

// RunSimulation steps through every day and block, then optionally
// liquidates all agents and closes the market. ctx is checked between
// blocks.
func (s *Simulator) RunSimulation(ctx context.Context) error {
	if s.finished {
		return errors.Wrap(market.ErrMarketClosed, "simulation already ran")
	}
	if err := s.Initialize(); err != nil {
		return err
	}

	days := s.cfg.Simulation.NumTradingDays
	blocks := s.cfg.Simulation.NumBlocksPerDay
	for day := 0; day < days; day++ {
		apr, err := s.vault.Next(day)
		if err != nil {
			return errors.Wrapf(err, "vault apr day %d", day)
		}
		s.market.SetVaultAPR(apr)
		if day > 0 {
			if err := s.market.AccrueVaultYield(1, s.cfg.Simulation.CompoundVaultAPR); err != nil {
				return errors.Wrapf(err, "day %d", day)
			}
		}

		s.dayTrades, s.daySkipped = 0, 0
		for block := 0; block < blocks; block++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.market.AdvanceTime(s.marketTime(day, block)); err != nil {
				return err
			}
			if err := s.CollectAndExecuteTrades(day, block); err != nil {
				return err
			}
		}
		if err := s.recordDay(day, apr); err != nil {
			return err
		}
	}

	if s.cfg.Simulation.LiquidateAtEnd {
		if err := s.liquidate(days); err != nil {
			return err
		}
	}
	s.market.Close()
	s.finished = true

	if err := s.sinks.RecordRun(s.RunRecord(time.Now().UTC())); err != nil {
		return errors.Wrap(err, "record run")
	}
	s.log.WithFields(logrus.Fields{
		"trades":  s.trades,
		"skipped": s.skipped,
	}).Info("simulation finished")
	return nil
}

// CollectAndExecuteTrades asks every agent, in fixed or shuffled order, for
// its actions and applies them. Recoverable market errors become skipped
// records; anything else stops the run.
func (s *Simulator) CollectAndExecuteTrades(day, block int) error {
	order := append([]agents.Agent(nil), s.agents...)
	if s.cfg.Simulation.ShuffleUsers {
		s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	for _, a := range order {
		if err := s.execute(a, a.Action(s.view()), day, block); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) liquidate(day int) error {
	if err := s.market.AdvanceTime(s.marketTime(day, 0)); err != nil {
		return err
	}
	s.dayTrades, s.daySkipped = 0, 0
	for _, a := range append(append([]agents.Agent(nil), s.agents...), s.bootstrap) {
		if err := s.execute(a, a.LiquidationActions(s.view()), day, 0); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) execute(a agents.Agent, actions []market.Action, day, block int) error {
	for _, act := range actions {
		when := s.wallTime(day, block)
		tradeID, err := s.ids.Next(when)
		if err != nil {
			return errors.Wrap(err, "trade id")
		}
		rec := journal.TradeRecord{
			ID:       tradeID,
			RunID:    s.runID,
			Day:      day,
			Block:    block,
			Time:     when,
			Agent:    act.Agent,
			Action:   act.Type,
			Amount:   act.TradeAmount,
			MintTime: act.MintTime,
			Fee:      decimal.Zero,
		}

		receipt, err := s.market.ApplyAction(act, a.Wallet())
		if err != nil {
			if !market.IsRecoverable(err) {
				return errors.Wrapf(err, "day %d block %d agent %d", day, block, act.Agent)
			}
			rec.Status = journal.StatusSkipped
			rec.Error = err.Error()
			rec.MarketTime = s.market.Time()
			rec.State = s.market.State()
			rec.SpotPrice, _ = s.market.SpotPrice()
			s.skipped++
			s.daySkipped++
			s.log.WithFields(logrus.Fields{"day": day, "block": block, "agent": act.Agent}).
				WithError(err).Debug("trade skipped")
		} else {
			if err := a.UpdateWallet(receipt.Trader, receipt.Time); err != nil {
				return errors.Wrapf(market.ErrInvariantViolation, "agent %d wallet: %v", act.Agent, err)
			}
			if err := s.market.State().Validate(); err != nil {
				return errors.Wrapf(market.ErrInvariantViolation, "after %s: %v", act.Type, err)
			}
			rec.Status = journal.StatusApplied
			rec.MarketTime = receipt.Time
			rec.Fee = receipt.Fee
			rec.SpotPrice = receipt.SpotPrice
			rec.State = receipt.State
			if act.Type == market.OpenLong || act.Type == market.OpenShort {
				rec.MintTime = decimal.NewNullDecimal(receipt.Time)
			}
			s.trades++
			s.dayTrades++
		}

		if err := s.record(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulator) record(rec journal.TradeRecord) error {
	if err := s.history.RecordTrade(rec); err != nil {
		return err
	}
	if err := s.sinks.RecordTrade(rec); err != nil {
		return errors.Wrapf(err, "journal trade %s", rec.ID)
	}
	return nil
}

func (s *Simulator) recordDay(day int, vaultAPR decimal.Decimal) error {
	spot, _ := s.market.SpotPrice()
	apr, _ := s.market.PoolAPR()
	rec := journal.DayRecord{
		RunID:      s.runID,
		Day:        day,
		Time:       s.wallTime(day, 0),
		MarketTime: s.market.Time(),
		VaultAPR:   vaultAPR,
		SpotPrice:  spot,
		PoolAPR:    apr,
		Trades:     s.dayTrades,
		Skipped:    s.daySkipped,
		State:      s.market.State(),
	}
	if err := s.history.RecordDay(rec); err != nil {
		return err
	}
	if err := s.sinks.RecordDay(rec); err != nil {
		return errors.Wrapf(err, "journal day %d", day)
	}
	s.log.WithFields(logrus.Fields{
		"day":         day,
		"spot_price":  spot.StringFixed(6),
		"pool_apr":    apr.StringFixed(6),
		"share_price": rec.State.SharePrice.StringFixed(6),
	}).Debug("day complete")
	return nil
}

// marketTime is the pool clock, in years, at the start of a block.
func (s *Simulator) marketTime(day, block int) decimal.Decimal {
	blocks := decimal.NewFromInt(int64(s.cfg.Simulation.NumBlocksPerDay))
	days := decimal.NewFromInt(int64(day)).Add(fixedpoint.Div(decimal.NewFromInt(int64(block)), blocks))
	return fixedpoint.Div(days, market.DaysPerYear)
}

func (s *Simulator) wallTime(day, block int) time.Time {
	perBlock := 24 * time.Hour / time.Duration(s.cfg.Simulation.NumBlocksPerDay)
	return s.start.AddDate(0, 0, day).Add(time.Duration(block) * perBlock)
}
