package simulation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rustyeddy/elfsim/agents"
	"github.com/rustyeddy/elfsim/config"
	"github.com/rustyeddy/elfsim/journal"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// runNamespace scopes run ids to elfsim.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/rustyeddy/elfsim/run"))

// RunID is a UUID v5 over the parts of cfg that shape the run. Output
// settings (journal, logging) are left out, so the same run exported
// differently keeps its id.
func RunID(cfg *config.Config) string {
	c := *cfg
	c.Journal = config.JournalConfig{}
	c.Logging = config.LoggingConfig{}
	data, err := json.Marshal(c)
	if err != nil {
		return uuid.NewSHA1(runNamespace, []byte(err.Error())).String()
	}
	return uuid.NewSHA1(runNamespace, data).String()
}

type Summary struct {
	RunID          string          `json:"run_id"`
	Seed           int64           `json:"seed"`
	PricingModel   string          `json:"pricing_model"`
	Days           int             `json:"days"`
	BlocksPerDay   int             `json:"blocks_per_day"`
	Trades         int             `json:"trades"`
	Skipped        int             `json:"skipped"`
	State          market.State    `json:"state"`
	SpotPrice      decimal.Decimal `json:"spot_price"`
	PoolAPR        decimal.Decimal `json:"pool_apr"`
	TotalLiquidity decimal.Decimal `json:"total_liquidity"`
	TargetAPR      decimal.Decimal `json:"target_apr"`
	Closed         bool            `json:"closed"`
	Agents         []agents.Report `json:"agents"`
	Notes          []string        `json:"notes,omitempty"`

	config []byte
}

// Summary reports the market and every agent as they stand now.
func (s *Simulator) Summary() Summary {
	spot, _ := s.market.SpotPrice()
	apr, _ := s.market.PoolAPR()

	all := s.Agents()
	reports := make([]agents.Report, 0, len(all))
	for _, a := range all {
		reports = append(reports, a.FinalReport(s.view()))
	}

	cfg, _ := json.Marshal(s.cfg)
	sum := Summary{
		RunID:          s.runID,
		Seed:           s.cfg.Simulation.RandomSeed,
		PricingModel:   s.market.Model().Name(),
		Days:           s.cfg.Simulation.NumTradingDays,
		BlocksPerDay:   s.cfg.Simulation.NumBlocksPerDay,
		Trades:         s.trades,
		Skipped:        s.skipped,
		State:          s.market.State(),
		SpotPrice:      spot,
		PoolAPR:        apr,
		TotalLiquidity: s.market.TotalLiquidity(),
		TargetAPR:      s.market.TargetAPR(),
		Closed:         s.market.Closed(),
		Agents:         reports,
		config:         cfg,
	}
	if s.finished && s.cfg.Simulation.LiquidateAtEnd {
		sum.Notes = append(sum.Notes, "agents liquidated at end")
	}
	return sum
}

// RunRecord is the journal form of the simulator's Summary.
func (s *Simulator) RunRecord(created time.Time) journal.RunRecord {
	return s.Summary().RunRecord(created)
}

// RunRecord is the journal form of the summary.
func (s Summary) RunRecord(created time.Time) journal.RunRecord {
	return journal.RunRecord{
		RunID:        s.RunID,
		Created:      created,
		Seed:         s.Seed,
		PricingModel: s.PricingModel,
		Days:         s.Days,
		BlocksPerDay: s.BlocksPerDay,
		Agents:       len(s.Agents),
		Config:       s.config,
		Trades:       s.Trades,
		Skipped:      s.Skipped,
		TargetAPR:    s.TargetAPR,
		FinalAPR:     s.PoolAPR,
		FinalSpot:    s.SpotPrice,
		SharePrice:   s.State.SharePrice,
		Liquidity:    s.TotalLiquidity,
		TotalFees:    s.State.TotalFees,
		MarketClosed: s.Closed,
		Notes:        append([]string(nil), s.Notes...),
	}
}
