// Package journal records what a simulation did: one TradeRecord per
// processed action and one DayRecord per trading day. Sinks are append
// only; History keeps the records in memory and the CSV and SQLite sinks
// export them.
package journal

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("journal: not found")

type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
)

// TradeRecord is one action as the market saw it. For a skipped action
// Error holds the reason and State is the unchanged pool.
type TradeRecord struct {
	ID         string              `json:"id"`
	RunID      string              `json:"run_id"`
	Day        int                 `json:"day"`
	Block      int                 `json:"block"`
	Time       time.Time           `json:"time"`
	MarketTime decimal.Decimal     `json:"market_time"`
	Agent      int                 `json:"agent"`
	Action     market.ActionType   `json:"action"`
	Amount     decimal.Decimal     `json:"amount"`
	MintTime   decimal.NullDecimal `json:"mint_time"`
	Fee        decimal.Decimal     `json:"fee"`
	SpotPrice  decimal.Decimal     `json:"spot_price"`
	Status     Status              `json:"status"`
	Error      string              `json:"error,omitempty"`
	State      market.State        `json:"state"`
}

// DayRecord is the pool at the end of a trading day.
type DayRecord struct {
	RunID      string          `json:"run_id"`
	Day        int             `json:"day"`
	Time       time.Time       `json:"time"`
	MarketTime decimal.Decimal `json:"market_time"`
	VaultAPR   decimal.Decimal `json:"vault_apr"`
	SpotPrice  decimal.Decimal `json:"spot_price"`
	PoolAPR    decimal.Decimal `json:"pool_apr"`
	Trades     int             `json:"trades"`
	Skipped    int             `json:"skipped"`
	State      market.State    `json:"state"`
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordDay(DayRecord) error
	Close() error
}

// RunRecorder is implemented by sinks that also keep run summaries.
type RunRecorder interface {
	RecordRun(RunRecord) error
}

// Querier reads records back.
type Querier interface {
	GetTrade(id string) (TradeRecord, error)
	ListTradesByDay(runID string, day int) ([]TradeRecord, error)
	ListDays(runID string) ([]DayRecord, error)
}

// Multi sends every record to each sink in order and stops at the first
// error.
type Multi []Journal

func (m Multi) RecordTrade(t TradeRecord) error {
	for _, j := range m {
		if err := j.RecordTrade(t); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordDay(d DayRecord) error {
	for _, j := range m {
		if err := j.RecordDay(d); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordRun(r RunRecord) error {
	for _, j := range m {
		if rr, ok := j.(RunRecorder); ok {
			if err := rr.RecordRun(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink and returns the first error.
func (m Multi) Close() error {
	var first error
	for _, j := range m {
		if err := j.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
