package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/elfsim/market"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	args := []any{
		t.ID, t.RunID, t.Day, t.Block, t.Time.UTC(), t.MarketTime, t.Agent, t.Action.String(),
		t.Amount, t.MintTime, t.Fee, t.SpotPrice, string(t.Status), t.Error,
	}
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, day, block, time, market_time, agent, action,
		 amount, mint_time, fee, spot_price, status, error, `+stateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append(args, stateArgs(t.State)...)...,
	)
	return err
}

func (j *SQLite) RecordDay(d DayRecord) error {
	args := []any{
		d.RunID, d.Day, d.Time.UTC(), d.MarketTime, d.VaultAPR, d.SpotPrice, d.PoolAPR,
		d.Trades, d.Skipped,
	}
	_, err := j.db.Exec(`
		INSERT INTO days
		(run_id, day, time, market_time, day_vault_apr, spot_price, pool_apr,
		 trades, skipped, `+stateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append(args, stateArgs(d.State)...)...,
	)
	return err
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, seed, pricing_model, days, blocks_per_day, agents, config,
		 trades, skipped, target_apr, final_apr, final_spot, share_price, liquidity,
		 total_fees, market_closed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Seed, r.PricingModel, r.Days, r.BlocksPerDay, r.Agents, r.Config,
		r.Trades, r.Skipped, r.TargetAPR, r.FinalAPR, r.FinalSpot, r.SharePrice, r.Liquidity,
		r.TotalFees, r.MarketClosed,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func stateArgs(s market.State) []any {
	return []any{
		s.ShareReserves, s.BondReserves, s.LPReserves, s.BaseBuffer, s.BondBuffer,
		s.SharePrice, s.InitSharePrice, s.VaultAPR, s.TradeFeePercent,
		s.RedemptionFeePercent, s.TotalFees,
		s.LongAverageMintTime, s.ShortAverageMintTime,
	}
}

func stateDest(s *market.State) []any {
	return []any{
		&s.ShareReserves, &s.BondReserves, &s.LPReserves, &s.BaseBuffer, &s.BondBuffer,
		&s.SharePrice, &s.InitSharePrice, &s.VaultAPR, &s.TradeFeePercent,
		&s.RedemptionFeePercent, &s.TotalFees,
		&s.LongAverageMintTime, &s.ShortAverageMintTime,
	}
}
