package journal

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/market"
)

const tradeSelect = `
		SELECT trade_id, run_id, day, block, time, market_time, agent, action,
		       amount, mint_time, fee, spot_price, status, error, ` + stateColumns + `
		FROM trades`

const daySelect = `
		SELECT run_id, day, time, market_time, day_vault_apr, spot_price, pool_apr,
		       trades, skipped, ` + stateColumns + `
		FROM days`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(row scanner) (TradeRecord, error) {
	var (
		rec    TradeRecord
		action string
		status string
	)
	dest := []any{
		&rec.ID, &rec.RunID, &rec.Day, &rec.Block, &rec.Time, &rec.MarketTime, &rec.Agent, &action,
		&rec.Amount, &rec.MintTime, &rec.Fee, &rec.SpotPrice, &status, &rec.Error,
	}
	if err := row.Scan(append(dest, stateDest(&rec.State)...)...); err != nil {
		return TradeRecord{}, err
	}
	t, err := market.ParseActionType(action)
	if err != nil {
		return TradeRecord{}, err
	}
	rec.Action = t
	rec.Status = Status(status)
	return rec, nil
}

func scanDay(row scanner) (DayRecord, error) {
	var rec DayRecord
	dest := []any{
		&rec.RunID, &rec.Day, &rec.Time, &rec.MarketTime, &rec.VaultAPR, &rec.SpotPrice, &rec.PoolAPR,
		&rec.Trades, &rec.Skipped,
	}
	if err := row.Scan(append(dest, stateDest(&rec.State)...)...); err != nil {
		return DayRecord{}, err
	}
	return rec, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(id string) (TradeRecord, error) {
	rec, err := scanTrade(j.db.QueryRow(tradeSelect+` WHERE trade_id = ?`, id))
	if err == sql.ErrNoRows {
		return TradeRecord{}, errors.Wrapf(ErrNotFound, "trade %q", id)
	}
	return rec, err
}

// ListTradesByDay returns a day's trades in the order they were recorded.
// An empty runID matches any run.
func (j *SQLite) ListTradesByDay(runID string, day int) ([]TradeRecord, error) {
	rows, err := j.db.Query(tradeSelect+`
		WHERE (? = '' OR run_id = ?) AND day = ?
		ORDER BY rowid ASC`, runID, runID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) ListDays(runID string) ([]DayRecord, error) {
	rows, err := j.db.Query(daySelect+`
		WHERE (? = '' OR run_id = ?)
		ORDER BY run_id ASC, day ASC`, runID, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayRecord
	for rows.Next() {
		rec, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun returns a run summary by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var r RunRecord
	err := j.db.QueryRow(`
		SELECT run_id, created, seed, pricing_model, days, blocks_per_day, agents, config,
		       trades, skipped, target_apr, final_apr, final_spot, share_price, liquidity,
		       total_fees, market_closed
		FROM runs
		WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Created, &r.Seed, &r.PricingModel, &r.Days, &r.BlocksPerDay, &r.Agents, &r.Config,
		&r.Trades, &r.Skipped, &r.TargetAPR, &r.FinalAPR, &r.FinalSpot, &r.SharePrice, &r.Liquidity,
		&r.TotalFees, &r.MarketClosed,
	)
	if err == sql.ErrNoRows {
		return RunRecord{}, errors.Wrapf(ErrNotFound, "run %q", runID)
	}
	return r, err
}

// ListRuns returns the run ids, oldest first.
func (j *SQLite) ListRuns() ([]string, error) {
	rows, err := j.db.Query(`SELECT run_id FROM runs ORDER BY created ASC, run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
