package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rustyeddy/elfsim/market"
)

var (
	stateHeader = []string{
		"share_reserves", "bond_reserves", "lp_reserves", "base_buffer", "bond_buffer",
		"share_price", "init_share_price", "vault_apr", "trade_fee_percent",
		"redemption_fee_percent", "total_fees",
		"long_average_mint_time", "short_average_mint_time",
	}
	tradeHeader = append([]string{
		"trade_id", "run_id", "day", "block", "time", "market_time", "agent", "action",
		"amount", "mint_time", "fee", "spot_price", "status", "error",
	}, stateHeader...)
	dayHeader = append([]string{
		"run_id", "day", "time", "market_time", "vault_apr", "spot_price", "pool_apr",
		"trades", "skipped",
	}, stateHeader...)
)

// CSVJournal writes trades.csv and days.csv into a directory. Rows are
// flushed as they are written.
type CSVJournal struct {
	trades *csv.Writer
	days   *csv.Writer
	tf, df *os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	tf, err := os.Create(filepath.Join(dir, "trades.csv"))
	if err != nil {
		return nil, err
	}
	df, err := os.Create(filepath.Join(dir, "days.csv"))
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	j := &CSVJournal{trades: csv.NewWriter(tf), days: csv.NewWriter(df), tf: tf, df: df}
	if err := j.write(j.trades, tradeHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if err := j.write(j.days, dayHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	mint := ""
	if t.MintTime.Valid {
		mint = t.MintTime.Decimal.String()
	}
	row := []string{
		t.ID,
		t.RunID,
		strconv.Itoa(t.Day),
		strconv.Itoa(t.Block),
		t.Time.UTC().Format(time.RFC3339),
		t.MarketTime.String(),
		strconv.Itoa(t.Agent),
		t.Action.String(),
		t.Amount.String(),
		mint,
		t.Fee.String(),
		t.SpotPrice.String(),
		string(t.Status),
		t.Error,
	}
	return j.write(j.trades, append(row, stateRow(t.State)...))
}

func (j *CSVJournal) RecordDay(d DayRecord) error {
	row := []string{
		d.RunID,
		strconv.Itoa(d.Day),
		d.Time.UTC().Format(time.RFC3339),
		d.MarketTime.String(),
		d.VaultAPR.String(),
		d.SpotPrice.String(),
		d.PoolAPR.String(),
		strconv.Itoa(d.Trades),
		strconv.Itoa(d.Skipped),
	}
	return j.write(j.days, append(row, stateRow(d.State)...))
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.days.Flush()
	if err := j.days.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.df.Close(); err != nil {
		return err
	}
	return nil
}

func stateRow(s market.State) []string {
	return []string{
		s.ShareReserves.String(),
		s.BondReserves.String(),
		s.LPReserves.String(),
		s.BaseBuffer.String(),
		s.BondBuffer.String(),
		s.SharePrice.String(),
		s.InitSharePrice.String(),
		s.VaultAPR.String(),
		s.TradeFeePercent.String(),
		s.RedemptionFeePercent.String(),
		s.TotalFees.String(),
		s.LongAverageMintTime.String(),
		s.ShortAverageMintTime.String(),
	}
}
