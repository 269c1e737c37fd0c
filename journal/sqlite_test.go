package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','days','runs')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["days"])
	assert.True(t, found["runs"])
}

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	want := testTrade("01H0000000000000000000000A", 3)
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade(want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Day, got.Day)
	assert.Equal(t, want.Block, got.Block)
	assert.True(t, got.Time.Equal(want.Time))
	assert.Equal(t, want.Action, got.Action)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, got.MintTime.Valid)
	assert.True(t, got.MintTime.Decimal.Equal(want.MintTime.Decimal))
	assert.True(t, got.Amount.Equal(want.Amount))
	assert.True(t, got.Fee.Equal(want.Fee))
	assert.Equal(t, want.State.ShareReserves.String(), got.State.ShareReserves.String(), "decimals round-trip exactly")
	assert.True(t, got.State.SharePrice.Equal(want.State.SharePrice))
	assert.True(t, got.State.TotalFees.Equal(want.State.TotalFees))
	assert.True(t, got.State.LongAverageMintTime.Equal(want.State.LongAverageMintTime))
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSkippedTradeWithoutMint(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	rec := testTrade("S1", 0)
	rec.Status = StatusSkipped
	rec.Error = "market closed"
	rec.MintTime.Valid = false
	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("S1")
	require.NoError(t, err)
	assert.False(t, got.MintTime.Valid)
	assert.Equal(t, StatusSkipped, got.Status)
	assert.Equal(t, "market closed", got.Error)
}

func TestListTradesByDay(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, j.RecordTrade(testTrade(id, i%2)))
	}
	other := testTrade("z", 0)
	other.RunID = "run-2"
	require.NoError(t, j.RecordTrade(other))

	day0, err := j.ListTradesByDay("run-1", 0)
	require.NoError(t, err)
	require.Len(t, day0, 2)
	assert.Equal(t, "c", day0[0].ID, "insertion order")
	assert.Equal(t, "b", day0[1].ID)

	all, err := j.ListTradesByDay("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := j.ListTradesByDay("run-1", 9)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListDays(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	require.NoError(t, j.RecordDay(testDay(1)))
	require.NoError(t, j.RecordDay(testDay(0)))
	assert.Error(t, j.RecordDay(testDay(0)), "one row per run and day")

	days, err := j.ListDays("run-1")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 0, days[0].Day)
	assert.Equal(t, 1, days[1].Day)
	assert.Equal(t, 4, days[0].Trades)
	assert.True(t, days[0].VaultAPR.Equal(d("0.05")))
	assert.True(t, days[0].PoolAPR.Equal(d("0.0488")))
	assert.True(t, days[0].State.BondReserves.Equal(d("1016400000")))
}

func TestRuns(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	run := RunRecord{
		RunID:        "run-1",
		Created:      time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
		Seed:         123,
		PricingModel: "hyperdrive",
		Days:         90,
		BlocksPerDay: 10,
		Agents:       6,
		Config:       []byte(`{"seed":123}`),
		Trades:       40,
		Skipped:      2,
		TargetAPR:    d("0.05"),
		FinalAPR:     d("0.0512"),
		FinalSpot:    d("0.9875"),
		SharePrice:   d("1.0124"),
		Liquidity:    d("500000000"),
		TotalFees:    d("1234.5"),
		MarketClosed: true,
	}
	require.NoError(t, j.RecordRun(run))

	got, err := j.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Seed, got.Seed)
	assert.Equal(t, run.Config, got.Config)
	assert.True(t, got.Created.Equal(run.Created))
	assert.True(t, got.FinalAPR.Equal(run.FinalAPR))
	assert.True(t, got.MarketClosed)

	ids, err := j.ListRuns()
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1"}, ids)

	_, err = j.GetRun("run-9")
	assert.ErrorIs(t, err, ErrNotFound)
}
