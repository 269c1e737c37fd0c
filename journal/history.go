package journal

import (
	"sync"

	"github.com/pkg/errors"
)

// History is the in-memory record of a run. Accessors return copies.
type History struct {
	mu     sync.Mutex
	trades []TradeRecord
	days   []DayRecord
	runs   []RunRecord
}

func NewHistory() *History {
	return &History{}
}

func (h *History) RecordTrade(t TradeRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trades = append(h.trades, t)
	return nil
}

func (h *History) RecordDay(d DayRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.days = append(h.days, d)
	return nil
}

func (h *History) RecordRun(r RunRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, r)
	return nil
}

func (h *History) Close() error { return nil }

func (h *History) Trades() []TradeRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]TradeRecord(nil), h.trades...)
}

func (h *History) Days() []DayRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]DayRecord(nil), h.days...)
}

func (h *History) Runs() []RunRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RunRecord(nil), h.runs...)
}

func (h *History) GetTrade(id string) (TradeRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range h.trades {
		if t.ID == id {
			return t, nil
		}
	}
	return TradeRecord{}, errors.Wrapf(ErrNotFound, "trade %q", id)
}

// ListTradesByDay filters by run and day. An empty runID matches any run.
func (h *History) ListTradesByDay(runID string, day int) ([]TradeRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []TradeRecord
	for _, t := range h.trades {
		if t.Day == day && (runID == "" || t.RunID == runID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (h *History) ListDays(runID string) ([]DayRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []DayRecord
	for _, d := range h.days {
		if runID == "" || d.RunID == runID {
			out = append(out, d)
		}
	}
	return out, nil
}
