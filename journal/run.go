package journal

import (
	"bytes"
	"os"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

// RunRecord summarizes one simulation run.
type RunRecord struct {
	RunID   string    `json:"run_id"`
	Created time.Time `json:"created"`

	Seed         int64  `json:"seed"`
	PricingModel string `json:"pricing_model"`
	Days         int    `json:"days"`
	BlocksPerDay int    `json:"blocks_per_day"`
	Agents       int    `json:"agents"`
	Config       []byte `json:"config,omitempty"` // JSON of the run's config

	// Results
	Trades  int `json:"trades"`
	Skipped int `json:"skipped"`

	TargetAPR    decimal.Decimal `json:"target_apr"`
	FinalAPR     decimal.Decimal `json:"final_apr"`
	FinalSpot    decimal.Decimal `json:"final_spot"`
	SharePrice   decimal.Decimal `json:"share_price"`
	Liquidity    decimal.Decimal `json:"liquidity"`
	TotalFees    decimal.Decimal `json:"total_fees"`
	MarketClosed bool            `json:"market_closed"`

	Notes []string `json:"notes,omitempty"`
}

var runOrgFuncs = template.FuncMap{
	"pct": func(d decimal.Decimal) string { return d.Mul(decimal.NewFromInt(100)).StringFixed(4) },
	"fix": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// FormatRunOrg renders the run as an Org-mode block.
func FormatRunOrg(r RunRecord) (string, error) {
	buf := new(bytes.Buffer)
	if err := runOrgTemplate.Execute(buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func WriteRunOrg(path string, r RunRecord) error {
	s, err := FormatRunOrg(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

const RunOrgTemplate = `* SIMULATION: {{.PricingModel}} seed {{.Seed}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:MODEL:       {{.PricingModel}}
:SEED:        {{.Seed}}
:DAYS:        {{.Days}}
:BLOCKS:      {{.BlocksPerDay}}
:AGENTS:      {{.Agents}}
:TRADES:      {{.Trades}}
:SKIPPED:     {{.Skipped}}
:CREATED:     [{{.Created.Format "2006-01-02 Mon 15:04"}}]
:END:

** Pool
| Metric         | Value |
|----------------+-------|
| Target APR %   | {{pct .TargetAPR}} |
| Final APR %    | {{pct .FinalAPR}} |
| Spot price     | {{.FinalSpot.StringFixed 6}} |
| Share price    | {{.SharePrice.StringFixed 6}} |
| Liquidity      | {{fix .Liquidity}} |
| Fees collected | {{fix .TotalFees}} |
| Closed         | {{.MarketClosed}} |

{{- if .Notes }}

** Notes
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
