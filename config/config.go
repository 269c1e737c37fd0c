package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/market"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the complete simulation configuration
type Config struct {
	Simulation SimulationConfig `json:"simulation" yaml:"simulation" toml:"simulation"`
	Market     MarketConfig     `json:"market" yaml:"market" toml:"market"`
	VaultAPR   VaultAPRConfig   `json:"vault_apr" yaml:"vault_apr" toml:"vault_apr"`
	Agents     []AgentConfig    `json:"agents" yaml:"agents" toml:"agents"`
	Journal    JournalConfig    `json:"journal" yaml:"journal" toml:"journal"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" toml:"logging"`
}

// SimulationConfig drives the day/block loop
type SimulationConfig struct {
	NumTradingDays   int    `json:"num_trading_days" yaml:"num_trading_days" toml:"num_trading_days"`
	NumBlocksPerDay  int    `json:"num_blocks_per_day" yaml:"num_blocks_per_day" toml:"num_blocks_per_day"`
	RandomSeed       int64  `json:"random_seed" yaml:"random_seed" toml:"random_seed"`
	ShuffleUsers     bool   `json:"shuffle_users" yaml:"shuffle_users" toml:"shuffle_users"`
	CompoundVaultAPR bool   `json:"compound_vault_apr" yaml:"compound_vault_apr" toml:"compound_vault_apr"`
	LiquidateAtEnd   bool   `json:"liquidate_at_end" yaml:"liquidate_at_end" toml:"liquidate_at_end"`
	PricingModel     string `json:"pricing_model" yaml:"pricing_model" toml:"pricing_model"`
	StartTime        string `json:"start_time" yaml:"start_time" toml:"start_time"` // RFC3339, stamps trade ids
}

// MarketConfig contains pool initialization parameters
type MarketConfig struct {
	NumPositionDays      int     `json:"num_position_days" yaml:"num_position_days" toml:"num_position_days"`
	TargetLiquidity      float64 `json:"target_liquidity" yaml:"target_liquidity" toml:"target_liquidity"`
	TargetPoolAPR        float64 `json:"target_pool_apr" yaml:"target_pool_apr" toml:"target_pool_apr"`
	TradeFeePercent      float64 `json:"trade_fee_percent" yaml:"trade_fee_percent" toml:"trade_fee_percent"`
	RedemptionFeePercent float64 `json:"redemption_fee_percent" yaml:"redemption_fee_percent" toml:"redemption_fee_percent"`
	InitSharePrice       float64 `json:"init_share_price" yaml:"init_share_price" toml:"init_share_price"`
}

// VaultAPRConfig selects the process that sets the vault rate each day.
// Type is one of constant, uniform, jump, series or csv.
type VaultAPRConfig struct {
	Type            string    `json:"type" yaml:"type" toml:"type"`
	Value           float64   `json:"value" yaml:"value" toml:"value"`
	Min             float64   `json:"min" yaml:"min" toml:"min"`
	Max             float64   `json:"max" yaml:"max" toml:"max"`
	JumpProbability float64   `json:"jump_probability" yaml:"jump_probability" toml:"jump_probability"`
	JumpSize        float64   `json:"jump_size" yaml:"jump_size" toml:"jump_size"`
	UpProbability   float64   `json:"up_probability" yaml:"up_probability" toml:"up_probability"`
	Series          []float64 `json:"series,omitempty" yaml:"series,omitempty" toml:"series,omitempty"`
	CSVPath         string    `json:"csv_path,omitempty" yaml:"csv_path,omitempty" toml:"csv_path,omitempty"`
	Percent         bool      `json:"percent,omitempty" yaml:"percent,omitempty" toml:"percent,omitempty"` // csv rates are in percent
}

// Distribution is a clipped normal, used for budgets and trade sizes
type Distribution struct {
	Mean float64 `json:"mean" yaml:"mean" toml:"mean"`
	Std  float64 `json:"std" yaml:"std" toml:"std"`
	Min  float64 `json:"min" yaml:"min" toml:"min"`
	Max  float64 `json:"max" yaml:"max" toml:"max"`
}

// AgentConfig describes Count agents sharing one policy
type AgentConfig struct {
	Policy      string       `json:"policy" yaml:"policy" toml:"policy"`
	Count       int          `json:"count" yaml:"count" toml:"count"`
	Budget      Distribution `json:"budget" yaml:"budget" toml:"budget"`
	TradeChance float64      `json:"trade_chance,omitempty" yaml:"trade_chance,omitempty" toml:"trade_chance,omitempty"`
	Amount      Distribution `json:"amount,omitempty" yaml:"amount,omitempty" toml:"amount,omitempty"`
}

// JournalConfig contains history export parameters. Empty paths disable
// the sink.
type JournalConfig struct {
	CSVDir     string `json:"csv_dir,omitempty" yaml:"csv_dir,omitempty" toml:"csv_dir,omitempty"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" toml:"sqlite_path,omitempty"`
}

// LoggingConfig contains logger parameters
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" toml:"level"`
	Format     string `json:"format" yaml:"format" toml:"format"` // "text" or "json"
	File       string `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" toml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty" toml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty" toml:"max_age_days,omitempty"`
}

// Start parses StartTime.
func (s SimulationConfig) Start() (time.Time, error) {
	return time.Parse(time.RFC3339, s.StartTime)
}

// LoadFromFile loads configuration from a file on top of Default. TOML is
// chosen by extension; anything else is tried as YAML, then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	agents := cfg.Agents
	cfg.Agents = nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrapf(market.ErrConfiguration, "parse toml config: %v", err)
		}
	default:
		// Try YAML first, fall back to JSON
		if err := yaml.Unmarshal(data, cfg); err != nil {
			if jerr := json.Unmarshal(data, cfg); jerr != nil {
				return nil, errors.Wrapf(market.ErrConfiguration, "parse config (tried YAML and JSON): %v", jerr)
			}
		}
	}
	if len(cfg.Agents) == 0 {
		cfg.Agents = agents
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML, TOML or JSON based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return errors.Wrapf(market.ErrConfiguration, format, args...)
}

var (
	pricingModels = []string{"hyperdrive", "yieldspace"}
	vaultTypes    = []string{"constant", "uniform", "jump", "series", "csv"}
	policies      = []string{"noop", "random", "lp"}
)

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func probability(p float64) bool { return p >= 0 && p <= 1 }

// Validate checks if the configuration is valid. Every error wraps
// market.ErrConfiguration.
func (c *Config) Validate() error {
	s := c.Simulation
	if s.NumTradingDays <= 0 {
		return invalid("simulation.num_trading_days must be positive")
	}
	if s.NumBlocksPerDay <= 0 {
		return invalid("simulation.num_blocks_per_day must be positive")
	}
	if !oneOf(s.PricingModel, pricingModels) {
		return invalid("simulation.pricing_model must be one of %s", strings.Join(pricingModels, ", "))
	}
	if _, err := s.Start(); err != nil {
		return invalid("simulation.start_time must be RFC3339: %v", err)
	}

	m := c.Market
	if m.NumPositionDays <= 0 {
		return invalid("market.num_position_days must be positive")
	}
	if m.TargetLiquidity <= 0 {
		return invalid("market.target_liquidity must be positive")
	}
	if m.TargetPoolAPR <= 0 {
		return invalid("market.target_pool_apr must be positive")
	}
	if m.TradeFeePercent < 0 || m.TradeFeePercent >= 1 {
		return invalid("market.trade_fee_percent must be in [0, 1)")
	}
	if m.RedemptionFeePercent < 0 || m.RedemptionFeePercent >= 1 {
		return invalid("market.redemption_fee_percent must be in [0, 1)")
	}
	if m.InitSharePrice <= 0 {
		return invalid("market.init_share_price must be positive")
	}

	if err := c.VaultAPR.validate(); err != nil {
		return err
	}

	for i, a := range c.Agents {
		if err := a.validate(); err != nil {
			return errors.Wrapf(err, "agents[%d]", i)
		}
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return invalid("logging.level: %v", err)
	}
	if f := c.Logging.Format; f != "text" && f != "json" {
		return invalid("logging.format must be 'text' or 'json'")
	}
	return nil
}

func (v VaultAPRConfig) validate() error {
	if !oneOf(v.Type, vaultTypes) {
		return invalid("vault_apr.type must be one of %s", strings.Join(vaultTypes, ", "))
	}
	switch strings.ToLower(v.Type) {
	case "uniform":
		if v.Min > v.Max {
			return invalid("vault_apr.min must not exceed vault_apr.max")
		}
	case "jump":
		if v.Min > v.Max {
			return invalid("vault_apr.min must not exceed vault_apr.max")
		}
		if v.Value < v.Min || v.Value > v.Max {
			return invalid("vault_apr.value must be within [min, max]")
		}
		if !probability(v.JumpProbability) || !probability(v.UpProbability) {
			return invalid("vault_apr jump and up probabilities must be in [0, 1]")
		}
		if v.JumpSize < 0 {
			return invalid("vault_apr.jump_size must not be negative")
		}
	case "series":
		if len(v.Series) == 0 {
			return invalid("vault_apr.series must not be empty")
		}
	case "csv":
		if v.CSVPath == "" {
			return invalid("vault_apr.csv_path is required for csv type")
		}
	}
	return nil
}

func (a AgentConfig) validate() error {
	if !oneOf(a.Policy, policies) {
		return invalid("policy %q must be one of %s", a.Policy, strings.Join(policies, ", "))
	}
	if a.Count < 0 {
		return invalid("count must not be negative")
	}
	if err := a.Budget.validate("budget"); err != nil {
		return err
	}
	if strings.ToLower(a.Policy) == "random" {
		if !probability(a.TradeChance) {
			return invalid("trade_chance must be in [0, 1]")
		}
		if err := a.Amount.validate("amount"); err != nil {
			return err
		}
	}
	return nil
}

func (d Distribution) validate(name string) error {
	switch {
	case d.Min <= 0:
		return invalid("%s.min must be positive", name)
	case d.Min > d.Max:
		return invalid("%s.min must not exceed %s.max", name, name)
	case d.Std < 0:
		return invalid("%s.std must not be negative", name)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			NumTradingDays:   90,
			NumBlocksPerDay:  10,
			RandomSeed:       123,
			ShuffleUsers:     true,
			CompoundVaultAPR: true,
			LiquidateAtEnd:   false,
			PricingModel:     "hyperdrive",
			StartTime:        "2023-01-01T00:00:00Z",
		},
		Market: MarketConfig{
			NumPositionDays:      90,
			TargetLiquidity:      500_000_000,
			TargetPoolAPR:        0.05,
			TradeFeePercent:      0.1,
			RedemptionFeePercent: 0.005,
			InitSharePrice:       1,
		},
		VaultAPR: VaultAPRConfig{
			Type:            "constant",
			Value:           0.05,
			Min:             0,
			Max:             0.1,
			JumpProbability: 0.1,
			JumpSize:        0.01,
			UpProbability:   0.5,
		},
		Agents: []AgentConfig{
			{
				Policy:      "random",
				Count:       4,
				Budget:      Distribution{Mean: 1_000_000, Std: 100_000, Min: 100_000, Max: 2_000_000},
				TradeChance: 0.2,
				Amount:      Distribution{Mean: 10_000, Std: 5_000, Min: 100, Max: 100_000},
			},
			{
				Policy: "lp",
				Count:  1,
				Budget: Distribution{Mean: 10_000_000, Std: 0, Min: 10_000_000, Max: 10_000_000},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
