package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/elfsim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 90, cfg.Simulation.NumTradingDays)
	assert.Equal(t, "hyperdrive", cfg.Simulation.PricingModel)
	assert.Equal(t, 500_000_000.0, cfg.Market.TargetLiquidity)
	assert.Len(t, cfg.Agents, 2)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"zero days", func(c *Config) { c.Simulation.NumTradingDays = 0 }, "simulation.num_trading_days must be positive"},
		{"zero blocks", func(c *Config) { c.Simulation.NumBlocksPerDay = 0 }, "simulation.num_blocks_per_day must be positive"},
		{"unknown model", func(c *Config) { c.Simulation.PricingModel = "uniswap" }, "simulation.pricing_model"},
		{"bad start time", func(c *Config) { c.Simulation.StartTime = "yesterday" }, "simulation.start_time"},
		{"zero term", func(c *Config) { c.Market.NumPositionDays = 0 }, "market.num_position_days must be positive"},
		{"no liquidity", func(c *Config) { c.Market.TargetLiquidity = 0 }, "market.target_liquidity must be positive"},
		{"apr at -1", func(c *Config) { c.Market.TargetPoolAPR = -1 }, "market.target_pool_apr must be positive"},
		{"fee of one", func(c *Config) { c.Market.TradeFeePercent = 1 }, "market.trade_fee_percent"},
		{"negative redemption fee", func(c *Config) { c.Market.RedemptionFeePercent = -0.1 }, "market.redemption_fee_percent"},
		{"unknown vault type", func(c *Config) { c.VaultAPR.Type = "random-walk" }, "vault_apr.type"},
		{"jump out of range", func(c *Config) {
			c.VaultAPR.Type = "jump"
			c.VaultAPR.JumpProbability = 1.5
		}, "probabilities"},
		{"jump start outside bounds", func(c *Config) {
			c.VaultAPR.Type = "jump"
			c.VaultAPR.Value = 0.5
		}, "vault_apr.value"},
		{"empty series", func(c *Config) { c.VaultAPR.Type = "series" }, "vault_apr.series"},
		{"csv without path", func(c *Config) { c.VaultAPR.Type = "csv" }, "vault_apr.csv_path"},
		{"unknown policy", func(c *Config) { c.Agents[0].Policy = "smart" }, "agents[0]"},
		{"bad budget", func(c *Config) { c.Agents[1].Budget.Min = 0 }, "budget.min must be positive"},
		{"bad trade chance", func(c *Config) { c.Agents[0].TradeChance = 2 }, "trade_chance"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, market.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
		{"toml format", ".toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Simulation.RandomSeed = 77
			cfg.VaultAPR.Type = "series"
			cfg.VaultAPR.Series = []float64{0.05, 0.06}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg.Simulation, loaded.Simulation)
			assert.Equal(t, cfg.Market, loaded.Market)
			assert.Equal(t, cfg.VaultAPR.Series, loaded.VaultAPR.Series)
			assert.Equal(t, cfg.Agents, loaded.Agents)
		})
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  num_trading_days: 3\n  num_blocks_per_day: 2\n  pricing_model: yieldspace\n  start_time: \"2024-01-01T00:00:00Z\"\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Simulation.NumTradingDays)
	assert.Equal(t, "yieldspace", cfg.Simulation.PricingModel)
	assert.Equal(t, Default().Market, cfg.Market)
	assert.Equal(t, Default().Agents, cfg.Agents)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("market:\n  target_liquidity: -5\n"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorIs(t, err, market.ErrConfiguration)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyOverrides(map[string]string{
		"num_trading_days":   "7",
		"target_pool_apr":    "0.02",
		"shuffle_users":      "false",
		"random_seed":        "99",
		"vault_apr.type":     "series",
		"vault_apr.series":   "0.01, 0.02,0.03",
		"PRICING_MODEL":      "yieldspace",
		"journal.csv_dir":    "/tmp/out",
		"logging.level":      "debug",
		"compound_vault_apr": "true",
	})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Simulation.NumTradingDays)
	assert.Equal(t, 0.02, cfg.Market.TargetPoolAPR)
	assert.False(t, cfg.Simulation.ShuffleUsers)
	assert.Equal(t, int64(99), cfg.Simulation.RandomSeed)
	assert.Equal(t, []float64{0.01, 0.02, 0.03}, cfg.VaultAPR.Series)
	assert.Equal(t, "yieldspace", cfg.Simulation.PricingModel)
	assert.Equal(t, "/tmp/out", cfg.Journal.CSVDir)
}

func TestApplyOverridesRejects(t *testing.T) {
	tests := []struct {
		name string
		kv   map[string]string
	}{
		{"unknown key", map[string]string{"num_days": "3"}},
		{"bad int", map[string]string{"num_trading_days": "three"}},
		{"bad bool", map[string]string{"shuffle_users": "maybe"}},
		{"invalid result", map[string]string{"target_pool_apr": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyOverrides(tt.kv)
			assert.ErrorIs(t, err, market.ErrConfiguration)
			assert.Equal(t, Default(), cfg, "config must be unchanged on error")
		})
	}
}

func TestParseOverrides(t *testing.T) {
	kv, err := ParseOverrides([]string{"random_seed=5", "vault_apr.series=0.1,0.2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"random_seed": "5", "vault_apr.series": "0.1,0.2"}, kv)

	_, err = ParseOverrides([]string{"random_seed"})
	assert.ErrorIs(t, err, market.ErrConfiguration)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ELFSIM_NUM_TRADING_DAYS=12\nELFSIM_VAULT_APR__TYPE=uniform\nOTHER=ignored\n"), 0644))
	t.Setenv("ELFSIM_NUM_TRADING_DAYS", "14")

	cfg := Default()
	require.NoError(t, cfg.LoadEnvOverrides(path))
	assert.Equal(t, 14, cfg.Simulation.NumTradingDays, "process environment wins over the file")
	assert.Equal(t, "uniform", cfg.VaultAPR.Type)

	cfg = Default()
	require.NoError(t, cfg.LoadEnvOverrides(filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, 14, cfg.Simulation.NumTradingDays)
}

func TestLoadEnvOverridesUnknownKey(t *testing.T) {
	t.Setenv("ELFSIM_NOT_A_KEY", "1")
	cfg := Default()
	assert.ErrorIs(t, cfg.LoadEnvOverrides(""), market.ErrConfiguration)
}
