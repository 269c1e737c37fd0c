package config

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/market"
)

// EnvPrefix marks the environment variables read by LoadEnvOverrides.
const EnvPrefix = "ELFSIM_"

type setter func(c *Config, v string) error

func setInt(get func(*Config) *int) setter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*get(c) = n
		return nil
	}
}

func setInt64(get func(*Config) *int64) setter {
	return func(c *Config, v string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return err
		}
		*get(c) = n
		return nil
	}
}

func setFloat64(get func(*Config) *float64) setter {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*get(c) = f
		return nil
	}
}

func setBool(get func(*Config) *bool) setter {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*get(c) = b
		return nil
	}
}

func setStr(get func(*Config) *string) setter {
	return func(c *Config, v string) error {
		*get(c) = strings.TrimSpace(v)
		return nil
	}
}

func setFloatSlice(get func(*Config) *[]float64) setter {
	return func(c *Config, v string) error {
		var out []float64
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return err
			}
			out = append(out, f)
		}
		*get(c) = out
		return nil
	}
}

// overrides maps every key accepted by ApplyOverrides to its field.
var overrides = map[string]setter{
	"num_trading_days":   setInt(func(c *Config) *int { return &c.Simulation.NumTradingDays }),
	"num_blocks_per_day": setInt(func(c *Config) *int { return &c.Simulation.NumBlocksPerDay }),
	"random_seed":        setInt64(func(c *Config) *int64 { return &c.Simulation.RandomSeed }),
	"shuffle_users":      setBool(func(c *Config) *bool { return &c.Simulation.ShuffleUsers }),
	"compound_vault_apr": setBool(func(c *Config) *bool { return &c.Simulation.CompoundVaultAPR }),
	"liquidate_at_end":   setBool(func(c *Config) *bool { return &c.Simulation.LiquidateAtEnd }),
	"pricing_model":      setStr(func(c *Config) *string { return &c.Simulation.PricingModel }),
	"start_time":         setStr(func(c *Config) *string { return &c.Simulation.StartTime }),

	"num_position_days":      setInt(func(c *Config) *int { return &c.Market.NumPositionDays }),
	"target_liquidity":       setFloat64(func(c *Config) *float64 { return &c.Market.TargetLiquidity }),
	"target_pool_apr":        setFloat64(func(c *Config) *float64 { return &c.Market.TargetPoolAPR }),
	"trade_fee_percent":      setFloat64(func(c *Config) *float64 { return &c.Market.TradeFeePercent }),
	"redemption_fee_percent": setFloat64(func(c *Config) *float64 { return &c.Market.RedemptionFeePercent }),
	"init_share_price":       setFloat64(func(c *Config) *float64 { return &c.Market.InitSharePrice }),

	"vault_apr":                  setFloat64(func(c *Config) *float64 { return &c.VaultAPR.Value }),
	"vault_apr.type":             setStr(func(c *Config) *string { return &c.VaultAPR.Type }),
	"vault_apr.min":              setFloat64(func(c *Config) *float64 { return &c.VaultAPR.Min }),
	"vault_apr.max":              setFloat64(func(c *Config) *float64 { return &c.VaultAPR.Max }),
	"vault_apr.jump_probability": setFloat64(func(c *Config) *float64 { return &c.VaultAPR.JumpProbability }),
	"vault_apr.jump_size":        setFloat64(func(c *Config) *float64 { return &c.VaultAPR.JumpSize }),
	"vault_apr.up_probability":   setFloat64(func(c *Config) *float64 { return &c.VaultAPR.UpProbability }),
	"vault_apr.series":           setFloatSlice(func(c *Config) *[]float64 { return &c.VaultAPR.Series }),
	"vault_apr.csv_path":         setStr(func(c *Config) *string { return &c.VaultAPR.CSVPath }),
	"vault_apr.percent":          setBool(func(c *Config) *bool { return &c.VaultAPR.Percent }),

	"journal.csv_dir":     setStr(func(c *Config) *string { return &c.Journal.CSVDir }),
	"journal.sqlite_path": setStr(func(c *Config) *string { return &c.Journal.SQLitePath }),

	"logging.level":  setStr(func(c *Config) *string { return &c.Logging.Level }),
	"logging.format": setStr(func(c *Config) *string { return &c.Logging.Format }),
	"logging.file":   setStr(func(c *Config) *string { return &c.Logging.File }),
}

// OverrideKeys lists the keys ApplyOverrides accepts, sorted.
func OverrideKeys() []string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyOverrides sets fields by key and re-validates. Unknown keys and
// unparsable values are rejected; on error c is left unchanged.
func (c *Config) ApplyOverrides(kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := *c
	next.Agents = append([]AgentConfig(nil), c.Agents...)
	next.VaultAPR.Series = append([]float64(nil), c.VaultAPR.Series...)

	for _, k := range keys {
		set, ok := overrides[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			return errors.Wrapf(market.ErrConfiguration, "unknown override key %q", k)
		}
		if err := set(&next, kv[k]); err != nil {
			return errors.Wrapf(market.ErrConfiguration, "override %s=%q: %v", k, kv[k], err)
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ParseOverrides turns key=value pairs (from --set flags) into a map.
func ParseOverrides(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, errors.Wrapf(market.ErrConfiguration, "override %q is not key=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

// LoadEnvOverrides applies ELFSIM_* variables from the dotenv file at path
// (ignored if missing) and then from the process environment, which wins.
// ELFSIM_VAULT_APR__TYPE maps to the key vault_apr.type.
func (c *Config) LoadEnvOverrides(path string) error {
	vars := map[string]string{}
	if path != "" {
		fileVars, err := godotenv.Read(path)
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(market.ErrConfiguration, "read %s: %v", path, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	kv := map[string]string{}
	for k, v := range vars {
		if !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
		kv[strings.ReplaceAll(key, "__", ".")] = v
	}
	if len(kv) == 0 {
		return nil
	}
	return c.ApplyOverrides(kv)
}
