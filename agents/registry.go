package agents

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/config"
	"github.com/rustyeddy/elfsim/fixedpoint"
	"github.com/rustyeddy/elfsim/market"
	"github.com/shopspring/decimal"
)

// Factory builds one agent of a policy.
type Factory func(address int, budget decimal.Decimal, cfg config.AgentConfig, rng *rand.Rand) Agent

var registry = make(map[string]Factory)

func init() {
	Register("noop", func(address int, budget decimal.Decimal, _ config.AgentConfig, _ *rand.Rand) Agent {
		return NewNoAction(address, budget)
	})
	Register("lp", func(address int, budget decimal.Decimal, _ config.AgentConfig, _ *rand.Rand) Agent {
		return NewLP(address, budget)
	})
	Register("random", func(address int, budget decimal.Decimal, cfg config.AgentConfig, rng *rand.Rand) Agent {
		return NewRandom(address, budget, cfg.TradeChance, cfg.Amount, rng)
	})
}

func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// Names lists the registered policies, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func New(policy string, address int, budget decimal.Decimal, cfg config.AgentConfig, rng *rand.Rand) (Agent, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(policy))]
	if !ok {
		return nil, errors.Wrapf(market.ErrConfiguration, "unknown agent policy %q (supported: %s)",
			policy, strings.Join(Names(), ", "))
	}
	return f(address, budget, cfg, rng), nil
}

// FromConfig builds every configured agent, numbering wallets from
// firstAddress in config order. Budgets are drawn from rng.
func FromConfig(cfgs []config.AgentConfig, firstAddress int, rng *rand.Rand) ([]Agent, error) {
	var out []Agent
	addr := firstAddress
	for i, c := range cfgs {
		for n := 0; n < c.Count; n++ {
			a, err := New(c.Policy, addr, Sample(c.Budget, rng), c, rng)
			if err != nil {
				return nil, errors.Wrapf(err, "agents[%d]", i)
			}
			out = append(out, a)
			addr++
		}
	}
	return out, nil
}

// Sample draws from a normal distribution clipped to [Min, Max]. A zero
// Std returns Mean clipped.
func Sample(d config.Distribution, rng *rand.Rand) decimal.Decimal {
	x := d.Mean
	if d.Std > 0 {
		x += rng.NormFloat64() * d.Std
	}
	x = math.Max(d.Min, math.Min(d.Max, x))
	return fixedpoint.FromFloat(math.Round(x*100) / 100)
}
