package market

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Position is an open long or short, keyed in its wallet by MintTime.
// Margin is the base escrowed for a short and zero for a long.
type Position struct {
	MintTime       decimal.Decimal `json:"mint_time"`
	Balance        decimal.Decimal `json:"balance"`
	OpenSharePrice decimal.Decimal `json:"open_share_price"`
	Margin         decimal.Decimal `json:"margin"`
}

// WalletDelta is the signed change a trade makes to one wallet. Position
// entries carry signed Balance and Margin changes; OpenSharePrice is only
// read when the entry creates a new position.
type WalletDelta struct {
	Base     decimal.Decimal `json:"base"`
	LPTokens decimal.Decimal `json:"lp_tokens"`
	FeesPaid decimal.Decimal `json:"fees_paid"`
	Longs    []Position      `json:"longs,omitempty"`
	Shorts   []Position      `json:"shorts,omitempty"`
}

// Wallet is owned by a single agent. Only the simulator applies deltas to
// it, after the market has committed the matching trade.
type Wallet struct {
	Address  int
	Base     decimal.Decimal
	LPTokens decimal.Decimal
	FeesPaid decimal.Decimal

	longs  map[string]Position
	shorts map[string]Position
}

func NewWallet(address int, base decimal.Decimal) *Wallet {
	return &Wallet{
		Address:  address,
		Base:     base,
		LPTokens: decimal.Zero,
		FeesPaid: decimal.Zero,
		longs:    make(map[string]Position),
		shorts:   make(map[string]Position),
	}
}

func mintKey(mintTime decimal.Decimal) string {
	return mintTime.String()
}

func (w *Wallet) Long(mintTime decimal.Decimal) (Position, bool) {
	p, ok := w.longs[mintKey(mintTime)]
	return p, ok
}

func (w *Wallet) Short(mintTime decimal.Decimal) (Position, bool) {
	p, ok := w.shorts[mintKey(mintTime)]
	return p, ok
}

// Longs returns the open longs ordered by mint time.
func (w *Wallet) Longs() []Position {
	return sorted(w.longs)
}

// Shorts returns the open shorts ordered by mint time.
func (w *Wallet) Shorts() []Position {
	return sorted(w.shorts)
}

func sorted(m map[string]Position) []Position {
	out := make([]Position, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MintTime.LessThan(out[j].MintTime)
	})
	return out
}

// Apply adds d to the wallet. Either the whole delta is applied or, on
// error, nothing is.
func (w *Wallet) Apply(d WalletDelta) error {
	longs, err := applyPositions(w.longs, d.Longs)
	if err != nil {
		return errors.Wrap(err, "longs")
	}
	shorts, err := applyPositions(w.shorts, d.Shorts)
	if err != nil {
		return errors.Wrap(err, "shorts")
	}
	lp := w.LPTokens.Add(d.LPTokens)
	if lp.IsNegative() {
		return errors.Wrapf(ErrInvalidPosition, "lp tokens %s < 0", lp)
	}

	w.Base = w.Base.Add(d.Base)
	w.LPTokens = lp
	w.FeesPaid = w.FeesPaid.Add(d.FeesPaid)
	w.longs = longs
	w.shorts = shorts
	return nil
}

func applyPositions(cur map[string]Position, deltas []Position) (map[string]Position, error) {
	if len(deltas) == 0 {
		return cur, nil
	}
	next := make(map[string]Position, len(cur)+len(deltas))
	for k, v := range cur {
		next[k] = v
	}
	for _, d := range deltas {
		key := mintKey(d.MintTime)
		p, ok := next[key]
		if !ok {
			p = Position{
				MintTime:       d.MintTime,
				Balance:        decimal.Zero,
				OpenSharePrice: d.OpenSharePrice,
				Margin:         decimal.Zero,
			}
		}
		p.Balance = p.Balance.Add(d.Balance)
		p.Margin = p.Margin.Add(d.Margin)
		switch {
		case p.Balance.IsNegative():
			return nil, errors.Wrapf(ErrInvalidPosition, "balance at mint %s would be %s", key, p.Balance)
		case p.Balance.IsZero():
			delete(next, key)
		default:
			next[key] = p
		}
	}
	return next, nil
}
