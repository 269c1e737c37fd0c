package market

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type ActionType int

const (
	OpenLong ActionType = iota + 1
	OpenShort
	CloseLong
	CloseShort
	AddLiquidity
	RemoveLiquidity
)

var actionNames = map[ActionType]string{
	OpenLong:        "OPEN_LONG",
	OpenShort:       "OPEN_SHORT",
	CloseLong:       "CLOSE_LONG",
	CloseShort:      "CLOSE_SHORT",
	AddLiquidity:    "ADD_LIQUIDITY",
	RemoveLiquidity: "REMOVE_LIQUIDITY",
}

func (t ActionType) String() string {
	if s, ok := actionNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ActionType(%d)", int(t))
}

func (t ActionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ActionType) UnmarshalText(b []byte) error {
	v, err := ParseActionType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseActionType is the inverse of ActionType.String.
func ParseActionType(s string) (ActionType, error) {
	for t, name := range actionNames {
		if name == s {
			return t, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidTrade, "unknown action type %q", s)
}

// IsClose reports whether the action consumes an existing position.
func (t ActionType) IsClose() bool {
	return t == CloseLong || t == CloseShort
}

// Action is a trade request produced by an agent and consumed once by the
// market. TradeAmount is in base for OpenLong and AddLiquidity, bonds for
// OpenShort and the closes, and LP tokens for RemoveLiquidity.
type Action struct {
	Type           ActionType          `json:"type"`
	Agent          int                 `json:"agent"`
	TradeAmount    decimal.Decimal     `json:"trade_amount"`
	MintTime       decimal.NullDecimal `json:"mint_time"`
	OpenSharePrice decimal.NullDecimal `json:"open_share_price"`
}

func NewAction(t ActionType, agent int, amount decimal.Decimal) Action {
	return Action{Type: t, Agent: agent, TradeAmount: amount}
}

// NewCloseAction targets the position minted at mintTime.
func NewCloseAction(t ActionType, agent int, amount, mintTime decimal.Decimal) Action {
	a := NewAction(t, agent, amount)
	a.MintTime = decimal.NewNullDecimal(mintTime)
	return a
}

// Validate checks the request on its own, before any wallet or pool lookup.
func (a Action) Validate() error {
	if _, ok := actionNames[a.Type]; !ok {
		return errors.Wrapf(ErrInvalidTrade, "unknown action type %d", int(a.Type))
	}
	if a.TradeAmount.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidTrade, "%s amount %s must be positive", a.Type, a.TradeAmount)
	}
	if a.Type.IsClose() && !a.MintTime.Valid {
		return errors.Wrapf(ErrInvalidPosition, "%s requires a mint time", a.Type)
	}
	return nil
}

func (a Action) String() string {
	if a.MintTime.Valid {
		return fmt.Sprintf("%s agent=%d amount=%s mint=%s", a.Type, a.Agent, a.TradeAmount, a.MintTime.Decimal)
	}
	return fmt.Sprintf("%s agent=%d amount=%s", a.Type, a.Agent, a.TradeAmount)
}
