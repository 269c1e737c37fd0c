package agents

import "github.com/shopspring/decimal"

// NoAction holds its budget and never trades.
type NoAction struct {
	*Base
}

func NewNoAction(address int, budget decimal.Decimal) *NoAction {
	return &NoAction{Base: NewBase(address, "noop", budget)}
}
