package market

import "github.com/pkg/errors"

// Error taxonomy shared by the pricing models, the market engine and the
// simulator. Callers wrap these with context and test with errors.Is.
var (
	ErrConfiguration         = errors.New("configuration error")
	ErrInvalidTarget         = errors.New("invalid liquidity target")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInvalidPosition       = errors.New("invalid position")
	ErrInvalidTrade          = errors.New("invalid trade")
	ErrMarketClosed          = errors.New("market closed")
	ErrInvariantViolation    = errors.New("invariant violation")
)

// IsRecoverable reports whether err only invalidates the action that caused
// it. Recoverable actions are dropped and the run continues.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvariantViolation) {
		return false
	}
	return errors.Is(err, ErrInsufficientLiquidity) ||
		errors.Is(err, ErrInvalidPosition) ||
		errors.Is(err, ErrInvalidTrade) ||
		errors.Is(err, ErrMarketClosed)
}
