package market

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStretchedTime(t *testing.T) {
	t.Parallel()

	st := NewStretchedTime(d("73"), d("10"))
	assert.True(t, st.NormalizedTime().Equal(d("0.2")))
	assert.True(t, st.StretchedTime().Equal(d("0.02")))

	half := st.WithDays(d("36.5"))
	assert.True(t, half.NormalizedTime().Equal(d("0.1")))
	assert.True(t, st.Days.Equal(d("73")), "WithDays must not modify the receiver")
}

func TestDaysTimeConversions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		days    string
		stretch string
	}{
		{"90", "22.186877016851916266"},
		{"365", "10"},
		{"1", "5"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.days, func(t *testing.T) {
			t.Parallel()
			tr := DaysToTimeRemaining(d(tt.days), d(tt.stretch), DaysPerYear)
			back := TimeToDaysRemaining(tr, d(tt.stretch), DaysPerYear)
			assert.True(t, back.Sub(d(tt.days)).Abs().LessThan(d("0.000000001")), "days %s -> %s -> %s", tt.days, tr, back)
		})
	}

	assert.True(t, UnnormDays(NormDays(d("180"), DaysPerYear), DaysPerYear).Sub(d("180")).Abs().LessThan(d("0.0000001")))
}

func TestYearsRemaining(t *testing.T) {
	t.Parallel()

	term := d("0.25")

	r, err := YearsRemaining(d("0.1"), d("0"), term)
	require.NoError(t, err)
	assert.True(t, r.Equal(d("0.15")))

	r, err = YearsRemaining(d("1"), d("0"), term)
	require.NoError(t, err)
	assert.True(t, r.IsZero(), "matured positions have no time left")

	_, err = YearsRemaining(d("0.1"), d("0.2"), term)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func testState() State {
	s := NewState(d("1"), d("1"), d("0.1"), d("0.005"))
	s.ShareReserves = d("1000")
	s.BondReserves = d("2000")
	s.LPReserves = d("1000")
	return s
}

func TestStateApplyCopies(t *testing.T) {
	t.Parallel()

	s := testState()
	next := s.Apply(Deltas{
		Shares:     d("10"),
		Bonds:      d("-9"),
		BaseBuffer: d("9"),
		Fees:       d("0.1"),
	})

	assert.True(t, s.ShareReserves.Equal(d("1000")))
	assert.True(t, next.ShareReserves.Equal(d("1010")))
	assert.True(t, next.BondReserves.Equal(d("1991")))
	assert.True(t, next.BaseBuffer.Equal(d("9")))
	assert.True(t, next.TotalFees.Equal(d("0.1")))
	require.NoError(t, next.Validate())
}

func TestStateApplyAveragesMintTimes(t *testing.T) {
	t.Parallel()

	s := testState()
	s = s.Apply(Deltas{BaseBuffer: d("10"), LongMintTime: d("0.1")})
	s = s.Apply(Deltas{BaseBuffer: d("30"), LongMintTime: d("0.5")})
	assert.True(t, s.LongAverageMintTime.Equal(d("0.4")), "avg %s", s.LongAverageMintTime)

	s = s.Apply(Deltas{BaseBuffer: d("-30"), LongMintTime: d("0.5")})
	assert.True(t, s.LongAverageMintTime.Equal(d("0.1")), "avg %s", s.LongAverageMintTime)

	s = s.Apply(Deltas{BaseBuffer: d("-10"), LongMintTime: d("0.1")})
	assert.True(t, s.LongAverageMintTime.IsZero())
	assert.True(t, s.ShortAverageMintTime.IsZero())
}

func TestStateValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mod  func(*State)
		want error
	}{
		{"ok", func(*State) {}, nil},
		{"negative shares", func(s *State) { s.ShareReserves = d("-1") }, ErrInsufficientLiquidity},
		{"negative bonds", func(s *State) { s.BondReserves = d("-0.000000000000000001") }, ErrInsufficientLiquidity},
		{"base buffer over reserves", func(s *State) { s.BaseBuffer = d("1000.1") }, ErrInsufficientLiquidity},
		{"bond buffer over reserves", func(s *State) { s.BondBuffer = d("2001") }, ErrInsufficientLiquidity},
		{"negative buffer", func(s *State) { s.BondBuffer = d("-1") }, ErrInvariantViolation},
		{"zero share price", func(s *State) { s.SharePrice = decimal.Zero }, ErrInvariantViolation},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := testState()
			tt.mod(&s)
			err := s.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsRecoverable(t *testing.T) {
	t.Parallel()

	assert.True(t, IsRecoverable(errors.Wrap(ErrInsufficientLiquidity, "open long")))
	assert.True(t, IsRecoverable(fmt.Errorf("close: %w", ErrInvalidPosition)))
	assert.True(t, IsRecoverable(ErrMarketClosed))
	assert.True(t, IsRecoverable(ErrInvalidTrade))
	assert.False(t, IsRecoverable(ErrInvariantViolation))
	assert.False(t, IsRecoverable(ErrConfiguration))
	assert.False(t, IsRecoverable(errors.New("disk full")))
	assert.False(t, IsRecoverable(nil))
}

func TestActionValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewAction(OpenLong, 1, d("10")).Validate())
	assert.ErrorIs(t, NewAction(OpenLong, 1, d("0")).Validate(), ErrInvalidTrade)
	assert.ErrorIs(t, NewAction(ActionType(42), 1, d("1")).Validate(), ErrInvalidTrade)
	assert.ErrorIs(t, NewAction(CloseShort, 1, d("1")).Validate(), ErrInvalidPosition)
	assert.NoError(t, NewCloseAction(CloseShort, 1, d("1"), d("0.01")).Validate())
}

func TestActionTypeText(t *testing.T) {
	t.Parallel()

	for typ := OpenLong; typ <= RemoveLiquidity; typ++ {
		parsed, err := ParseActionType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseActionType("BUY")
	assert.ErrorIs(t, err, ErrInvalidTrade)

	b, err := json.Marshal(NewAction(AddLiquidity, 0, d("5")))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"ADD_LIQUIDITY"`)

	var a Action
	require.NoError(t, json.Unmarshal(b, &a))
	assert.Equal(t, AddLiquidity, a.Type)
	assert.False(t, a.MintTime.Valid)
}

func TestWalletApply(t *testing.T) {
	t.Parallel()

	w := NewWallet(3, d("100"))

	require.NoError(t, w.Apply(WalletDelta{
		Base:   d("-10"),
		Longs:  []Position{{MintTime: d("0.5"), Balance: d("10.2")}},
		Shorts: []Position{{MintTime: d("0.1"), Balance: d("4"), OpenSharePrice: d("1.01"), Margin: d("4")}},
	}))
	require.NoError(t, w.Apply(WalletDelta{
		Longs: []Position{{MintTime: d("0.2"), Balance: d("1")}},
	}))

	assert.True(t, w.Base.Equal(d("90")))
	longs := w.Longs()
	require.Len(t, longs, 2)
	assert.True(t, longs[0].MintTime.Equal(d("0.2")))
	assert.True(t, longs[1].MintTime.Equal(d("0.5")))

	// partial close of the short keeps its open share price
	require.NoError(t, w.Apply(WalletDelta{
		Shorts: []Position{{MintTime: d("0.10"), Balance: d("-1"), Margin: d("-1"), OpenSharePrice: d("9")}},
	}))
	s, ok := w.Short(d("0.1"))
	require.True(t, ok)
	assert.True(t, s.Balance.Equal(d("3")))
	assert.True(t, s.Margin.Equal(d("3")))
	assert.True(t, s.OpenSharePrice.Equal(d("1.01")))

	// closing the rest removes the position
	require.NoError(t, w.Apply(WalletDelta{
		Shorts: []Position{{MintTime: d("0.1"), Balance: d("-3"), Margin: d("-3")}},
	}))
	_, ok = w.Short(d("0.1"))
	assert.False(t, ok)
	assert.Empty(t, w.Shorts())
}

func TestWalletApplyIsAtomic(t *testing.T) {
	t.Parallel()

	w := NewWallet(1, d("50"))
	require.NoError(t, w.Apply(WalletDelta{Longs: []Position{{MintTime: d("0"), Balance: d("5")}}}))

	err := w.Apply(WalletDelta{
		Base:  d("7"),
		Longs: []Position{{MintTime: d("0"), Balance: d("-6")}},
	})
	assert.ErrorIs(t, err, ErrInvalidPosition)
	assert.True(t, w.Base.Equal(d("50")))
	p, ok := w.Long(d("0"))
	require.True(t, ok)
	assert.True(t, p.Balance.Equal(d("5")))

	err = w.Apply(WalletDelta{LPTokens: d("-1")})
	assert.ErrorIs(t, err, ErrInvalidPosition)
}
