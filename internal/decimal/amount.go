package decimal

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Amount is an integer token quantity. The source contract uses Uint128;
// this engine keeps amounts in a uint256.Int so the same overflow-checked
// arithmetic primitives serve both Decimal and Amount, and never saturates.
type Amount struct {
	v uint256.Int
}

// ZeroAmount returns the zero Amount.
func ZeroAmount() Amount {
	return Amount{}
}

// AmountFromUint64 builds an Amount from a plain integer.
func AmountFromUint64(v uint64) Amount {
	return Amount{v: *uint256.NewInt(v)}
}

// Add returns a + b, erroring on overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	var out uint256.Int
	if _, overflow := out.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, fmt.Errorf("amount: overflow on add")
	}
	return Amount{v: out}, nil
}

// Sub returns a - b, erroring if b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.v.Lt(&b.v) {
		return Amount{}, fmt.Errorf("amount: subtraction exceeds balance")
	}
	var out uint256.Int
	out.Sub(&a.v, &b.v)
	return Amount{v: out}, nil
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Cmp compares a to b.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// LessThan reports a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.v.Lt(&b.v)
}

// Uint256 exposes the underlying integer, e.g. for Decimal.MulAmountFloor.
func (a Amount) Uint256() *uint256.Int {
	return new(uint256.Int).Set(&a.v)
}

// AmountFromUint256 wraps an existing uint256.Int (e.g. a payout computed via
// Decimal.MulAmountFloor) as an Amount.
func AmountFromUint256(v *uint256.Int) Amount {
	return Amount{v: *v}
}

// String renders the amount as a base-10 integer string.
func (a Amount) String() string {
	return a.v.Dec()
}

// MarshalJSON renders the amount as a JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", a.String())), nil
}

// UnmarshalJSON parses the JSON string produced by MarshalJSON.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := jsonUnquote(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAmount parses a base-10 integer string as persisted by the store
// layer or submitted by a caller.
func ParseAmount(s string) (Amount, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Amount{}, fmt.Errorf("amount: parse %q: %w", s, err)
	}
	return Amount{v: *v}, nil
}
