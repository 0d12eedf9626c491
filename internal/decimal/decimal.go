// Package decimal implements a fixed-point decimal type backed by a 256-bit
// integer, used everywhere the engine needs reward-per-second rates, reward
// indices, and orphan accumulators that must never silently lose precision or
// wrap around.
package decimal

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

func jsonUnquote(data []byte, out *string) error {
	return json.Unmarshal(data, out)
}

// Scale is the number of implied decimal places. Every Decimal value stores
// its mantissa multiplied by 10^Scale.
const Scale = 18

var scaleFactor = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Scale))

// Decimal is a non-negative fixed-point number with Scale implied decimal
// places, backed by a 256-bit mantissa. The zero value is zero.
type Decimal struct {
	mantissa uint256.Int
}

// Zero returns the zero Decimal.
func Zero() Decimal {
	return Decimal{}
}

// One returns the Decimal value 1.
func One() Decimal {
	return Decimal{mantissa: *scaleFactor}
}

// FromUint64 builds a Decimal representing an exact integer value.
func FromUint64(v uint64) Decimal {
	m := new(uint256.Int).Mul(uint256.NewInt(v), scaleFactor)
	return Decimal{mantissa: *m}
}

// FromRatio builds a Decimal representing numerator/denominator, rounding
// toward zero at Scale precision. denominator must be non-zero.
func FromRatio(numerator, denominator uint64) (Decimal, error) {
	if denominator == 0 {
		return Decimal{}, fmt.Errorf("decimal: division by zero")
	}
	num := new(uint256.Int).Mul(uint256.NewInt(numerator), scaleFactor)
	den := uint256.NewInt(denominator)
	q := new(uint256.Int).Div(num, den)
	return Decimal{mantissa: *q}, nil
}

// FromAmount builds a Decimal representing the exact integer value of a
// full-width Amount, erroring if scaling it to Scale precision would
// overflow the 256-bit mantissa instead of silently truncating it.
func FromAmount(amount Amount) (Decimal, error) {
	var m uint256.Int
	if _, overflow := m.MulOverflow(amount.Uint256(), scaleFactor); overflow {
		return Decimal{}, fmt.Errorf("decimal: overflow scaling amount")
	}
	return Decimal{mantissa: m}, nil
}

// MulAmount returns d * amount, treating amount as a plain (non-scaled)
// integer multiplier. Unlike MulUint64 this accepts an Amount's full
// uint256 range instead of requiring the caller to narrow it to uint64
// first.
func (d Decimal) MulAmount(amount Amount) (Decimal, error) {
	var out uint256.Int
	if _, overflow := out.MulOverflow(&d.mantissa, amount.Uint256()); overflow {
		return Decimal{}, fmt.Errorf("decimal: overflow on mul")
	}
	return Decimal{mantissa: out}, nil
}

// FromAmountRatio builds a Decimal representing numerator/denominator where
// both operands are full-width Amounts, rounding toward zero at Scale
// precision. denominator must be non-zero.
func FromAmountRatio(numerator, denominator Amount) (Decimal, error) {
	if denominator.IsZero() {
		return Decimal{}, fmt.Errorf("decimal: division by zero")
	}
	var num uint256.Int
	if _, overflow := num.MulOverflow(numerator.Uint256(), scaleFactor); overflow {
		return Decimal{}, fmt.Errorf("decimal: overflow computing ratio")
	}
	q := new(uint256.Int).Div(&num, denominator.Uint256())
	return Decimal{mantissa: *q}, nil
}

// fromMantissa wraps a raw mantissa value, used internally by
// FromMantissaString and tests.
func fromMantissa(m *uint256.Int) Decimal {
	return Decimal{mantissa: *m}
}

// maxUint256 returns the largest representable uint256, used in overflow
// tests.
func maxUint256() *uint256.Int {
	return new(uint256.Int).Not(uint256.NewInt(0))
}

// Add returns d + other, erroring on overflow.
func (d Decimal) Add(other Decimal) (Decimal, error) {
	var out uint256.Int
	if _, overflow := out.AddOverflow(&d.mantissa, &other.mantissa); overflow {
		return Decimal{}, fmt.Errorf("decimal: overflow on add")
	}
	return Decimal{mantissa: out}, nil
}

// Sub returns d - other, erroring if the result would be negative (this type
// never represents negative values) or on underflow.
func (d Decimal) Sub(other Decimal) (Decimal, error) {
	if d.mantissa.Lt(&other.mantissa) {
		return Decimal{}, fmt.Errorf("decimal: subtraction underflow")
	}
	var out uint256.Int
	out.Sub(&d.mantissa, &other.mantissa)
	return Decimal{mantissa: out}, nil
}

// MulUint64 returns d * scalar, erroring on overflow.
func (d Decimal) MulUint64(scalar uint64) (Decimal, error) {
	var out uint256.Int
	if _, overflow := out.MulOverflow(&d.mantissa, uint256.NewInt(scalar)); overflow {
		return Decimal{}, fmt.Errorf("decimal: overflow on mul")
	}
	return Decimal{mantissa: out}, nil
}

// MulDuration multiplies a reward-per-second rate by an elapsed number of
// seconds, yielding a Decimal amount (still at Scale precision, not yet an
// integer payout).
func (d Decimal) MulDuration(seconds uint64) (Decimal, error) {
	return d.MulUint64(seconds)
}

// DivAmount divides d (e.g. an elapsed-emission amount, still at Scale
// precision) by a plain integer Amount, as in `index += rps * dt /
// total_staked`. amount must be non-zero.
func (d Decimal) DivAmount(amount Amount) (Decimal, error) {
	if amount.IsZero() {
		return Decimal{}, fmt.Errorf("decimal: division by zero amount")
	}
	q := new(uint256.Int).Div(&d.mantissa, amount.Uint256())
	return Decimal{mantissa: *q}, nil
}

// Cmp compares d to other: -1, 0, or 1.
func (d Decimal) Cmp(other Decimal) int {
	return d.mantissa.Cmp(&other.mantissa)
}

// IsZero reports whether d is exactly zero.
func (d Decimal) IsZero() bool {
	return d.mantissa.IsZero()
}

// LessThanOne reports whether d < 1.
func (d Decimal) LessThanOne() bool {
	return d.mantissa.Lt(scaleFactor)
}

// MulAmountFloor multiplies d (e.g. an index delta) by an integer amount and
// floors the Scale fractional part, returning a plain integer payout. Used
// only at payout boundaries per the no-floor-before-payout rule.
func (d Decimal) MulAmountFloor(amount *uint256.Int) (*uint256.Int, error) {
	var product uint256.Int
	if _, overflow := product.MulOverflow(&d.mantissa, amount); overflow {
		return nil, fmt.Errorf("decimal: overflow computing payout")
	}
	out := new(uint256.Int).Div(&product, scaleFactor)
	return out, nil
}

// String renders the decimal in human-readable form, mostly for logging and
// JSON diagnostics.
func (d Decimal) String() string {
	b := d.mantissa.ToBig()
	scaled := new(big.Int).Exp(big.NewInt(10), big.NewInt(Scale), nil)
	q, r := new(big.Int).QuoRem(b, scaled, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := r.String()
	for len(frac) < Scale {
		frac = "0" + frac
	}
	return fmt.Sprintf("%s.%s", q.String(), frac)
}

// MarshalJSON renders the decimal as a JSON string to avoid float precision
// loss in API responses.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.MantissaString())), nil
}

// UnmarshalJSON parses the JSON string produced by MarshalJSON.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	var s string
	if err := jsonUnquote(data, &s); err != nil {
		return err
	}
	parsed, err := FromMantissaString(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Mantissa exposes the raw scaled mantissa, used by the store layer for
// serialization.
func (d Decimal) Mantissa() *uint256.Int {
	return new(uint256.Int).Set(&d.mantissa)
}

// FromMantissaString parses a raw decimal-string mantissa as persisted by the
// store layer.
func FromMantissaString(s string) (Decimal, error) {
	m, err := uint256.FromDecimal(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal: parse mantissa %q: %w", s, err)
	}
	return fromMantissa(m), nil
}

// MantissaString is the inverse of FromMantissaString.
func (d Decimal) MantissaString() string {
	return d.mantissa.Dec()
}
