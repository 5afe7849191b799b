package term

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// workingScale bounds the fractional precision carried through division —
// the one operation finite decimals cannot always perform exactly (e.g.
// 1/0.3 repeats). Every other operation (add, sub, mul) is exact. User-facing
// numbers stay in base-10 fixed precision; nothing here touches binary
// floating point.
const workingScale = 18

// Decimal is an immutable base-10 fixed-point number: value == unscaled *
// 10^-scale. It never carries a binary floating-point representation.
type Decimal struct {
	unscaled *big.Int
	scale    int
}

var (
	bigZero = big.NewInt(0)
	bigTen  = big.NewInt(10)
	bigTwo  = big.NewInt(2)
)

// DecimalZero is the additive identity.
var DecimalZero = Decimal{unscaled: big.NewInt(0), scale: 0}

// DecimalFromInt builds an exact integer-valued Decimal.
func DecimalFromInt(v int64) Decimal {
	return Decimal{unscaled: big.NewInt(v), scale: 0}
}

// DecimalFromString parses a base-10 literal such as "1024", "-3.5", or
// "0.100". It rejects exponents and non-decimal characters — condition and
// action values in this system are always plain decimal literals.
func DecimalFromString(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Decimal{}, fmt.Errorf("term: empty decimal literal")
	}
	neg := false
	rest := s
	if rest[0] == '+' || rest[0] == '-' {
		neg = rest[0] == '-'
		rest = rest[1:]
	}
	intPart, fracPart, hasFrac := rest, "", false
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		intPart, fracPart, hasFrac = rest[:i], rest[i+1:], true
	}
	if intPart == "" && (!hasFrac || fracPart == "") {
		return Decimal{}, fmt.Errorf("term: invalid decimal literal %q", s)
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return Decimal{}, fmt.Errorf("term: invalid decimal literal %q", s)
		}
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return Decimal{}, fmt.Errorf("term: invalid decimal literal %q", s)
		}
	}
	digits := intPart + fracPart
	unscaled, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("term: invalid decimal literal %q", s)
	}
	if neg {
		unscaled.Neg(unscaled)
	}
	return Decimal{unscaled: unscaled, scale: len(fracPart)}, nil
}

// MustDecimal parses s and panics on error — for use with literals known to
// be valid at construction time (schema defaults, weight-class constants).
func MustDecimal(s string) Decimal {
	d, err := DecimalFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func rescale(u *big.Int, from, to int) *big.Int {
	if to == from {
		return new(big.Int).Set(u)
	}
	if to > from {
		return new(big.Int).Mul(u, pow10(to-from))
	}
	// to < from: exact only if trailing digits are zero; callers only
	// rescale upward in this package, so this branch is unused in practice.
	q := new(big.Int)
	q.Quo(u, pow10(from-to))
	return q
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
}

func commonScale(a, b Decimal) (ua, ub *big.Int, scale int) {
	scale = a.scale
	if b.scale > scale {
		scale = b.scale
	}
	return rescale(a.unscaled, a.scale, scale), rescale(b.unscaled, b.scale, scale), scale
}

// Add returns a + b, exact.
func (a Decimal) Add(b Decimal) Decimal {
	ua, ub, scale := commonScale(a, b)
	return Decimal{unscaled: new(big.Int).Add(ua, ub), scale: scale}
}

// Sub returns a - b, exact.
func (a Decimal) Sub(b Decimal) Decimal {
	ua, ub, scale := commonScale(a, b)
	return Decimal{unscaled: new(big.Int).Sub(ua, ub), scale: scale}
}

// Mul returns a * b, exact.
func (a Decimal) Mul(b Decimal) Decimal {
	return Decimal{
		unscaled: new(big.Int).Mul(a.unscaled, b.unscaled),
		scale:    a.scale + b.scale,
	}
}

// Div returns a / b rounded half-even at workingScale fractional digits.
// Panics if b is zero — callers (soft-term weight sums) must check for a
// positive denominator first.
func (a Decimal) Div(b Decimal) Decimal {
	if b.unscaled.Sign() == 0 {
		panic("term: division by zero decimal")
	}
	// value = (a.unscaled / 10^a.scale) / (b.unscaled / 10^b.scale)
	//       = (a.unscaled * 10^b.scale) / (b.unscaled * 10^a.scale)
	// carried to workingScale extra fractional digits before rounding.
	num := new(big.Int).Mul(a.unscaled, pow10(b.scale+workingScale))
	den := new(big.Int).Mul(b.unscaled, pow10(a.scale))
	q := divRoundHalfEven(num, den)
	return Decimal{unscaled: q, scale: workingScale}.Normalize()
}

// Neg returns -a.
func (a Decimal) Neg() Decimal {
	return Decimal{unscaled: new(big.Int).Neg(a.unscaled), scale: a.scale}
}

// Cmp returns -1, 0, or 1 comparing a and b numerically.
func (a Decimal) Cmp(b Decimal) int {
	ua, ub, _ := commonScale(a, b)
	return ua.Cmp(ub)
}

// Sign returns -1, 0, or 1.
func (a Decimal) Sign() int { return a.unscaled.Sign() }

// ClampNonNegative returns a if a >= 0, else zero.
func (a Decimal) ClampNonNegative() Decimal {
	if a.Sign() < 0 {
		return DecimalZero
	}
	return a
}

// divRoundHalfEven computes round(num/den) using banker's rounding,
// operating on integers only.
func divRoundHalfEven(num, den *big.Int) *big.Int {
	neg := (num.Sign() < 0) != (den.Sign() < 0)
	n := new(big.Int).Abs(num)
	d := new(big.Int).Abs(den)

	q, r := new(big.Int), new(big.Int)
	q.QuoRem(n, d, r)

	twiceR := new(big.Int).Lsh(r, 1) // r*2
	cmp := twiceR.Cmp(d)
	if cmp > 0 || (cmp == 0 && q.Bit(0) == 1) {
		q.Add(q, big.NewInt(1))
	}
	if neg {
		q.Neg(q)
	}
	return q
}

// RoundHalfEven returns a rounded to the given number of fractional digits
// using banker's rounding.
func (a Decimal) RoundHalfEven(digits int) Decimal {
	if a.scale <= digits {
		return Decimal{unscaled: rescale(a.unscaled, a.scale, digits), scale: digits}
	}
	drop := a.scale - digits
	den := pow10(drop)
	q := divRoundHalfEven(a.unscaled, den)
	return Decimal{unscaled: q, scale: digits}
}

// Normalize trims trailing zero digits from the fractional part without
// changing the numeric value, producing the minimal representation.
func (a Decimal) Normalize() Decimal {
	if a.scale == 0 || a.unscaled.Sign() == 0 {
		if a.unscaled.Sign() == 0 {
			return DecimalZero
		}
		return Decimal{unscaled: new(big.Int).Set(a.unscaled), scale: a.scale}
	}
	u := new(big.Int).Set(a.unscaled)
	scale := a.scale
	for scale > 0 {
		q, r := new(big.Int), new(big.Int)
		q.QuoRem(u, bigTen, r)
		if r.Sign() != 0 {
			break
		}
		u = q
		scale--
	}
	return Decimal{unscaled: u, scale: scale}
}

// String renders the minimal normalized decimal representation: no trailing
// fractional zeros, no exponent, a leading "-" for negative values.
func (a Decimal) String() string {
	n := a.Normalize()
	digits := new(big.Int).Abs(n.unscaled).String()
	neg := n.unscaled.Sign() < 0
	if n.scale == 0 {
		if neg {
			return "-" + digits
		}
		return digits
	}
	for len(digits) <= n.scale {
		digits = "0" + digits
	}
	intPart := digits[:len(digits)-n.scale]
	fracPart := digits[len(digits)-n.scale:]
	out := intPart + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// MarshalCBOR and UnmarshalCBOR round-trip a Decimal through its minimal
// string form rather than its unscaled/scale fields directly — unscaled is a
// *big.Int and both fields are unexported, so the default cbor struct codec
// (github.com/fxamacker/cbor/v2, used by package cache for compiled-request
// memoization) would otherwise see an empty struct.
func (a Decimal) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a.String())
}

func (a *Decimal) UnmarshalCBOR(data []byte) error {
	var s string
	if err := cbor.Unmarshal(data, &s); err != nil {
		return err
	}
	d, err := DecimalFromString(s)
	if err != nil {
		return err
	}
	*a = d
	return nil
}
