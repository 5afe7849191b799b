package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalFromStringRoundTrip(t *testing.T) {
	cases := []string{"0", "1024", "-3.5", "0.100", "-0.001", "7.250"}
	for _, s := range cases {
		d, err := DecimalFromString(s)
		require.NoError(t, err, s)
		normalized, err := DecimalFromString(d.String())
		require.NoError(t, err)
		assert.Equal(t, 0, d.Cmp(normalized), s)
	}
}

func TestDecimalFromStringRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "1.2.3", "1e10", "."} {
		_, err := DecimalFromString(s)
		assert.Error(t, err, s)
	}
}

func TestDecimalStringTrimsTrailingZeros(t *testing.T) {
	d := MustDecimal("7.250")
	assert.Equal(t, "7.25", d.String())

	d = MustDecimal("-0.001")
	assert.Equal(t, "-0.001", d.String())

	d = MustDecimal("10.00")
	assert.Equal(t, "10", d.String())
}

func TestDecimalAddSubExact(t *testing.T) {
	a := MustDecimal("1.1")
	b := MustDecimal("2.02")
	assert.Equal(t, "3.12", a.Add(b).String())
	assert.Equal(t, "-0.92", a.Sub(b).String())
}

func TestDecimalMulExact(t *testing.T) {
	a := MustDecimal("1.5")
	b := MustDecimal("2.5")
	assert.Equal(t, "3.75", a.Mul(b).String())
}

func TestDecimalDivExactCase(t *testing.T) {
	a := MustDecimal("1")
	b := MustDecimal("4")
	assert.Equal(t, "0.25", a.Div(b).String())
}

func TestDecimalDivByZeroPanics(t *testing.T) {
	a := MustDecimal("1")
	b := DecimalZero
	assert.Panics(t, func() { a.Div(b) })
}

func TestDecimalRoundHalfEven(t *testing.T) {
	cases := []struct {
		in     string
		digits int
		want   string
	}{
		{"0.125", 2, "0.12"}, // banker's rounding: 2 is even
		{"0.135", 2, "0.14"}, // banker's rounding: 4 is even
		{"1.005", 2, "1"},    // 1.00 normalizes to "1"
	}
	for _, c := range cases {
		got := MustDecimal(c.in).RoundHalfEven(c.digits).String()
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestDecimalCmpAcrossScales(t *testing.T) {
	assert.Equal(t, 0, MustDecimal("1.50").Cmp(MustDecimal("1.5")))
	assert.Equal(t, -1, MustDecimal("1.4").Cmp(MustDecimal("1.5")))
	assert.Equal(t, 1, MustDecimal("1.6").Cmp(MustDecimal("1.5")))
}

func TestDecimalClampNonNegative(t *testing.T) {
	assert.Equal(t, "0", MustDecimal("-3").ClampNonNegative().String())
	assert.Equal(t, "3", MustDecimal("3").ClampNonNegative().String())
}

func TestDecimalCBORRoundTrip(t *testing.T) {
	d := MustDecimal("42.125")
	raw, err := d.MarshalCBOR()
	require.NoError(t, err)

	var got Decimal
	require.NoError(t, got.UnmarshalCBOR(raw))
	assert.Equal(t, 0, d.Cmp(got))
	assert.Equal(t, d.String(), got.String())
}

func TestTypedValueEqualNumericCrossKind(t *testing.T) {
	intVal := NewInt(2)
	decVal := NewDecimal(MustDecimal("2.0"))
	assert.True(t, intVal.Equal(decVal))
	assert.True(t, decVal.Equal(intVal))

	assert.False(t, NewInt(2).Equal(NewInt(3)))
	assert.False(t, NewString("a").Equal(NewIRI("a")))
}
