package bignum

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// significantDigits bounds the coefficient prefix used for Log10.
const significantDigits = 17

// Decimal is a Number backed by shopspring/decimal.
type Decimal struct {
	v decimal.Decimal
}

// Decimals is the Arithmetic for Decimal values.
var Decimals Arithmetic = decimalArithmetic{}

type decimalArithmetic struct{}

func (decimalArithmetic) Zero() Number {
	return Decimal{v: decimal.Zero}
}

func (decimalArithmetic) FromInt(v int64) Number {
	return Decimal{v: decimal.NewFromInt(v)}
}

func (decimalArithmetic) FromFloat(v float64) (Number, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, ErrNotFinite
	}
	return Decimal{v: decimal.NewFromFloat(v)}, nil
}

func (decimalArithmetic) Parse(s string) (Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("bignum: empty number")
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("bignum: parse %q: %w", s, err)
	}
	return Decimal{v: v}, nil
}

// Add implements Number.
func (d Decimal) Add(other Number) Number {
	return Decimal{v: d.v.Add(asDecimal(other))}
}

// Sub implements Number.
func (d Decimal) Sub(other Number) Number {
	return Decimal{v: d.v.Sub(asDecimal(other))}
}

// Mul implements Number.
func (d Decimal) Mul(other Number) Number {
	return Decimal{v: d.v.Mul(asDecimal(other))}
}

// Cmp implements Number.
func (d Decimal) Cmp(other Number) int {
	return d.v.Cmp(asDecimal(other))
}

// Sign implements Number.
func (d Decimal) Sign() int {
	return d.v.Sign()
}

// Log10 implements Number. It reads the leading digits of the coefficient so
// values far beyond float64 range still produce a finite logarithm.
func (d Decimal) Log10() float64 {
	switch d.v.Sign() {
	case 0:
		return math.Inf(-1)
	case -1:
		return math.NaN()
	}
	coefficient := d.v.Coefficient().String()
	digits := strings.TrimRight(coefficient, "0")
	exp := float64(len(coefficient)-len(digits)) + float64(d.v.Exponent())
	lead := digits
	if len(lead) > significantDigits {
		lead = lead[:significantDigits]
	}
	f, err := strconv.ParseFloat(lead, 64)
	if err != nil || f <= 0 {
		return math.NaN()
	}
	return math.Log10(f) + float64(len(digits)-len(lead)) + exp
}

// Float64 implements Number. Values beyond float64 range become ±Inf.
func (d Decimal) Float64() float64 {
	f, _ := d.v.Float64()
	return f
}

// String implements Number.
func (d Decimal) String() string {
	return d.v.String()
}

// asDecimal converts any Number into a shopspring value, going through the
// string encoding for foreign implementations.
func asDecimal(n Number) decimal.Decimal {
	switch v := n.(type) {
	case Decimal:
		return v.v
	case nil:
		return decimal.Zero
	default:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return parsed
	}
}
