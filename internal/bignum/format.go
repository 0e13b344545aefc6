package bignum

import (
	"fmt"
	"math"
)

var suffixes = []string{"", "K", "M", "B", "T", "Qa", "Qi", "Sx", "Sp", "Oc", "No", "Dc"}

// Format renders a number for display: plain below 1000, then short-scale
// suffixes, then scientific notation once the suffixes run out.
func Format(n Number) string {
	if n == nil || n.Sign() == 0 {
		return "0"
	}
	if n.Sign() < 0 {
		return "-" + Format(Decimals.Zero().Sub(n))
	}
	log := n.Log10()
	if log < 3 {
		return fmt.Sprintf("%.0f", math.Floor(n.Float64()))
	}
	tier := int(math.Floor(log / 3))
	if tier >= len(suffixes) {
		return Scientific(n)
	}
	scaled := math.Pow(10, log-float64(tier*3))
	return fmt.Sprintf("%.2f%s", truncate2(scaled), suffixes[tier])
}

// Scientific renders a number as mantissa and exponent with two decimals.
func Scientific(n Number) string {
	if n == nil || n.Sign() == 0 {
		return "0.00e+0"
	}
	if n.Sign() < 0 {
		return "-" + Scientific(Decimals.Zero().Sub(n))
	}
	log := n.Log10()
	exp := math.Floor(log)
	mantissa := math.Pow(10, log-exp)
	// Rounding can push the mantissa to 10.00.
	if mantissa >= 9.995 {
		mantissa /= 10
		exp++
	}
	return fmt.Sprintf("%.2fe+%d", mantissa, int64(exp))
}

// truncate2 drops digits past the second decimal so 999.999K never renders
// as 1000.00K.
func truncate2(v float64) float64 {
	return math.Floor(v*100+1e-9) / 100
}
