package bignum

import (
	"math"
	"testing"
)

func mustParse(t *testing.T, s string) Number {
	t.Helper()
	n, err := Decimals.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return n
}

func TestDecimalArithmetic(t *testing.T) {
	a := mustParse(t, "123456789012345678901234567890")
	b := mustParse(t, "10")
	got := a.Mul(b).Add(Decimals.FromInt(5))
	if got.String() != "1234567890123456789012345678905" {
		t.Fatalf("unexpected product %s", got)
	}
	if a.Cmp(b) != 1 || b.Cmp(a) != -1 || a.Cmp(a) != 0 {
		t.Fatalf("unexpected comparison results")
	}
	if got := a.Sub(a); got.Sign() != 0 {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "1.5", "98765432109876543210987654321.125", "-42"} {
		n := mustParse(t, s)
		back := mustParse(t, n.String())
		if back.Cmp(n) != 0 {
			t.Fatalf("round trip of %q produced %q", s, back.String())
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "1..2"} {
		if _, err := Decimals.Parse(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestFromFloatRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Decimals.FromFloat(v); err == nil {
			t.Fatalf("expected error for %v", v)
		}
	}
	n, err := Decimals.FromFloat(1.5)
	if err != nil || n.String() != "1.5" {
		t.Fatalf("unexpected conversion %v %v", n, err)
	}
}

func TestLog10BeyondFloatRange(t *testing.T) {
	n := mustParse(t, "1e400")
	if got := n.Log10(); math.Abs(got-400) > 1e-9 {
		t.Fatalf("expected log10 400, got %v", got)
	}
	n = mustParse(t, "2500")
	if got := n.Log10(); math.Abs(got-math.Log10(2500)) > 1e-12 {
		t.Fatalf("unexpected log10 %v", got)
	}
	n = mustParse(t, "0.001")
	if got := n.Log10(); math.Abs(got+3) > 1e-12 {
		t.Fatalf("expected -3, got %v", got)
	}
	if !math.IsInf(Decimals.Zero().Log10(), -1) {
		t.Fatalf("expected -Inf for zero")
	}
	if !math.IsNaN(mustParse(t, "-1").Log10()) {
		t.Fatalf("expected NaN for negative")
	}
}

func TestSum(t *testing.T) {
	got := Sum(Decimals.Zero(), Decimals.FromInt(1), Decimals.FromInt(2), Decimals.FromInt(3))
	if got.String() != "6" {
		t.Fatalf("expected 6, got %s", got)
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"12.7", "12"},
		{"1000", "1.00K"},
		{"1234567", "1.23M"},
		{"999999", "999.99K"},
		{"5e15", "5.00Qa"},
		{"1e40", "1.00e+40"},
		{"-2500", "-2.50K"},
	}
	for _, tc := range cases {
		if got := Format(mustParse(t, tc.in)); got != tc.want {
			t.Fatalf("Format(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
