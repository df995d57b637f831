package domain

import (
	"math"
	"testing"
)

func TestCelsiusToFahrenheit(t *testing.T) {
	cases := []struct {
		c, f float64
	}{
		{0, 32},
		{100, 212},
		{22, 22*(9.0/5.0) + 32.0},
		{-40, -40},
	}
	for _, tc := range cases {
		if got := CelsiusToFahrenheit(tc.c); got != tc.f {
			t.Fatalf("fahrenheit(%f) = %f, want %f", tc.c, got, tc.f)
		}
	}
}

func TestValidValue(t *testing.T) {
	for _, v := range []float64{0.1, 1, 450, 100000} {
		if !ValidValue(v) {
			t.Fatalf("expected %f to be domain-valid", v)
		}
	}
	for _, v := range []float64{0, -1, -0.0001, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if ValidValue(v) {
			t.Fatalf("expected %f to be rejected", v)
		}
	}
}
