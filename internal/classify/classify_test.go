package classify

import (
	"math"
	"testing"
)

func TestTemperature(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{-40, Low},
		{17.99, Low},
		{18.0, Normal},
		{24.5, Normal},
		{30.0, Normal},
		{30.01, High},
		{math.Inf(1), High},
	}
	for _, tc := range cases {
		if got := Temperature(tc.in); got != tc.want {
			t.Errorf("Temperature(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHumidity(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, Low},
		{39.999, Low},
		{40.0, Normal},
		{55, Normal},
		{70.0, Normal},
		{70.5, High},
		{100, High},
	}
	for _, tc := range cases {
		if got := Humidity(tc.in); got != tc.want {
			t.Errorf("Humidity(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
