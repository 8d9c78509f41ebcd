package stats

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"odd", []float64{5, 1, 3}, 3},
		{"even", []float64{4, 1, 3, 2}, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := append([]float64(nil), tt.values...)
			if got := Median(input); got != tt.want {
				t.Errorf("Median() = %v, want %v", got, tt.want)
			}
			for i := range input {
				if input[i] != tt.values[i] {
					t.Fatalf("Median() mutated its input")
				}
			}
		})
	}
}

func TestSafeDiv(t *testing.T) {
	tests := []struct {
		num, den, want float64
	}{
		{6, 3, 2},
		{1, 0, 0},
		{0, 0, 0},
		{math.Inf(1), 1, 0},
	}

	for _, tt := range tests {
		if got := SafeDiv(tt.num, tt.den); got != tt.want {
			t.Errorf("SafeDiv(%v, %v) = %v, want %v", tt.num, tt.den, got, tt.want)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(2.0 / 3.0); got != 0.67 {
		t.Errorf("Round2(2/3) = %v, want 0.67", got)
	}
	if got := Round2(3); got != 3 {
		t.Errorf("Round2(3) = %v, want 3", got)
	}
}
