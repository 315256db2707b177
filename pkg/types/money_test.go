package types

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestSaturatingSub(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    uint64
		b    uint64
		want uint64
	}{
		{name: "positive-result", a: 500, b: 300, want: 200},
		{name: "zero-result", a: 300, b: 300, want: 0},
		{name: "underflow-clamps-to-zero", a: 100, b: 300, want: 0},
		{name: "zero-minuend", a: 0, b: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SaturatingSub(uint256.NewInt(tt.a), uint256.NewInt(tt.b))
			assert.Equal(t, uint256.NewInt(tt.want), got)
		})
	}
}

func TestSaturatingSubDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	a := uint256.NewInt(500)
	b := uint256.NewInt(300)
	_ = SaturatingSub(a, b)

	assert.Equal(t, uint256.NewInt(500), a)
	assert.Equal(t, uint256.NewInt(300), b)
}

func TestFraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		x    uint64
		num  uint64
		den  uint64
		want uint64
	}{
		{name: "one-percent", x: 10000, num: 1, den: 100, want: 100},
		{name: "rounds-down", x: 999, num: 1, den: 100, want: 9},
		{name: "zero-denominator", x: 100, num: 1, den: 0, want: 0},
		{name: "identity", x: 42, num: 1, den: 1, want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Fraction(uint256.NewInt(tt.x), tt.num, tt.den)
			assert.Equal(t, uint256.NewInt(tt.want), got)
		})
	}
}

func TestFundingStepRepayAmount(t *testing.T) {
	t.Parallel()

	f := &FundingStep{
		Amount: uint256.NewInt(1000),
		Fee:    uint256.NewInt(9),
	}

	assert.Equal(t, uint256.NewInt(1009), f.RepayAmount())
}
