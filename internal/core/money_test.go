package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"-1.005", -101, true},
		{" 2.50 ", 250, true},
		{"-5", -500, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1e20", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.out, got.Cents)
		})
	}
}

func TestMoneyFormatting(t *testing.T) {
	assert.Equal(t, "1234.50", Money{Cents: 123450}.String())
	assert.Equal(t, "0.00", Money{}.String())
	assert.Equal(t, "₹12.05", Money{Cents: 1205}.Format())
	assert.Equal(t, "-₹3.00", Money{Cents: -300}.Format())
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 1050}
	b := Money{Cents: 300}
	assert.Equal(t, Money{Cents: 1350}, a.Add(b))
	assert.Equal(t, Money{Cents: 750}, a.Sub(b))
	assert.True(t, a.Sub(a).IsZero())
	assert.InDelta(t, 10.5, a.Float(), 1e-9)
	assert.Equal(t, Money{Cents: 1999}, MoneyFromFloat(19.99))
}
