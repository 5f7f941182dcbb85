package payout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
		wantErr  bool
	}{
		{name: "Percent token", token: "6%", expected: "0.06"},
		{name: "No percent sign", token: "24", expected: "0.24"},
		{name: "Whitespace tolerated", token: " 1% ", expected: "0.01"},
		{name: "Fractional rate", token: "2.5%", expected: "0.025"},
		{name: "Zero rate", token: "0%", expected: "0"},
		{name: "Negative rate rejected", token: "-3%", wantErr: true},
		{name: "Non-numeric rejected", token: "abc%", wantErr: true},
		{name: "Empty rejected", token: "", wantErr: true},
		{name: "Bare percent rejected", token: "%", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := ParseRate(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidRateFormat)
				return
			}
			require.NoError(t, err)
			assert.True(t, rate.Equal(decimal.RequireFromString(tt.expected)),
				"got %s want %s", rate, tt.expected)
		})
	}
}

func TestReturnTruncates(t *testing.T) {
	rate, err := ParseRate("1%")
	require.NoError(t, err)

	// floor(1000 * 0.01) = 10
	assert.True(t, Return(decimal.NewFromInt(1000), rate).Equal(decimal.NewFromInt(10)))

	// floor(1050 * 0.01) = 10, never rounded up to 11
	assert.True(t, Return(decimal.NewFromInt(1050), rate).Equal(decimal.NewFromInt(10)))

	// floor(199 * 0.01) = 1
	assert.True(t, Return(decimal.NewFromInt(199), rate).Equal(decimal.NewFromInt(1)))
}

func TestTotalConservation(t *testing.T) {
	amounts := []int64{1000, 1050, 5000, 99999, 1}
	rates := []string{"1%", "6%", "24%", "0%", "2.5%"}

	for _, a := range amounts {
		for _, token := range rates {
			rate, err := ParseRate(token)
			require.NoError(t, err)

			amount := decimal.NewFromInt(a)
			assert.True(t, Total(amount, rate).Equal(amount.Add(Return(amount, rate))),
				"conservation violated for amount=%d rate=%s", a, token)
		}
	}
}

func TestReturnMonotonicInAmount(t *testing.T) {
	rate, err := ParseRate("6%")
	require.NoError(t, err)

	prev := decimal.NewFromInt(-1)
	for a := int64(0); a <= 2000; a += 7 {
		ret := Return(decimal.NewFromInt(a), rate)
		assert.True(t, ret.GreaterThanOrEqual(prev),
			"return decreased at amount=%d", a)
		prev = ret
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		name     string
		ms       int64
		expected string
	}{
		{name: "Zero", ms: 0, expected: "00h 00m 00s"},
		{name: "Negative clamps", ms: -5000, expected: "00h 00m 00s"},
		{name: "Seconds only", ms: 9_000, expected: "00h 00m 09s"},
		{name: "Full hour", ms: 3_600_000, expected: "01h 00m 00s"},
		{name: "Mixed", ms: 3_600_000 + 5*60_000 + 42_000, expected: "01h 05m 42s"},
		{name: "Sub-second truncates", ms: 1999, expected: "00h 00m 01s"},
		{name: "Hours unbounded", ms: 100 * 3_600_000, expected: "100h 00m 00s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatRemaining(tt.ms))
		})
	}
}
