package payout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidRateFormat reports a rate token that does not parse to a finite
// non-negative percentage.
var ErrInvalidRateFormat = fmt.Errorf("invalid rate format")

// ParseRate converts a percentage token such as "6%" into its fractional
// value (0.06). The trailing percent sign is optional.
func ParseRate(token string) (decimal.Decimal, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(token), "%")
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidRateFormat, token)
	}

	rate, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidRateFormat, token)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidRateFormat, token)
	}

	return rate.Div(decimal.NewFromInt(100)), nil
}

// Return computes floor(amount * rate). Truncation is policy: payouts never
// exceed the nominal rate due to rounding.
func Return(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Floor()
}

// Total computes amount + Return(amount, rate).
func Total(amount decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return amount.Add(Return(amount, rate))
}

// FormatRemaining renders a millisecond countdown as "HHh MMm SSs". Negative
// input clamps to the zero string; hours are unbounded.
func FormatRemaining(milliseconds int64) string {
	if milliseconds <= 0 {
		return "00h 00m 00s"
	}

	totalSeconds := milliseconds / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds)
}
