package utils

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountTooSmall = errors.New("amount is below the smallest unit")
)

// IsPositiveFinite reports whether v can be used as an amount
func IsPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ParseUSD parses a fiat amount typed by the payer. A leading "$" is accepted.
func ParseUSD(input string) (float64, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, input)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	v := d.InexactFloat64()
	if !IsPositiveFinite(v) {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return v, nil
}

// USDToChain converts a fiat amount into native currency units at the given USD rate.
// Returns 0 when either side is unusable.
func USDToChain(usd, rate float64) float64 {
	if !IsPositiveFinite(usd) || !IsPositiveFinite(rate) {
		return 0
	}
	return decimal.NewFromFloat(usd).Div(decimal.NewFromFloat(rate)).InexactFloat64()
}

// ToBaseUnits converts a native amount to its smallest unit (wei, lamports), truncating the remainder
func ToBaseUnits(amount float64, decimals int32) (*big.Int, error) {
	if !IsPositiveFinite(amount) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	units := decimal.NewFromFloat(amount).Shift(decimals).Truncate(0)
	if !units.IsPositive() {
		return nil, fmt.Errorf("%w: %v", ErrAmountTooSmall, amount)
	}
	return units.BigInt(), nil
}

// FromBaseUnits converts a smallest-unit amount back to a native decimal
func FromBaseUnits(units *big.Int, decimals int32) decimal.Decimal {
	if units == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(units, -decimals)
}

// FormatChainAmount renders an amount with at most `decimals` fractional digits and no trailing zeros
func FormatChainAmount(amount float64, decimals int32) string {
	if math.IsInf(amount, 0) || math.IsNaN(amount) {
		return "0"
	}
	return decimal.NewFromFloat(amount).Truncate(decimals).String()
}

// FormatUSD renders a fiat amount with two decimals
func FormatUSD(usd float64) string {
	if math.IsInf(usd, 0) || math.IsNaN(usd) {
		return "$0.00"
	}
	return "$" + decimal.NewFromFloat(usd).StringFixed(2)
}
