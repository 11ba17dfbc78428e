package paybot

import (
	"fmt"
	"math/big"
	"strings"
)

// DecimalToBaseUnits converts a decimal amount of a 6-decimal token to its
// base-unit integer string. The conversion is textual: "10.00" becomes
// "10000000" and "0.000001" becomes "1". Fractional digits beyond the sixth are
// truncated.
//
// Returns ErrInvalidAmount for empty input, signs, exponents, more than one radix
// point, or any non-digit character.
func DecimalToBaseUnits(amount string) (string, error) {
	return DecimalToBaseUnitsN(amount, USDCDecimals)
}

// DecimalToBaseUnitsN is DecimalToBaseUnits for a token with the given decimals.
func DecimalToBaseUnitsN(amount string, decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}
	if amount == "" || amount == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if !isDigits(whole) || !isDigits(frac) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		frac = frac[:decimals]
	} else {
		frac += strings.Repeat("0", decimals-len(frac))
	}

	units := strings.TrimLeft(whole+frac, "0")
	if units == "" {
		return "0", nil
	}
	return units, nil
}

// BaseUnitsToDecimal converts a base-unit integer string of a 6-decimal token to
// a decimal string with trailing fractional zeros removed: "10000" becomes "0.01".
func BaseUnitsToDecimal(units string) (string, error) {
	value, err := ParseBaseUnits(units)
	if err != nil {
		return "", err
	}
	return FormatBaseUnits(value), nil
}

// FormatBaseUnits formats base units of a 6-decimal token as a trimmed decimal.
func FormatBaseUnits(value *big.Int) string {
	s := BigIntToAmount(value, USDCDecimals)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// BigIntToAmount converts a *big.Int in atomic units to a decimal string.
// For example, 1500000 with 6 decimals becomes "1.500000".
func BigIntToAmount(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}

	rat := new(big.Rat).SetInt(value)
	scale := new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	rat.Quo(rat, scale)

	return rat.FloatString(decimals)
}

// ParseBaseUnits parses a non-negative base-unit integer string.
func ParseBaseUnits(units string) (*big.Int, error) {
	if !isDigits(units) || units == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, units)
	}
	value, _ := new(big.Int).SetString(units, 10)
	return value, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
