package provider

import (
	"math"
	"slices"
	"strings"
)

var (
	zeroDecimalCurrencies = []string{
		"BIF", "CLP", "DJF", "GNF", "JPY", "KMF", "KRW", "MGA",
		"PYG", "RWF", "UGX", "VND", "VUV", "XAF", "XOF", "XPF",
	}
	threeDecimalCurrencies = []string{"BHD", "IQD", "JOD", "KWD", "OMR", "TND"}
)

// CurrencyMultiplier returns 10^exponent for the currency's minor unit
func CurrencyMultiplier(currency string) float64 {
	code := strings.ToUpper(currency)
	switch {
	case slices.Contains(zeroDecimalCurrencies, code):
		return 1
	case slices.Contains(threeDecimalCurrencies, code):
		return 1000
	default:
		return 100
	}
}

// SmallestUnit converts a major-unit amount to the vendor's minor-unit integer.
// Three-decimal currencies are rounded up to the nearest ten.
func SmallestUnit(amount float64, currency string) int64 {
	multiplier := CurrencyMultiplier(currency)
	minor := math.Round(amount * multiplier)
	if multiplier == 1000 {
		minor = math.Ceil(minor/10) * 10
	}
	return int64(minor)
}

// AmountFromSmallestUnit converts a minor-unit integer back to major units
func AmountFromSmallestUnit(amount int64, currency string) float64 {
	return float64(amount) / CurrencyMultiplier(currency)
}
