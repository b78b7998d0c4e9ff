// Package coins converts between reais and UTI Coins. One coin is worth one
// centavo; conversions into coins round down.
package coins

import (
	"fmt"
	"math"
)

const CentsPerCoin = 1

// ReaisToCoins converts a BRL amount to coins, flooring partial centavos.
// Float noise below a millionth of a real is rounded away first, so 19.99
// gives 1999 and not 1998.
func ReaisToCoins(reais float64) int64 {
	if reais <= 0 || math.IsNaN(reais) {
		return 0
	}
	cents := math.Round(reais*1e6) / 1e4
	return int64(math.Floor(cents))
}

func CoinsToReais(coins int64) float64 {
	return float64(coins*CentsPerCoin) / 100
}

func CentsToCoins(cents int64) int64 {
	if cents <= 0 {
		return 0
	}
	return cents / CentsPerCoin
}

func CoinsToCents(coins int64) int64 {
	return coins * CentsPerCoin
}

// PercentOf returns floor(cents*percent/100) as coins.
func PercentOf(cents int64, percent int) int64 {
	if cents <= 0 || percent <= 0 {
		return 0
	}
	return CentsToCoins(cents * int64(percent) / 100)
}

// FormatReais renders cents as "R$ 1.234,56".
func FormatReais(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole, frac := cents/100, cents%100

	digits := fmt.Sprintf("%d", whole)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, d)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped, frac)
}
