package entities

import "github.com/shopspring/decimal"

const (
	// MoneyPlaces is the number of fractional digits kept for balances, stakes and payouts
	MoneyPlaces = 2
	// MultiplierPlaces is the number of fractional digits kept for multipliers
	MultiplierPlaces = 4
)

// NormalizeMultiplier truncates a multiplier to MultiplierPlaces
func NormalizeMultiplier(m decimal.Decimal) decimal.Decimal {
	return m.Truncate(MultiplierPlaces)
}

// PayoutFor returns stake × multiplier rounded down to whole cents
func PayoutFor(stake, multiplier decimal.Decimal) decimal.Decimal {
	return stake.Mul(multiplier).Truncate(MoneyPlaces)
}

// HasMoneyPrecision reports whether the amount has at most two fractional digits
func HasMoneyPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(MoneyPlaces))
}
