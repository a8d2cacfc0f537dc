package domain

import "github.com/shopspring/decimal" // Exact decimal money

// MoneyScale is the number of fraction digits stored for every amount
const MoneyScale = 2

// ValidAmount reports whether d is positive and fits MoneyScale without
// rounding. The decimal(20,2) columns would round anything finer.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(MoneyScale))
}
