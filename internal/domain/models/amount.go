package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// пределы колонок NUMERIC(10,2) и INTEGER
var MaxAmount = decimal.New(1, 8)

const MaxQuantity = math.MaxInt32

// ValidAmount сумма неотрицательна, меньше MaxAmount и имеет не больше двух знаков после запятой
func ValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThan(MaxAmount) && d.Equal(d.Truncate(2))
}
