package utils

import (
	"github.com/shopspring/decimal"
)

// CommissionFunc returns the commission charged for buying size units at the given consideration.
type CommissionFunc func(size, consideration decimal.Decimal) decimal.Decimal

// CalculateMaxQuantity calculates the largest size whose cost plus commission fits in cash.
// It starts from cash/price and refines the estimate against the commission function.
func CalculateMaxQuantity(cash, price decimal.Decimal, commission CommissionFunc) decimal.Decimal {
	if !price.IsPositive() || !cash.IsPositive() {
		return decimal.Zero
	}

	qty := cash.Div(price)

	// Usually converges within a couple of iterations.
	for i := 0; i < 10; i++ {
		consideration := qty.Mul(price)
		total := consideration.Add(commission(qty, consideration))

		if total.LessThanOrEqual(cash) {
			break
		}

		qty = qty.Mul(cash.Div(total))
	}

	// The refinement approaches the answer from above; settle what is left.
	if consideration := qty.Mul(price); consideration.Add(commission(qty, consideration)).GreaterThan(cash) {
		qty = cash.Sub(commission(qty, consideration)).Div(price)
	}

	if qty.IsNegative() {
		return decimal.Zero
	}

	return qty
}

// RoundToDecimalPrecision floors the quantity to the given number of decimals.
func RoundToDecimalPrecision(quantity decimal.Decimal, decimalPrecision int32) decimal.Decimal {
	return quantity.RoundFloor(decimalPrecision)
}

// RoundDownToStep floors the quantity to a multiple of step. A non-positive step leaves it unchanged.
func RoundDownToStep(quantity, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return quantity
	}

	return quantity.Div(step).Floor().Mul(step)
}
