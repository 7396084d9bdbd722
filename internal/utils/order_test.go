package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsTestSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func zeroCommission(decimal.Decimal, decimal.Decimal) decimal.Decimal { return decimal.Zero }

func perShareCommission(size, _ decimal.Decimal) decimal.Decimal {
	return decimal.Max(size.Mul(decimal.NewFromFloat(0.005)), decimal.NewFromInt(1))
}

func (suite *UtilsTestSuite) TestCalculateMaxQuantity() {
	tests := []struct {
		name        string
		cash        float64
		price       float64
		commission  CommissionFunc
		expectedQty int64
	}{
		{"no commission", 1000, 100, zeroCommission, 10},
		{"per share commission", 1000, 100, perShareCommission, 9},
		{"zero cash", 0, 100, zeroCommission, 0},
		{"zero price", 1000, 0, zeroCommission, 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			qty := CalculateMaxQuantity(decimal.NewFromFloat(tc.cash), decimal.NewFromFloat(tc.price), tc.commission)
			suite.Equal(tc.expectedQty, qty.Floor().IntPart())

			cost := qty.Mul(decimal.NewFromFloat(tc.price))
			suite.True(cost.Add(tc.commission(qty, cost)).LessThanOrEqual(decimal.NewFromFloat(tc.cash)) || qty.IsZero())
		})
	}
}

func (suite *UtilsTestSuite) TestRounding() {
	suite.Equal("1.23", RoundToDecimalPrecision(decimal.NewFromFloat(1.2399), 2).String())
	suite.Equal("1.2", RoundDownToStep(decimal.NewFromFloat(1.29), decimal.NewFromFloat(0.1)).String())
	suite.Equal("1.29", RoundDownToStep(decimal.NewFromFloat(1.29), decimal.Zero).String())
}
