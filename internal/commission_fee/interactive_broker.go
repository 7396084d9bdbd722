package commission_fee

import (
	"github.com/rxtech-lab/argo-quant/internal/utils"
	"github.com/shopspring/decimal"
)

var (
	ibPerShare   = decimal.NewFromFloat(0.005)
	ibMinimumFee = decimal.NewFromFloat(1.0)
)

// InteractiveBrokerFeeModel charges 0.005 per share with a 1.0 minimum.
type InteractiveBrokerFeeModel struct{}

func NewInteractiveBrokerFeeModel() *InteractiveBrokerFeeModel {
	return &InteractiveBrokerFeeModel{}
}

func (m *InteractiveBrokerFeeModel) CalcCommission(_ string, size, _ decimal.Decimal) decimal.Decimal {
	return decimal.Max(size.Abs().Mul(ibPerShare), ibMinimumFee)
}

func (m *InteractiveBrokerFeeModel) CalcTax(string, decimal.Decimal, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

func (m *InteractiveBrokerFeeModel) CalcMaxSizeForCash(cash, price decimal.Decimal) decimal.Decimal {
	return utils.CalculateMaxQuantity(cash, price, func(size, consideration decimal.Decimal) decimal.Decimal {
		return m.CalcCommission("", size, consideration)
	})
}

// ZeroFeeModel charges nothing.
type ZeroFeeModel struct{}

func NewZeroFeeModel() *ZeroFeeModel {
	return &ZeroFeeModel{}
}

func (m *ZeroFeeModel) CalcCommission(string, decimal.Decimal, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

func (m *ZeroFeeModel) CalcTax(string, decimal.Decimal, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

func (m *ZeroFeeModel) CalcMaxSizeForCash(cash, price decimal.Decimal) decimal.Decimal {
	if !cash.IsPositive() || !price.IsPositive() {
		return decimal.Zero
	}

	return cash.Div(price)
}
