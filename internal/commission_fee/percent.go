package commission_fee

import (
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
)

// exchangePct is the taker fee charged by Binance and Kucoin.
var exchangePct = decimal.NewFromFloat(0.001)

// PercentFeeModel charges pct of the absolute consideration.
type PercentFeeModel struct {
	Pct decimal.Decimal
}

// NewPercentFeeModel rejects pct outside [0, 1).
func NewPercentFeeModel(pct float64) (*PercentFeeModel, error) {
	if pct < 0 || pct >= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidFeePct, "fee pct %v must be in [0, 1)", pct)
	}

	return &PercentFeeModel{Pct: decimal.NewFromFloat(pct)}, nil
}

func (m *PercentFeeModel) CalcCommission(_ string, _ decimal.Decimal, consideration decimal.Decimal) decimal.Decimal {
	return m.Pct.Mul(consideration.Abs())
}

func (m *PercentFeeModel) CalcTax(string, decimal.Decimal, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// CalcMaxSizeForCash is cash / (price * (1 + pct)).
func (m *PercentFeeModel) CalcMaxSizeForCash(cash, price decimal.Decimal) decimal.Decimal {
	if !cash.IsPositive() || !price.IsPositive() {
		return decimal.Zero
	}

	return cash.Div(price.Mul(decimal.NewFromInt(1).Add(m.Pct)))
}

// BinanceFeeModel is the percent model fixed to 0.1%.
type BinanceFeeModel struct {
	PercentFeeModel
}

func NewBinanceFeeModel() *BinanceFeeModel {
	return &BinanceFeeModel{PercentFeeModel{Pct: exchangePct}}
}

// KucoinFeeModel is the percent model fixed to 0.1%.
type KucoinFeeModel struct {
	PercentFeeModel
}

func NewKucoinFeeModel() *KucoinFeeModel {
	return &KucoinFeeModel{PercentFeeModel{Pct: exchangePct}}
}
