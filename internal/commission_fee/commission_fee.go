package commission_fee

import (
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
)

// FeeModel maps a trade to the commission and tax charged for it.
type FeeModel interface {
	// CalcCommission returns the commission for trading size units worth consideration.
	CalcCommission(symbol string, size, consideration decimal.Decimal) decimal.Decimal
	// CalcTax returns the tax for trading size units worth consideration.
	CalcTax(symbol string, size, consideration decimal.Decimal) decimal.Decimal
	// CalcMaxSizeForCash returns the largest size affordable with cash at price, fees included.
	CalcMaxSizeForCash(cash, price decimal.Decimal) decimal.Decimal
}

type Model string

const (
	ModelPercent           Model = "percent"
	ModelBinance           Model = "binance"
	ModelKucoin            Model = "kucoin"
	ModelInteractiveBroker Model = "interactive_broker"
	ModelZero              Model = "zero_commission"
)

// AllModels is used by the config JSON schema enum.
var AllModels = []any{
	ModelPercent,
	ModelBinance,
	ModelKucoin,
	ModelInteractiveBroker,
	ModelZero,
}

// GetFeeModel builds a fee model from its tag. pct is only used by the percent model.
func GetFeeModel(model Model, pct float64) (FeeModel, error) {
	switch model {
	case ModelPercent:
		return NewPercentFeeModel(pct)
	case ModelBinance:
		return NewBinanceFeeModel(), nil
	case ModelKucoin:
		return NewKucoinFeeModel(), nil
	case ModelInteractiveBroker:
		return NewInteractiveBrokerFeeModel(), nil
	case ModelZero, "":
		return NewZeroFeeModel(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeFeeModelNotFound, "unknown fee model %q", model)
	}
}
