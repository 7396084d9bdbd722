package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records one fill published by a broker.
type Transaction struct {
	ID           string          `yaml:"id" json:"id" csv:"id"`
	OrderID      string          `yaml:"order_id" json:"order_id" csv:"order_id"`
	Asset        Asset           `yaml:"asset" json:"asset" csv:"-"`
	Action       Action          `yaml:"action" json:"action" csv:"action"`
	Direction    Direction       `yaml:"direction" json:"direction" csv:"direction"`
	OrderType    OrderType       `yaml:"order_type" json:"order_type" csv:"order_type"`
	Size         decimal.Decimal `yaml:"size" json:"size" csv:"size"`
	Price        decimal.Decimal `yaml:"price" json:"price" csv:"price"`
	Fee          decimal.Decimal `yaml:"fee" json:"fee" csv:"fee"`
	Tax          decimal.Decimal `yaml:"tax" json:"tax" csv:"tax"`
	RealizedPnL  decimal.Decimal `yaml:"realized_pnl" json:"realized_pnl" csv:"realized_pnl"`
	Timestamp    time.Time       `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	StrategyName string          `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name"`
	Reason       string          `yaml:"reason" json:"reason" csv:"reason"`
}

// CashDelta is -signed_size*price - fee - tax.
func (t Transaction) CashDelta() decimal.Decimal {
	signed := t.Size
	if t.Action == ActionBuy {
		signed = signed.Neg()
	}

	return signed.Mul(t.Price).Sub(t.Fee).Sub(t.Tax)
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Equity    float64   `yaml:"equity" json:"equity"`
	Cash      float64   `yaml:"cash" json:"cash"`
}
