package broker

import (
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/shopspring/decimal"
)

// Portfolio holds the cash and open positions of one broker.
// It is not safe for concurrent use; the owning broker serializes access.
type Portfolio struct {
	cash      decimal.Decimal
	positions map[types.Asset]*types.Position
	// order keeps Positions() deterministic.
	order []types.Asset
}

func NewPortfolio(cash decimal.Decimal) *Portfolio {
	return &Portfolio{
		cash:      cash,
		positions: make(map[types.Asset]*types.Position),
	}
}

func (p *Portfolio) Cash() decimal.Decimal {
	return p.cash
}

// SetCash overrides the cash balance. Used by live brokers reconciling with the exchange.
func (p *Portfolio) SetCash(cash decimal.Decimal) {
	p.cash = cash
}

// Position returns the open position of asset.
func (p *Portfolio) Position(asset types.Asset) (*types.Position, bool) {
	pos, ok := p.positions[asset]

	return pos, ok
}

// Positions returns snapshots of the open positions in opening order.
func (p *Portfolio) Positions() []types.Position {
	out := make([]types.Position, 0, len(p.order))
	for _, asset := range p.order {
		out = append(out, p.positions[asset].Snapshot())
	}

	return out
}

// Apply books a fill: cash moves by the transaction cash delta and the position is
// increased or reduced. The returned transaction carries the realized PnL.
func (p *Portfolio) Apply(tx types.Transaction) types.Transaction {
	p.cash = p.cash.Add(tx.CashDelta())

	pos, ok := p.positions[tx.Asset]
	if tx.Action.Opens(tx.Direction) {
		if !ok {
			p.positions[tx.Asset] = types.NewPosition(tx.Asset, tx.Direction, tx.Size, tx.Price, tx.Timestamp)
			p.order = append(p.order, tx.Asset)

			return tx
		}

		pos.Increase(tx.Size, tx.Price, tx.Timestamp)

		return tx
	}

	if !ok {
		return tx
	}

	tx.RealizedPnL = pos.Decrease(tx.Size, tx.Price)
	if pos.IsClosed() {
		p.remove(tx.Asset)
	}

	return tx
}

// Mark refreshes unrealized PnL of every position with a mark price.
func (p *Portfolio) Mark(marks map[types.Asset]decimal.Decimal) {
	for asset, pos := range p.positions {
		if mark, ok := marks[asset]; ok {
			pos.Mark(mark)
		}
	}
}

// Equity returns cash + Σ signed_size · mark. Positions without a mark are valued at entry.
func (p *Portfolio) Equity(marks map[types.Asset]decimal.Decimal) decimal.Decimal {
	equity := p.cash

	for asset, pos := range p.positions {
		mark, ok := marks[asset]
		if !ok {
			mark = pos.AvgEntryPrice
		}

		equity = equity.Add(pos.MarketValue(mark))
	}

	return equity
}

func (p *Portfolio) remove(asset types.Asset) {
	delete(p.positions, asset)

	for i, a := range p.order {
		if a == asset {
			p.order = append(p.order[:i], p.order[i+1:]...)

			break
		}
	}
}
