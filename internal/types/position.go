package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one fill still held in a position, consumed first-in first-out.
type Lot struct {
	Size     decimal.Decimal `yaml:"size" json:"size"`
	Price    decimal.Decimal `yaml:"price" json:"price"`
	OpenedAt time.Time       `yaml:"opened_at" json:"opened_at"`
}

// Position is an open holding of one asset. Size is the magnitude; Direction gives the sign.
type Position struct {
	Asset         Asset           `yaml:"asset" json:"asset"`
	Direction     Direction       `yaml:"direction" json:"direction"`
	Size          decimal.Decimal `yaml:"size" json:"size"`
	AvgEntryPrice decimal.Decimal `yaml:"avg_entry_price" json:"avg_entry_price"`
	UnrealizedPnL decimal.Decimal `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	RealizedPnL   decimal.Decimal `yaml:"realized_pnl" json:"realized_pnl"`
	OpenedAt      time.Time       `yaml:"opened_at" json:"opened_at"`
	Lots          []Lot           `yaml:"lots" json:"lots"`
}

// NewPosition opens a position from its first fill.
func NewPosition(asset Asset, direction Direction, size, price decimal.Decimal, ts time.Time) *Position {
	p := &Position{Asset: asset, Direction: direction, OpenedAt: ts}
	p.Increase(size, price, ts)

	return p
}

// SignedSize is +size for LONG and -size for SHORT.
func (p *Position) SignedSize() decimal.Decimal {
	if p.Direction == DirectionShort {
		return p.Size.Neg()
	}

	return p.Size
}

// IsClosed reports whether the position has no size left.
func (p *Position) IsClosed() bool {
	return !p.Size.IsPositive()
}

// Increase adds a lot; the average entry becomes the size-weighted mean of the held lots.
func (p *Position) Increase(size, price decimal.Decimal, ts time.Time) {
	p.Lots = append(p.Lots, Lot{Size: size, Price: price, OpenedAt: ts})
	p.Size = p.Size.Add(size)
	p.recomputeAverage()
}

// Decrease consumes lots FIFO and returns the realized PnL of the consumed size.
// size must not exceed p.Size.
func (p *Position) Decrease(size, price decimal.Decimal) decimal.Decimal {
	realized := decimal.Zero
	remaining := size

	for remaining.IsPositive() && len(p.Lots) > 0 {
		lot := &p.Lots[0]
		take := decimal.Min(lot.Size, remaining)

		diff := price.Sub(lot.Price)
		if p.Direction == DirectionShort {
			diff = diff.Neg()
		}

		realized = realized.Add(diff.Mul(take))
		lot.Size = lot.Size.Sub(take)
		remaining = remaining.Sub(take)

		if !lot.Size.IsPositive() {
			p.Lots = p.Lots[1:]
		}
	}

	p.Size = p.Size.Sub(size.Sub(remaining))
	p.RealizedPnL = p.RealizedPnL.Add(realized)
	p.recomputeAverage()

	return realized
}

// Mark updates the unrealized PnL against the given mark price.
func (p *Position) Mark(price decimal.Decimal) {
	diff := price.Sub(p.AvgEntryPrice)
	if p.Direction == DirectionShort {
		diff = diff.Neg()
	}

	p.UnrealizedPnL = diff.Mul(p.Size)
}

// MarketValue returns signed_size * mark.
func (p *Position) MarketValue(mark decimal.Decimal) decimal.Decimal {
	return p.SignedSize().Mul(mark)
}

// Snapshot returns a copy safe to hand out of the broker.
func (p *Position) Snapshot() Position {
	cp := *p
	cp.Lots = append([]Lot(nil), p.Lots...)

	return cp
}

func (p *Position) recomputeAverage() {
	if !p.Size.IsPositive() {
		p.AvgEntryPrice = decimal.Zero

		return
	}

	cost := decimal.Zero
	for _, lot := range p.Lots {
		cost = cost.Add(lot.Size.Mul(lot.Price))
	}

	p.AvgEntryPrice = cost.Div(p.Size)
}
