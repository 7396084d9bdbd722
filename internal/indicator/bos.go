package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// ReferenceMode selects which candle prices test a break.
type ReferenceMode string

const (
	// ReferenceBody uses max(open, close) and min(open, close).
	ReferenceBody ReferenceMode = "body"
	// ReferenceCandle uses high and low.
	ReferenceCandle ReferenceMode = "candle"
)

// Break is one break of structure.
type Break struct {
	Direction int
	Swing     Swing
	Candle    types.Candle
}

// BOS emits +1 when a candle's reference price closes beyond the latest unbroken swing
// high, -1 beyond the latest unbroken swing low and 0 otherwise.
type BOS struct {
	*node
	swings *Swings
	mode   ReferenceMode
	sync   tickSync
	breaks []Break
	// broken holds the indexes of swings that already produced a break.
	broken map[int]bool
}

// BOS detects breaks of structure over swings.
func (f *Factory) BOS(swings *Swings, mode ReferenceMode, opts ...Option) *BOS {
	if mode == "" {
		mode = ReferenceBody
	}

	return memo(f, "BOS", []Series{swings}, Args{"mode": mode}, opts, func(key string, size int) *BOS {
		b := &BOS{
			node:   newNode(key, size),
			swings: swings,
			mode:   mode,
			sync:   tickSync{inputs: []Series{swings}},
			broken: make(map[int]bool),
		}
		swings.subscribe(b)

		return b
	})
}

func (b *BOS) reference(c types.Candle) (float64, float64) {
	if b.mode == ReferenceCandle {
		return c.High, c.Low
	}

	return c.BodyHigh(), c.BodyLow()
}

func (b *BOS) onUpdate() {
	if !b.sync.ready() {
		return
	}

	candle, ok := b.swings.candles.Candle(0)
	if !ok {
		b.emit(optional.None[float64]())

		return
	}

	refHigh, refLow := b.reference(candle)

	if idx, swing, ok := b.latest(SwingHigh); ok && refHigh > swing.Price {
		b.broken[idx] = true
		b.breaks = append(b.breaks, Break{Direction: 1, Swing: swing, Candle: candle})
		b.emit(optional.Some(1.0))

		return
	}

	if idx, swing, ok := b.latest(SwingLow); ok && refLow < swing.Price {
		b.broken[idx] = true
		b.breaks = append(b.breaks, Break{Direction: -1, Swing: swing, Candle: candle})
		b.emit(optional.Some(-1.0))

		return
	}

	b.emit(optional.Some(0.0))
}

// latest returns the most recent swing of a kind if it has not been broken yet.
func (b *BOS) latest(kind SwingKind) (int, Swing, bool) {
	swings := b.swings.swings
	for i := len(swings) - 1; i >= 0; i-- {
		if swings[i].Kind != kind {
			continue
		}

		if b.broken[i] {
			return 0, Swing{}, false
		}

		return i, swings[i], true
	}

	return 0, Swing{}, false
}

// Breaks returns every break so far, oldest first.
func (b *BOS) Breaks() []Break {
	return append([]Break(nil), b.breaks...)
}

// Swings returns the swing node the breaks are measured against.
func (b *BOS) Swings() *Swings {
	return b.swings
}
