package indicator

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// SwingMethod selects the swing point rule.
type SwingMethod string

const (
	// SwingMethodExtrema marks a bar whose high (low) is strictly above (below) the
	// order bars on each side.
	SwingMethodExtrema SwingMethod = "extrema"
	// SwingMethodFractal is the five-bar fractal: strictly beyond the two previous bars
	// and at least equal to the two following bars.
	SwingMethodFractal SwingMethod = "fractal"
)

type SwingKind int

const (
	SwingLow  SwingKind = -1
	SwingHigh SwingKind = 1
)

// Swing is a confirmed swing point.
type Swing struct {
	Kind        SwingKind
	Price       float64
	Candle      types.Candle
	ConfirmedAt time.Time
}

// Swings emits +1 on the tick a swing high is confirmed, -1 for a swing low and 0
// otherwise. Confirmation lags the swing bar by order bars.
type Swings struct {
	*node
	candles *CandleSource
	method  SwingMethod
	order   int
	sync    tickSync
	swings  []Swing
}

// Swings detects swing points on an asset. Fractal always uses order 2.
func (f *Factory) Swings(candles *CandleSource, method SwingMethod, order int, opts ...Option) *Swings {
	if method == SwingMethodFractal {
		order = 2
	}

	if order < 1 {
		order = 1
	}

	return memo(f, "Swings", []Series{candles}, Args{"method": method, "order": order}, opts, func(key string, size int) *Swings {
		s := &Swings{
			node:    newNode(key, size),
			candles: candles,
			method:  method,
			order:   order,
			sync:    tickSync{inputs: []Series{candles}},
		}
		candles.subscribe(s)

		return s
	})
}

func (s *Swings) onUpdate() {
	if !s.sync.ready() {
		return
	}

	if s.candles.Count() < 2*s.order+1 || s.candles.candles.Cap() < 2*s.order+1 {
		s.emit(optional.None[float64]())

		return
	}

	center, _ := s.candles.Candle(s.order)
	now, _ := s.candles.Candle(0)

	isHigh, isLow := true, true

	for k := 0; k <= 2*s.order; k++ {
		if k == s.order {
			continue
		}

		other, _ := s.candles.Candle(k)
		// k < order are bars after the center.
		after := k < s.order

		if s.method == SwingMethodFractal && after {
			isHigh = isHigh && center.High >= other.High
			isLow = isLow && center.Low <= other.Low
		} else {
			isHigh = isHigh && center.High > other.High
			isLow = isLow && center.Low < other.Low
		}
	}

	switch {
	case isHigh:
		s.swings = append(s.swings, Swing{Kind: SwingHigh, Price: center.High, Candle: center, ConfirmedAt: now.Timestamp})
		s.emit(optional.Some(float64(SwingHigh)))
	case isLow:
		s.swings = append(s.swings, Swing{Kind: SwingLow, Price: center.Low, Candle: center, ConfirmedAt: now.Timestamp})
		s.emit(optional.Some(float64(SwingLow)))
	default:
		s.emit(optional.Some(0.0))
	}
}

// All returns every confirmed swing, oldest first.
func (s *Swings) All() []Swing {
	return append([]Swing(nil), s.swings...)
}

// Last returns the latest confirmed swing of a kind.
func (s *Swings) Last(kind SwingKind) (Swing, bool) {
	for i := len(s.swings) - 1; i >= 0; i-- {
		if s.swings[i].Kind == kind {
			return s.swings[i], true
		}
	}

	return Swing{}, false
}
