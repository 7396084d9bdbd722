package indicator

import (
	"math"

	"github.com/moznion/go-optional"
)

// ATR is Wilder's average true range over a candle source.
type ATR struct {
	*node
	candles *CandleSource
	period  int
	sync    tickSync
	trs     []float64
	atr     optional.Option[float64]
}

// ATR returns the average true range of an asset.
func (f *Factory) ATR(candles *CandleSource, period int, opts ...Option) Series {
	return memo(f, "ATR", []Series{candles}, Args{"period": period}, opts, func(key string, size int) Series {
		a := &ATR{
			node:    newNode(key, size),
			candles: candles,
			period:  period,
			sync:    tickSync{inputs: []Series{candles}},
			atr:     optional.None[float64](),
		}
		candles.subscribe(a)

		return a
	})
}

func (a *ATR) onUpdate() {
	if !a.sync.ready() {
		return
	}

	curr, _ := a.candles.Candle(0)
	tr := curr.High - curr.Low

	if prev, ok := a.candles.Candle(1); ok {
		tr = math.Max(tr, math.Max(math.Abs(curr.High-prev.Close), math.Abs(curr.Low-prev.Close)))
	}

	p := float64(a.period)

	if a.atr.IsSome() {
		a.atr = optional.Some((a.atr.Unwrap()*(p-1) + tr) / p)
		a.emit(a.atr)

		return
	}

	a.trs = append(a.trs, tr)
	if len(a.trs) < a.period {
		a.emit(optional.None[float64]())

		return
	}

	sum := 0.0
	for _, x := range a.trs {
		sum += x
	}

	a.atr = optional.Some(sum / p)
	a.trs = nil
	a.emit(a.atr)
}

// BollingerBands exposes the middle SMA and the bands k population deviations away.
type BollingerBands struct {
	*node
	input  Series
	period int
	k      float64
	sync   tickSync
	window *RingBuffer[float64]
	upper  *node
	lower  *node
}

// BollingerBands returns the bands of input. The node's own value is the middle band.
func (f *Factory) BollingerBands(input Series, period int, k float64, opts ...Option) *BollingerBands {
	return memo(f, "BollingerBands", []Series{input}, Args{"period": period, "k": k}, opts, func(key string, size int) *BollingerBands {
		b := &BollingerBands{
			node:   newNode(key, size),
			input:  input,
			period: period,
			k:      k,
			sync:   tickSync{inputs: []Series{input}},
			window: NewRingBuffer[float64](period),
			upper:  newNode(key+".upper", size),
			lower:  newNode(key+".lower", size),
		}
		input.subscribe(b)

		return b
	})
}

// Middle returns the middle band.
func (b *BollingerBands) Middle() Series { return b.node }

// Upper returns the upper band.
func (b *BollingerBands) Upper() Series { return b.upper }

// Lower returns the lower band.
func (b *BollingerBands) Lower() Series { return b.lower }

func (b *BollingerBands) onUpdate() {
	if !b.sync.ready() {
		return
	}

	none := optional.None[float64]()

	v := b.input.Value()
	if v.IsSome() {
		b.window.Push(v.Unwrap())
	}

	if v.IsNone() || b.window.Len() < b.period {
		b.upper.emit(none)
		b.lower.emit(none)
		b.emit(none)

		return
	}

	values := b.window.Values()

	mean := 0.0
	for _, x := range values {
		mean += x
	}

	mean /= float64(len(values))

	variance := 0.0
	for _, x := range values {
		variance += (x - mean) * (x - mean)
	}

	sd := math.Sqrt(variance / float64(len(values)))

	b.upper.emit(optional.Some(mean + b.k*sd))
	b.lower.emit(optional.Some(mean - b.k*sd))
	b.emit(optional.Some(mean))
}
