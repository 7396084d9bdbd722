package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/thrasher-corp/gct-ta/indicators"
)

// RSI is Wilder's relative strength index. The first value needs period changes,
// i.e. period+1 inputs.
type RSI struct {
	*node
	input   Series
	period  int
	sync    tickSync
	prev    optional.Option[float64]
	gains   []float64
	losses  []float64
	avgGain float64
	avgLoss float64
	warm    bool
}

// RSI returns the relative strength index of input.
func (f *Factory) RSI(input Series, period int, opts ...Option) Series {
	return memo(f, "RSI", []Series{input}, Args{"period": period}, opts, func(key string, size int) Series {
		if batch, ok := f.batch(key, size, input, period, func(closes []float64) []float64 {
			return indicators.RSI(closes, period)
		}); ok {
			return batch
		}

		r := &RSI{
			node:   newNode(key, size),
			input:  input,
			period: period,
			sync:   tickSync{inputs: []Series{input}},
			prev:   optional.None[float64](),
		}
		input.subscribe(r)

		return r
	})
}

func (r *RSI) onUpdate() {
	if !r.sync.ready() {
		return
	}

	v := r.input.Value()
	if v.IsNone() {
		r.emit(optional.None[float64]())

		return
	}

	x := v.Unwrap()
	prev := r.prev
	r.prev = optional.Some(x)

	if prev.IsNone() {
		r.emit(optional.None[float64]())

		return
	}

	change := x - prev.Unwrap()
	gain, loss := math.Max(change, 0), math.Max(-change, 0)
	p := float64(r.period)

	if r.warm {
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
		r.emit(optional.Some(rsiFrom(r.avgGain, r.avgLoss)))

		return
	}

	r.gains = append(r.gains, gain)
	r.losses = append(r.losses, loss)

	if len(r.gains) < r.period {
		r.emit(optional.None[float64]())

		return
	}

	for i := range r.gains {
		r.avgGain += r.gains[i]
		r.avgLoss += r.losses[i]
	}

	r.avgGain /= p
	r.avgLoss /= p
	r.warm = true
	r.gains, r.losses = nil, nil
	r.emit(optional.Some(rsiFrom(r.avgGain, r.avgLoss)))
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}

		return 100
	}

	return 100 - 100/(1+avgGain/avgLoss)
}

// binary combines two series tick by tick. None if either side is None.
type binary struct {
	*node
	a, b Series
	fn   func(a, b float64) float64
	sync tickSync
}

func (f *Factory) binary(class string, a, b Series, fn func(a, b float64) float64, opts []Option) Series {
	return memo(f, class, []Series{a, b}, nil, opts, func(key string, size int) Series {
		n := &binary{node: newNode(key, size), a: a, b: b, fn: fn, sync: tickSync{inputs: []Series{a, b}}}
		a.subscribe(n)
		b.subscribe(n)

		return n
	})
}

func (n *binary) onUpdate() {
	if !n.sync.ready() {
		return
	}

	a, b := n.a.Value(), n.b.Value()
	if a.IsNone() || b.IsNone() {
		n.emit(optional.None[float64]())

		return
	}

	n.emit(optional.Some(n.fn(a.Unwrap(), b.Unwrap())))
}

// Diff returns a - b.
func (f *Factory) Diff(a, b Series, opts ...Option) Series {
	return f.binary("Diff", a, b, func(x, y float64) float64 { return x - y }, opts)
}

// Crossover emits +1 when a crosses above b, -1 when it crosses below and 0 otherwise.
// None until both series have two values.
type Crossover struct {
	*node
	a, b Series
	sync tickSync
}

// Crossover returns the crossover of a over b.
func (f *Factory) Crossover(a, b Series, opts ...Option) Series {
	return memo(f, "Crossover", []Series{a, b}, nil, opts, func(key string, size int) Series {
		c := &Crossover{node: newNode(key, size), a: a, b: b, sync: tickSync{inputs: []Series{a, b}}}
		a.subscribe(c)
		b.subscribe(c)

		return c
	})
}

func (c *Crossover) onUpdate() {
	if !c.sync.ready() {
		return
	}

	a0, b0, a1, b1 := c.a.At(0), c.b.At(0), c.a.At(1), c.b.At(1)
	if a0.IsNone() || b0.IsNone() || a1.IsNone() || b1.IsNone() {
		c.emit(optional.None[float64]())

		return
	}

	prev := a1.Unwrap() - b1.Unwrap()
	now := a0.Unwrap() - b0.Unwrap()

	switch {
	case prev <= 0 && now > 0:
		c.emit(optional.Some(1.0))
	case prev >= 0 && now < 0:
		c.emit(optional.Some(-1.0))
	default:
		c.emit(optional.Some(0.0))
	}
}

// MACD groups the MACD line, its signal line and the histogram.
type MACD struct {
	Line      Series
	Signal    Series
	Histogram Series
}

// MACD builds EMA(fast) - EMA(slow), its EMA(signal) and their difference.
// The component EMAs are shared with any other request for the same shape.
func (f *Factory) MACD(input Series, fast, slow, signal int, opts ...Option) *MACD {
	line := f.Diff(f.EMA(input, fast, opts...), f.EMA(input, slow, opts...), opts...)
	sig := f.EMA(line, signal, opts...)

	return &MACD{Line: line, Signal: sig, Histogram: f.Diff(line, sig, opts...)}
}
