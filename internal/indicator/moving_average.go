package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/thrasher-corp/gct-ta/indicators"
)

// SMA is the arithmetic mean of the last period inputs. None until period inputs arrived.
type SMA struct {
	*node
	input  Series
	period int
	sync   tickSync
	window *RingBuffer[float64]
}

// SMA returns the simple moving average of input.
func (f *Factory) SMA(input Series, period int, opts ...Option) Series {
	return memo(f, "SMA", []Series{input}, Args{"period": period}, opts, func(key string, size int) Series {
		if batch, ok := f.batch(key, size, input, period-1, func(closes []float64) []float64 {
			return indicators.SMA(closes, period)
		}); ok {
			return batch
		}

		s := &SMA{
			node:   newNode(key, size),
			input:  input,
			period: period,
			sync:   tickSync{inputs: []Series{input}},
			window: NewRingBuffer[float64](period),
		}
		input.subscribe(s)

		return s
	})
}

func (s *SMA) onUpdate() {
	if !s.sync.ready() {
		return
	}

	v := s.input.Value()
	if v.IsNone() {
		s.emit(optional.None[float64]())

		return
	}

	s.window.Push(v.Unwrap())
	if s.window.Len() < s.period {
		s.emit(optional.None[float64]())

		return
	}

	sum := 0.0
	for _, x := range s.window.Values() {
		sum += x
	}

	s.emit(optional.Some(sum / float64(s.period)))
}

// EMA is seeded with the SMA of the first period inputs, then smoothed with 2/(period+1).
type EMA struct {
	*node
	input  Series
	period int
	alpha  float64
	sync   tickSync
	seed   []float64
	last   optional.Option[float64]
}

// EMA returns the exponential moving average of input.
func (f *Factory) EMA(input Series, period int, opts ...Option) Series {
	return memo(f, "EMA", []Series{input}, Args{"period": period}, opts, func(key string, size int) Series {
		if batch, ok := f.batch(key, size, input, period-1, func(closes []float64) []float64 {
			return indicators.EMA(closes, period)
		}); ok {
			return batch
		}

		e := &EMA{
			node:   newNode(key, size),
			input:  input,
			period: period,
			alpha:  2 / float64(period+1),
			sync:   tickSync{inputs: []Series{input}},
			last:   optional.None[float64](),
		}
		input.subscribe(e)

		return e
	})
}

func (e *EMA) onUpdate() {
	if !e.sync.ready() {
		return
	}

	v := e.input.Value()
	if v.IsNone() {
		e.emit(optional.None[float64]())

		return
	}

	x := v.Unwrap()

	if e.last.IsSome() {
		e.last = optional.Some(e.alpha*x + (1-e.alpha)*e.last.Unwrap())
		e.emit(e.last)

		return
	}

	e.seed = append(e.seed, x)
	if len(e.seed) < e.period {
		e.emit(optional.None[float64]())

		return
	}

	sum := 0.0
	for _, s := range e.seed {
		sum += s
	}

	e.last = optional.Some(sum / float64(e.period))
	e.seed = nil
	e.emit(e.last)
}

// batchNode replays values computed up front over the asset history.
type batchNode struct {
	*node
	input  Series
	values []optional.Option[float64]
	sync   tickSync
}

func (b *batchNode) onUpdate() {
	if !b.sync.ready() {
		return
	}

	idx := b.input.Count() - 1
	if idx < 0 || idx >= len(b.values) {
		b.emit(optional.None[float64]())

		return
	}

	b.emit(b.values[idx])
}

// batch builds a batchNode when the factory is in batch mode and input is the close
// series of an asset with pre-loaded history. Outputs before index warmup are None.
// Results are aligned to the end of the history.
func (f *Factory) batch(key string, size int, input Series, warmup int, compute func([]float64) []float64) (Series, bool) {
	if f.mode != ModeBatch || f.history == nil {
		return nil, false
	}

	for asset, src := range f.sources {
		if src.close.Key() != input.Key() {
			continue
		}

		candles := f.history.History(asset)
		if len(candles) == 0 {
			return nil, false
		}

		closes := make([]float64, len(candles))
		for i, c := range candles {
			closes[i] = c.Close
		}

		raw := compute(closes)
		offset := len(closes) - len(raw)

		values := make([]optional.Option[float64], len(closes))
		for i := range values {
			j := i - offset
			if i < warmup || j < 0 || j >= len(raw) {
				values[i] = optional.None[float64]()

				continue
			}

			values[i] = optional.Some(raw[j])
		}

		b := &batchNode{
			node:   newNode(key, size),
			input:  input,
			values: values,
			sync:   tickSync{inputs: []Series{input}},
		}
		input.subscribe(b)

		return b, true
	}

	return nil, false
}
