package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// Series is a node of the indicator graph. Values are None until the node is warm.
type Series interface {
	// Key is the structural identity of the node.
	Key() string
	// Value returns the latest output.
	Value() optional.Option[float64]
	// At returns the output k ticks ago.
	At(k int) optional.Option[float64]
	// Size is the history window of the node.
	Size() int
	// Count is the number of outputs produced so far.
	Count() int

	subscribe(o observer)
}

// observer is notified after an upstream node produced a new output.
type observer interface {
	onUpdate()
}

// node is the shared output buffer and fan-out of every Series.
type node struct {
	key       string
	buf       *RingBuffer[optional.Option[float64]]
	count     int
	observers []observer
}

func newNode(key string, size int) *node {
	return &node{key: key, buf: NewRingBuffer[optional.Option[float64]](size)}
}

func (n *node) Key() string { return n.key }

func (n *node) Size() int { return n.buf.Cap() }

func (n *node) Count() int { return n.count }

func (n *node) Value() optional.Option[float64] {
	return n.At(0)
}

func (n *node) At(k int) optional.Option[float64] {
	v, ok := n.buf.Get(k)
	if !ok {
		return optional.None[float64]()
	}

	return v
}

func (n *node) subscribe(o observer) {
	n.observers = append(n.observers, o)
}

// emit stores an output and cascades to downstream nodes.
func (n *node) emit(v optional.Option[float64]) {
	n.buf.Push(v)
	n.count++

	for _, o := range n.observers {
		o.onUpdate()
	}
}

// tickSync tracks how many ticks a node with several inputs has consumed. A node computes
// once every input has produced the tick, so diamonds in the graph compute once.
type tickSync struct {
	inputs   []Series
	consumed int
}

func (s *tickSync) ready() bool {
	m := -1
	for _, in := range s.inputs {
		if m < 0 || in.Count() < m {
			m = in.Count()
		}
	}

	if m <= s.consumed {
		return false
	}

	s.consumed = m

	return true
}

// Source is a node fed directly by Push.
type Source struct {
	*node
}

// NewSource creates a standalone source node.
func NewSource(key string, size int) *Source {
	return &Source{node: newNode(key, size)}
}

// Push appends a raw value and recomputes downstream nodes.
func (s *Source) Push(v float64) {
	s.emit(optional.Some(v))
}

// CandleSource is the root of an asset's graph. Its own value is the close.
type CandleSource struct {
	*node
	asset   types.Asset
	candles *RingBuffer[types.Candle]
	open    *Source
	high    *Source
	low     *Source
	close   *Source
	volume  *Source
}

func newCandleSource(asset types.Asset, size int) *CandleSource {
	key := "candles|" + asset.Key()

	return &CandleSource{
		node:    newNode(key, size),
		asset:   asset,
		candles: NewRingBuffer[types.Candle](size),
		open:    NewSource(key+".open", size),
		high:    NewSource(key+".high", size),
		low:     NewSource(key+".low", size),
		close:   NewSource(key+".close", size),
		volume:  NewSource(key+".volume", size),
	}
}

// PushCandle feeds one promoted candle into the asset's graph.
func (c *CandleSource) PushCandle(candle types.Candle) {
	c.candles.Push(candle)
	c.open.Push(candle.Open)
	c.high.Push(candle.High)
	c.low.Push(candle.Low)
	c.close.Push(candle.Close)
	c.volume.Push(candle.Volume)
	c.emit(optional.Some(candle.Close))
}

// Candle returns the candle pushed k ticks ago.
func (c *CandleSource) Candle(k int) (types.Candle, bool) {
	return c.candles.Get(k)
}

func (c *CandleSource) Asset() types.Asset { return c.asset }

func (c *CandleSource) Open() Series { return c.open }

func (c *CandleSource) High() Series { return c.high }

func (c *CandleSource) Low() Series { return c.low }

func (c *CandleSource) Close() Series { return c.close }

func (c *CandleSource) Volume() Series { return c.volume }
