package marketcontext

import (
	"time"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
)

// Context holds per-asset pending candles, the last promoted candle of each asset
// and the logical timestamp shared by strategies, indicators and brokers.
type Context struct {
	assets      []types.Asset
	known       map[types.Asset]bool
	buffers     map[types.Asset][]types.Candle
	lastCandles map[types.Asset]types.Candle

	current    time.Time
	hasCurrent bool
	// promoted is the timestamp of the last Update that promoted anything.
	promoted    time.Time
	hasPromoted bool
}

// NewContext creates a context; assets fixes the promotion order.
func NewContext(assets ...types.Asset) *Context {
	c := &Context{
		known:       make(map[types.Asset]bool),
		buffers:     make(map[types.Asset][]types.Candle),
		lastCandles: make(map[types.Asset]types.Candle),
	}

	for _, asset := range assets {
		c.register(asset)
	}

	return c
}

func (c *Context) register(asset types.Asset) {
	if c.known[asset] {
		return
	}

	c.known[asset] = true
	c.assets = append(c.assets, asset)
}

// Assets returns the registered assets in registration order.
func (c *Context) Assets() []types.Asset {
	return append([]types.Asset(nil), c.assets...)
}

// AddCandle buffers a candle. Candles at or before the last promoted timestamp, or not
// after the tail of their asset's buffer, are rejected.
func (c *Context) AddCandle(candle types.Candle) error {
	asset := candle.Asset
	ts := candle.Timestamp

	if c.hasPromoted && !ts.After(c.promoted) {
		return errors.Newf(errors.ErrCodeOutOfOrderCandle, "%s candle at %s is not after promoted time %s", asset, ts, c.promoted)
	}

	buf := c.buffers[asset]
	if n := len(buf); n > 0 && !ts.After(buf[n-1].Timestamp) {
		return errors.Newf(errors.ErrCodeOutOfOrderCandle, "%s candle at %s is not after buffered %s", asset, ts, buf[n-1].Timestamp)
	}

	c.register(asset)
	c.buffers[asset] = append(buf, candle)

	if !c.hasCurrent || ts.Before(c.current) {
		c.current = ts
		c.hasCurrent = true
	}

	return nil
}

// Update promotes every buffered head whose timestamp equals the current timestamp
// and advances the current timestamp to the earliest remaining head. Promoted candles
// are returned in asset registration order. Assets whose buffer drains keep their
// last candle and simply contribute nothing on later ticks.
func (c *Context) Update() []types.Candle {
	if !c.hasCurrent {
		return nil
	}

	var promoted []types.Candle

	for _, asset := range c.assets {
		buf := c.buffers[asset]
		if len(buf) == 0 || !buf[0].Timestamp.Equal(c.current) {
			continue
		}

		c.lastCandles[asset] = buf[0]
		c.buffers[asset] = buf[1:]
		promoted = append(promoted, buf[0])
	}

	if len(promoted) > 0 {
		c.promoted = c.current
		c.hasPromoted = true
	}

	c.hasCurrent = false
	for _, asset := range c.assets {
		buf := c.buffers[asset]
		if len(buf) == 0 {
			continue
		}

		if !c.hasCurrent || buf[0].Timestamp.Before(c.current) {
			c.current = buf[0].Timestamp
			c.hasCurrent = true
		}
	}

	return promoted
}

// CurrentTimestamp returns the timestamp of the most recent promotion.
func (c *Context) CurrentTimestamp() time.Time {
	return c.promoted
}

// NextTimestamp returns the earliest buffered timestamp. ok is false when every buffer is empty.
func (c *Context) NextTimestamp() (time.Time, bool) {
	return c.current, c.hasCurrent
}

// Pending returns the number of buffered candles across assets.
func (c *Context) Pending() int {
	n := 0
	for _, buf := range c.buffers {
		n += len(buf)
	}

	return n
}

// LastCandle returns the last promoted candle of an asset.
func (c *Context) LastCandle(asset types.Asset) (types.Candle, bool) {
	candle, ok := c.lastCandles[asset]

	return candle, ok
}

// LastCandles returns a copy of the last promoted candle per asset.
func (c *Context) LastCandles() map[types.Asset]types.Candle {
	out := make(map[types.Asset]types.Candle, len(c.lastCandles))
	for asset, candle := range c.lastCandles {
		out[asset] = candle
	}

	return out
}

// Marks returns the last close of each asset for mark-to-market.
func (c *Context) Marks() map[types.Asset]decimal.Decimal {
	out := make(map[types.Asset]decimal.Decimal, len(c.lastCandles))
	for asset, candle := range c.lastCandles {
		out[asset] = decimal.NewFromFloat(candle.Close)
	}

	return out
}
