package types

import (
	"time"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Candle is one OHLCV bar of an asset. Timestamp is the UTC open time of the bar,
// aligned to the asset's time unit.
type Candle struct {
	Asset     Asset     `yaml:"asset" json:"asset"`
	Open      float64   `yaml:"open" json:"open" csv:"open"`
	High      float64   `yaml:"high" json:"high" csv:"high"`
	Low       float64   `yaml:"low" json:"low" csv:"low"`
	Close     float64   `yaml:"close" json:"close" csv:"close"`
	Volume    float64   `yaml:"volume" json:"volume" csv:"volume"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
}

// Validate checks low <= open,close <= high and a non-negative volume.
func (c Candle) Validate() error {
	if c.Low > c.High {
		return errors.Newf(errors.ErrCodeInvalidCandle, "%s candle at %s has low %v above high %v", c.Asset, c.Timestamp, c.Low, c.High)
	}

	for _, price := range []float64{c.Open, c.Close} {
		if price < c.Low || price > c.High {
			return errors.Newf(errors.ErrCodeInvalidCandle, "%s candle at %s has price %v outside [%v, %v]", c.Asset, c.Timestamp, price, c.Low, c.High)
		}
	}

	if c.Volume < 0 {
		return errors.Newf(errors.ErrCodeInvalidCandle, "%s candle at %s has negative volume", c.Asset, c.Timestamp)
	}

	return nil
}

// FilledFrom returns the forward-filled bar that follows prev at ts.
// OHLC collapses to the previous close and volume is zero.
func FilledFrom(prev Candle, ts time.Time) Candle {
	return Candle{
		Asset:     prev.Asset,
		Open:      prev.Close,
		High:      prev.Close,
		Low:       prev.Close,
		Close:     prev.Close,
		Volume:    0,
		Timestamp: ts,
	}
}

// BodyHigh returns max(open, close).
func (c Candle) BodyHigh() float64 {
	return max(c.Open, c.Close)
}

// BodyLow returns min(open, close).
func (c Candle) BodyLow() float64 {
	return min(c.Open, c.Close)
}
