package feed

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/clock"
	"github.com/rxtech-lab/argo-quant/internal/event"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// Feed produces candles into the engine's event queue.
type Feed interface {
	// UpdateLatestData appends the candles of the next logical interval to q in
	// non-decreasing timestamp order.
	UpdateLatestData(ctx context.Context, q *event.Queue) error
	// Exhausted reports whether the feed will never produce another candle.
	Exhausted() bool
	// Assets returns the assets the feed produces, in configuration order.
	Assets() []types.Asset
}

// SessionMarker is implemented by feeds that can tell the last candle of an
// asset's session from the data itself.
type SessionMarker interface {
	SessionEnd(c types.Candle) bool
}

// Loader reads a finished candle range of one asset. A zero start or end is unbounded.
type Loader interface {
	Load(ctx context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error)
}

// CandleFetcher fetches candles of one asset from a remote source.
type CandleFetcher interface {
	FetchOHLCV(ctx context.Context, asset types.Asset, start, end time.Time) ([]types.Candle, error)
}

// Sink receives every candle a feed emits.
type Sink interface {
	WriteCandles(ctx context.Context, candles []types.Candle) error
}

// forwardFill returns the bars missing between prev and next, each a copy of prev's
// close. Bars are only filled while they stay in prev's session.
func forwardFill(prev, next types.Candle, session clock.Session) []types.Candle {
	unit := prev.Asset.TimeUnit
	if unit <= 0 {
		return nil
	}

	var filled []types.Candle

	for ts := prev.Timestamp.Add(unit); ts.Before(next.Timestamp); ts = ts.Add(unit) {
		if !session.SameSession(prev.Timestamp, ts) {
			break
		}

		filled = append(filled, types.FilledFrom(prev, ts))
	}

	return filled
}
