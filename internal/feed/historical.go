package feed

import (
	"context"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/clock"
	"github.com/rxtech-lab/argo-quant/internal/event"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"
)

// HistoricalFeed pre-loads the whole [start, end] range of every asset at construction
// and emits one timestamp per UpdateLatestData call.
type HistoricalFeed struct {
	assets  []types.Asset
	series  map[types.Asset][]types.Candle
	cursors map[types.Asset]int
	sink    Sink
	session clock.Session
	logger  *logger.Logger
	filled  int
}

var _ SessionMarker = (*HistoricalFeed)(nil)

type HistoricalOption func(*HistoricalFeed)

// WithSink writes every emitted candle to sink.
func WithSink(sink Sink) HistoricalOption {
	return func(f *HistoricalFeed) {
		f.sink = sink
	}
}

// NewHistoricalFeed loads every asset through loader and forward-fills gaps inside a session.
func NewHistoricalFeed(
	ctx context.Context,
	loader Loader,
	assets []types.Asset,
	start, end time.Time,
	session clock.Session,
	log *logger.Logger,
	opts ...HistoricalOption,
) (*HistoricalFeed, error) {
	if len(assets) == 0 {
		return nil, errors.New(errors.ErrCodeEngineNoAssets, "historical feed needs at least one asset")
	}

	f := &HistoricalFeed{
		assets:  append([]types.Asset(nil), assets...),
		series:  make(map[types.Asset][]types.Candle, len(assets)),
		cursors: make(map[types.Asset]int, len(assets)),
		session: session,
		logger:  log.Named("historical_feed"),
	}

	for _, opt := range opts {
		opt(f)
	}

	for _, asset := range assets {
		candles, err := loader.Load(ctx, asset, start, end)
		if err != nil {
			return nil, err
		}

		series, err := f.prepare(asset, candles, session)
		if err != nil {
			return nil, err
		}

		f.series[asset] = series
		f.logger.Info("Loaded candles",
			zap.String("asset", asset.String()),
			zap.Int("count", len(series)),
		)
	}

	return f, nil
}

func (f *HistoricalFeed) prepare(asset types.Asset, candles []types.Candle, session clock.Session) ([]types.Candle, error) {
	series := make([]types.Candle, 0, len(candles))

	for i, c := range candles {
		c.Asset = asset
		c.Timestamp = c.Timestamp.UTC()

		if err := c.Validate(); err != nil {
			return nil, err
		}

		if i > 0 {
			prev := series[len(series)-1]
			if !c.Timestamp.After(prev.Timestamp) {
				return nil, errors.Newf(errors.ErrCodeOutOfOrderCandle,
					"%s candle at %s is not after %s", asset, c.Timestamp, prev.Timestamp)
			}

			gap := forwardFill(prev, c, session)
			f.filled += len(gap)
			series = append(series, gap...)
		}

		series = append(series, c)
	}

	return series, nil
}

// UpdateLatestData implements Feed.
func (f *HistoricalFeed) UpdateLatestData(ctx context.Context, q *event.Queue) error {
	next, ok := f.nextTimestamp()
	if !ok {
		return nil
	}

	var batch []types.Candle

	for _, asset := range f.assets {
		i := f.cursors[asset]
		series := f.series[asset]

		if i < len(series) && series[i].Timestamp.Equal(next) {
			batch = append(batch, series[i])
			f.cursors[asset] = i + 1
		}
	}

	for _, c := range batch {
		q.Append(event.MarketEvent{Candle: c})
	}

	if f.sink != nil {
		if err := f.sink.WriteCandles(ctx, batch); err != nil {
			f.logger.Warn("Failed to store candles", zap.Time("timestamp", next), zap.Error(err))
		}
	}

	return nil
}

func (f *HistoricalFeed) nextTimestamp() (time.Time, bool) {
	var (
		next  time.Time
		found bool
	)

	for _, asset := range f.assets {
		i := f.cursors[asset]
		series := f.series[asset]

		if i >= len(series) {
			continue
		}

		if !found || series[i].Timestamp.Before(next) {
			next = series[i].Timestamp
			found = true
		}
	}

	return next, found
}

// Exhausted implements Feed.
func (f *HistoricalFeed) Exhausted() bool {
	_, ok := f.nextTimestamp()

	return !ok
}

// Assets implements Feed.
func (f *HistoricalFeed) Assets() []types.Asset {
	return append([]types.Asset(nil), f.assets...)
}

// History returns the full pre-loaded series of asset, forward-filled.
func (f *HistoricalFeed) History(asset types.Asset) []types.Candle {
	return f.series[asset]
}

// SessionEnd reports whether c is the last candle of its asset in its session: the
// asset's next candle belongs to a later session, or there is none.
func (f *HistoricalFeed) SessionEnd(c types.Candle) bool {
	series := f.series[c.Asset]
	i := sort.Search(len(series), func(i int) bool {
		return !series[i].Timestamp.Before(c.Timestamp)
	})

	if i >= len(series) || !series[i].Timestamp.Equal(c.Timestamp) {
		return false
	}

	if i == len(series)-1 {
		return true
	}

	return !f.session.SameSession(series[i].Timestamp, series[i+1].Timestamp)
}

// Len returns the number of distinct timestamps the feed will emit in total.
func (f *HistoricalFeed) Len() int {
	seen := make(map[time.Time]struct{})

	for _, series := range f.series {
		for _, c := range series {
			seen[c.Timestamp] = struct{}{}
		}
	}

	return len(seen)
}

// Filled returns how many bars were synthesised by forward fill.
func (f *HistoricalFeed) Filled() int {
	return f.filled
}
