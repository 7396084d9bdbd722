package feed

import (
	"context"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/clock"
	"github.com/rxtech-lab/argo-quant/internal/event"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/retry"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"go.uber.org/zap"
)

// DefaultUpdatePeriod is the polling interval of a live feed.
const DefaultUpdatePeriod = 10 * time.Second

type LiveFeedConfig struct {
	UpdatePeriod time.Duration `yaml:"update_period" json:"update_period"`
	// Lookback is how far back the first poll reaches.
	Lookback time.Duration `yaml:"lookback" json:"lookback"`
	Retry    retry.Policy  `yaml:"retry" json:"retry"`
	Session  clock.Session `yaml:"-" json:"-"`
}

// DefaultLiveFeedConfig polls every 10s and starts one bar back.
func DefaultLiveFeedConfig() LiveFeedConfig {
	return LiveFeedConfig{
		UpdatePeriod: DefaultUpdatePeriod,
		Retry:        retry.DefaultPolicy(),
		Session:      clock.DefaultSession(),
	}
}

// LiveFeed polls a CandleFetcher and emits closed candles newer than the last one emitted.
type LiveFeed struct {
	fetcher CandleFetcher
	assets  []types.Asset
	config  LiveFeedConfig
	last    map[types.Asset]types.Candle
	sink    Sink
	logger  *logger.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	polled  bool
}

type LiveOption func(*LiveFeed)

// WithLiveSink writes every emitted candle to sink.
func WithLiveSink(sink Sink) LiveOption {
	return func(f *LiveFeed) {
		f.sink = sink
	}
}

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) LiveOption {
	return func(f *LiveFeed) {
		f.now = now
	}
}

// WithSleep replaces the wait between polls.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) LiveOption {
	return func(f *LiveFeed) {
		f.sleep = sleep
	}
}

func NewLiveFeed(fetcher CandleFetcher, assets []types.Asset, config LiveFeedConfig, log *logger.Logger, opts ...LiveOption) *LiveFeed {
	if config.UpdatePeriod <= 0 {
		config.UpdatePeriod = DefaultUpdatePeriod
	}

	if config.Session.Location == nil {
		config.Session = clock.DefaultSession()
	}

	f := &LiveFeed{
		fetcher: fetcher,
		assets:  append([]types.Asset(nil), assets...),
		config:  config,
		last:    make(map[types.Asset]types.Candle, len(assets)),
		logger:  log.Named("live_feed"),
		now:     func() time.Time { return time.Now().UTC() },
		sleep:   sleepContext,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// UpdateLatestData implements Feed. Every call after the first waits one UpdatePeriod.
func (f *LiveFeed) UpdateLatestData(ctx context.Context, q *event.Queue) error {
	if f.polled {
		if err := f.sleep(ctx, f.config.UpdatePeriod); err != nil {
			return err
		}
	}

	f.polled = true
	now := f.now()

	var emitted []types.Candle

	for _, asset := range f.assets {
		candles, err := f.poll(ctx, asset, now)
		if err != nil {
			return err
		}

		emitted = append(emitted, candles...)
	}

	// assets may be polled out of step, so order the whole batch
	sort.SliceStable(emitted, func(i, j int) bool {
		return emitted[i].Timestamp.Before(emitted[j].Timestamp)
	})

	for _, c := range emitted {
		q.Append(event.MarketEvent{Candle: c})
	}

	if f.sink != nil && len(emitted) > 0 {
		if err := f.sink.WriteCandles(ctx, emitted); err != nil {
			f.logger.Warn("Failed to store candles", zap.Error(err))
		}
	}

	return nil
}

func (f *LiveFeed) poll(ctx context.Context, asset types.Asset, now time.Time) ([]types.Candle, error) {
	unit := asset.TimeUnit
	last, seen := f.last[asset]

	start := now.Add(-f.config.Lookback).Add(-unit).Truncate(unit)
	if seen {
		start = last.Timestamp.Add(unit)
	}

	fetched, err := retry.Do(ctx, f.config.Retry, func(ctx context.Context) ([]types.Candle, error) {
		return f.fetcher.FetchOHLCV(ctx, asset, start, now)
	}, func(err error, wait time.Duration) {
		f.logger.Warn("Fetch failed, retrying",
			zap.String("asset", asset.String()),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(fetched, func(i, j int) bool {
		return fetched[i].Timestamp.Before(fetched[j].Timestamp)
	})

	var out []types.Candle

	for _, c := range fetched {
		c.Asset = asset
		c.Timestamp = c.Timestamp.UTC()

		// the bar still forming is skipped
		if c.Timestamp.Add(unit).After(now) {
			continue
		}

		if seen && !c.Timestamp.After(last.Timestamp) {
			continue
		}

		if seen {
			out = append(out, forwardFill(last, c, f.config.Session)...)
		}

		out = append(out, c)
		last, seen = c, true
	}

	if seen {
		f.last[asset] = last
	}

	return out, nil
}

// Exhausted implements Feed. A live feed never runs out.
func (f *LiveFeed) Exhausted() bool {
	return false
}

// Assets implements Feed.
func (f *LiveFeed) Assets() []types.Asset {
	return append([]types.Asset(nil), f.assets...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
