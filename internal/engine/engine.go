package engine

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/broker"
	"github.com/rxtech-lab/argo-quant/internal/clock"
	"github.com/rxtech-lab/argo-quant/internal/event"
	"github.com/rxtech-lab/argo-quant/internal/feed"
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/marketcontext"
	"github.com/rxtech-lab/argo-quant/internal/metrics"
	"github.com/rxtech-lab/argo-quant/internal/ordermanager"
	"github.com/rxtech-lab/argo-quant/internal/statistics"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Components are the collaborators of one run. The engine owns them for the run's lifetime.
type Components struct {
	Feed       feed.Feed
	Context    *marketcontext.Context
	Indicators *indicator.Factory
	// Strategies run in this order on every tick.
	Strategies []strategy.Strategy
	Brokers    *broker.Manager
	Orders     *ordermanager.OrderManager
	Clock      clock.Clock
	Statistics statistics.Statistics
	// Metrics is optional.
	Metrics         *metrics.Metrics
	CloseAtEndOfDay bool
	// Closers are released by Close after the brokers.
	Closers []io.Closer
}

// TickReport describes one iteration of the loop.
type TickReport struct {
	Timestamp    time.Time
	Candles      []types.Candle
	Orders       []types.Order
	Transactions []types.Transaction
	Cash         decimal.Decimal
	Equity       decimal.Decimal
	Errors       []error
}

// OnTickCallback is called after every tick. Returning an error stops the run.
type OnTickCallback func(report TickReport) error

type Option func(*Engine)

func WithOnTick(callback OnTickCallback) Option {
	return func(e *Engine) {
		e.onTick = callback
	}
}

// Result is what a run produced, returned even when every tick failed.
type Result struct {
	FinalCash    decimal.Decimal
	FinalEquity  decimal.Decimal
	Report       types.MetricsReport
	EquityCurve  []types.EquityPoint
	Transactions []types.Transaction
}

type boundStrategy struct {
	strategy.Strategy
	assets map[types.Asset]struct{}
}

// Engine drives feed, context, indicators, strategies, order manager and brokers in one loop.
type Engine struct {
	feed            feed.Feed
	queue           *event.Queue
	context         *marketcontext.Context
	indicators      *indicator.Factory
	strategies      []boundStrategy
	listeners       map[string]strategy.OrderListener
	brokers         *broker.Manager
	orders          *ordermanager.OrderManager
	clock           clock.Clock
	stats           statistics.Statistics
	metrics         *metrics.Metrics
	closeAtEndOfDay bool
	closers         []io.Closer
	onTick          OnTickCallback
	logger          *logger.Logger
}

func New(c Components, log *logger.Logger, opts ...Option) (*Engine, error) {
	switch {
	case c.Feed == nil:
		return nil, errors.New(errors.ErrCodeEngineNoFeed, "engine needs a feed")
	case c.Brokers == nil || len(c.Brokers.All()) == 0:
		return nil, errors.New(errors.ErrCodeEngineInitFailed, "engine needs at least one broker")
	case c.Orders == nil || c.Statistics == nil:
		return nil, errors.New(errors.ErrCodeEngineInitFailed, "engine needs an order manager and statistics")
	case len(c.Feed.Assets()) == 0:
		return nil, errors.New(errors.ErrCodeEngineNoAssets, "feed has no assets")
	}

	if c.Context == nil {
		c.Context = marketcontext.NewContext(c.Feed.Assets()...)
	}

	if c.Indicators == nil {
		c.Indicators = indicator.NewFactory()
	}

	if c.Clock == nil {
		c.Clock = clock.NewWallClock(clock.DefaultSession())
	}

	e := &Engine{
		feed:            c.Feed,
		queue:           event.NewQueue(),
		context:         c.Context,
		indicators:      c.Indicators,
		listeners:       make(map[string]strategy.OrderListener),
		brokers:         c.Brokers,
		orders:          c.Orders,
		clock:           c.Clock,
		stats:           c.Statistics,
		metrics:         c.Metrics,
		closeAtEndOfDay: c.CloseAtEndOfDay,
		closers:         c.Closers,
		logger:          log.Named("engine"),
	}

	for _, s := range c.Strategies {
		if _, dup := e.listeners[s.Name()]; dup {
			return nil, errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %s registered twice", s.Name())
		}

		bound := boundStrategy{Strategy: s, assets: make(map[types.Asset]struct{}, len(s.Assets()))}
		for _, a := range s.Assets() {
			bound.assets[a] = struct{}{}
		}

		e.strategies = append(e.strategies, bound)

		var listener strategy.OrderListener
		if l, ok := s.(strategy.OrderListener); ok {
			listener = l
		}

		e.listeners[s.Name()] = listener
	}

	for _, b := range c.Brokers.All() {
		b.AddListener(c.Statistics)

		if c.Metrics != nil {
			b.AddListener(c.Metrics)
		}
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Run loops until the feed is exhausted and the queue is empty, or until ctx is done.
// A cancelled context is a normal stop and returns a nil error.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	e.logger.Info("Engine started",
		zap.Int("assets", len(e.feed.Assets())),
		zap.Int("strategies", len(e.strategies)),
		zap.Int("brokers", len(e.brokers.All())),
	)

	var runErr error

	for ctx.Err() == nil {
		if e.queue.Len() == 0 {
			if e.feed.Exhausted() {
				break
			}

			if err := e.feed.UpdateLatestData(ctx, e.queue); err != nil {
				if ctx.Err() != nil {
					break
				}

				e.logger.Error("Feed update failed", zap.Error(err))
				e.stats.TickErrored()
			}

			continue
		}

		report := e.Step(ctx)
		if e.onTick != nil {
			if err := e.onTick(report); err != nil {
				runErr = err

				break
			}
		}
	}

	result := e.Result()
	e.logger.Info("Engine stopped",
		zap.String("final_equity", result.FinalEquity.String()),
		zap.Int("ticks", result.Report.Ticks),
		zap.Int("errored_ticks", result.Report.ErroredTicks),
	)

	return result, runErr
}

// Step processes the earliest timestamp batch of the queue.
func (e *Engine) Step(ctx context.Context) TickReport {
	var report TickReport

	for _, ev := range e.queue.PopBatch() {
		me, ok := ev.(event.MarketEvent)
		if !ok {
			continue
		}

		if err := e.context.AddCandle(me.Candle); err != nil {
			e.logger.Warn("Candle dropped", zap.String("asset", me.Candle.Asset.String()), zap.Error(err))
			report.Errors = append(report.Errors, err)
		}
	}

	promoted := e.context.Update()
	if len(promoted) == 0 {
		return report
	}

	report.Timestamp = promoted[0].Timestamp
	report.Candles = promoted

	e.clock.Advance(report.Timestamp)
	e.metrics.ObserveCandles(promoted)
	e.deliverRejections()

	for _, c := range promoted {
		e.indicators.OnCandle(c)
	}

	e.runStrategies(promoted, &report)
	e.drainSignals(ctx, &report)
	e.settle(ctx, promoted, &report)

	if e.closeAtEndOfDay {
		e.closeEndOfDay(ctx, promoted, &report)
	}

	e.snapshot(&report)

	return report
}

// deliverRejections hands the orders brokers rejected since the last tick back to their strategies.
func (e *Engine) deliverRejections() {
	for _, b := range e.brokers.All() {
		for _, order := range b.DrainRejections() {
			e.metrics.ObserveRejected(order)

			if listener := e.listeners[order.StrategyName]; listener != nil {
				listener.OnOrderRejected(order)
			}
		}
	}
}

func (e *Engine) runStrategies(promoted []types.Candle, report *TickReport) {
	for _, s := range e.strategies {
		bound := make([]types.Candle, 0, len(promoted))
		for _, c := range promoted {
			if _, ok := s.assets[c.Asset]; ok {
				bound = append(bound, c)
			}
		}

		if len(bound) == 0 {
			continue
		}

		if err := runStrategy(s.Strategy, bound); err != nil {
			// the tick is skipped for this strategy: whatever it queued is discarded
			dropped := len(s.Signals())
			e.logger.Error("Strategy failed",
				zap.String("strategy", s.Name()),
				zap.Time("timestamp", report.Timestamp),
				zap.Int("dropped_signals", dropped),
				zap.Error(err),
			)
			report.Errors = append(report.Errors, err)
		}
	}
}

func runStrategy(s strategy.Strategy, candles []types.Candle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrCodeStrategyException, "strategy %s panicked: %v", s.Name(), r)
		}
	}()

	switch impl := s.(type) {
	case strategy.MultiAssetStrategy:
		err = impl.CurrentAll(candles)
	case strategy.SingleAssetStrategy:
		for _, c := range candles {
			if err = impl.Current(c); err != nil {
				break
			}
		}
	default:
		return errors.Newf(errors.ErrCodeStrategyException, "strategy %s implements neither Current nor CurrentAll", s.Name())
	}

	if err != nil && !errors.HasCode(err, errors.ErrCodeStrategyException) {
		err = errors.Wrapf(errors.ErrCodeStrategyException, err, "strategy %s failed", s.Name())
	}

	return err
}

func (e *Engine) drainSignals(ctx context.Context, report *TickReport) {
	for _, s := range e.strategies {
		for _, emission := range s.Signals() {
			orders, err := e.orders.Process(ctx, emission)
			for _, o := range orders {
				e.metrics.ObserveOrder(o)
			}

			report.Orders = append(report.Orders, orders...)

			if err != nil {
				e.logger.Warn("Signal not executed", zap.String("strategy", s.Name()), zap.Error(err))
				report.Errors = append(report.Errors, err)
			}

			if listener, ok := s.Strategy.(strategy.EmissionListener); ok {
				if err := notifyEmission(listener, emission, orders); err != nil {
					e.logger.Error("Emission listener failed", zap.String("strategy", s.Name()), zap.Error(err))
					report.Errors = append(report.Errors, err)
				}
			}
		}
	}
}

func notifyEmission(listener strategy.EmissionListener, emission types.Emission, orders []types.Order) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrCodeStrategyException, "emission listener panicked: %v", r)
		}
	}()

	listener.OnEmissionProcessed(emission, orders)

	return nil
}

// byBroker splits candles by the broker of their exchange.
func (e *Engine) byBroker(candles []types.Candle) ([]broker.Broker, map[string][]types.Candle) {
	brokers := e.brokers.All()
	out := make(map[string][]types.Candle, len(brokers))

	for _, c := range candles {
		for _, b := range brokers {
			if strings.EqualFold(c.Asset.Exchange, b.Name()) {
				out[b.Name()] = append(out[b.Name()], c)

				break
			}
		}
	}

	return brokers, out
}

func (e *Engine) settle(ctx context.Context, promoted []types.Candle, report *TickReport) {
	brokers, candles := e.byBroker(promoted)

	for _, b := range brokers {
		txs, err := b.Settle(ctx, candles[b.Name()])
		report.Transactions = append(report.Transactions, txs...)

		if err != nil {
			e.logger.Error("Settlement failed", zap.String("broker", b.Name()), zap.Error(err))
			report.Errors = append(report.Errors, err)
		}
	}
}

func (e *Engine) closeEndOfDay(ctx context.Context, promoted []types.Candle, report *TickReport) {
	var last []types.Candle

	marker, lookahead := e.feed.(feed.SessionMarker)

	for _, c := range promoted {
		var end bool
		if lookahead {
			end = marker.SessionEnd(c)
		} else {
			end = e.clock.EndOfDay(c.Timestamp, c.Asset.TimeUnit)
		}

		if end {
			last = append(last, c)
		}
	}

	if len(last) == 0 {
		return
	}

	brokers, candles := e.byBroker(last)

	for _, b := range brokers {
		if len(candles[b.Name()]) == 0 {
			continue
		}

		txs, err := b.CloseAllAtEndOfDay(ctx, candles[b.Name()])
		report.Transactions = append(report.Transactions, txs...)

		if err != nil {
			e.logger.Error("End of day close failed", zap.String("broker", b.Name()), zap.Error(err))
			report.Errors = append(report.Errors, err)
		}
	}
}

func (e *Engine) snapshot(report *TickReport) {
	report.Cash, report.Equity = e.totals()

	e.stats.Snapshot(report.Timestamp, report.Cash, report.Equity)
	e.metrics.SetEquity(report.Equity)

	if len(report.Errors) > 0 {
		e.stats.TickErrored()
	}
}

func (e *Engine) totals() (decimal.Decimal, decimal.Decimal) {
	marks := e.context.Marks()
	cash := decimal.Zero
	equity := decimal.Zero

	for _, b := range e.brokers.All() {
		cash = cash.Add(b.Cash())
		equity = equity.Add(b.Equity(marks))
	}

	return cash, equity
}

func (e *Engine) Result() Result {
	cash, equity := e.totals()

	return Result{
		FinalCash:    cash,
		FinalEquity:  equity,
		Report:       e.stats.Report(),
		EquityCurve:  e.stats.EquityCurve(),
		Transactions: e.stats.Transactions(),
	}
}

func (e *Engine) Statistics() statistics.Statistics {
	return e.stats
}

func (e *Engine) Brokers() *broker.Manager {
	return e.brokers
}

func (e *Engine) Feed() feed.Feed {
	return e.feed
}

// Close closes the brokers, then every extra closer, and returns the first error.
func (e *Engine) Close(ctx context.Context) error {
	first := e.brokers.Close(ctx)

	for _, c := range e.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
