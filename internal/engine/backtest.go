package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/broker"
	"github.com/rxtech-lab/argo-quant/internal/clock"
	"github.com/rxtech-lab/argo-quant/internal/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/feed"
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/marketcontext"
	"github.com/rxtech-lab/argo-quant/internal/metrics"
	"github.com/rxtech-lab/argo-quant/internal/ordermanager"
	"github.com/rxtech-lab/argo-quant/internal/statistics"
	"github.com/rxtech-lab/argo-quant/internal/storage"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerFile is the ledger database written into the results folder.
const LedgerFile = "ledger.duckdb"

var zeroTime time.Time

// Dependencies overrides parts of the assembly, mostly for tests and embedding.
type Dependencies struct {
	// Registry defaults to strategy.NewDefaultRegistry.
	Registry *strategy.Registry
	// Loader replaces the configured CSV files or candle store.
	Loader   feed.Loader
	Notifier strategy.Notifier
	Metrics  *metrics.Metrics
}

// NewBacktest assembles a historical run: one simulated broker per exchange, each
// funded with InitialFunds.
func NewBacktest(ctx context.Context, config Config, log *logger.Logger, deps Dependencies, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	assets, err := config.ParseAssets()
	if err != nil {
		return nil, err
	}

	session, err := config.ParseSession()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid session", err)
	}

	if config.ResultsFolder != "" {
		if err := os.MkdirAll(config.ResultsFolder, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorageWriteFailed, "failed to create results folder", err)
		}
	}

	var closers []io.Closer

	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	loader := deps.Loader
	if loader == nil {
		loader, closers, err = configuredLoader(config, assets, log, closers)
		if err != nil {
			return nil, err
		}
	}

	var feedOpts []feed.HistoricalOption

	if config.SaveDBStorage != "" {
		sink, err := storage.NewCandleStore(config.SaveDBStorage, log)
		if err != nil {
			closeAll()

			return nil, err
		}

		closers = append(closers, sink)
		feedOpts = append(feedOpts, feed.WithSink(sink))
	}

	historical, err := feed.NewHistoricalFeed(ctx, loader, assets,
		config.Start.TakeOr(zeroTime), config.End.TakeOr(zeroTime), session, log, feedOpts...)
	if err != nil {
		closeAll()

		return nil, err
	}

	fee, err := commission_fee.GetFeeModel(config.FeeModel, config.FeePct)
	if err != nil {
		closeAll()

		return nil, err
	}

	brokers := broker.NewManager()
	funds := decimal.NewFromFloat(config.InitialFunds)

	for _, exchange := range exchanges(assets) {
		ledger, err := broker.NewLedger(ledgerPath(config, exchange), log)
		if err != nil {
			closeAll()

			return nil, err
		}

		b, err := broker.NewSimulatedBroker(broker.SimulatedConfig{
			Name:        exchange,
			InitialCash: funds,
			FeeModel:    fee,
			Ledger:      ledger,
		}, log)
		if err != nil {
			ledger.Close()
			closeAll()

			return nil, err
		}

		if err := brokers.Register(b); err != nil {
			closeAll()

			return nil, err
		}
	}

	mode := config.IndicatorMode
	if mode == "" {
		mode = indicator.ModeLive
	}

	parts := assembly{
		config:     config,
		assets:     assets,
		feed:       historical,
		indicators: indicator.NewFactory(indicator.WithMode(mode, historical)),
		brokers:    brokers,
		clock:      clock.NewSimulatedClock(config.Start.TakeOr(zeroTime), session),
		initial:    funds.Mul(decimal.NewFromInt(int64(len(brokers.All())))),
		closers:    closers,
	}

	e, err := parts.build(deps, log, opts...)
	if err != nil {
		brokers.Close(ctx)
		closeAll()

		return nil, err
	}

	log.Info("Backtest assembled",
		zap.Int("assets", len(assets)),
		zap.Int("timestamps", historical.Len()),
		zap.Int("forward_filled", historical.Filled()),
	)

	return e, nil
}

// RunBacktest runs a backtest to completion, writes the results folder when configured
// and releases every resource.
func RunBacktest(ctx context.Context, config Config, log *logger.Logger, deps Dependencies, opts ...Option) (Result, error) {
	e, err := NewBacktest(ctx, config, log, deps, opts...)
	if err != nil {
		return Result{}, err
	}

	result, runErr := e.Run(ctx)

	if config.ResultsFolder != "" {
		if err := statistics.WriteResults(config.ResultsFolder, e.Statistics()); err != nil && runErr == nil {
			runErr = err
		}
	}

	if err := e.Close(ctx); err != nil && runErr == nil {
		runErr = err
	}

	return result, runErr
}

func configuredLoader(config Config, assets []types.Asset, log *logger.Logger, closers []io.Closer) (feed.Loader, []io.Closer, error) {
	if config.DBStorage != "" {
		store, err := storage.NewCandleStore(config.DBStorage, log)
		if err != nil {
			return nil, closers, err
		}

		return feed.NewStorageLoader(store), append(closers, store), nil
	}

	files := config.CSVFiles(assets)
	for _, a := range assets {
		if _, ok := files[a]; !ok {
			return nil, closers, errors.Newf(errors.ErrCodeInvalidConfiguration, "asset %s has no file and no db_storage is set", a)
		}
	}

	return feed.NewCSVLoader(files), closers, nil
}

// assembly holds what backtest and live runs share once feed and brokers exist.
type assembly struct {
	config     Config
	assets     []types.Asset
	feed       feed.Feed
	indicators *indicator.Factory
	brokers    *broker.Manager
	clock      clock.Clock
	initial    decimal.Decimal
	closers    []io.Closer
}

func (a assembly) build(deps Dependencies, log *logger.Logger, opts ...Option) (*Engine, error) {
	registry := deps.Registry
	if registry == nil {
		registry = strategy.NewDefaultRegistry()
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = strategy.NewLogNotifier(log)
	}

	sizer, err := ordermanager.NewEqualWeightSizer(len(a.assets), a.config.IntegerSize)
	if err != nil {
		return nil, err
	}

	creator, err := ordermanager.NewDefaultCreator(a.config.CreatorConfig())
	if err != nil {
		return nil, err
	}

	ctxt := marketcontext.NewContext(a.assets...)
	env := strategy.Environment{
		Context:    ctxt,
		Indicators: a.indicators,
		Notifier:   notifier,
		Logger:     log,
	}

	strategies := make([]strategy.Strategy, 0, len(a.config.Strategies))

	for _, sc := range a.config.Strategies {
		bound, err := a.config.StrategyAssets(sc, a.assets)
		if err != nil {
			return nil, err
		}

		s, err := registry.Build(sc.Tag, sc.Name, bound, sc.Parameters, env)
		if err != nil {
			return nil, err
		}

		strategies = append(strategies, s)
	}

	stats, err := statistics.GetStatistics(a.config.Statistics, a.initial, log)
	if err != nil {
		return nil, err
	}

	return New(Components{
		Feed:            a.feed,
		Context:         ctxt,
		Indicators:      a.indicators,
		Strategies:      strategies,
		Brokers:         a.brokers,
		Orders:          ordermanager.NewOrderManager(a.brokers, sizer, creator, log),
		Clock:           a.clock,
		Statistics:      stats,
		Metrics:         deps.Metrics,
		CloseAtEndOfDay: a.config.CloseAtEndOfDay,
		Closers:         a.closers,
	}, log, opts...)
}

// exchanges returns the distinct exchanges of assets in first-seen order.
func exchanges(assets []types.Asset) []string {
	var out []string

	seen := make(map[string]struct{})

	for _, a := range assets {
		if _, ok := seen[a.Exchange]; ok {
			continue
		}

		seen[a.Exchange] = struct{}{}
		out = append(out, a.Exchange)
	}

	return out
}

func ledgerPath(config Config, exchange string) string {
	if config.ResultsFolder == "" {
		return ""
	}

	return filepath.Join(config.ResultsFolder, exchange+"_"+LedgerFile)
}
