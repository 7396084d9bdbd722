package engine

import (
	"context"
	"io"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/rxtech-lab/argo-quant/internal/broker"
	"github.com/rxtech-lab/argo-quant/internal/clock"
	"github.com/rxtech-lab/argo-quant/internal/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/feed"
	"github.com/rxtech-lab/argo-quant/internal/feed/handler"
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/storage"
	tradingprovider "github.com/rxtech-lab/argo-quant/internal/trading/provider"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"
)

// Credentials are read from the environment, never from the YAML config.
type Credentials struct {
	Binance     tradingprovider.BinanceProviderConfig
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	TiingoToken string `env:"TIINGO_TOKEN"`
}

func LoadCredentials() (Credentials, error) {
	var creds Credentials
	if err := env.Parse(&creds); err != nil {
		return Credentials{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read credentials from environment", err)
	}

	return creds, nil
}

// LiveDependencies extends Dependencies with the exchange side.
type LiveDependencies struct {
	Dependencies
	// Connector replaces the provider selected by the config.
	Connector     tradingprovider.Connector
	FeedOptions   []feed.LiveOption
	BrokerOptions []broker.LiveOption
}

// NewLive assembles a live run against one exchange connector. Every asset must be
// listed on the connector's exchange.
func NewLive(ctx context.Context, config Config, creds Credentials, log *logger.Logger, deps LiveDependencies, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.IndicatorMode == indicator.ModeBatch {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "batch indicators need a historical feed")
	}

	assets, err := config.ParseAssets()
	if err != nil {
		return nil, err
	}

	session, err := config.ParseSession()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid session", err)
	}

	connector := deps.Connector
	if connector == nil {
		if err := creds.Binance.Validate(); err != nil {
			return nil, err
		}

		connector, err = tradingprovider.NewConnector(config.Live.Provider, creds.Binance)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidProvider, "failed to create connector", err)
		}
	}

	for _, a := range assets {
		if !strings.EqualFold(a.Exchange, connector.Name()) {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "asset %s is not listed on %s", a, connector.Name())
		}
	}

	fee, err := commission_fee.GetFeeModel(config.FeeModel, config.FeePct)
	if err != nil {
		return nil, err
	}

	feedConfig := config.Live.Feed
	feedConfig.Session = session
	feedOpts := deps.FeedOptions

	var closers []io.Closer

	if config.SaveDBStorage != "" {
		sink, err := storage.NewCandleStore(config.SaveDBStorage, log)
		if err != nil {
			return nil, err
		}

		closers = append(closers, sink)
		feedOpts = append(feedOpts, feed.WithLiveSink(sink))
	}

	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	brokerOpts := deps.BrokerOptions
	if path := ledgerPath(config, connector.Name()); path != "" {
		ledger, err := broker.NewLedger(path, log)
		if err != nil {
			closeAll()

			return nil, err
		}

		brokerOpts = append(brokerOpts, broker.WithLedger(ledger))
	}

	live, err := broker.NewLiveBroker(connector, fee, config.Live.Broker, log, brokerOpts...)
	if err != nil {
		closeAll()

		return nil, err
	}

	if err := live.Initialize(ctx, assets); err != nil {
		live.Close(ctx)
		closeAll()

		return nil, err
	}

	fetcher, err := candleFetcher(config.Live.CandleSource, connector, creds, log)
	if err != nil {
		live.Close(ctx)
		closeAll()

		return nil, err
	}

	brokers := broker.NewManager()
	if err := brokers.Register(live); err != nil {
		live.Close(ctx)
		closeAll()

		return nil, err
	}

	parts := assembly{
		config:     config,
		assets:     assets,
		feed:       feed.NewLiveFeed(fetcher, assets, feedConfig, log, feedOpts...),
		indicators: indicator.NewFactory(),
		brokers:    brokers,
		clock:      clock.NewWallClock(session),
		initial:    live.Equity(nil),
		closers:    closers,
	}

	e, err := parts.build(deps.Dependencies, log, opts...)
	if err != nil {
		brokers.Close(ctx)
		closeAll()

		return nil, err
	}

	log.Info("Live trading assembled",
		zap.String("exchange", connector.Name()),
		zap.Int("assets", len(assets)),
		zap.String("cash", live.Cash().String()),
	)

	return e, nil
}

func candleFetcher(source CandleSource, connector tradingprovider.Connector, creds Credentials, log *logger.Logger) (feed.CandleFetcher, error) {
	switch source {
	case CandleSourceConnector:
		return connector, nil
	case CandleSourceBinance:
		return handler.NewBinanceFetcher(log), nil
	case CandleSourceKucoin:
		return handler.NewKucoinFetcher(log), nil
	case CandleSourceTiingo:
		if creds.TiingoToken == "" {
			return nil, errors.New(errors.ErrCodeMissingParameter, "TIINGO_TOKEN is required for the tiingo candle source")
		}

		return handler.NewTiingoFetcher(creds.TiingoToken, log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown candle source %q", source)
	}
}
