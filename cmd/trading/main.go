package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-quant/internal/engine"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/metrics"
	"github.com/rxtech-lab/argo-quant/internal/statistics"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func tradeAction(ctx context.Context, cmd *cli.Command) error {
	config, err := engine.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	creds, err := engine.LoadCredentials()
	if err != nil {
		return err
	}

	if addr := cmd.String("metrics-addr"); cmd.IsSet("metrics-addr") {
		creds.MetricsAddr = addr
	}

	zlog, err := logger.NewLoggerWithLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", config.LogLevel, err)
	}
	defer zlog.Sync()

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	var server *http.Server
	if creds.MetricsAddr != "" {
		server = m.Serve(creds.MetricsAddr)
		zlog.Info("Serving metrics", zap.String("addr", creds.MetricsAddr))
	}

	e, err := engine.NewLive(ctx, config, creds, zlog, engine.LiveDependencies{
		Dependencies: engine.Dependencies{Metrics: m},
	}, engine.WithOnTick(func(report engine.TickReport) error {
		zlog.Debug("Tick",
			zap.Time("timestamp", report.Timestamp),
			zap.Int("candles", len(report.Candles)),
			zap.Int("orders", len(report.Orders)),
			zap.String("equity", report.Equity.String()),
		)

		return nil
	}))
	if err != nil {
		return err
	}

	_, runErr := e.Run(ctx)

	// the run context is already cancelled on ctrl-c
	shutdown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if config.ResultsFolder != "" {
		if err := statistics.WriteResults(config.ResultsFolder, e.Statistics()); err != nil {
			zlog.Error("Failed to write results", zap.Error(err))
		}
	}

	if err := e.Close(shutdown); err != nil {
		zlog.Error("Failed to close engine", zap.Error(err))
	}

	if server != nil {
		if err := server.Shutdown(shutdown); err != nil {
			zlog.Warn("Failed to stop metrics server", zap.Error(err))
		}
	}

	return runErr
}

func main() {
	cmd := &cli.Command{
		Name:  "trading",
		Usage: "Trade strategies live against an exchange. Credentials are read from BINANCE_* variables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the trading config `FILE`",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Address of the prometheus endpoint, empty to disable (overrides METRICS_ADDR)",
			},
		},
		Action: tradeAction,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
