package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-quant/internal/engine"
	"github.com/rxtech-lab/argo-quant/internal/feed"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/statistics"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	config, err := engine.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if folder := cmd.String("results"); folder != "" {
		config.ResultsFolder = folder
	}

	level := config.LogLevel
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}

	zlog, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", level, err)
	}
	defer zlog.Sync()

	var bar *progressbar.ProgressBar

	e, err := engine.NewBacktest(ctx, config, zlog, engine.Dependencies{}, engine.WithOnTick(func(engine.TickReport) error {
		if bar != nil {
			return bar.Add(1)
		}

		return nil
	}))
	if err != nil {
		return err
	}
	defer e.Close(context.Background())

	if h, ok := e.Feed().(*feed.HistoricalFeed); ok && !cmd.Bool("quiet") {
		bar = progressbar.Default(int64(h.Len()), "backtesting")
	}

	result, err := e.Run(ctx)
	if err != nil {
		return err
	}

	if config.ResultsFolder != "" {
		if err := statistics.WriteResults(config.ResultsFolder, e.Statistics()); err != nil {
			return err
		}
	}

	r := result.Report
	fmt.Printf("\nticks %d (errored %d)\n", r.Ticks, r.ErroredTicks)
	fmt.Printf("final equity %s, cash %s\n", result.FinalEquity.StringFixed(2), result.FinalCash.StringFixed(2))
	fmt.Printf("return %.2f%%, max drawdown %.2f%%, sharpe %.3f\n", r.TotalReturn*100, r.MaxDrawdown*100, r.SharpeRatio)
	fmt.Printf("trades %d, win rate %.2f%%, fees %.2f\n", r.NumberOfTrades, r.WinRate*100, r.TotalFees)

	return nil
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := engine.GetConfigSchema()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func strategiesAction(_ context.Context, _ *cli.Command) error {
	registry := strategy.NewDefaultRegistry()

	for _, tag := range registry.List() {
		d, err := registry.Get(tag)
		if err != nil {
			return err
		}

		fmt.Printf("%-16s %s\n", d.Tag, d.Description)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay historical candles through strategies and simulated brokers",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest from a YAML config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the backtest config `FILE`",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Overrides the results folder of the config",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "Overrides the log level of the config (debug, info, warn, error)",
						Value: "info",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Hide the progress bar",
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config",
				Action: schemaAction,
			},
			{
				Name:   "strategies",
				Usage:  "List the built-in strategies",
				Action: strategiesAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
