package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/moznion/go-optional"
	"github.com/petroquant/crudesim/internal/engine"
	"github.com/petroquant/crudesim/internal/forecast"
	"github.com/petroquant/crudesim/internal/logger"
	"github.com/petroquant/crudesim/internal/market"
	"github.com/petroquant/crudesim/internal/policy"
	"github.com/petroquant/crudesim/internal/store"
	"github.com/petroquant/crudesim/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// backtestAction is the core logic executed by the CLI command. It loads the
// market series and prediction log, runs the simulation with the buy-and-hold
// comparison, and exports the results.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	dataPath := cmd.String("data")
	predictionsPath := cmd.String("predictions")
	forecastURL := cmd.String("forecast-url")
	configPath := cmd.String("config")
	outputPath := cmd.String("output")
	band := cmd.Float("band")

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	config, err := loadConfig(cmd, configPath)
	if err != nil {
		return err
	}

	series, err := market.NewDuckDBSeries(dataPath, log.Named("market"))
	if err != nil {
		return fmt.Errorf("failed to open market data: %w", err)
	}
	defer series.Close()

	forecaster, err := buildForecaster(predictionsPath, forecastURL)
	if err != nil {
		return err
	}

	runner := engine.NewRunner(series, forecaster, policy.NewThreshold(band), log.Named("engine"))

	bar := progressbar.Default(int64(config.LookbackDays), "backtesting")
	onStep := optional.Some[engine.OnStepCallback](func(current, total int) {
		bar.ChangeMax(total)
		_ = bar.Set(current)
	})

	result, err := runner.RunWithBaseline(ctx, config, onStep)
	if err != nil {
		return err
	}

	_ = bar.Finish()

	writer, err := store.NewParquetWriter(log.Named("store"))
	if err != nil {
		return fmt.Errorf("failed to create result writer: %w", err)
	}
	defer writer.Close()

	if err := writer.Write(outputPath, result); err != nil {
		return err
	}

	printSummary(result)

	return nil
}

// loadConfig reads the YAML config when one is given, then applies flag
// overrides on top.
func loadConfig(cmd *cli.Command, configPath string) (engine.Config, error) {
	config := engine.DefaultConfig(
		int(cmd.Int("lookback")),
		cmd.Float("capital"),
		cmd.Float("cost-rate"),
	)

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return engine.Config{}, fmt.Errorf("failed to read config file: %w", err)
		}

		config, err = engine.ParseConfig(string(content))
		if err != nil {
			return engine.Config{}, err
		}

		if cmd.IsSet("lookback") {
			config.LookbackDays = int(cmd.Int("lookback"))
		}

		if cmd.IsSet("capital") {
			config.InitialCapital = cmd.Float("capital")
		}

		if cmd.IsSet("cost-rate") {
			config.TransactionCostRate = cmd.Float("cost-rate")
		}
	}

	return config, nil
}

func buildForecaster(predictionsPath, forecastURL string) (forecast.Forecaster, error) {
	switch {
	case predictionsPath != "":
		return forecast.LoadPredictionLog(predictionsPath)
	case forecastURL != "":
		return forecast.NewRemoteForecaster(forecastURL), nil
	default:
		return nil, fmt.Errorf("either --predictions or --forecast-url is required")
	}
}

func printSummary(result *types.BacktestResult) {
	fmt.Printf("\nRun %s\n", result.ID)
	fmt.Printf("  Net return:    %+.2f%%\n", result.Trading.TotalReturnPct)
	fmt.Printf("  Sharpe ratio:  %.2f\n", result.Trading.SharpeRatio)
	fmt.Printf("  Max drawdown:  %.2f%%\n", result.Trading.MaxDrawdownPct)
	fmt.Printf("  Win rate:      %.1f%%\n", result.Trading.WinRate*100)
	fmt.Printf("  Total costs:   %.4f\n", result.Trading.TotalCosts)

	if result.Baseline.IsSome() {
		baseline := result.Baseline.Unwrap()
		fmt.Printf("  Buy & hold:    %+.2f%%\n", baseline.Trading.TotalReturnPct)
	}

	if result.WindowShortfall > 0 {
		fmt.Printf("  Window short by %d observations\n", result.WindowShortfall)
	}

	if result.Liquidated {
		fmt.Println("  WARNING: equity was wiped out during the run")
	}
}

// schemaAction prints the JSON schema for the backtest config file.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	var config engine.Config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a path-dependent trading backtest over a crude oil price series",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the market data file (CSV or Parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "predictions",
				Aliases: []string{"p"},
				Usage:   "Path to a prediction log CSV with date and predicted columns",
			},
			&cli.StringFlag{
				Name:  "forecast-url",
				Usage: "Model-serving endpoint to call for predictions instead of a log file",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML backtest config",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for the Parquet and YAML result files",
				Value:   "results",
			},
			&cli.IntFlag{
				Name:  "lookback",
				Usage: "Number of trailing observations to simulate",
				Value: 365,
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital in USD",
				Value: 100000,
			},
			&cli.FloatFlag{
				Name:  "cost-rate",
				Usage: "Transaction cost as a fraction of notional per unit switched",
				Value: 0.001,
			},
			&cli.FloatFlag{
				Name:  "band",
				Usage: "Minimum relative predicted move required to trade",
				Value: 0,
			},
		},
		Action: backtestAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema for the backtest config file",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
