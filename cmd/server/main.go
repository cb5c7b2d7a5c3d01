package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petroquant/crudesim/internal/engine"
	"github.com/petroquant/crudesim/internal/forecast"
	"github.com/petroquant/crudesim/internal/logger"
	"github.com/petroquant/crudesim/internal/market"
	"github.com/petroquant/crudesim/internal/policy"
	"github.com/petroquant/crudesim/internal/server"
	"github.com/petroquant/crudesim/internal/store"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// serveAction wires the engine behind the HTTP API and serves until
// interrupted.
func serveAction(ctx context.Context, cmd *cli.Command) error {
	dataPath := cmd.String("data")
	predictionsPath := cmd.String("predictions")
	forecastURL := cmd.String("forecast-url")
	listen := cmd.String("listen")
	band := cmd.Float("band")
	confidence := cmd.Float("confidence")

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	series, err := market.NewDuckDBSeries(dataPath, log.Named("market"))
	if err != nil {
		return fmt.Errorf("failed to open market data: %w", err)
	}
	defer series.Close()

	forecaster, err := buildForecaster(predictionsPath, forecastURL)
	if err != nil {
		return err
	}

	pol := policy.NewConfidentPolicy(policy.NewThreshold(band), confidence)
	runner := engine.NewRunner(series, forecaster, pol, log.Named("engine"))

	defaults := engine.DefaultConfig(
		int(cmd.Int("lookback")),
		cmd.Float("capital"),
		cmd.Float("cost-rate"),
	)

	srv := server.NewServer(runner, store.NewResultStore(), defaults, pol.Confidence(), log.Named("api"))

	httpServer := &http.Server{
		Addr:              listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Backtest API listening", zap.String("addr", listen))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-stopCtx.Done():
	}

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
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

func main() {
	cmd := &cli.Command{
		Name:  "backtest-server",
		Usage: "Serve the backtest engine over HTTP",
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
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "Address to listen on",
				Value:   ":8080",
			},
			&cli.IntFlag{
				Name:  "lookback",
				Usage: "Default number of trailing observations to simulate",
				Value: 365,
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Default initial capital in USD",
				Value: 100000,
			},
			&cli.FloatFlag{
				Name:  "cost-rate",
				Usage: "Default transaction cost as a fraction of notional per unit switched",
				Value: 0.001,
			},
			&cli.FloatFlag{
				Name:  "band",
				Usage: "Minimum relative predicted move required to trade",
				Value: 0,
			},
			&cli.FloatFlag{
				Name:  "confidence",
				Usage: "Confidence value reported on recommendations",
				Value: 0.75,
			},
		},
		Action: serveAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		stdlog.Fatal(err)
	}
}
