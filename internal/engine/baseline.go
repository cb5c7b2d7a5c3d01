package engine

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/petroquant/crudesim/internal/forecast"
	"github.com/petroquant/crudesim/internal/logger"
	"github.com/petroquant/crudesim/internal/market"
	"github.com/petroquant/crudesim/internal/policy"
	"github.com/petroquant/crudesim/internal/types"
)

// Baseline computes the buy-and-hold comparison: enter long at the first
// observation of the identical window, never trade again, incur exactly one
// entry cost. It reuses the runner and metrics engine wholesale, so the
// baseline's accounting is guaranteed to match the strategy's.
func Baseline(ctx context.Context, series market.Series, config Config, log *logger.Logger) (types.BaselineResult, error) {
	runner := NewRunner(series, forecast.NewNaive(), policy.NewBuyHold(), log)

	result, err := runner.Run(ctx, config, optional.None[OnStepCallback]())
	if err != nil {
		return types.BaselineResult{}, err
	}

	return types.BaselineResult{
		Trading:     result.Trading,
		EquityCurve: result.EquityCurve,
		FinalEquity: result.FinalNetEquity(),
	}, nil
}

// RunWithBaseline runs the strategy backtest and attaches the buy-and-hold
// comparison computed over the same window.
func (r *Runner) RunWithBaseline(ctx context.Context, config Config, onStep optional.Option[OnStepCallback]) (*types.BacktestResult, error) {
	result, err := r.Run(ctx, config, onStep)
	if err != nil {
		return nil, err
	}

	baseline, err := Baseline(ctx, r.series, config, r.log)
	if err != nil {
		return nil, err
	}

	result.Baseline = optional.Some(baseline)

	return result, nil
}
