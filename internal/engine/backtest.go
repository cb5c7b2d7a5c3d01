// Package engine implements the trading-decision simulation: a sequential,
// path-dependent loop that converts (date, features, forecast) observations
// into position changes, accounts for transaction costs, and produces
// reproducible performance statistics.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/petroquant/crudesim/internal/forecast"
	"github.com/petroquant/crudesim/internal/logger"
	"github.com/petroquant/crudesim/internal/market"
	"github.com/petroquant/crudesim/internal/metrics"
	"github.com/petroquant/crudesim/internal/policy"
	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
	"go.uber.org/zap"
)

// OnStepCallback reports simulation progress: current completed step and
// total steps in the window.
type OnStepCallback func(current int, total int)

// closePriceFeature is injected into the feature vector handed to
// collaborators so forecasters can see the current close even when the
// series file does not carry it as an explicit feature column.
const closePriceFeature = "close_price"

// Runner drives one end-to-end simulation over a bounded window of the
// market series. A Runner holds no mutable simulation state of its own;
// every Run builds a fresh ledger and fresh logs, so independent runs with
// the same collaborators are safe to execute concurrently.
type Runner struct {
	series     market.Series
	forecaster forecast.Forecaster
	policy     policy.Policy
	log        *logger.Logger
}

// NewRunner creates a runner over the given collaborators.
func NewRunner(series market.Series, forecaster forecast.Forecaster, pol policy.Policy, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Runner{
		series:     series,
		forecaster: forecaster,
		policy:     pol,
		log:        log,
	}
}

// Run executes a single backtest. Given identical inputs the output is
// bit-for-bit identical: the loop has no hidden randomness and no state
// survives between runs.
func (r *Runner) Run(ctx context.Context, config Config, onStep optional.Option[OnStepCallback]) (*types.BacktestResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	window, shortfall, err := r.selectWindow(ctx, config)
	if err != nil {
		return nil, err
	}

	r.log.Info("Starting backtest",
		zap.Int("lookback_days", config.LookbackDays),
		zap.Int("window", len(window)),
		zap.Int("shortfall", shortfall),
	)

	ledger := NewLedger(config.CostModel())

	trades := make([]types.Trade, 0, len(window))
	curve := make([]types.EquityPoint, 0, len(window))
	pairs := make([]metrics.PredictionPair, 0, len(window))

	peak := 0.0
	prevForecast := optional.None[float64]()
	prevPrice := 0.0

	for i, obs := range window {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCollaboratorError(i-1, errors.ErrCodeCollaboratorTimeout, "run cancelled", err)
		}

		features := featuresWithClose(obs)

		// The forecast recorded on the previous step predicted this step's
		// price; pair it with the realized price for the accuracy metrics.
		if prevForecast.IsSome() {
			pairs = append(pairs, metrics.PredictionPair{
				Predicted:     prevForecast.Unwrap(),
				Actual:        obs.Price,
				PreviousClose: prevPrice,
				HasPrevious:   prevPrice > 0,
			})
		}

		predicted, hasForecast, err := r.obtainForecast(ctx, config, i, obs, features)
		if err != nil {
			return nil, err
		}

		// A missing forecast degrades the step to a hold-equivalent
		// mark-to-market; the policy is only consulted when one exists.
		action := types.ActionHold

		if hasForecast {
			action, err = r.obtainAction(ctx, config, i, obs, features, predicted, ledger)
			if err != nil {
				return nil, err
			}
		}

		trade, err := ledger.Apply(action, obs.Price, obs.Date)
		if err != nil {
			return nil, err
		}

		trades = append(trades, trade)

		net := ledger.NetEquity()
		if net > peak {
			peak = net
		}

		drawdown := 0.0
		if peak > 0 {
			drawdown = 1 - net/peak
		} else {
			drawdown = 1
		}

		curve = append(curve, types.EquityPoint{
			StepIndex:   i,
			Date:        obs.Date,
			GrossEquity: ledger.GrossEquity(),
			NetEquity:   net,
			Drawdown:    drawdown,
		})

		if hasForecast {
			prevForecast = optional.Some(predicted)
		} else {
			prevForecast = optional.None[float64]()
		}

		prevPrice = obs.Price

		if onStep.IsSome() {
			onStep.Unwrap()(i+1, len(window))
		}
	}

	result := &types.BacktestResult{
		ID:              uuid.New().String(),
		Timestamp:       time.Now().UTC(),
		Parameters:      config.Parameters(),
		Trades:          trades,
		EquityCurve:     curve,
		Accuracy:        metrics.Accuracy(pairs),
		Trading:         metrics.Trading(trades, curve, config.PeriodsPerYear),
		Baseline:        optional.None[types.BaselineResult](),
		WindowShortfall: shortfall,
		Liquidated:      ledger.Liquidated(),
	}

	r.log.Info("Backtest complete",
		zap.String("run_id", result.ID),
		zap.Int("steps", len(trades)),
		zap.Float64("net_equity", result.FinalNetEquity()),
		zap.Float64("total_costs", ledger.CumulativeCosts()),
		zap.Bool("liquidated", result.Liquidated),
	)

	return result, nil
}

// selectWindow takes the last lookback_days observations. Fewer available
// is reported as a shortfall rather than an error; an unusable window of
// zero observations is a configuration error raised before any step runs.
func (r *Runner) selectWindow(ctx context.Context, config Config) ([]types.Observation, int, error) {
	observations, err := r.series.Window(ctx, optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		return nil, 0, err
	}

	if len(observations) == 0 {
		return nil, 0, errors.New(errors.ErrCodeNoUsableObservations, "no usable observations for the configured window")
	}

	shortfall := 0
	if len(observations) < config.LookbackDays {
		shortfall = config.LookbackDays - len(observations)

		r.log.Warn("Series shorter than requested lookback",
			zap.Int("requested", config.LookbackDays),
			zap.Int("available", len(observations)),
		)
	} else {
		observations = observations[len(observations)-config.LookbackDays:]
	}

	return observations, shortfall, nil
}

// obtainForecast calls the forecaster under the configured timeout. A
// missing forecast is reported with hasForecast=false; any other failure is
// a fatal collaborator error carrying the last completed step index.
func (r *Runner) obtainForecast(ctx context.Context, config Config, step int, obs types.Observation, features types.FeatureVector) (float64, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.CollaboratorTimeout)
	defer cancel()

	predicted, err := r.forecaster.Forecast(callCtx, obs.Date, features)
	if err != nil {
		if forecast.IsUnavailable(err) {
			r.log.Debug("No forecast for step, holding",
				zap.Int("step", step),
				zap.Time("date", obs.Date),
			)

			return 0, false, nil
		}

		code := errors.ErrCodeForecasterFailed
		if callCtx.Err() != nil {
			code = errors.ErrCodeCollaboratorTimeout
		}

		return 0, false, errors.NewCollaboratorError(step-1, code, "forecaster failed", err)
	}

	if predicted <= 0 {
		return 0, false, errors.NewCollaboratorError(step-1, errors.ErrCodeForecasterFailed,
			"forecaster returned non-positive price", nil)
	}

	return predicted, true, nil
}

// obtainAction builds the state vector and calls the policy under the
// configured timeout.
func (r *Runner) obtainAction(ctx context.Context, config Config, step int, obs types.Observation, features types.FeatureVector, predicted float64, ledger *Ledger) (types.Action, error) {
	state := policy.StateVector{
		Date:             obs.Date,
		Price:            obs.Price,
		PredictedPrice:   predicted,
		Position:         ledger.Position(),
		NetEquity:        ledger.NetEquity(),
		UnrealizedReturn: ledger.UnrealizedReturn(),
		HoldingSteps:     ledger.HoldingSteps(),
		Features:         features,
	}

	callCtx, cancel := context.WithTimeout(ctx, config.CollaboratorTimeout)
	defer cancel()

	action, err := r.policy.Decide(callCtx, state)
	if err != nil {
		code := errors.ErrCodePolicyUnavailable
		if callCtx.Err() != nil {
			code = errors.ErrCodeCollaboratorTimeout
		}

		return "", errors.NewCollaboratorError(step-1, code, "policy failed", err)
	}

	parsed, err := types.ParseAction(string(action))
	if err != nil {
		return "", errors.NewCollaboratorError(step-1, errors.ErrCodeInvalidAction, "policy returned invalid action", err)
	}

	return parsed, nil
}

// featuresWithClose returns the observation's features with the close price
// guaranteed present, so collaborators that key off the close always see it.
func featuresWithClose(obs types.Observation) types.FeatureVector {
	if _, ok := obs.Features.Get(closePriceFeature); ok {
		return obs.Features
	}

	features := obs.Features.Clone()
	features.Names = append(features.Names, closePriceFeature)
	features.Values = append(features.Values, obs.Price)

	return features
}
