package engine

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/petroquant/crudesim/internal/forecast"
	"github.com/petroquant/crudesim/internal/market"
	"github.com/petroquant/crudesim/internal/policy"
	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RunnerTestSuite struct {
	suite.Suite
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

// seriesOf builds an in-memory series from daily prices starting 2024-01-01.
func (suite *RunnerTestSuite) seriesOf(prices ...float64) *market.SliceSeries {
	observations := make([]types.Observation, len(prices))
	for i, price := range prices {
		observations[i] = types.Observation{Date: day(i), Price: price}
	}

	series, err := market.NewSliceSeries(observations)
	suite.Require().NoError(err)

	return series
}

// perfectForecaster predicts the next day's price exactly.
func (suite *RunnerTestSuite) perfectForecaster(prices ...float64) *forecast.TableForecaster {
	forecasts := make([]types.Forecast, 0, len(prices))
	for i := 0; i+1 < len(prices); i++ {
		forecasts = append(forecasts, types.Forecast{Date: day(i), PredictedPrice: prices[i+1]})
	}

	return forecast.NewTableForecaster(forecasts)
}

func (suite *RunnerTestSuite) config(lookback int) Config {
	return DefaultConfig(lookback, 100000, 0.001)
}

func (suite *RunnerTestSuite) TestRunRejectsInvalidConfig() {
	runner := NewRunner(suite.seriesOf(100, 101), forecast.NewNaive(), policy.NewBuyHold(), nil)

	config := suite.config(10)
	config.InitialCapital = -1

	_, err := runner.Run(context.Background(), config, optional.None[OnStepCallback]())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidCapital))
}

func (suite *RunnerTestSuite) TestRunPerfectForecast() {
	prices := []float64{100, 110, 99}
	runner := NewRunner(
		suite.seriesOf(prices...),
		suite.perfectForecaster(prices...),
		policy.NewThreshold(0),
		nil,
	)

	result, err := runner.Run(context.Background(), suite.config(3), optional.None[OnStepCallback]())
	suite.Require().NoError(err)

	suite.Len(result.Trades, 3)
	suite.Len(result.EquityCurve, 3)
	suite.NotEmpty(result.ID)
	suite.Equal(0, result.WindowShortfall)
	suite.False(result.Liquidated)

	// Step 0 sees a predicted rise and goes long; step 1 sees the predicted
	// fall to 99 and flips short; step 2 has no forecast and holds.
	suite.Equal(types.ActionLong, result.Trades[0].Action)
	suite.Equal(types.ActionShort, result.Trades[1].Action)
	suite.Equal(types.ActionHold, result.Trades[2].Action)

	// Long over +10%, then short over -10%: both moves are captured, with
	// one entry cost and one flip cost.
	expectedNet := (1 - 0.001) * (1 + 0.10 - 0.002) * (1 + 0.10)
	suite.InDelta(expectedNet, result.FinalNetEquity(), 1e-9)

	// The forecasts matched the realized prices exactly.
	suite.Equal(2, result.Accuracy.Samples)
	suite.Equal(0.0, result.Accuracy.MAE)
	suite.Equal(1.0, result.Accuracy.DirectionalAccuracy)
}

func (suite *RunnerTestSuite) TestRunIsDeterministic() {
	prices := []float64{100, 104, 98, 101, 97, 103}
	newRunner := func() *Runner {
		return NewRunner(
			suite.seriesOf(prices...),
			suite.perfectForecaster(prices...),
			policy.NewThreshold(0.005),
			nil,
		)
	}

	first, err := newRunner().Run(context.Background(), suite.config(6), optional.None[OnStepCallback]())
	suite.Require().NoError(err)

	second, err := newRunner().Run(context.Background(), suite.config(6), optional.None[OnStepCallback]())
	suite.Require().NoError(err)

	suite.Equal(first.Trades, second.Trades)
	suite.Equal(first.EquityCurve, second.EquityCurve)
	suite.Equal(first.Accuracy, second.Accuracy)
	suite.Equal(first.Trading, second.Trading)
	suite.NotEqual(first.ID, second.ID)
}

func (suite *RunnerTestSuite) TestMissingForecastHolds() {
	// No forecasts at all: every step degrades to hold and no position is
	// ever opened.
	runner := NewRunner(
		suite.seriesOf(100, 110, 99),
		forecast.NewTableForecaster(nil),
		policy.NewThreshold(0),
		nil,
	)

	result, err := runner.Run(context.Background(), suite.config(3), optional.None[OnStepCallback]())
	suite.Require().NoError(err)

	for _, trade := range result.Trades {
		suite.Equal(types.ActionHold, trade.Action)
		suite.Equal(types.PositionFlat, trade.ResultingPosition)
	}

	suite.Equal(1.0, result.FinalNetEquity())
	suite.Equal(0, result.Accuracy.Samples)
}

func (suite *RunnerTestSuite) TestCollaboratorFailureCarriesStepIndex() {
	calls := 0
	failing := forecast.Func(func(ctx context.Context, date time.Time, features types.FeatureVector) (float64, error) {
		calls++
		if calls > 2 {
			return 0, errors.New(errors.ErrCodeQueryFailed, "model endpoint exploded")
		}

		return 100, nil
	})

	runner := NewRunner(suite.seriesOf(100, 101, 102, 103), failing, policy.NewThreshold(0), nil)

	_, err := runner.Run(context.Background(), suite.config(4), optional.None[OnStepCallback]())
	suite.Require().Error(err)

	var collabErr *errors.CollaboratorError
	suite.Require().True(errors.As(err, &collabErr))
	suite.Equal(1, collabErr.Step)

	// A crash is not the benign missing-forecast signal.
	suite.Equal(errors.ErrCodeForecasterFailed, collabErr.Code)
	suite.False(forecast.IsUnavailable(err))
}

func (suite *RunnerTestSuite) TestNonPositiveForecastIsFatal() {
	bogus := forecast.Func(func(ctx context.Context, date time.Time, features types.FeatureVector) (float64, error) {
		return -1, nil
	})

	runner := NewRunner(suite.seriesOf(100, 101), bogus, policy.NewThreshold(0), nil)

	_, err := runner.Run(context.Background(), suite.config(2), optional.None[OnStepCallback]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeForecasterFailed))
	suite.False(forecast.IsUnavailable(err))
}

func (suite *RunnerTestSuite) TestPolicyFailureIsFatal() {
	failing := policy.Func(func(ctx context.Context, state policy.StateVector) (types.Action, error) {
		return "", errors.New(errors.ErrCodeUnknown, "model crashed")
	})

	runner := NewRunner(suite.seriesOf(100, 101), forecast.NewNaive(), failing, nil)

	_, err := runner.Run(context.Background(), suite.config(2), optional.None[OnStepCallback]())
	suite.Require().Error(err)
	suite.True(errors.IsCollaboratorError(err))
	suite.True(errors.HasCode(err, errors.ErrCodePolicyUnavailable))
}

func (suite *RunnerTestSuite) TestInvalidPolicyActionIsFatal() {
	invalid := policy.Func(func(ctx context.Context, state policy.StateVector) (types.Action, error) {
		return types.Action("BUY"), nil
	})

	runner := NewRunner(suite.seriesOf(100, 101), forecast.NewNaive(), invalid, nil)

	_, err := runner.Run(context.Background(), suite.config(2), optional.None[OnStepCallback]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidAction))
}

func (suite *RunnerTestSuite) TestWindowShortfall() {
	runner := NewRunner(suite.seriesOf(100, 101, 102), forecast.NewNaive(), policy.NewBuyHold(), nil)

	result, err := runner.Run(context.Background(), suite.config(10), optional.None[OnStepCallback]())
	suite.Require().NoError(err)
	suite.Equal(7, result.WindowShortfall)
	suite.Len(result.Trades, 3)
}

func (suite *RunnerTestSuite) TestWindowSelectsTail() {
	runner := NewRunner(suite.seriesOf(50, 60, 100, 101, 102), forecast.NewNaive(), policy.NewBuyHold(), nil)

	result, err := runner.Run(context.Background(), suite.config(3), optional.None[OnStepCallback]())
	suite.Require().NoError(err)
	suite.Len(result.Trades, 3)
	suite.Equal(100.0, result.Trades[0].Price)
}

func (suite *RunnerTestSuite) TestOnStepCallback() {
	runner := NewRunner(suite.seriesOf(100, 101, 102), forecast.NewNaive(), policy.NewBuyHold(), nil)

	var progress []int
	onStep := optional.Some[OnStepCallback](func(current, total int) {
		suite.Equal(3, total)
		progress = append(progress, current)
	})

	_, err := runner.Run(context.Background(), suite.config(3), onStep)
	suite.Require().NoError(err)
	suite.Equal([]int{1, 2, 3}, progress)
}

func (suite *RunnerTestSuite) TestRunWithBaseline() {
	prices := []float64{100, 110, 99}
	runner := NewRunner(
		suite.seriesOf(prices...),
		suite.perfectForecaster(prices...),
		policy.NewThreshold(0),
		nil,
	)

	result, err := runner.RunWithBaseline(context.Background(), suite.config(3), optional.None[OnStepCallback]())
	suite.Require().NoError(err)
	suite.Require().True(result.Baseline.IsSome())

	baseline := result.Baseline.Unwrap()

	// Buy-and-hold pays exactly one entry cost and tracks the price path.
	suite.InDelta((99.0/100.0)*(1-0.001), baseline.FinalEquity, 1e-12)
	suite.Len(baseline.EquityCurve, 3)
}

func (suite *RunnerTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(suite.seriesOf(100, 101), forecast.NewNaive(), policy.NewBuyHold(), nil)

	_, err := runner.Run(ctx, suite.config(2), optional.None[OnStepCallback]())
	suite.Error(err)
}
