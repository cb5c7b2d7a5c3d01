package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/petroquant/crudesim/internal/types"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) TestAccuracyEmpty() {
	m := Accuracy(nil)
	suite.Equal(types.AccuracyMetrics{}, m)
}

func (suite *MetricsTestSuite) TestAccuracyPerfectForecast() {
	pairs := []PredictionPair{
		{Predicted: 100, Actual: 100, PreviousClose: 98, HasPrevious: true},
		{Predicted: 102, Actual: 102, PreviousClose: 100, HasPrevious: true},
		{Predicted: 99, Actual: 99, PreviousClose: 102, HasPrevious: true},
	}

	m := Accuracy(pairs)
	suite.Equal(0.0, m.MAE)
	suite.Equal(0.0, m.RMSE)
	suite.Equal(0.0, m.MAPE)
	suite.Equal(1.0, m.DirectionalAccuracy)
	suite.InDelta(1.0, m.Correlation, 1e-12)
	suite.Equal(3, m.Samples)
}

func (suite *MetricsTestSuite) TestAccuracyKnownErrors() {
	pairs := []PredictionPair{
		{Predicted: 102, Actual: 100, PreviousClose: 0, HasPrevious: false},
		{Predicted: 96, Actual: 100, PreviousClose: 100, HasPrevious: true},
	}

	m := Accuracy(pairs)
	suite.InDelta(3.0, m.MAE, 1e-12)
	suite.InDelta(math.Sqrt((4.0+16.0)/2.0), m.RMSE, 1e-12)
	suite.InDelta(3.0, m.MAPE, 1e-12)
	// Only the second pair has a previous close; it predicted a fall while
	// the price stayed flat, which is a directional miss.
	suite.Equal(0.0, m.DirectionalAccuracy)
	suite.Equal(2, m.Samples)
}

// Flat moves compare on the three-valued sign: predicting no change only
// scores when the price actually did not move.
func (suite *MetricsTestSuite) TestDirectionalAccuracyFlatMoves() {
	pairs := []PredictionPair{
		// Predicted flat, price fell: miss.
		{Predicted: 100, Actual: 98, PreviousClose: 100, HasPrevious: true},
		// Predicted flat, price flat: hit.
		{Predicted: 100, Actual: 100, PreviousClose: 100, HasPrevious: true},
		// Predicted rise, price flat: miss.
		{Predicted: 101, Actual: 100, PreviousClose: 100, HasPrevious: true},
		// Predicted fall, price fell: hit.
		{Predicted: 99, Actual: 97, PreviousClose: 100, HasPrevious: true},
	}

	m := Accuracy(pairs)
	suite.Equal(0.5, m.DirectionalAccuracy)
}

func (suite *MetricsTestSuite) TestAccuracyNoVarianceCorrelation() {
	pairs := []PredictionPair{
		{Predicted: 100, Actual: 95},
		{Predicted: 100, Actual: 105},
	}

	m := Accuracy(pairs)
	suite.Equal(0.0, m.Correlation)
}

func equityCurve(values ...float64) []types.EquityPoint {
	curve := make([]types.EquityPoint, len(values))
	peak := 0.0

	for i, v := range values {
		if v > peak {
			peak = v
		}

		curve[i] = types.EquityPoint{
			StepIndex:   i,
			Date:        time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			GrossEquity: v,
			NetEquity:   v,
			Drawdown:    1 - v/peak,
		}
	}

	return curve
}

func (suite *MetricsTestSuite) TestTradingEmpty() {
	m := Trading(nil, nil, 252)
	suite.Equal(types.TradingMetrics{}, m)
}

func (suite *MetricsTestSuite) TestTradingTotals() {
	curve := equityCurve(1.0, 1.1, 0.99)
	trades := []types.Trade{
		{NetReturn: 0, PositionChanged: true, ResultingPosition: types.PositionLong, Cost: 0.001},
		{NetReturn: 0.1, ResultingPosition: types.PositionLong},
		{NetReturn: -0.1, PositionChanged: true, ResultingPosition: types.PositionShort, Cost: 0.002},
	}

	m := Trading(trades, curve, 252)
	suite.InDelta(-1.0, m.TotalReturnPct, 1e-12)
	suite.InDelta(-0.01, m.NetTotalReturn, 1e-12)
	suite.InDelta(0.003, m.TotalCosts, 1e-12)
	// Peak 1.1 to trough 0.99 is a 10% drawdown.
	suite.InDelta(10.0, m.MaxDrawdownPct, 1e-9)
	// One winning trade out of three countable.
	suite.InDelta(1.0/3.0, m.WinRate, 1e-12)
}

func (suite *MetricsTestSuite) TestSharpeZeroVariance() {
	returns := []float64{0.01, 0.01, 0.01}
	suite.Equal(0.0, sharpe(returns, 252))
}

func (suite *MetricsTestSuite) TestSharpeTooFewReturns() {
	suite.Equal(0.0, sharpe([]float64{0.05}, 252))
	suite.Equal(0.0, sharpe(nil, 252))
}

func (suite *MetricsTestSuite) TestSharpeAnnualization() {
	returns := []float64{0.0, 0.02}

	// mean 0.01, sample stdev sqrt(2*0.0001)
	std := math.Sqrt(2 * 0.0001)
	expected := 0.01 / std * math.Sqrt(252)

	suite.InDelta(expected, sharpe(returns, 252), 1e-12)
}

func (suite *MetricsTestSuite) TestPearson() {
	suite.InDelta(1.0, pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	suite.InDelta(-1.0, pearson([]float64{1, 2, 3}, []float64{6, 4, 2}), 1e-12)
	suite.Equal(0.0, pearson([]float64{1, 1, 1}, []float64{1, 2, 3}))
	suite.Equal(0.0, pearson([]float64{1}, []float64{1}))
	suite.Equal(0.0, pearson([]float64{1, 2}, []float64{1}))
}

func (suite *MetricsTestSuite) TestWinRateBounds() {
	trades := []types.Trade{
		{NetReturn: 0.01, ResultingPosition: types.PositionLong},
		{NetReturn: 0.02, ResultingPosition: types.PositionLong},
	}

	m := Trading(trades, equityCurve(1.01, 1.03), 252)
	suite.Equal(1.0, m.WinRate)

	// Flat, unchanged trades never count toward the win rate.
	m = Trading([]types.Trade{{NetReturn: 0, ResultingPosition: types.PositionFlat}}, equityCurve(1.0), 252)
	suite.Equal(0.0, m.WinRate)
}
