// Package metrics derives aggregate statistics from a completed run. Every
// function is a pure, stateless reduction over the immutable trade and
// equity sequences; nothing here re-simulates.
package metrics

import (
	"math"

	"github.com/petroquant/crudesim/internal/types"
)

// PredictionPair is one comparable forecast/actual sample: the price
// predicted for a date, the realized price, and the previous realized price
// for directional comparison.
type PredictionPair struct {
	Predicted     float64
	Actual        float64
	PreviousClose float64
	// HasPrevious reports whether a previous close exists for the
	// directional comparison; the first sample of a run has none.
	HasPrevious bool
}

// Accuracy computes the forecast-accuracy metrics over the pairs where
// actuals are known.
func Accuracy(pairs []PredictionPair) types.AccuracyMetrics {
	if len(pairs) == 0 {
		return types.AccuracyMetrics{}
	}

	var sumAbs, sumSq, sumPct float64

	directionalHits, directionalTotal := 0, 0

	predicted := make([]float64, len(pairs))
	actual := make([]float64, len(pairs))

	for i, p := range pairs {
		err := p.Predicted - p.Actual
		sumAbs += math.Abs(err)
		sumSq += err * err

		if p.Actual != 0 {
			sumPct += math.Abs(err/p.Actual) * 100
		}

		if p.HasPrevious {
			directionalTotal++

			if sign(p.Predicted-p.PreviousClose) == sign(p.Actual-p.PreviousClose) {
				directionalHits++
			}
		}

		predicted[i] = p.Predicted
		actual[i] = p.Actual
	}

	n := float64(len(pairs))

	directional := 0.0
	if directionalTotal > 0 {
		directional = float64(directionalHits) / float64(directionalTotal)
	}

	return types.AccuracyMetrics{
		MAE:                 sumAbs / n,
		RMSE:                math.Sqrt(sumSq / n),
		MAPE:                sumPct / n,
		DirectionalAccuracy: directional,
		Correlation:         pearson(predicted, actual),
		Samples:             len(pairs),
	}
}

// Trading computes the strategy performance metrics from the completed
// trade log and equity curve.
func Trading(trades []types.Trade, curve []types.EquityPoint, periodsPerYear int) types.TradingMetrics {
	var m types.TradingMetrics

	if len(curve) > 0 {
		last := curve[len(curve)-1]
		m.TotalReturnPct = (last.NetEquity - 1) * 100
		m.GrossTotalReturn = last.GrossEquity - 1
		m.NetTotalReturn = last.NetEquity - 1

		maxDrawdown := 0.0
		for _, p := range curve {
			if p.Drawdown > maxDrawdown {
				maxDrawdown = p.Drawdown
			}
		}

		m.MaxDrawdownPct = maxDrawdown * 100
	}

	returns := make([]float64, len(trades))

	wins, countable := 0, 0

	for i, t := range trades {
		returns[i] = t.NetReturn
		m.TotalCosts += t.Cost

		if t.PositionChanged || t.ResultingPosition != types.PositionFlat {
			countable++

			if t.NetReturn > 0 {
				wins++
			}
		}
	}

	if countable > 0 {
		m.WinRate = float64(wins) / float64(countable)
	}

	m.SharpeRatio = sharpe(returns, periodsPerYear)

	return m
}

// sign is the three-valued sign: a predicted flat move only matches an
// actual flat move, never a rise or a fall.
func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// sharpe annualizes mean/stdev of the step returns. Defined as 0 when the
// standard deviation is 0 or fewer than 2 returns exist.
func sharpe(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}

	variance /= float64(len(returns) - 1)

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(float64(periodsPerYear))
}

// pearson computes the Pearson correlation coefficient of two equal-length
// series. Zero when either series has no variance.
func pearson(x, y []float64) float64 {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += x[i]
		meanY += y[i]
	}

	meanX /= float64(n)
	meanY /= float64(n)

	var cov, varX, varY float64

	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}

	return cov / math.Sqrt(varX*varY)
}
