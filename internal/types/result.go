package types

import (
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// RunParameters is the immutable snapshot of the configuration a result was
// produced under.
type RunParameters struct {
	LookbackDays        int     `yaml:"lookback_days" json:"lookback_days"`
	InitialCapital      float64 `yaml:"initial_capital" json:"initial_capital"`
	TransactionCostRate float64 `yaml:"transaction_cost_rate" json:"transaction_cost_rate"`
}

// BaselineResult carries the buy-and-hold comparison computed over the
// identical window with identical accounting.
type BaselineResult struct {
	Trading     TradingMetrics `yaml:"trading_metrics" json:"trading_metrics"`
	EquityCurve []EquityPoint  `yaml:"equity_curve" json:"equity_curve"`
	FinalEquity float64        `yaml:"final_equity" json:"final_equity"`
}

// BacktestResult aggregates everything a completed run produced. Created
// once per run and never mutated after return; owned by the caller.
type BacktestResult struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Parameters is the configuration snapshot the run used.
	Parameters RunParameters `yaml:"parameters" json:"parameters"`
	// Trades is the ordered per-step trade log.
	Trades []Trade `yaml:"trades" json:"trades"`
	// EquityCurve is the ordered per-step equity series.
	EquityCurve []EquityPoint `yaml:"equity_curve" json:"equity_curve"`
	// Accuracy holds the forecast-accuracy metrics.
	Accuracy AccuracyMetrics `yaml:"accuracy_metrics" json:"accuracy_metrics"`
	// Trading holds the strategy performance metrics.
	Trading TradingMetrics `yaml:"trading_metrics" json:"trading_metrics"`
	// Baseline holds the buy-and-hold comparison when one was computed.
	Baseline optional.Option[BaselineResult] `yaml:"baseline,omitempty" json:"baseline,omitempty"`
	// WindowShortfall is how many observations the requested lookback window
	// was short of; zero when the full window was available.
	WindowShortfall int `yaml:"window_shortfall" json:"window_shortfall"`
	// Liquidated reports whether net equity was clamped to zero during the run.
	Liquidated bool `yaml:"liquidated" json:"liquidated"`
}

// FinalNetEquity returns the last net equity sample, or 1 for an empty curve.
func (r *BacktestResult) FinalNetEquity() float64 {
	if len(r.EquityCurve) == 0 {
		return 1
	}

	return r.EquityCurve[len(r.EquityCurve)-1].NetEquity
}

// PeakNetEquity returns the highest net equity sample, or 1 for an empty curve.
func (r *BacktestResult) PeakNetEquity() float64 {
	peak := 1.0
	for _, p := range r.EquityCurve {
		if p.NetEquity > peak {
			peak = p.NetEquity
		}
	}

	return peak
}

// WriteResultSummary marshals the result to YAML at the given path.
func WriteResultSummary(path string, result *BacktestResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest result to file: %w", err)
	}

	return nil
}
