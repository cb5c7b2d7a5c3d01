package types

// AccuracyMetrics measures forecast quality against realized prices.
type AccuracyMetrics struct {
	// MAE is the mean absolute error in price units.
	MAE float64 `yaml:"mae" json:"mae"`
	// RMSE is the root-mean-square error in price units.
	RMSE float64 `yaml:"rmse" json:"rmse"`
	// MAPE is the mean absolute percentage error, in percent.
	MAPE float64 `yaml:"mape" json:"mape"`
	// DirectionalAccuracy is the fraction of steps where the predicted price
	// movement's sign matched the actual movement's sign, in [0, 1].
	DirectionalAccuracy float64 `yaml:"directional_accuracy" json:"directional_accuracy"`
	// Correlation is the Pearson correlation between the predicted and
	// actual price series.
	Correlation float64 `yaml:"correlation" json:"correlation"`
	// Samples is the number of forecast/actual pairs the metrics cover.
	Samples int `yaml:"samples" json:"samples"`
}

// TradingMetrics measures the simulated strategy's performance.
type TradingMetrics struct {
	// TotalReturnPct is (final net equity / initial equity - 1) * 100.
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	// SharpeRatio is mean(step net returns) / stdev * sqrt(periods per
	// year). Zero when stdev is zero or fewer than two returns exist.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// MaxDrawdownPct is the largest peak-to-trough net equity decline, in percent.
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	// WinRate is winning trades over trades with a position change or open
	// exposure, in [0, 1].
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// GrossTotalReturn is the final gross equity minus one.
	GrossTotalReturn float64 `yaml:"gross_total_return" json:"gross_total_return"`
	// NetTotalReturn is the final net equity minus one.
	NetTotalReturn float64 `yaml:"net_total_return" json:"net_total_return"`
	// TotalCosts is the sum of all transaction cost fractions charged.
	TotalCosts float64 `yaml:"total_costs" json:"total_costs"`
}
