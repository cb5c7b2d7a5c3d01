package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Trade is one append-only log entry per simulated step, emitted whether or
// not the position changed.
type Trade struct {
	// StepIndex is the zero-based index of the step within the run.
	StepIndex int `yaml:"step_index" json:"step_index"`
	// Date is the observation date the step was simulated on.
	Date time.Time `yaml:"date" json:"date"`
	// Action is the decision applied this step.
	Action Action `yaml:"action" json:"action"`
	// ResultingPosition is the exposure after the action was applied.
	ResultingPosition Position `yaml:"resulting_position" json:"resulting_position"`
	// Price is the observed price at this step.
	Price float64 `yaml:"price" json:"price"`
	// GrossReturn is this step's price-driven return before costs.
	GrossReturn float64 `yaml:"gross_return" json:"gross_return"`
	// Cost is the transaction cost fraction charged this step.
	Cost float64 `yaml:"cost" json:"cost"`
	// NetReturn is GrossReturn minus Cost.
	NetReturn float64 `yaml:"net_return" json:"net_return"`
	// CumulativeReturn is the running net equity minus one.
	CumulativeReturn float64 `yaml:"cumulative_return" json:"cumulative_return"`
	// PositionChanged reports whether this step switched exposure.
	PositionChanged bool `yaml:"position_changed" json:"position_changed"`
	// RealizedReturn is present only when this step closed a position. It is
	// the closed position's return measured against its entry price.
	RealizedReturn optional.Option[float64] `yaml:"realized_return,omitempty" json:"realized_return,omitempty"`
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	StepIndex int       `yaml:"step_index" json:"step_index"`
	Date      time.Time `yaml:"date" json:"date"`
	// GrossEquity is the cumulative product of per-step gross returns.
	GrossEquity float64 `yaml:"gross_equity" json:"gross_equity"`
	// NetEquity is the cumulative product of per-step net returns.
	NetEquity float64 `yaml:"net_equity" json:"net_equity"`
	// Drawdown is 1 - NetEquity / runningPeak(NetEquity).
	Drawdown float64 `yaml:"drawdown" json:"drawdown"`
}
