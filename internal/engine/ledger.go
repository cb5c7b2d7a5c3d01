package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/petroquant/crudesim/internal/engine/cost"
	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
	"github.com/shopspring/decimal"
)

// Ledger is the single source of truth for the evolving position and
// cumulative performance of one run. It is owned exclusively by a single
// Runner instance and mutated once per simulated step, strictly in date
// order. A fresh ledger is built for every run.
type Ledger struct {
	costModel cost.Model

	position    types.Position
	entryPrice  float64
	prevPrice   float64
	grossEquity float64
	netEquity   float64
	// cumulativeCosts accumulates cost fractions with decimal arithmetic so
	// repeated small charges sum exactly.
	cumulativeCosts decimal.Decimal
	holdingSteps    int
	stepIndex       int
	liquidated      bool
}

// NewLedger creates a flat ledger with unit equity.
func NewLedger(costModel cost.Model) *Ledger {
	return &Ledger{
		costModel:       costModel,
		position:        types.PositionFlat,
		entryPrice:      0,
		prevPrice:       0,
		grossEquity:     1,
		netEquity:       1,
		cumulativeCosts: decimal.Zero,
		holdingSteps:    0,
		stepIndex:       0,
		liquidated:      false,
	}
}

// Position returns the current exposure.
func (l *Ledger) Position() types.Position {
	return l.position
}

// NetEquity returns the current net equity (initial equity is 1).
func (l *Ledger) NetEquity() float64 {
	return l.netEquity
}

// GrossEquity returns the current gross equity (initial equity is 1).
func (l *Ledger) GrossEquity() float64 {
	return l.grossEquity
}

// CumulativeCosts returns the sum of all cost fractions charged so far.
func (l *Ledger) CumulativeCosts() float64 {
	costs, _ := l.cumulativeCosts.Float64()

	return costs
}

// Liquidated reports whether net equity was clamped to zero.
func (l *Ledger) Liquidated() bool {
	return l.liquidated
}

// HoldingSteps returns how many steps the current position has been held.
func (l *Ledger) HoldingSteps() int {
	return l.holdingSteps
}

// UnrealizedReturn returns the open position's return against its entry
// price at the last applied price. Zero when flat.
func (l *Ledger) UnrealizedReturn() float64 {
	if l.position == types.PositionFlat || l.entryPrice <= 0 || l.prevPrice <= 0 {
		return 0
	}

	return l.position.Sign() * (l.prevPrice - l.entryPrice) / l.entryPrice
}

// Apply advances the ledger by one step: it accrues the mark-to-market
// return of the position held entering the step, applies the requested
// action at the observed price (charging the cost model on the notional
// fraction switched), updates equity, and emits the post-step trade record.
//
// The gross step return always belongs to the position held while the price
// moved from the previous observation to this one. On a switch step the
// closed position's return against its entry price is additionally recorded
// on the trade as the realized return.
func (l *Ledger) Apply(action types.Action, price float64, date time.Time) (types.Trade, error) {
	if price <= 0 {
		return types.Trade{}, errors.Newf(errors.ErrCodeNonPositivePrice, "step %d on %s observed non-positive price %f", l.stepIndex, date.Format(time.DateOnly), price)
	}

	// Mark-to-market return of the position held entering the step.
	grossReturn := 0.0
	if l.prevPrice > 0 && l.position != types.PositionFlat {
		grossReturn = l.position.Sign() * (price - l.prevPrice) / l.prevPrice
	}

	target := action.Target(l.position)
	if l.liquidated {
		// A liquidated ledger no longer opens exposure; it keeps emitting
		// mark-to-market records at zero equity.
		target = types.PositionFlat
	}

	changed := target != l.position
	realized := optional.None[float64]()
	stepCost := 0.0

	if changed {
		if l.position != types.PositionFlat && l.entryPrice > 0 {
			entry := decimal.NewFromFloat(l.entryPrice)
			exit := decimal.NewFromFloat(price)
			r, _ := exit.Sub(entry).Div(entry).Float64()
			realized = optional.Some(l.position.Sign() * r)
		}

		fraction := abs(target.Sign() - l.position.Sign())
		stepCost = l.costModel.Calculate(fraction)
		l.cumulativeCosts = l.cumulativeCosts.Add(decimal.NewFromFloat(stepCost))

		l.position = target
		if target == types.PositionFlat {
			l.entryPrice = 0
		} else {
			l.entryPrice = price
		}

		l.holdingSteps = 0
	} else if l.position != types.PositionFlat {
		l.holdingSteps++
	}

	l.grossEquity *= 1 + grossReturn
	l.netEquity *= 1 + grossReturn - stepCost

	// Equity never goes negative: clamp and mark the run liquidated.
	if l.grossEquity < 0 {
		l.grossEquity = 0
	}

	if l.netEquity <= 0 {
		if l.netEquity < 0 {
			l.netEquity = 0
		}

		if l.netEquity == 0 {
			l.liquidated = true
			l.position = types.PositionFlat
			l.entryPrice = 0
		}
	}

	trade := types.Trade{
		StepIndex:         l.stepIndex,
		Date:              date,
		Action:            action,
		ResultingPosition: l.position,
		Price:             price,
		GrossReturn:       grossReturn,
		Cost:              stepCost,
		NetReturn:         grossReturn - stepCost,
		CumulativeReturn:  l.netEquity - 1,
		PositionChanged:   changed,
		RealizedReturn:    realized,
	}

	l.prevPrice = price
	l.stepIndex++

	return trade, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
