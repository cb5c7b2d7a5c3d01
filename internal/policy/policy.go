// Package policy defines the trading-decision collaborator contract. A
// policy is a pure function from the engine's state vector to a discrete
// action; any concrete model (gradient-boosted tree, policy-gradient
// network, or a test stub) plugs in behind the same narrow interface.
package policy

import (
	"context"
	"time"

	"github.com/petroquant/crudesim/internal/types"
)

// StateVector is the state the engine feeds the policy each step: the
// predicted price alongside the market observation, the ledger's exposure,
// and running equity.
type StateVector struct {
	Date           time.Time
	Price          float64
	PredictedPrice float64
	Position       types.Position
	NetEquity      float64
	// UnrealizedReturn is the open position's return against its entry price.
	UnrealizedReturn float64
	// HoldingSteps is how many steps the current position has been held.
	HoldingSteps int
	Features     types.FeatureVector
}

// Policy decides the action for one step. A failed invocation aborts the
// run; there are no retries inside the simulation loop.
type Policy interface {
	Decide(ctx context.Context, state StateVector) (types.Action, error)
}

// Func adapts a plain function to the Policy interface.
type Func func(ctx context.Context, state StateVector) (types.Action, error)

// Decide implements Policy.
func (f Func) Decide(ctx context.Context, state StateVector) (types.Action, error) {
	return f(ctx, state)
}
