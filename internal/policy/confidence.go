package policy

import (
	"context"

	"github.com/petroquant/crudesim/internal/types"
)

// ConfidentPolicy pairs a policy with an opaque confidence value supplied
// by the collaborator. The confidence is a pass-through for reporting; it
// is never derived by the engine.
type ConfidentPolicy struct {
	inner      Policy
	confidence float64
}

// NewConfidentPolicy wraps a policy with a fixed reported confidence.
func NewConfidentPolicy(inner Policy, confidence float64) *ConfidentPolicy {
	return &ConfidentPolicy{
		inner:      inner,
		confidence: confidence,
	}
}

// Decide implements Policy.
func (c *ConfidentPolicy) Decide(ctx context.Context, state StateVector) (types.Action, error) {
	return c.inner.Decide(ctx, state)
}

// Confidence returns the collaborator-supplied confidence value.
func (c *ConfidentPolicy) Confidence() float64 {
	return c.confidence
}
