// Package cost models the transaction cost charged when the simulated
// position changes. Costs are expressed as fractions of equity: a model is
// handed the notional fraction switched (0 for no change, 1 for entering or
// exiting a position, 2 for flipping long/short) and returns the cost
// fraction for the step.
package cost

// Model is the deterministic cost function applied on position changes.
type Model interface {
	// Calculate returns the cost fraction for switching the given notional
	// fraction of exposure.
	Calculate(fractionSwitched float64) float64
}

// Scheme selects a cost model by name in configuration files.
type Scheme string

const (
	SchemeProportional Scheme = "proportional"
	SchemeZero         Scheme = "zero"
)

// AllSchemes lists the configurable cost schemes.
var AllSchemes = []any{
	SchemeProportional,
	SchemeZero,
}

// Valid reports whether the scheme names a configurable cost model.
func (s Scheme) Valid() bool {
	switch s {
	case SchemeProportional, SchemeZero:
		return true
	default:
		return false
	}
}

// ForScheme returns the cost model for a configured scheme. Unknown schemes
// fall back to zero cost.
func ForScheme(scheme Scheme, rate float64) Model {
	switch scheme {
	case SchemeProportional:
		return NewProportional(rate)
	case SchemeZero:
		return NewZero()
	default:
		return NewZero()
	}
}
