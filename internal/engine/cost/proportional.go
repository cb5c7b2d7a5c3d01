package cost

// Proportional charges a flat rate on the notional fraction switched:
// cost = fractionSwitched * Rate.
type Proportional struct {
	rate float64
}

// NewProportional creates a proportional cost model with the given rate.
func NewProportional(rate float64) *Proportional {
	return &Proportional{rate: rate}
}

// Calculate implements Model.
func (p *Proportional) Calculate(fractionSwitched float64) float64 {
	if fractionSwitched <= 0 {
		return 0
	}

	return fractionSwitched * p.rate
}

// Rate returns the configured cost rate.
func (p *Proportional) Rate() float64 {
	return p.rate
}

// Zero charges no transaction costs. Used for gross-only simulations and tests.
type Zero struct{}

// NewZero creates a zero cost model.
func NewZero() *Zero {
	return &Zero{}
}

// Calculate implements Model.
func (z *Zero) Calculate(fractionSwitched float64) float64 {
	return 0
}
