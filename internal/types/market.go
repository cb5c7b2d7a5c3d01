package types

import (
	"time"

	"github.com/petroquant/crudesim/pkg/errors"
)

// FeatureVector is a fixed-size ordered vector of named float features
// (moving averages, volatility, port congestion and similar engineered
// inputs). Names and Values are index-aligned.
type FeatureVector struct {
	Names  []string  `yaml:"names" json:"names"`
	Values []float64 `yaml:"values" json:"values"`
}

// Get returns the value of the named feature and whether it exists.
func (f FeatureVector) Get(name string) (float64, bool) {
	for i, n := range f.Names {
		if n == name {
			return f.Values[i], true
		}
	}

	return 0, false
}

// Clone returns a deep copy so callers can build derived vectors without
// mutating the source observation.
func (f FeatureVector) Clone() FeatureVector {
	out := FeatureVector{
		Names:  make([]string, len(f.Names)),
		Values: make([]float64, len(f.Values)),
	}
	copy(out.Names, f.Names)
	copy(out.Values, f.Values)

	return out
}

// Observation is one row of the historical market series: a calendar day,
// the actual close price, and the engineered feature vector for that day.
// Immutable once loaded.
type Observation struct {
	Date     time.Time     `yaml:"date" json:"date" validate:"required"`
	Price    float64       `yaml:"price" json:"price" validate:"required,gt=0"`
	Features FeatureVector `yaml:"features" json:"features"`
}

// Validate checks the observation's own integrity constraints.
func (o Observation) Validate() error {
	if o.Price <= 0 {
		return errors.Newf(errors.ErrCodeNonPositivePrice, "observation on %s has non-positive price %f", o.Date.Format(time.DateOnly), o.Price)
	}

	if len(o.Features.Names) != len(o.Features.Values) {
		return errors.Newf(errors.ErrCodeUnorderedSeries, "observation on %s has %d feature names but %d values", o.Date.Format(time.DateOnly), len(o.Features.Names), len(o.Features.Values))
	}

	return nil
}

// Forecast is the externally supplied predicted next-period price for an
// observation date. One forecast per observation date; may be absent.
type Forecast struct {
	Date           time.Time `yaml:"date" json:"date"`
	PredictedPrice float64   `yaml:"predicted_price" json:"predicted_price"`
}
