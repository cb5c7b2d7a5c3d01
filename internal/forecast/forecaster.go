// Package forecast defines the price-forecaster collaborator contract and
// the built-in implementations. A forecaster is a pure function from an
// observation date and its feature vector to a predicted next-period price;
// it may involve I/O latency but never mutates engine state.
package forecast

import (
	"context"
	"time"

	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
)

// Forecaster produces the predicted next-period price for a date.
//
// An implementation signals a missing model output for the date with an
// error carrying ErrCodeForecastUnavailable; the engine degrades that step
// to a hold-equivalent mark-to-market. Every other failure, including a
// context timeout, aborts the run.
type Forecaster interface {
	Forecast(ctx context.Context, date time.Time, features types.FeatureVector) (float64, error)
}

// Unavailable builds the sentinel error a forecaster returns when no model
// output exists for the date.
func Unavailable(date time.Time) error {
	return errors.Newf(errors.ErrCodeForecastUnavailable, "no forecast for %s", date.Format(time.DateOnly))
}

// IsUnavailable reports whether the error is the missing-forecast signal as
// opposed to a fatal collaborator failure.
func IsUnavailable(err error) bool {
	return errors.HasCode(err, errors.ErrCodeForecastUnavailable)
}

// Func adapts a plain function to the Forecaster interface.
type Func func(ctx context.Context, date time.Time, features types.FeatureVector) (float64, error)

// Forecast implements Forecaster.
func (f Func) Forecast(ctx context.Context, date time.Time, features types.FeatureVector) (float64, error) {
	return f(ctx, date, features)
}
