package forecast

import (
	"context"
	"time"

	"github.com/petroquant/crudesim/internal/types"
)

// Naive predicts no price movement: the forecast equals the current close.
// It backs the buy-and-hold baseline, which ignores forecasts entirely, and
// mirrors the original fallback of carrying the previous close forward.
type Naive struct{}

// NewNaive creates a naive forecaster.
func NewNaive() *Naive {
	return &Naive{}
}

// Forecast implements Forecaster. The close price is read from the feature
// vector when present; otherwise the forecast is unavailable.
func (n *Naive) Forecast(ctx context.Context, date time.Time, features types.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if price, ok := features.Get("close_price"); ok && price > 0 {
		return price, nil
	}

	return 0, Unavailable(date)
}
