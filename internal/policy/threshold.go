package policy

import (
	"context"

	"github.com/petroquant/crudesim/internal/types"
)

// Threshold is the rule-based policy: go long when the forecast is above
// the current price by more than the band, go short when it is below by
// more than the band, hold otherwise. A zero band trades on any predicted
// move.
type Threshold struct {
	// Band is the minimum relative predicted move required to trade.
	Band float64
}

// NewThreshold creates a threshold policy with the given band.
func NewThreshold(band float64) *Threshold {
	return &Threshold{Band: band}
}

// Decide implements Policy.
func (t *Threshold) Decide(ctx context.Context, state StateVector) (types.Action, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if state.Price <= 0 {
		return types.ActionHold, nil
	}

	move := (state.PredictedPrice - state.Price) / state.Price

	switch {
	case move > t.Band:
		return types.ActionLong, nil
	case move < -t.Band:
		return types.ActionShort, nil
	default:
		return types.ActionHold, nil
	}
}

// BuyHold always goes long. It backs the buy-and-hold baseline: the first
// step opens the position and every later LONG is a no-op with no cost.
type BuyHold struct{}

// NewBuyHold creates the buy-and-hold policy.
func NewBuyHold() *BuyHold {
	return &BuyHold{}
}

// Decide implements Policy.
func (b *BuyHold) Decide(ctx context.Context, state StateVector) (types.Action, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return types.ActionLong, nil
}
