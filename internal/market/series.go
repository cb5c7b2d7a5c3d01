// Package market provides read-only access to the ordered historical
// observation series the engine simulates over.
package market

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/petroquant/crudesim/internal/types"
)

// Series is the read-only contract the engine consumes. Implementations
// return observations ordered by strictly increasing date and report
// insufficient data with ErrCodeInsufficientData when a requested window
// cannot be satisfied.
type Series interface {
	// Window returns the ordered observations within the optional date
	// bounds (inclusive).
	Window(ctx context.Context, start, end optional.Option[time.Time]) ([]types.Observation, error)
	// Count returns the number of observations within the optional bounds.
	Count(ctx context.Context, start, end optional.Option[time.Time]) (int, error)
	// Last returns the most recent observation.
	Last(ctx context.Context) (types.Observation, error)
}
