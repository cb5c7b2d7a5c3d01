package market

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
)

// SliceSeries is an in-memory Series backed by a pre-loaded observation
// slice. It validates ordering and price positivity once at construction
// and is immutable afterwards, so it is safe for concurrent runs.
type SliceSeries struct {
	observations []types.Observation
}

// NewSliceSeries builds a SliceSeries after validating every observation
// and the strict date ordering of the slice.
func NewSliceSeries(observations []types.Observation) (*SliceSeries, error) {
	for i, obs := range observations {
		if err := obs.Validate(); err != nil {
			return nil, err
		}

		if i > 0 && !observations[i-1].Date.Before(obs.Date) {
			return nil, errors.Newf(errors.ErrCodeUnorderedSeries, "observation dates must be strictly increasing, %s is not after %s",
				obs.Date.Format(time.DateOnly), observations[i-1].Date.Format(time.DateOnly))
		}
	}

	owned := make([]types.Observation, len(observations))
	copy(owned, observations)

	return &SliceSeries{observations: owned}, nil
}

// Window implements Series.
func (s *SliceSeries) Window(ctx context.Context, start, end optional.Option[time.Time]) ([]types.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []types.Observation

	for _, obs := range s.observations {
		if start.IsSome() && obs.Date.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && obs.Date.After(end.Unwrap()) {
			break
		}

		out = append(out, obs)
	}

	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeInsufficientData, "no observations in requested window")
	}

	return out, nil
}

// Count implements Series.
func (s *SliceSeries) Count(ctx context.Context, start, end optional.Option[time.Time]) (int, error) {
	out, err := s.Window(ctx, start, end)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInsufficientData) {
			return 0, nil
		}

		return 0, err
	}

	return len(out), nil
}

// Last implements Series.
func (s *SliceSeries) Last(ctx context.Context) (types.Observation, error) {
	if err := ctx.Err(); err != nil {
		return types.Observation{}, err
	}

	if len(s.observations) == 0 {
		return types.Observation{}, errors.New(errors.ErrCodeInsufficientData, "series is empty")
	}

	return s.observations[len(s.observations)-1], nil
}
