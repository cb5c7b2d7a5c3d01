package forecast

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
)

// RemoteForecaster calls a model-serving HTTP endpoint for each prediction.
// Each call is bounded by the caller's context; the engine supplies the
// per-call timeout from its config. No retries happen here: a transient
// failure aborts the run and the caller decides whether to re-run.
type RemoteForecaster struct {
	client   *resty.Client
	endpoint string
}

type remoteForecastRequest struct {
	Date     string    `json:"date"`
	Names    []string  `json:"feature_names"`
	Features []float64 `json:"features"`
}

type remoteForecastResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
}

// NewRemoteForecaster creates a forecaster client for the given endpoint.
func NewRemoteForecaster(endpoint string) *RemoteForecaster {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)

	return &RemoteForecaster{
		client:   client,
		endpoint: endpoint,
	}
}

// Forecast implements Forecaster. A 404 from the serving endpoint means no
// model output exists for the date; any other failure is fatal to the run.
func (r *RemoteForecaster) Forecast(ctx context.Context, date time.Time, features types.FeatureVector) (float64, error) {
	var out remoteForecastResponse

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(remoteForecastRequest{
			Date:     date.Format(time.DateOnly),
			Names:    features.Names,
			Features: features.Values,
		}).
		SetResult(&out).
		Post(r.endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return 0, errors.Wrap(errors.ErrCodeCollaboratorTimeout, "forecast call timed out", err)
		}

		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "forecast call failed", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return 0, Unavailable(date)
	}

	if resp.IsError() {
		return 0, errors.Newf(errors.ErrCodeQueryFailed, "forecast endpoint returned status %d", resp.StatusCode())
	}

	if out.PredictedPrice <= 0 {
		return 0, errors.Newf(errors.ErrCodeNonPositivePrice, "forecast endpoint returned non-positive price %f", out.PredictedPrice)
	}

	return out.PredictedPrice, nil
}
