package forecast

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
)

// TableForecaster serves predictions from a pre-computed prediction log,
// one predicted price per date. Dates without an entry are reported as
// unavailable, which the engine degrades to a hold step.
type TableForecaster struct {
	predictions map[time.Time]float64
}

// NewTableForecaster builds a table forecaster from forecast records.
func NewTableForecaster(forecasts []types.Forecast) *TableForecaster {
	predictions := make(map[time.Time]float64, len(forecasts))
	for _, f := range forecasts {
		predictions[normalize(f.Date)] = f.PredictedPrice
	}

	return &TableForecaster{predictions: predictions}
}

// LoadPredictionLog reads a prediction log CSV with `date` and `predicted`
// (or `predicted_price`) columns into a TableForecaster.
func LoadPredictionLog(path string) (*TableForecaster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataNotFound, "failed to open prediction log", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read prediction log", err)
	}

	if len(records) < 1 {
		return nil, errors.New(errors.ErrCodeInsufficientData, "prediction log is empty")
	}

	dateIdx, predIdx := -1, -1

	for i, col := range records[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date":
			dateIdx = i
		case "predicted", "predicted_price", "prediction":
			predIdx = i
		}
	}

	if dateIdx < 0 || predIdx < 0 {
		return nil, errors.New(errors.ErrCodeDataNotFound, "prediction log needs date and predicted columns")
	}

	forecasts := make([]types.Forecast, 0, len(records)-1)

	for _, record := range records[1:] {
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(record[dateIdx]))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "unparseable date %q in prediction log", record[dateIdx])
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(record[predIdx]), 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "unparseable prediction %q in prediction log", record[predIdx])
		}

		forecasts = append(forecasts, types.Forecast{Date: date, PredictedPrice: price})
	}

	return NewTableForecaster(forecasts), nil
}

// Forecast implements Forecaster.
func (t *TableForecaster) Forecast(ctx context.Context, date time.Time, features types.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	price, ok := t.predictions[normalize(date)]
	if !ok {
		return 0, Unavailable(date)
	}

	return price, nil
}

// Len returns the number of dates with predictions.
func (t *TableForecaster) Len() int {
	return len(t.predictions)
}

func normalize(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}
