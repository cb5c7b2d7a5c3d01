package types

import (
	"testing"
	"time"

	"github.com/petroquant/crudesim/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MarketTypesTestSuite struct {
	suite.Suite
}

func TestMarketTypesSuite(t *testing.T) {
	suite.Run(t, new(MarketTypesTestSuite))
}

func (suite *MarketTypesTestSuite) TestFeatureVectorGet() {
	fv := FeatureVector{
		Names:  []string{"ma_7", "volatility"},
		Values: []float64{72.5, 0.18},
	}

	value, ok := fv.Get("ma_7")
	suite.True(ok)
	suite.Equal(72.5, value)

	value, ok = fv.Get("missing")
	suite.False(ok)
	suite.Equal(0.0, value)
}

func (suite *MarketTypesTestSuite) TestFeatureVectorClone() {
	fv := FeatureVector{
		Names:  []string{"ma_7"},
		Values: []float64{72.5},
	}

	clone := fv.Clone()
	clone.Names[0] = "changed"
	clone.Values[0] = 0

	suite.Equal("ma_7", fv.Names[0])
	suite.Equal(72.5, fv.Values[0])
}

func (suite *MarketTypesTestSuite) TestObservationValidate() {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		obs     Observation
		wantErr errors.ErrorCode
	}{
		{
			name: "valid observation",
			obs: Observation{
				Date:  date,
				Price: 75.2,
				Features: FeatureVector{
					Names:  []string{"ma_7"},
					Values: []float64{74.8},
				},
			},
		},
		{
			name:    "zero price",
			obs:     Observation{Date: date, Price: 0},
			wantErr: errors.ErrCodeNonPositivePrice,
		},
		{
			name:    "negative price",
			obs:     Observation{Date: date, Price: -3},
			wantErr: errors.ErrCodeNonPositivePrice,
		},
		{
			name: "misaligned features",
			obs: Observation{
				Date:  date,
				Price: 75.2,
				Features: FeatureVector{
					Names:  []string{"ma_7", "volatility"},
					Values: []float64{74.8},
				},
			},
			wantErr: errors.ErrCodeUnorderedSeries,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := tc.obs.Validate()
			if tc.wantErr != 0 {
				suite.Error(err)
				suite.True(errors.HasCode(err, tc.wantErr))
			} else {
				suite.NoError(err)
			}
		})
	}
}
