package policy

import (
	"context"
	"testing"

	"github.com/petroquant/crudesim/internal/types"
	"github.com/stretchr/testify/suite"
)

type ThresholdPolicyTestSuite struct {
	suite.Suite
}

func TestThresholdPolicySuite(t *testing.T) {
	suite.Run(t, new(ThresholdPolicyTestSuite))
}

func (suite *ThresholdPolicyTestSuite) TestDecide() {
	tests := []struct {
		name      string
		band      float64
		price     float64
		predicted float64
		expected  types.Action
	}{
		{"zero band trades any rise", 0, 100, 100.01, types.ActionLong},
		{"zero band trades any fall", 0, 100, 99.99, types.ActionShort},
		{"zero band holds on exact match", 0, 100, 100, types.ActionHold},
		{"move above band goes long", 0.01, 100, 102, types.ActionLong},
		{"move below band goes short", 0.01, 100, 98, types.ActionShort},
		{"move inside band holds", 0.01, 100, 100.5, types.ActionHold},
		{"move at band edge holds", 0.01, 100, 101, types.ActionHold},
		{"non-positive price holds", 0, 0, 101, types.ActionHold},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			policy := NewThreshold(tc.band)
			action, err := policy.Decide(context.Background(), StateVector{
				Price:          tc.price,
				PredictedPrice: tc.predicted,
			})
			suite.NoError(err)
			suite.Equal(tc.expected, action)
		})
	}
}

func (suite *ThresholdPolicyTestSuite) TestDecideCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := NewThreshold(0)
	_, err := policy.Decide(ctx, StateVector{Price: 100, PredictedPrice: 101})
	suite.Error(err)
}

func (suite *ThresholdPolicyTestSuite) TestBuyHoldAlwaysLong() {
	policy := NewBuyHold()

	for _, position := range []types.Position{types.PositionFlat, types.PositionLong, types.PositionShort} {
		action, err := policy.Decide(context.Background(), StateVector{Position: position})
		suite.NoError(err)
		suite.Equal(types.ActionLong, action)
	}
}

func (suite *ThresholdPolicyTestSuite) TestConfidentPolicyPassThrough() {
	policy := NewConfidentPolicy(NewThreshold(0), 0.8)

	action, err := policy.Decide(context.Background(), StateVector{Price: 100, PredictedPrice: 105})
	suite.NoError(err)
	suite.Equal(types.ActionLong, action)
	suite.Equal(0.8, policy.Confidence())
}
