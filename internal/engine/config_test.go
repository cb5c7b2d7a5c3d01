package engine

import (
	"testing"
	"time"

	"github.com/petroquant/crudesim/internal/engine/cost"
	"github.com/petroquant/crudesim/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestParseConfig() {
	yaml := `
lookback_days: 365
initial_capital: 100000
transaction_cost_rate: 0.001
cost_scheme: proportional
collaborator_timeout: 5s
periods_per_year: 252
`

	config, err := ParseConfig(yaml)
	suite.NoError(err)
	suite.Equal(365, config.LookbackDays)
	suite.Equal(100000.0, config.InitialCapital)
	suite.Equal(0.001, config.TransactionCostRate)
	suite.Equal(cost.SchemeProportional, config.CostScheme)
	suite.Equal(5*time.Second, config.CollaboratorTimeout)
	suite.Equal(252, config.PeriodsPerYear)
}

func (suite *ConfigTestSuite) TestParseConfigDefaults() {
	yaml := `
lookback_days: 90
initial_capital: 50000
`

	config, err := ParseConfig(yaml)
	suite.NoError(err)
	suite.Equal(cost.SchemeProportional, config.CostScheme)
	suite.Equal(DefaultCollaboratorTimeout, config.CollaboratorTimeout)
	suite.Equal(DefaultPeriodsPerYear, config.PeriodsPerYear)
	suite.Equal(0.0, config.TransactionCostRate)
}

// A typo'd cost_scheme must never slip through as a free-cost run.
func (suite *ConfigTestSuite) TestParseConfigRejectsUnknownCostScheme() {
	yaml := `
lookback_days: 365
initial_capital: 100000
transaction_cost_rate: 0.001
cost_scheme: porportional
`

	_, err := ParseConfig(yaml)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidCostScheme))
	suite.Equal(errors.CategoryConfiguration, errors.GetCategory(err))
}

func (suite *ConfigTestSuite) TestParseConfigInvalidYaml() {
	_, err := ParseConfig("lookback_days: [not a number")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode errors.ErrorCode
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:     "zero lookback",
			mutate:   func(c *Config) { c.LookbackDays = 0 },
			wantCode: errors.ErrCodeInvalidLookback,
		},
		{
			name:     "negative lookback",
			mutate:   func(c *Config) { c.LookbackDays = -10 },
			wantCode: errors.ErrCodeInvalidLookback,
		},
		{
			name:     "negative capital",
			mutate:   func(c *Config) { c.InitialCapital = -1 },
			wantCode: errors.ErrCodeInvalidCapital,
		},
		{
			name:     "zero capital",
			mutate:   func(c *Config) { c.InitialCapital = 0 },
			wantCode: errors.ErrCodeInvalidCapital,
		},
		{
			name:     "negative cost rate",
			mutate:   func(c *Config) { c.TransactionCostRate = -0.001 },
			wantCode: errors.ErrCodeInvalidCostRate,
		},
		{
			name:     "cost rate of one",
			mutate:   func(c *Config) { c.TransactionCostRate = 1 },
			wantCode: errors.ErrCodeInvalidCostRate,
		},
		{
			name:     "negative timeout",
			mutate:   func(c *Config) { c.CollaboratorTimeout = -time.Second },
			wantCode: errors.ErrCodeInvalidTimeout,
		},
		{
			name:     "misspelled cost scheme",
			mutate:   func(c *Config) { c.CostScheme = cost.Scheme("porportional") },
			wantCode: errors.ErrCodeInvalidCostScheme,
		},
		{
			name:   "zero cost scheme",
			mutate: func(c *Config) { c.CostScheme = cost.SchemeZero },
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := DefaultConfig(365, 100000, 0.001)
			tc.mutate(&config)

			err := config.Validate()
			if tc.wantCode != 0 {
				suite.Error(err)
				suite.True(errors.HasCode(err, tc.wantCode))
				suite.Equal(errors.CategoryConfiguration, errors.GetCategory(err))
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *ConfigTestSuite) TestCostModel() {
	config := DefaultConfig(365, 100000, 0.001)
	model := config.CostModel()
	suite.InDelta(0.002, model.Calculate(2), 1e-12)

	config.CostScheme = cost.SchemeZero
	suite.Equal(0.0, config.CostModel().Calculate(2))
}

func (suite *ConfigTestSuite) TestParameters() {
	config := DefaultConfig(90, 25000, 0.002)
	params := config.Parameters()
	suite.Equal(90, params.LookbackDays)
	suite.Equal(25000.0, params.InitialCapital)
	suite.Equal(0.002, params.TransactionCostRate)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	var config Config

	schema, err := config.GenerateSchemaJSON()
	suite.NoError(err)
	suite.Contains(schema, "lookback_days")
	suite.Contains(schema, "transaction_cost_rate")
	suite.Contains(schema, "cost_scheme")
}
