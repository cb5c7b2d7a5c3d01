package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/petroquant/crudesim/internal/engine/cost"
	"github.com/petroquant/crudesim/internal/types"
	"github.com/petroquant/crudesim/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	// DefaultPeriodsPerYear annualizes daily step returns.
	DefaultPeriodsPerYear = 252
	// DefaultCollaboratorTimeout bounds each forecaster/policy call.
	DefaultCollaboratorTimeout = 10 * time.Second
)

// Config describes one backtest run. It is immutable for the duration of
// the run; invalid values are rejected before any simulation step runs.
type Config struct {
	// LookbackDays selects the last N observations of the series.
	LookbackDays int `yaml:"lookback_days" json:"lookback_days" validate:"required,gt=0" jsonschema:"title=Lookback Days,description=Number of trailing observations to simulate,minimum=1"`
	// InitialCapital is the starting capital in USD.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" validate:"required,gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0"`
	// TransactionCostRate is the fraction of notional charged when the
	// position changes, in [0, 1).
	TransactionCostRate float64 `yaml:"transaction_cost_rate" json:"transaction_cost_rate" validate:"gte=0,lt=1" jsonschema:"title=Transaction Cost Rate,description=Fraction of notional charged per unit of exposure switched,minimum=0"`
	// CostScheme selects the cost model applied to position changes.
	CostScheme cost.Scheme `yaml:"cost_scheme" json:"cost_scheme" jsonschema:"title=Cost Scheme,description=Cost model applied when the position changes"`
	// CollaboratorTimeout bounds each forecaster/policy invocation.
	CollaboratorTimeout time.Duration `yaml:"collaborator_timeout" json:"collaborator_timeout" validate:"gt=0" jsonschema:"title=Collaborator Timeout,description=Per-call timeout for forecaster and policy invocations"`
	// PeriodsPerYear annualizes the Sharpe ratio.
	PeriodsPerYear int `yaml:"periods_per_year" json:"periods_per_year" validate:"gt=0" jsonschema:"title=Periods Per Year,description=Trading periods per year used for annualization"`
}

// UnmarshalYAML implements custom unmarshaling for Config so omitted fields
// pick up defaults.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig struct {
		LookbackDays        int         `yaml:"lookback_days"`
		InitialCapital      float64     `yaml:"initial_capital"`
		TransactionCostRate float64     `yaml:"transaction_cost_rate"`
		CostScheme          cost.Scheme `yaml:"cost_scheme"`
		CollaboratorTimeout string      `yaml:"collaborator_timeout"`
		PeriodsPerYear      int         `yaml:"periods_per_year"`
	}

	var raw rawConfig
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.LookbackDays = raw.LookbackDays
	c.InitialCapital = raw.InitialCapital
	c.TransactionCostRate = raw.TransactionCostRate
	c.CostScheme = raw.CostScheme
	c.PeriodsPerYear = raw.PeriodsPerYear

	if raw.CollaboratorTimeout != "" {
		timeout, err := time.ParseDuration(raw.CollaboratorTimeout)
		if err != nil {
			return err
		}

		c.CollaboratorTimeout = timeout
	} else {
		c.CollaboratorTimeout = 0
	}
	c.applyDefaults()

	return nil
}

func (c *Config) applyDefaults() {
	if c.CostScheme == "" {
		c.CostScheme = cost.SchemeProportional
	}

	if c.CollaboratorTimeout == 0 {
		c.CollaboratorTimeout = DefaultCollaboratorTimeout
	}

	if c.PeriodsPerYear == 0 {
		c.PeriodsPerYear = DefaultPeriodsPerYear
	}
}

// ParseConfig unmarshals and validates a YAML config document.
func ParseConfig(content string) (Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Validate rejects invalid configurations with field-specific error codes.
func (c *Config) Validate() error {
	c.applyDefaults()

	if c.LookbackDays <= 0 {
		return errors.Newf(errors.ErrCodeInvalidLookback, "lookback_days must be positive, got %d", c.LookbackDays)
	}

	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidCapital, "initial_capital must be positive, got %f", c.InitialCapital)
	}

	if c.TransactionCostRate < 0 || c.TransactionCostRate >= 1 {
		return errors.Newf(errors.ErrCodeInvalidCostRate, "transaction_cost_rate must be in [0, 1), got %f", c.TransactionCostRate)
	}

	if !c.CostScheme.Valid() {
		return errors.Newf(errors.ErrCodeInvalidCostScheme, "unknown cost_scheme %q", c.CostScheme)
	}

	if c.CollaboratorTimeout <= 0 {
		return errors.Newf(errors.ErrCodeInvalidTimeout, "collaborator_timeout must be positive, got %s", c.CollaboratorTimeout)
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	return nil
}

// CostModel builds the cost model this config selects.
func (c *Config) CostModel() cost.Model {
	return cost.ForScheme(c.CostScheme, c.TransactionCostRate)
}

// Parameters returns the immutable snapshot stored on results.
func (c *Config) Parameters() types.RunParameters {
	return types.RunParameters{
		LookbackDays:        c.LookbackDays,
		InitialCapital:      c.InitialCapital,
		TransactionCostRate: c.TransactionCostRate,
	}
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if strings.Contains(t.String(), "cost.Scheme") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: cost.AllSchemes,
				}
			}
			if t.String() == "time.Duration" {
				return &jsonschema.Schema{
					Type:        "integer",
					Description: "Duration in nanoseconds",
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for a backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns a Config with default ancillary settings and the
// given core parameters.
func DefaultConfig(lookbackDays int, initialCapital, costRate float64) Config {
	config := Config{
		LookbackDays:        lookbackDays,
		InitialCapital:      initialCapital,
		TransactionCostRate: costRate,
	}
	config.applyDefaults()

	return config
}
