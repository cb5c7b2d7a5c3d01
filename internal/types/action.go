package types

import "github.com/petroquant/crudesim/pkg/errors"

// Action is the discrete decision returned by the trading policy.
type Action string

const (
	// ActionHold keeps the current position unchanged.
	ActionHold Action = "HOLD"
	// ActionLong requests a long position.
	ActionLong Action = "LONG"
	// ActionShort requests a short position.
	ActionShort Action = "SHORT"
)

// AllActions lists the permitted action values.
var AllActions = []Action{ActionHold, ActionLong, ActionShort}

// ParseAction validates a raw action value. Anything outside the enum is an
// invalid-action collaborator error.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionHold, ActionLong, ActionShort:
		return Action(raw), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidAction, "policy returned unknown action %q", raw)
	}
}

// Position is the signed exposure state of the ledger.
type Position int8

const (
	PositionFlat  Position = 0
	PositionLong  Position = 1
	PositionShort Position = -1
)

// Sign returns the position as a float return multiplier.
func (p Position) Sign() float64 {
	return float64(p)
}

// String implements fmt.Stringer.
func (p Position) String() string {
	switch p {
	case PositionLong:
		return "LONG"
	case PositionShort:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Target maps an action onto the position it requests, given the current
// position. Hold always keeps the current position.
func (a Action) Target(current Position) Position {
	switch a {
	case ActionLong:
		return PositionLong
	case ActionShort:
		return PositionShort
	default:
		return current
	}
}
