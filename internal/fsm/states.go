package fsm

import (
	"github.com/librescoot/librefsm"

	"insomnia-service/internal/types"
)

// Mode states
const (
	StateInit         librefsm.StateID = "init"
	StateDisabled     librefsm.StateID = "disabled"
	StateAlways       librefsm.StateID = "always"
	StateWhenCharging librefsm.StateID = "when-charging"
)

// Mode events (from Redis commands or the command line)
const (
	EvModeDisabled     librefsm.EventID = "mode-disabled"
	EvModeAlways       librefsm.EventID = "mode-always"
	EvModeWhenCharging librefsm.EventID = "mode-when-charging"
)

// StateForMode maps a mode to its state.
func StateForMode(m types.Mode) librefsm.StateID {
	switch m {
	case types.ModeAlways:
		return StateAlways
	case types.ModeWhenCharging:
		return StateWhenCharging
	default:
		return StateDisabled
	}
}

// EventForMode returns the event that moves the machine into m.
func EventForMode(m types.Mode) librefsm.EventID {
	switch m {
	case types.ModeAlways:
		return EvModeAlways
	case types.ModeWhenCharging:
		return EvModeWhenCharging
	default:
		return EvModeDisabled
	}
}

// ModeForState reports the mode a state represents. Init has none.
func ModeForState(id librefsm.StateID) (types.Mode, bool) {
	switch id {
	case StateDisabled:
		return types.ModeDisabled, true
	case StateAlways:
		return types.ModeAlways, true
	case StateWhenCharging:
		return types.ModeWhenCharging, true
	default:
		return "", false
	}
}
