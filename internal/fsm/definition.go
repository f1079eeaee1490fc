package fsm

import (
	"github.com/librescoot/librefsm"
)

var modeStates = []librefsm.StateID{StateDisabled, StateAlways, StateWhenCharging}

// NewDefinition creates the mode FSM definition. Every mode is reachable
// from init and from every other mode. Re-requesting the current mode is
// not a transition; callers re-apply it directly.
func NewDefinition(actions Actions) *librefsm.Definition {
	def := librefsm.NewDefinition().
		State(StateInit).
		State(StateDisabled,
			librefsm.WithOnEnter(actions.EnterDisabled),
		).
		State(StateAlways,
			librefsm.WithOnEnter(actions.EnterAlways),
		).
		State(StateWhenCharging,
			librefsm.WithOnEnter(actions.EnterWhenCharging),
		)

	events := map[librefsm.StateID]librefsm.EventID{
		StateDisabled:     EvModeDisabled,
		StateAlways:       EvModeAlways,
		StateWhenCharging: EvModeWhenCharging,
	}

	for _, to := range modeStates {
		def = def.Transition(StateInit, events[to], to)
		for _, from := range modeStates {
			if from != to {
				def = def.Transition(from, events[to], to)
			}
		}
	}

	return def.Initial(StateInit)
}
