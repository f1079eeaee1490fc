package core

import (
	"context"

	"github.com/librescoot/librefsm"

	"insomnia-service/internal/fsm"
	"insomnia-service/internal/types"
)

// Ensure InsomniaSystem implements fsm.Actions
var _ fsm.Actions = (*InsomniaSystem)(nil)

// initFSM builds the mode machine and moves it out of init into the
// configured mode. The controller already runs that mode, so entering it
// does not apply it a second time.
func (v *InsomniaSystem) initFSM(ctx context.Context) error {
	def := fsm.NewDefinition(v)
	machine, err := def.Build()
	if err != nil {
		return err
	}

	// Runs under the FSM lock; must not call back into the machine
	machine.OnStateChange(func(from, to librefsm.StateID) {
		v.logger.Infof("Mode transition: %s -> %s", from, to)

		mode, ok := fsm.ModeForState(to)
		if !ok {
			return
		}
		if err := v.redis.PublishMode(mode); err != nil {
			v.logger.Errorf("Failed to publish mode: %v", err)
		}
	})

	if err := machine.Start(ctx); err != nil {
		return err
	}
	v.machine = machine
	v.logger.Infof("librefsm mode machine started")

	return v.sendEvent(fsm.EventForMode(v.initialMode))
}

func (v *InsomniaSystem) sendEvent(event librefsm.EventID) error {
	return v.machine.SendSync(librefsm.Event{ID: event})
}

// requestMode moves the machine to mode. Requesting the mode it is already
// in has no transition, so the controller re-applies it directly.
func (v *InsomniaSystem) requestMode(mode types.Mode) error {
	v.modeMu.Lock()
	defer v.modeMu.Unlock()

	if v.machine == nil {
		v.logger.Warnf("Ignoring mode %s before start", mode)
		return nil
	}

	if v.machine.CurrentState() == fsm.StateForMode(mode) {
		v.logger.Debugf("Re-applying mode %s", mode)
		v.controller.SetMode(mode)
		return nil
	}
	return v.sendEvent(fsm.EventForMode(mode))
}

func (v *InsomniaSystem) applyMode(mode types.Mode) error {
	if v.controller.Mode() == mode {
		return nil
	}
	v.controller.SetMode(mode)
	return nil
}

// === State Entry Actions ===

func (v *InsomniaSystem) EnterDisabled(c *librefsm.Context) error {
	return v.applyMode(types.ModeDisabled)
}

func (v *InsomniaSystem) EnterAlways(c *librefsm.Context) error {
	return v.applyMode(types.ModeAlways)
}

func (v *InsomniaSystem) EnterWhenCharging(c *librefsm.Context) error {
	return v.applyMode(types.ModeWhenCharging)
}
