package fsm

import "github.com/librescoot/librefsm"

// Actions defines the entry actions of the mode machine. The service
// implements this interface and applies the mode on the controller.
type Actions interface {
	EnterDisabled(c *librefsm.Context) error
	EnterAlways(c *librefsm.Context) error
	EnterWhenCharging(c *librefsm.Context) error
}
