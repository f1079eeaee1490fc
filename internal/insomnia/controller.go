// Package insomnia keeps the device awake according to a mode and the
// charger state.
//
// The idle timer is always a function of the mode and the plug state:
// always keeps the device awake, disabled lets it lock, and when-charging
// keeps it awake only while a charger is connected. The controller is
// subscribed to battery change notifications only in when-charging mode.
package insomnia

import (
	"sync"

	"insomnia-service/internal/logger"
	"insomnia-service/internal/notify"
	"insomnia-service/internal/types"
)

type Controller struct {
	mu         sync.Mutex
	mode       types.Mode
	handler    BatteryStateHandler
	subscribed bool
	closed     bool
	observer   string

	battery  BatterySource
	notifier Notifier
	idle     IdleTimer
	logger   *logger.Logger
}

// New enables battery monitoring and applies mode right away.
func New(mode types.Mode, battery BatterySource, notifier Notifier, idle IdleTimer, l *logger.Logger) *Controller {
	c := &Controller{
		mode:     mode,
		observer: notify.NewObserverID(),
		battery:  battery,
		notifier: notifier,
		idle:     idle,
		logger:   l.WithTag("Insomnia"),
	}

	battery.SetMonitoringEnabled(true)
	c.SetMode(mode)
	return c
}

func (c *Controller) Mode() types.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches the policy. Setting the current mode again re-runs the
// whole routine, including the handler call.
func (c *Controller) SetMode(mode types.Mode) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Warnf("Ignoring mode %s on closed controller", mode)
		return
	}

	c.unsubscribeLocked()
	c.mode = mode
	if mode == types.ModeWhenCharging {
		c.subscribeLocked()
	}
	c.logger.Infof("Mode set to %s", mode)

	handler, plugged := c.applyLocked()
	c.mu.Unlock()

	notifyHandler(handler, plugged)
}

// SetBatteryStateHandler installs handler and replays the current plug
// state to it once. A nil handler clears the registration.
func (c *Controller) SetBatteryStateHandler(handler BatteryStateHandler) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Warnf("Ignoring battery state handler on closed controller")
		return
	}
	c.handler = handler
	plugged := c.pluggedLocked()
	c.mu.Unlock()

	notifyHandler(handler, plugged)
}

// BatteryStateDidChange re-applies the current mode. It does not assume the
// mode is when-charging: a notification may race a mode change.
func (c *Controller) BatteryStateDidChange() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debugf("Dropping battery change on closed controller")
		return
	}
	c.logger.Debugf("Battery state changed (mode %s)", c.mode)
	handler, plugged := c.applyLocked()
	c.mu.Unlock()

	notifyHandler(handler, plugged)
}

// Subscribed reports whether battery change notifications are registered.
func (c *Controller) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribed
}

func (c *Controller) IsPlugged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pluggedLocked()
}

// Close releases the subscription, stops battery monitoring and lets the
// device lock again. Only the first call has any effect.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true

	c.unsubscribeLocked()
	c.battery.SetMonitoringEnabled(false)
	c.idle.SetIdleTimerDisabled(false)
	c.logger.Infof("Closed, idle timer re-enabled")
}

func (c *Controller) subscribeLocked() {
	c.notifier.Subscribe(notify.EventBatteryStateDidChange, c.observer, c.BatteryStateDidChange)
	c.subscribed = true
}

func (c *Controller) unsubscribeLocked() {
	c.notifier.Unsubscribe(c.observer)
	c.subscribed = false
}

func (c *Controller) pluggedLocked() bool {
	return types.IsPlugged(c.battery.BatteryState())
}

func (c *Controller) applyLocked() (BatteryStateHandler, bool) {
	plugged := c.pluggedLocked()
	disabled := IdleTimerDisabled(c.mode, plugged)
	c.idle.SetIdleTimerDisabled(disabled)
	c.logger.Debugf("plugged=%v idle-timer-disabled=%v", plugged, disabled)
	return c.handler, plugged
}

func notifyHandler(handler BatteryStateHandler, plugged bool) {
	if handler != nil {
		handler(plugged)
	}
}

// IdleTimerDisabled is the policy table.
func IdleTimerDisabled(mode types.Mode, plugged bool) bool {
	switch mode {
	case types.ModeAlways:
		return true
	case types.ModeWhenCharging:
		return plugged
	default:
		return false
	}
}
