package insomnia

import "insomnia-service/internal/types"

// BatterySource reports the charger state of the device.
type BatterySource interface {
	BatteryState() types.BatteryState
	SetMonitoringEnabled(enabled bool)
}

// Notifier is the event-subscription registry that delivers battery change
// notifications. Notifications carry no payload.
type Notifier interface {
	Subscribe(name, observer string, fn func())
	Unsubscribe(observer string)
}

// IdleTimer controls whether the host locks or blanks after inactivity.
// Disabled means the device stays awake.
type IdleTimer interface {
	SetIdleTimerDisabled(disabled bool)
	IdleTimerDisabled() bool
}

// BatteryStateHandler receives the plug state.
type BatteryStateHandler func(plugged bool)
