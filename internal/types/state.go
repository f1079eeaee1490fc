package types

import "fmt"

// Mode selects how the charging state maps to idle-timer suppression.
type Mode string

const (
	ModeDisabled     Mode = "disabled"
	ModeAlways       Mode = "always"
	ModeWhenCharging Mode = "when-charging"
)

func (m Mode) String() string {
	return string(m)
}

// ParseMode accepts the wire names plus the camel/snake spellings used in
// older settings files.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "disabled", "off":
		return ModeDisabled, nil
	case "always", "on":
		return ModeAlways, nil
	case "when-charging", "whenCharging", "when_charging":
		return ModeWhenCharging, nil
	default:
		return ModeDisabled, fmt.Errorf("invalid insomnia mode: %q", s)
	}
}

type BatteryState string

const (
	BatteryStateUnknown   BatteryState = "unknown"
	BatteryStateUnplugged BatteryState = "unplugged"
	BatteryStateCharging  BatteryState = "charging"
	BatteryStateFull      BatteryState = "full"
)

func (s BatteryState) String() string {
	return string(s)
}

// ParseBatteryState never fails; anything unrecognized is reported as unknown.
func ParseBatteryState(s string) BatteryState {
	switch BatteryState(s) {
	case BatteryStateUnplugged, BatteryStateCharging, BatteryStateFull:
		return BatteryState(s)
	default:
		return BatteryStateUnknown
	}
}

// IsPlugged reports whether the device is on external power. Only states
// known to imply a connected charger count; everything else keeps auto-lock.
func IsPlugged(s BatteryState) bool {
	switch s {
	case BatteryStateCharging, BatteryStateFull:
		return true
	default:
		return false
	}
}
