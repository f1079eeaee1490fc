package core

import (
	"insomnia-service/internal/types"
)

// handleModeRequest handles mode requests from the command list and settings
func (v *InsomniaSystem) handleModeRequest(mode types.Mode) error {
	v.logger.Infof("Handling mode request: %s", mode)
	return v.requestMode(mode)
}

// handleChargerUpdate handles charger state notifications from Redis
func (v *InsomniaSystem) handleChargerUpdate() {
	if v.charger == nil {
		v.logger.Debugf("Ignoring Redis charger update, battery source is local")
		return
	}
	v.charger.chargerChanged()
}

// handleBatteryState mirrors the controller's plug state to Redis
func (v *InsomniaSystem) handleBatteryState(plugged bool) {
	v.logger.Debugf("Battery plugged: %v", plugged)
	if err := v.redis.PublishPlugged(plugged); err != nil {
		v.logger.Warnf("Failed to publish plugged state: %v", err)
	}
}
