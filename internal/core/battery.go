package core

import (
	"fmt"

	"insomnia-service/internal/config"
	"insomnia-service/internal/hardware"
	"insomnia-service/internal/insomnia"
	"insomnia-service/internal/logger"
	"insomnia-service/internal/notify"
)

// NewBatterySource builds the charger reader selected by cfg.Source. Every
// source reports changes by posting EventBatteryStateDidChange to center.
func NewBatterySource(cfg config.BatteryConfig, redis MessagingClient, center *notify.Center, l *logger.Logger) (insomnia.BatterySource, error) {
	post := func() { center.Post(notify.EventBatteryStateDidChange) }

	switch cfg.Source {
	case config.SourceRedis:
		return newRedisCharger(redis, center, l), nil
	case config.SourceGpio:
		return hardware.NewGpioCharger(hardware.GpioChargerConfig{
			Chip:       cfg.Gpio.Chip,
			DetectLine: cfg.Gpio.DetectLine,
			FullLine:   cfg.Gpio.FullLine,
			ActiveLow:  cfg.Gpio.ActiveLow,
		}, l, post), nil
	case config.SourceSysfs:
		return hardware.NewSysfsCharger(cfg.Sysfs.Root, cfg.Sysfs.Supply, l, post), nil
	default:
		return nil, fmt.Errorf("unknown battery source: %q", cfg.Source)
	}
}
