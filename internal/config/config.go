// Package config loads the service configuration from a TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"insomnia-service/internal/hardware"
	"insomnia-service/internal/types"
)

const DefaultPath = "/etc/insomnia-service/config.toml"

// Battery source names
const (
	SourceRedis = "redis"
	SourceGpio  = "gpio"
	SourceSysfs = "sysfs"
)

type Config struct {
	Mode    string        `toml:"mode"`
	Redis   RedisConfig   `toml:"redis"`
	Battery BatteryConfig `toml:"battery"`
	Logging LoggingConfig `toml:"logging"`
}

type RedisConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type BatteryConfig struct {
	Source string      `toml:"source"`
	Gpio   GpioConfig  `toml:"gpio"`
	Sysfs  SysfsConfig `toml:"sysfs"`
}

type GpioConfig struct {
	Chip       string `toml:"chip"`
	DetectLine int    `toml:"detect_line"`
	FullLine   int    `toml:"full_line"`
	ActiveLow  bool   `toml:"active_low"`
}

type SysfsConfig struct {
	Root   string `toml:"root"`
	Supply string `toml:"supply"`
}

type LoggingConfig struct {
	Level int `toml:"level"`
}

func Default() Config {
	return Config{
		Mode: string(types.ModeWhenCharging),
		Redis: RedisConfig{
			Host: "127.0.0.1",
			Port: 6379,
		},
		Battery: BatteryConfig{
			Source: SourceRedis,
			Gpio: GpioConfig{
				Chip:       hardware.DefaultGpioChip,
				DetectLine: hardware.DefaultDetectLine,
				FullLine:   hardware.DefaultFullLine,
			},
			Sysfs: SysfsConfig{
				Root: hardware.PowerSupplyRoot,
			},
		},
		Logging: LoggingConfig{
			Level: 3,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := types.ParseMode(c.Mode); err != nil {
		return err
	}
	switch c.Battery.Source {
	case SourceRedis, SourceGpio, SourceSysfs:
	default:
		return fmt.Errorf("invalid battery source: %q", c.Battery.Source)
	}
	if c.Battery.Source == SourceGpio && c.Battery.Gpio.Chip == "" {
		return fmt.Errorf("battery.gpio.chip is required for the gpio source")
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis port: %d", c.Redis.Port)
	}
	return nil
}

// InitialMode returns the parsed mode; Validate has already checked it.
func (c Config) InitialMode() types.Mode {
	m, err := types.ParseMode(c.Mode)
	if err != nil {
		return types.ModeDisabled
	}
	return m
}
