package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"insomnia-service/internal/logger"
	"insomnia-service/internal/types"
)

// SysfsCharger reads the charger state from the kernel power_supply class
// and watches power_supply uevents for changes.
type SysfsCharger struct {
	root     string
	supply   string
	logger   *logger.Logger
	onChange func()

	mu      sync.Mutex
	signal  *changeSignal
	stop    chan struct{}
	enabled bool
}

// NewSysfsCharger watches supply under root. An empty supply selects the
// first battery, falling back to the first mains or USB supply.
func NewSysfsCharger(root, supply string, l *logger.Logger, onChange func()) *SysfsCharger {
	if root == "" {
		root = PowerSupplyRoot
	}
	return &SysfsCharger{
		root:     root,
		supply:   supply,
		logger:   l.WithTag("SysfsCharger"),
		onChange: onChange,
	}
}

func (s *SysfsCharger) SetMonitoringEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enabled == s.enabled {
		return
	}

	if !enabled {
		close(s.stop)
		s.signal.close()
		s.stop, s.signal = nil, nil
		s.enabled = false
		s.logger.Infof("Power supply monitoring disabled")
		return
	}

	fd, err := openUeventSocket()
	if err != nil {
		s.logger.Errorf("Failed to start power supply monitoring: %v", err)
		return
	}

	s.signal = newChangeSignal(s.onChange)
	s.stop = make(chan struct{})
	go listenUevents(fd, s.stop, s.logger, s.signal.notify)
	s.enabled = true
	s.logger.Infof("Power supply monitoring enabled under %s", s.root)
}

func (s *SysfsCharger) BatteryState() types.BatteryState {
	supply, err := s.resolveSupply()
	if err != nil {
		s.logger.Warnf("No power supply found: %v", err)
		return types.BatteryStateUnknown
	}

	dir := filepath.Join(s.root, supply)
	supplyType, _ := readSysfsString(filepath.Join(dir, "type"))

	switch supplyType {
	case "Mains", "USB", "Wireless":
		online, err := readSysfsString(filepath.Join(dir, "online"))
		if err != nil {
			s.logger.Warnf("Failed to read %s online: %v", supply, err)
			return types.BatteryStateUnknown
		}
		if online == "1" {
			return types.BatteryStateCharging
		}
		return types.BatteryStateUnplugged
	default:
		status, err := readSysfsString(filepath.Join(dir, "status"))
		if err != nil {
			s.logger.Warnf("Failed to read %s status: %v", supply, err)
			return types.BatteryStateUnknown
		}
		return ParsePowerSupplyStatus(status)
	}
}

func (s *SysfsCharger) resolveSupply() (string, error) {
	if s.supply != "" {
		return s.supply, nil
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", err
	}

	var external string
	for _, e := range entries {
		supplyType, err := readSysfsString(filepath.Join(s.root, e.Name(), "type"))
		if err != nil {
			continue
		}
		switch supplyType {
		case "Battery":
			return e.Name(), nil
		case "Mains", "USB":
			if external == "" {
				external = e.Name()
			}
		}
	}
	if external != "" {
		return external, nil
	}
	return "", fmt.Errorf("no battery or mains supply under %s", s.root)
}

// ParsePowerSupplyStatus maps the kernel's battery status strings.
// "Not charging" means the charger is connected but holding the charge.
func ParsePowerSupplyStatus(status string) types.BatteryState {
	switch status {
	case "Charging":
		return types.BatteryStateCharging
	case "Full", "Not charging":
		return types.BatteryStateFull
	case "Discharging":
		return types.BatteryStateUnplugged
	default:
		return types.BatteryStateUnknown
	}
}
