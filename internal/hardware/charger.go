package hardware

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"insomnia-service/internal/logger"
	"insomnia-service/internal/types"
)

type GpioChargerConfig struct {
	Chip       string
	DetectLine int
	FullLine   int // negative when the board has no charge-complete line
	ActiveLow  bool
}

// GpioCharger derives the charger state from a charger-detect input and an
// optional charge-complete input. Lines are only held while monitoring.
type GpioCharger struct {
	config   GpioChargerConfig
	logger   *logger.Logger
	onChange func()

	mu      sync.Mutex
	detect  *gpiocdev.Line
	full    *gpiocdev.Line
	signal  *changeSignal
	enabled bool
}

func NewGpioCharger(config GpioChargerConfig, l *logger.Logger, onChange func()) *GpioCharger {
	return &GpioCharger{
		config:   config,
		logger:   l.WithTag("GpioCharger"),
		onChange: onChange,
	}
}

func (g *GpioCharger) SetMonitoringEnabled(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if enabled == g.enabled {
		return
	}

	if !enabled {
		g.releaseLines()
		g.signal.close()
		g.signal = nil
		g.enabled = false
		g.logger.Infof("Charger monitoring disabled")
		return
	}

	g.signal = newChangeSignal(g.onChange)
	if err := g.requestLines(); err != nil {
		g.logger.Errorf("Failed to start charger monitoring: %v", err)
		g.releaseLines()
		g.signal.close()
		g.signal = nil
		return
	}
	g.enabled = true
	g.logger.Infof("Charger monitoring enabled on %s line %d", g.config.Chip, g.config.DetectLine)
}

func (g *GpioCharger) requestLines() error {
	var err error
	g.detect, err = g.requestLine(g.config.DetectLine)
	if err != nil {
		return fmt.Errorf("failed to request charger detect line %d: %w", g.config.DetectLine, err)
	}

	if g.config.FullLine >= 0 {
		g.full, err = g.requestLine(g.config.FullLine)
		if err != nil {
			return fmt.Errorf("failed to request charge complete line %d: %w", g.config.FullLine, err)
		}
	}
	return nil
}

func (g *GpioCharger) requestLine(offset int) (*gpiocdev.Line, error) {
	signal := g.signal
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithConsumer(gpioConsumer),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			g.logger.Debugf("Edge on line %d: type=%d", evt.Offset, evt.Type)
			signal.notify()
		}),
	}
	if g.config.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	return gpiocdev.RequestLine(g.config.Chip, offset, opts...)
}

func (g *GpioCharger) releaseLines() {
	if g.detect != nil {
		g.detect.Close()
		g.detect = nil
	}
	if g.full != nil {
		g.full.Close()
		g.full = nil
	}
}

func (g *GpioCharger) BatteryState() types.BatteryState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.detect == nil {
		return types.BatteryStateUnknown
	}

	detect, err := g.detect.Value()
	if err != nil {
		g.logger.Warnf("Failed to read charger detect line: %v", err)
		return types.BatteryStateUnknown
	}

	full := -1
	if g.full != nil {
		full, err = g.full.Value()
		if err != nil {
			g.logger.Warnf("Failed to read charge complete line: %v", err)
			full = -1
		}
	}

	return chargerStateFromLines(detect, full)
}

// chargerStateFromLines maps line levels to a charger state. full is -1
// when the charge-complete line is absent or unreadable.
func chargerStateFromLines(detect, full int) types.BatteryState {
	switch {
	case detect == 0:
		return types.BatteryStateUnplugged
	case full == 1:
		return types.BatteryStateFull
	default:
		return types.BatteryStateCharging
	}
}
