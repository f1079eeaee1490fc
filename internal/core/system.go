package core

import (
	"context"
	"fmt"
	"sync"

	"insomnia-service/internal/insomnia"
	"insomnia-service/internal/logger"
	"insomnia-service/internal/messaging"
	"insomnia-service/internal/notify"
	"insomnia-service/internal/types"
)

type InsomniaSystem struct {
	initialMode types.Mode
	redis       MessagingClient
	battery     insomnia.BatterySource
	charger     *redisCharger // set when the battery source is Redis
	center      *notify.Center
	idle        *redisIdleTimer
	controller  *insomnia.Controller
	machine     modeMachine
	logger      *logger.Logger

	modeMu       sync.Mutex
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

func NewInsomniaSystem(mode types.Mode, battery insomnia.BatterySource, redis MessagingClient, center *notify.Center, l *logger.Logger) *InsomniaSystem {
	charger, _ := battery.(*redisCharger)
	return &InsomniaSystem{
		initialMode: mode,
		redis:       redis,
		battery:     battery,
		charger:     charger,
		center:      center,
		idle:        newRedisIdleTimer(redis, l),
		logger:      l.WithTag("Insomnia"),
	}
}

func (v *InsomniaSystem) Start(ctx context.Context) error {
	v.logger.Infof("Starting insomnia system in mode %s", v.initialMode)

	v.redis.SetCallbacks(messaging.Callbacks{
		ChargerCallback: v.handleChargerUpdate,
		ModeCallback:    v.handleModeRequest,
	})

	if err := v.redis.Connect(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	v.controller = insomnia.New(v.initialMode, v.battery, v.center, v.idle, v.logger)
	v.controller.SetBatteryStateHandler(v.handleBatteryState)

	fsmCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	if err := v.initFSM(fsmCtx); err != nil {
		return fmt.Errorf("failed to start mode state machine: %w", err)
	}

	if err := v.redis.StartListening(); err != nil {
		return fmt.Errorf("failed to start Redis listeners: %w", err)
	}

	v.logger.Infof("Insomnia system started")
	return nil
}

// Shutdown restores the idle timer before the Redis connection goes away.
func (v *InsomniaSystem) Shutdown() {
	v.shutdownOnce.Do(func() {
		v.logger.Infof("Shutting down insomnia system")

		if v.controller != nil {
			v.controller.Close()
		}
		if v.cancel != nil {
			v.cancel()
		}
		if err := v.redis.Close(); err != nil {
			v.logger.Warnf("Failed to close Redis client: %v", err)
		}
	})
}

// Mode returns the controller's current mode, or the configured mode
// before Start.
func (v *InsomniaSystem) Mode() types.Mode {
	if v.controller == nil {
		return v.initialMode
	}
	return v.controller.Mode()
}

func (v *InsomniaSystem) IdleTimerDisabled() bool {
	return v.idle.IdleTimerDisabled()
}
