package core

import (
	"go.uber.org/atomic"

	"insomnia-service/internal/logger"
	"insomnia-service/internal/notify"
	"insomnia-service/internal/types"
)

// redisCharger reads the charger state that the battery service keeps in
// Redis. Change notifications arrive on the charger channel and are posted
// to the center only while monitoring is enabled.
type redisCharger struct {
	redis      MessagingClient
	center     *notify.Center
	logger     *logger.Logger
	monitoring *atomic.Bool
}

func newRedisCharger(redis MessagingClient, center *notify.Center, l *logger.Logger) *redisCharger {
	return &redisCharger{
		redis:      redis,
		center:     center,
		logger:     l.WithTag("RedisCharger"),
		monitoring: atomic.NewBool(false),
	}
}

func (r *redisCharger) BatteryState() types.BatteryState {
	state, err := r.redis.GetChargerState()
	if err != nil {
		r.logger.Warnf("Failed to read charger state: %v", err)
		return types.BatteryStateUnknown
	}
	return state
}

func (r *redisCharger) SetMonitoringEnabled(enabled bool) {
	if r.monitoring.Swap(enabled) != enabled {
		r.logger.Debugf("Charger monitoring enabled: %v", enabled)
	}
}

func (r *redisCharger) chargerChanged() {
	if !r.monitoring.Load() {
		r.logger.Debugf("Ignoring charger update, monitoring disabled")
		return
	}
	r.center.Post(notify.EventBatteryStateDidChange)
}

// redisIdleTimer publishes the idle-timer inhibition for the power manager.
type redisIdleTimer struct {
	redis    MessagingClient
	logger   *logger.Logger
	disabled *atomic.Bool
}

func newRedisIdleTimer(redis MessagingClient, l *logger.Logger) *redisIdleTimer {
	return &redisIdleTimer{
		redis:    redis,
		logger:   l.WithTag("IdleTimer"),
		disabled: atomic.NewBool(false),
	}
}

func (r *redisIdleTimer) SetIdleTimerDisabled(disabled bool) {
	r.disabled.Store(disabled)
	if err := r.redis.PublishIdleTimer(disabled); err != nil {
		r.logger.Errorf("Failed to publish idle timer state: %v", err)
	}
}

func (r *redisIdleTimer) IdleTimerDisabled() bool {
	return r.disabled.Load()
}
