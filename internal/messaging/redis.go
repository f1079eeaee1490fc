package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"insomnia-service/internal/logger"
	"insomnia-service/internal/types"

	"github.com/redis/go-redis/v9"
)

// Redis keys and channels
const (
	ChargerHash     = "charger"
	ChargerChannel  = "charger"
	InsomniaHash    = "insomnia"
	InsomniaChannel = "insomnia"
	SettingsHash    = "settings"
	SettingsChannel = "settings"

	ModeCommandList = "scooter:insomnia"
	ModeSettingKey  = "insomnia.mode"
)

type Callbacks struct {
	ChargerCallback func()                 // charger state may have changed, re-read it
	ModeCallback    func(types.Mode) error // mode requested via command list or settings
}

type RedisClient struct {
	client    *redis.Client
	callbacks Callbacks
	logger    *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewRedisClient(host string, port int, l *logger.Logger, callbacks Callbacks) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", host, port),
			DB:   0,
		}),
		callbacks: callbacks,
		logger:    l.WithTag("Redis"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetCallbacks must be called before StartListening.
func (r *RedisClient) SetCallbacks(callbacks Callbacks) {
	r.callbacks = callbacks
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		r.logger.Errorf("Redis connection failed: %v", err)
		return fmt.Errorf("redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")
	return nil
}

// StartListening starts the pub/sub and command list listeners
func (r *RedisClient) StartListening() error {
	r.logger.Infof("Starting Redis listeners")

	pubsub := r.client.Subscribe(r.ctx, ChargerChannel, SettingsChannel)
	if _, err := pubsub.Receive(r.ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	r.logger.Infof("Subscribed to Redis channels: %s, %s", ChargerChannel, SettingsChannel)

	r.wg.Add(2)
	go r.redisListener(pubsub)
	go r.listCommandListener(ModeCommandList, r.handleModeCommand)

	return nil
}

func (r *RedisClient) listCommandListener(key string, handler func(string) error) {
	defer r.wg.Done()
	r.logger.Infof("Starting list command listener for %s", key)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting %s listener", key)
			return
		default:
			// Short BRPOP timeout so cancellation is noticed
			result, err := r.client.BRPop(r.ctx, 5*time.Second, key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if err == context.Canceled {
					r.logger.Infof("Context cancelled, exiting %s listener", key)
					return
				}
				r.logger.Warnf("Error reading from %s list: %v", key, err)
				time.Sleep(time.Second)
				continue
			}

			if len(result) >= 2 { // BRPOP returns [key, value]
				value := result[1]
				r.logger.Debugf("Received command from %s: %s", key, value)
				if err := handler(value); err != nil {
					r.logger.Warnf("Error handling %s command: %v", key, err)
				}
			}
		}
	}
}

func (r *RedisClient) handleModeCommand(value string) error {
	if r.callbacks.ModeCallback == nil {
		return nil
	}
	mode, err := types.ParseMode(value)
	if err != nil {
		r.logger.Infof("Invalid insomnia command value: %s", value)
		return err
	}
	return r.callbacks.ModeCallback(mode)
}

func (r *RedisClient) redisListener(pubsub *redis.PubSub) {
	defer r.wg.Done()
	defer pubsub.Close()

	r.logger.Infof("Starting Redis message listener")
	channel := pubsub.Channel()

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting listener")
			return
		case msg, ok := <-channel:
			if !ok || msg == nil {
				if r.ctx.Err() != nil {
					return
				}
				r.logger.Fatalf("Redis connection lost, exiting to allow systemd restart")
			}

			r.logger.Debugf("Received Redis message: channel=%s payload=%s", msg.Channel, msg.Payload)
			r.processMessage(msg.Channel, msg.Payload)
		}
	}
}

func (r *RedisClient) processMessage(channel, payload string) {
	switch channel {
	case ChargerChannel:
		if payload == "state" && r.callbacks.ChargerCallback != nil {
			r.callbacks.ChargerCallback()
		}

	case SettingsChannel:
		if payload != ModeSettingKey {
			return
		}
		value, err := r.GetHashField(SettingsHash, ModeSettingKey)
		if err != nil {
			r.logger.Warnf("Failed to read setting %s: %v", ModeSettingKey, err)
			return
		}
		if value == "" {
			return
		}
		r.logger.Infof("Processing settings update: %s=%s", ModeSettingKey, value)
		if err := r.handleModeCommand(value); err != nil {
			r.logger.Warnf("Failed to handle settings update: %v", err)
		}
	}
}

// publishHashSet is a helper that atomically updates a hash field and publishes a notification
func (r *RedisClient) publishHashSet(hash, field string, value interface{}, channel, payload string) error {
	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, hash, field, value)
	pipe.Publish(r.ctx, channel, payload)
	_, err := pipe.Exec(r.ctx)
	return err
}

// GetChargerState reads the charger state published by the battery service.
// A missing field is reported as unknown.
func (r *RedisClient) GetChargerState() (types.BatteryState, error) {
	value, err := r.client.HGet(r.ctx, ChargerHash, "state").Result()
	if err == redis.Nil {
		return types.BatteryStateUnknown, nil
	}
	if err != nil {
		return types.BatteryStateUnknown, fmt.Errorf("failed to get charger state: %w", err)
	}
	return types.ParseBatteryState(value), nil
}

func (r *RedisClient) PublishIdleTimer(disabled bool) error {
	r.logger.Debugf("Publishing idle timer disabled: %v", disabled)
	value := "enabled"
	if disabled {
		value = "disabled"
	}

	if err := r.publishHashSet(InsomniaHash, "idle-timer", value, InsomniaChannel, "idle-timer"); err != nil {
		r.logger.Warnf("Failed to publish idle timer: %v", err)
		return err
	}
	return nil
}

func (r *RedisClient) PublishMode(mode types.Mode) error {
	r.logger.Infof("Publishing insomnia mode: %s", mode)

	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, InsomniaHash, "mode", string(mode))
	pipe.HSet(r.ctx, InsomniaHash, "mode:timestamp", time.Now().Format(time.RFC3339))
	pipe.Publish(r.ctx, InsomniaChannel, "mode")
	if _, err := pipe.Exec(r.ctx); err != nil {
		r.logger.Warnf("Failed to publish insomnia mode: %v", err)
		return err
	}
	return nil
}

func (r *RedisClient) PublishPlugged(plugged bool) error {
	r.logger.Debugf("Publishing plugged state: %v", plugged)
	value := "false"
	if plugged {
		value = "true"
	}

	if err := r.publishHashSet(InsomniaHash, "plugged", value, InsomniaChannel, "plugged"); err != nil {
		r.logger.Warnf("Failed to publish plugged state: %v", err)
		return err
	}
	return nil
}

// GetHashField reads a field from a Redis hash using HGET
func (r *RedisClient) GetHashField(hash, field string) (string, error) {
	value, err := r.client.HGet(r.ctx, hash, field).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get hash field %s from %s: %w", field, hash, err)
	}
	return value, nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()

	// Wait for all goroutines to finish with a timeout
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Infof("All Redis goroutines finished")
	case <-time.After(5 * time.Second):
		r.logger.Warnf("Timeout waiting for Redis goroutines to finish")
	}

	return r.client.Close()
}
