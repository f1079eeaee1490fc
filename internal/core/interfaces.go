package core

import (
	"context"

	"github.com/librescoot/librefsm"

	"insomnia-service/internal/messaging"
	"insomnia-service/internal/types"
)

// MessagingClient defines the Redis operations needed by InsomniaSystem
type MessagingClient interface {
	SetCallbacks(callbacks messaging.Callbacks)
	Connect() error
	StartListening() error
	Close() error

	// Charger
	GetChargerState() (types.BatteryState, error)

	// Insomnia state
	PublishIdleTimer(disabled bool) error
	PublishMode(mode types.Mode) error
	PublishPlugged(plugged bool) error
}

// modeMachine is the part of the librefsm machine the system drives.
type modeMachine interface {
	Start(ctx context.Context) error
	SendSync(event librefsm.Event) error
	CurrentState() librefsm.StateID
}

// Ensure RedisClient implements MessagingClient
var _ MessagingClient = (*messaging.RedisClient)(nil)
