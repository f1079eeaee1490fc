// Package notify is a small in-process notification center. Observers
// register a callback under an event name and are identified by an opaque
// observer ID so they can remove all of their registrations at once.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"insomnia-service/internal/logger"
)

// EventBatteryStateDidChange is posted whenever a battery source sees the
// charger state move. It carries no payload; receivers re-read the state.
const EventBatteryStateDidChange = "battery-state-did-change"

type registration struct {
	observer string
	fn       func()
}

type Center struct {
	mu            sync.Mutex
	registrations map[string][]registration
	logger        *logger.Logger
}

func NewCenter(l *logger.Logger) *Center {
	return &Center{
		registrations: make(map[string][]registration),
		logger:        l.WithTag("Notify"),
	}
}

// NewObserverID returns a fresh observer identity.
func NewObserverID() string {
	return uuid.NewString()
}

// Subscribe registers fn for name. An observer holds at most one
// registration per name; subscribing again replaces the callback.
func (c *Center) Subscribe(name, observer string, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	regs := c.registrations[name]
	for i := range regs {
		if regs[i].observer == observer {
			regs[i].fn = fn
			c.logger.Debugf("Replaced %s observer %s", name, observer)
			return
		}
	}
	c.registrations[name] = append(regs, registration{observer: observer, fn: fn})
	c.logger.Debugf("Subscribed %s observer %s", name, observer)
}

// Unsubscribe drops every registration held by observer.
func (c *Center) Unsubscribe(observer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, regs := range c.registrations {
		kept := regs[:0]
		for _, r := range regs {
			if r.observer != observer {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(c.registrations, name)
		} else {
			c.registrations[name] = kept
		}
	}
}

// Post delivers name to its observers on the calling goroutine. Callbacks
// run without the center's lock held, so they may subscribe or unsubscribe.
func (c *Center) Post(name string) {
	c.mu.Lock()
	regs := c.registrations[name]
	fns := make([]func(), len(regs))
	for i, r := range regs {
		fns[i] = r.fn
	}
	c.mu.Unlock()

	c.logger.Debugf("Posting %s to %d observer(s)", name, len(fns))
	for _, fn := range fns {
		fn()
	}
}

// Observers returns the number of registrations for name.
func (c *Center) Observers(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.registrations[name])
}
