package insomnia

import (
	"testing"

	"insomnia-service/internal/logger"
	"insomnia-service/internal/notify"
	"insomnia-service/internal/types"
)

// Mock BatterySource
type mockBattery struct {
	state             types.BatteryState
	monitoring        bool
	monitoringToggles []bool
}

func (m *mockBattery) BatteryState() types.BatteryState { return m.state }
func (m *mockBattery) SetMonitoringEnabled(enabled bool) {
	m.monitoring = enabled
	m.monitoringToggles = append(m.monitoringToggles, enabled)
}

// Mock Notifier
type mockNotifier struct {
	observers     map[string]func()
	subscribes    int
	unsubscribes  int
	subscribedFor []string
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{observers: make(map[string]func())}
}

func (m *mockNotifier) Subscribe(name, observer string, fn func()) {
	m.subscribes++
	m.subscribedFor = append(m.subscribedFor, name)
	m.observers[observer] = fn
}

func (m *mockNotifier) Unsubscribe(observer string) {
	m.unsubscribes++
	delete(m.observers, observer)
}

// Post simulates the battery source firing a change notification
func (m *mockNotifier) Post() {
	for _, fn := range m.observers {
		fn()
	}
}

// Mock IdleTimer
type mockIdleTimer struct {
	disabled bool
	writes   []bool
}

func (m *mockIdleTimer) SetIdleTimerDisabled(disabled bool) {
	m.disabled = disabled
	m.writes = append(m.writes, disabled)
}
func (m *mockIdleTimer) IdleTimerDisabled() bool { return m.disabled }

// Test helper
func newTestController(mode types.Mode, state types.BatteryState) (*Controller, *mockBattery, *mockNotifier, *mockIdleTimer) {
	l := logger.NewLogger(nil, logger.LogLevelError)
	battery := &mockBattery{state: state}
	notifier := newMockNotifier()
	idle := &mockIdleTimer{}
	c := New(mode, battery, notifier, idle, l)
	return c, battery, notifier, idle
}

type handlerRecorder struct {
	calls []bool
}

func (h *handlerRecorder) handle(plugged bool) {
	h.calls = append(h.calls, plugged)
}

// ===== Construction =====

func TestNewAppliesModeImmediately(t *testing.T) {
	tests := []struct {
		name           string
		mode           types.Mode
		state          types.BatteryState
		wantDisabled   bool
		wantSubscribed bool
	}{
		{"always unplugged", types.ModeAlways, types.BatteryStateUnplugged, true, false},
		{"always unknown", types.ModeAlways, types.BatteryStateUnknown, true, false},
		{"disabled charging", types.ModeDisabled, types.BatteryStateCharging, false, false},
		{"when-charging unplugged", types.ModeWhenCharging, types.BatteryStateUnplugged, false, true},
		{"when-charging charging", types.ModeWhenCharging, types.BatteryStateCharging, true, true},
		{"when-charging full", types.ModeWhenCharging, types.BatteryStateFull, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, battery, notifier, idle := newTestController(tt.mode, tt.state)

			if len(idle.writes) != 1 {
				t.Fatalf("Expected exactly one idle timer write, got %v", idle.writes)
			}
			if idle.disabled != tt.wantDisabled {
				t.Errorf("Idle timer disabled = %v, want %v", idle.disabled, tt.wantDisabled)
			}
			if c.Subscribed() != tt.wantSubscribed {
				t.Errorf("Subscribed = %v, want %v", c.Subscribed(), tt.wantSubscribed)
			}
			if got := len(notifier.observers); got != boolToInt(tt.wantSubscribed) {
				t.Errorf("Expected %d live subscriptions, got %d", boolToInt(tt.wantSubscribed), got)
			}
			if !battery.monitoring {
				t.Error("Expected battery monitoring to be enabled")
			}
			if c.Mode() != tt.mode {
				t.Errorf("Mode = %s, want %s", c.Mode(), tt.mode)
			}
		})
	}
}

func TestSubscribesToBatteryStateEvent(t *testing.T) {
	_, _, notifier, _ := newTestController(types.ModeWhenCharging, types.BatteryStateUnplugged)

	if len(notifier.subscribedFor) != 1 || notifier.subscribedFor[0] != notify.EventBatteryStateDidChange {
		t.Errorf("Expected subscription to %s, got %v", notify.EventBatteryStateDidChange, notifier.subscribedFor)
	}
}

// ===== Mode transitions =====

func TestSetModeTransitions(t *testing.T) {
	modes := []types.Mode{types.ModeDisabled, types.ModeAlways, types.ModeWhenCharging}
	states := []types.BatteryState{
		types.BatteryStateUnknown, types.BatteryStateUnplugged,
		types.BatteryStateCharging, types.BatteryStateFull,
	}

	for _, from := range modes {
		for _, to := range modes {
			for _, state := range states {
				c, _, notifier, idle := newTestController(from, state)
				c.SetMode(to)

				want := IdleTimerDisabled(to, types.IsPlugged(state))
				if idle.disabled != want {
					t.Errorf("%s -> %s (%s): idle disabled = %v, want %v", from, to, state, idle.disabled, want)
				}
				wantSubs := 0
				if to == types.ModeWhenCharging {
					wantSubs = 1
				}
				if len(notifier.observers) != wantSubs {
					t.Errorf("%s -> %s (%s): %d live subscriptions, want %d", from, to, state, len(notifier.observers), wantSubs)
				}
			}
		}
	}
}

func TestAlwaysToDisabledWhileCharging(t *testing.T) {
	c, _, notifier, idle := newTestController(types.ModeAlways, types.BatteryStateCharging)
	if !idle.disabled {
		t.Fatal("Expected idle timer disabled in always mode")
	}

	c.SetMode(types.ModeDisabled)

	if idle.disabled {
		t.Error("Expected idle timer enabled after switching to disabled")
	}
	if len(notifier.observers) != 0 || c.Subscribed() {
		t.Error("Expected no active subscription in disabled mode")
	}
}

func TestSetSameModeReapplies(t *testing.T) {
	c, _, notifier, idle := newTestController(types.ModeWhenCharging, types.BatteryStateCharging)
	rec := &handlerRecorder{}
	c.SetBatteryStateHandler(rec.handle)
	writesBefore := len(idle.writes)

	c.SetMode(types.ModeWhenCharging)

	if len(idle.writes) != writesBefore+1 {
		t.Errorf("Expected idle timer to be rewritten, writes %v", idle.writes)
	}
	if len(rec.calls) != 2 {
		t.Errorf("Expected handler replay plus mode notification, got %v", rec.calls)
	}
	if len(notifier.observers) != 1 {
		t.Errorf("Expected a single live subscription, got %d", len(notifier.observers))
	}
	if notifier.unsubscribes < 2 {
		t.Errorf("Expected unsubscribe before each resubscribe, got %d unsubscribes", notifier.unsubscribes)
	}
}

func TestSetModeNotifiesHandlerInEveryMode(t *testing.T) {
	c, _, _, _ := newTestController(types.ModeDisabled, types.BatteryStateFull)
	rec := &handlerRecorder{}
	c.SetBatteryStateHandler(rec.handle)

	c.SetMode(types.ModeAlways)
	c.SetMode(types.ModeDisabled)
	c.SetMode(types.ModeWhenCharging)

	want := []bool{true, true, true, true}
	if len(rec.calls) != len(want) {
		t.Fatalf("Expected %d handler calls, got %v", len(want), rec.calls)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("Handler call %d = %v, want %v", i, rec.calls[i], want[i])
		}
	}
}

// ===== Handler =====

func TestSetHandlerReplaysCurrentState(t *testing.T) {
	c, battery, _, _ := newTestController(types.ModeAlways, types.BatteryStateUnplugged)
	rec := &handlerRecorder{}

	c.SetBatteryStateHandler(rec.handle)
	if len(rec.calls) != 1 || rec.calls[0] != false {
		t.Fatalf("Expected replay with false, got %v", rec.calls)
	}

	battery.state = types.BatteryStateCharging
	other := &handlerRecorder{}
	c.SetBatteryStateHandler(other.handle)
	if len(other.calls) != 1 || other.calls[0] != true {
		t.Errorf("Expected replay with true, got %v", other.calls)
	}
	if len(rec.calls) != 1 {
		t.Errorf("Replaced handler must not be called again, got %v", rec.calls)
	}
}

func TestNilHandlerIsNoop(t *testing.T) {
	c, _, notifier, idle := newTestController(types.ModeWhenCharging, types.BatteryStateUnplugged)
	c.SetBatteryStateHandler(nil)
	notifier.Post()

	if idle.disabled {
		t.Error("Expected idle timer enabled while unplugged")
	}
}

func TestHandlerMayCallBackIntoController(t *testing.T) {
	c, battery, notifier, idle := newTestController(types.ModeWhenCharging, types.BatteryStateUnplugged)
	var seenMode types.Mode
	c.SetBatteryStateHandler(func(plugged bool) {
		seenMode = c.Mode()
	})

	battery.state = types.BatteryStateCharging
	notifier.Post()

	if seenMode != types.ModeWhenCharging {
		t.Errorf("Handler saw mode %s", seenMode)
	}
	if !idle.disabled {
		t.Error("Expected idle timer disabled after plugging in")
	}
}

// ===== Battery change events =====

func TestWhenChargingFollowsBatteryEvents(t *testing.T) {
	_, battery, notifier, idle := newTestController(types.ModeWhenCharging, types.BatteryStateUnplugged)
	if idle.disabled {
		t.Fatal("Expected idle timer enabled while unplugged")
	}

	sequence := []struct {
		state types.BatteryState
		want  bool
	}{
		{types.BatteryStateCharging, true},
		{types.BatteryStateFull, true},
		{types.BatteryStateUnplugged, false},
		{types.BatteryStateUnknown, false},
		{types.BatteryStateCharging, true},
	}
	for _, step := range sequence {
		battery.state = step.state
		notifier.Post()
		if idle.disabled != step.want {
			t.Errorf("After %s: idle disabled = %v, want %v", step.state, idle.disabled, step.want)
		}
	}
}

func TestBatteryEventNotifiesHandler(t *testing.T) {
	c, battery, notifier, idle := newTestController(types.ModeWhenCharging, types.BatteryStateUnplugged)
	rec := &handlerRecorder{}
	c.SetBatteryStateHandler(rec.handle)

	battery.state = types.BatteryStateCharging
	notifier.Post()

	if !idle.disabled {
		t.Error("Expected idle timer disabled after charger connected")
	}
	if len(rec.calls) != 2 || rec.calls[1] != true {
		t.Errorf("Expected handler to receive true, got %v", rec.calls)
	}
}

func TestAlwaysIgnoresBatteryState(t *testing.T) {
	c, battery, _, idle := newTestController(types.ModeAlways, types.BatteryStateCharging)

	for _, s := range []types.BatteryState{types.BatteryStateUnplugged, types.BatteryStateUnknown, types.BatteryStateFull} {
		battery.state = s
		c.BatteryStateDidChange()
		if !idle.disabled {
			t.Errorf("Expected idle timer disabled in always mode with %s", s)
		}
	}
}

func TestDisabledIgnoresBatteryState(t *testing.T) {
	c, battery, _, idle := newTestController(types.ModeDisabled, types.BatteryStateUnplugged)

	for _, s := range []types.BatteryState{types.BatteryStateCharging, types.BatteryStateFull} {
		battery.state = s
		c.BatteryStateDidChange()
		if idle.disabled {
			t.Errorf("Expected idle timer enabled in disabled mode with %s", s)
		}
	}
}

func TestStrayEventRecomputesForCurrentMode(t *testing.T) {
	c, battery, _, idle := newTestController(types.ModeDisabled, types.BatteryStateCharging)
	rec := &handlerRecorder{}
	c.SetBatteryStateHandler(rec.handle)

	battery.state = types.BatteryStateFull
	c.BatteryStateDidChange()

	if idle.disabled {
		t.Error("Stray event must not disable the idle timer in disabled mode")
	}
	if len(rec.calls) != 2 {
		t.Errorf("Expected handler to be notified on stray event, got %v", rec.calls)
	}
}

// ===== Close =====

func TestCloseResetsIdleTimer(t *testing.T) {
	for _, mode := range []types.Mode{types.ModeDisabled, types.ModeAlways, types.ModeWhenCharging} {
		t.Run(string(mode), func(t *testing.T) {
			c, battery, notifier, idle := newTestController(mode, types.BatteryStateCharging)

			c.Close()

			if idle.disabled {
				t.Error("Expected idle timer re-enabled after close")
			}
			if len(notifier.observers) != 0 || c.Subscribed() {
				t.Error("Expected subscription removed after close")
			}
			if battery.monitoring {
				t.Error("Expected battery monitoring disabled after close")
			}
		})
	}
}

func TestCloseWhileSubscribed(t *testing.T) {
	c, battery, notifier, idle := newTestController(types.ModeWhenCharging, types.BatteryStateCharging)
	if !idle.disabled || len(notifier.observers) != 1 {
		t.Fatal("Expected subscribed and awake before close")
	}

	c.Close()

	if idle.disabled {
		t.Error("Expected idle timer re-enabled")
	}
	if len(notifier.observers) != 0 {
		t.Error("Expected subscription removed")
	}

	// Events after close must not touch the sink
	battery.state = types.BatteryStateFull
	c.BatteryStateDidChange()
	if idle.disabled {
		t.Error("Event after close changed the idle timer")
	}
}

func TestCloseRunsOnce(t *testing.T) {
	c, battery, notifier, idle := newTestController(types.ModeAlways, types.BatteryStateUnplugged)

	c.Close()
	writes := len(idle.writes)
	toggles := len(battery.monitoringToggles)
	unsubscribes := notifier.unsubscribes

	c.Close()
	c.SetMode(types.ModeAlways)
	c.SetBatteryStateHandler(func(bool) { t.Error("Handler must not run after close") })

	if len(idle.writes) != writes {
		t.Errorf("Expected no idle timer writes after close, got %v", idle.writes[writes:])
	}
	if len(battery.monitoringToggles) != toggles {
		t.Error("Expected monitoring untouched by second close")
	}
	if notifier.unsubscribes != unsubscribes {
		t.Error("Expected no unsubscribe from second close")
	}
}

// ===== Policy =====

func TestIdleTimerDisabledPolicy(t *testing.T) {
	tests := []struct {
		mode    types.Mode
		plugged bool
		want    bool
	}{
		{types.ModeAlways, false, true},
		{types.ModeAlways, true, true},
		{types.ModeDisabled, false, false},
		{types.ModeDisabled, true, false},
		{types.ModeWhenCharging, false, false},
		{types.ModeWhenCharging, true, true},
		{types.Mode("bogus"), true, false},
	}

	for _, tt := range tests {
		if got := IdleTimerDisabled(tt.mode, tt.plugged); got != tt.want {
			t.Errorf("IdleTimerDisabled(%s, %v) = %v, want %v", tt.mode, tt.plugged, got, tt.want)
		}
	}
}

func TestIntegrationWithNotifyCenter(t *testing.T) {
	l := logger.NewLogger(nil, logger.LogLevelError)
	center := notify.NewCenter(l)
	battery := &mockBattery{state: types.BatteryStateUnplugged}
	idle := &mockIdleTimer{}

	c := New(types.ModeWhenCharging, battery, center, idle, l)
	if center.Observers(notify.EventBatteryStateDidChange) != 1 {
		t.Fatal("Expected controller registered with center")
	}

	battery.state = types.BatteryStateCharging
	center.Post(notify.EventBatteryStateDidChange)
	if !idle.disabled {
		t.Error("Expected idle timer disabled after posted change")
	}

	c.SetMode(types.ModeAlways)
	if center.Observers(notify.EventBatteryStateDidChange) != 0 {
		t.Error("Expected controller unregistered in always mode")
	}

	c.SetMode(types.ModeWhenCharging)
	c.SetMode(types.ModeWhenCharging)
	if n := center.Observers(notify.EventBatteryStateDidChange); n != 1 {
		t.Errorf("Expected one registration after repeated mode writes, got %d", n)
	}

	c.Close()
	if center.Observers(notify.EventBatteryStateDidChange) != 0 {
		t.Error("Expected controller unregistered after close")
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
