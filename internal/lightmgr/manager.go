// Package lightmgr keeps the registry of controllable lights and bridges them
// onto the event bus: control commands arrive as events and are dispatched to
// the addressed light, state changes flow back out as events.
package lightmgr

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/lumend/internal/errors"
	"github.com/jmylchreest/lumend/internal/events"
	"github.com/jmylchreest/lumend/pkg/light"
	"github.com/jmylchreest/lumend/pkg/luma"
)

// Op names accepted in a Command.
const (
	OpValue       = "value"
	OpValueScaled = "value_scaled"
	OpStep        = "step"
	OpStepScaled  = "step_scaled"
	OpOn          = "on"
	OpOff         = "off"
	OpToggle      = "toggle"
	OpMax         = "max"
	OpMin         = "min"
	OpIncr        = "incr"
	OpDecr        = "decr"
	OpCurve       = "curve"
)

// Command is the payload of a light.command event. A nil FadeMs means the
// light's own default fade duration; zero means an immediate set.
type Command struct {
	LightID string `json:"light_id"`
	Op      string `json:"op"`
	Value   uint32 `json:"value,omitempty"`
	Step    int32  `json:"step,omitempty"`
	Scale   int32  `json:"scale,omitempty"`
	Curve   string `json:"curve,omitempty"`
	FadeMs  *int64 `json:"fade_ms,omitempty"`
}

func (c Command) duration() time.Duration {
	if c.FadeMs == nil {
		return light.DurationDefault
	}
	if *c.FadeMs <= 0 {
		return 0
	}
	return time.Duration(*c.FadeMs) * time.Millisecond
}

// StateEvent is the payload of light.state_changed, light.registered and
// light.removed events.
type StateEvent struct {
	LightID string      `json:"light_id"`
	State   light.State `json:"state"`
}

// Manager handles light registration and command dispatch
type Manager struct {
	logger *slog.Logger
	bus    *events.Bus

	mu     sync.RWMutex
	lights map[string]light.Light
	order  []string

	unsub func()
}

// NewManager creates a manager subscribed to command events on the bus.
func NewManager(logger *slog.Logger, bus *events.Bus) *Manager {
	m := &Manager{
		logger: logger,
		bus:    bus,
		lights: make(map[string]light.Light),
	}
	m.unsub = bus.Subscribe(m.onEvent)
	return m
}

// Close detaches the manager from the bus and from all registered lights.
func (m *Manager) Close() {
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lights {
		l.OnChangeDetach()
	}
}

// AddLight registers a light under a unique ID and starts republishing its
// state changes on the bus.
func (m *Manager) AddLight(id string, l light.Light) error {
	m.mu.Lock()
	if _, exists := m.lights[id]; exists {
		m.mu.Unlock()
		return errors.InvalidInputf("light %s already registered", id)
	}
	m.lights[id] = l
	m.order = append(m.order, id)
	m.mu.Unlock()

	l.OnChangeAttach(func(s light.State) {
		m.bus.Publish(events.NewEvent(events.LightStateChanged, StateEvent{LightID: id, State: s}))
	})

	m.logger.Info("light registered", "id", id, "kind", l.Kind())
	m.bus.Publish(events.NewEvent(events.LightRegistered, StateEvent{LightID: id, State: l.State()}))
	return nil
}

// RemoveLight unregisters a light. The light itself keeps its last output
// state.
func (m *Manager) RemoveLight(id string) error {
	m.mu.Lock()
	l, exists := m.lights[id]
	if !exists {
		m.mu.Unlock()
		return errors.NotFoundf("light %s", id)
	}
	delete(m.lights, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	l.OnChangeDetach()
	m.logger.Info("light removed", "id", id)
	m.bus.Publish(events.NewEvent(events.LightRemoved, StateEvent{LightID: id, State: l.State()}))
	return nil
}

// GetLight returns a registered light by ID.
func (m *Manager) GetLight(id string) (light.Light, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, exists := m.lights[id]
	if !exists {
		return nil, errors.NotFoundf("light %s", id)
	}
	return l, nil
}

// LightIDs returns the registered IDs in registration order.
func (m *Manager) LightIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// States reports the current state of every registered light.
func (m *Manager) States() map[string]light.State {
	m.mu.RLock()
	lights := make(map[string]light.Light, len(m.lights))
	for id, l := range m.lights {
		lights[id] = l
	}
	m.mu.RUnlock()

	states := make(map[string]light.State, len(lights))
	for id, l := range lights {
		states[id] = l.State()
	}
	return states
}

// Apply dispatches a command to its addressed light. Brightness operations
// are fire-and-forget; an error here means the command itself was
// unprocessable, not that the hardware write failed.
func (m *Manager) Apply(cmd Command) error {
	l, err := m.GetLight(cmd.LightID)
	if err != nil {
		return err
	}

	d := cmd.duration()
	switch cmd.Op {
	case OpValue:
		l.GoValue(cmd.Value, d)
	case OpValueScaled:
		l.GoValueScaled(cmd.Value, cmd.Scale, d)
	case OpStep:
		l.GoStep(cmd.Step, d)
	case OpStepScaled:
		l.GoStepScaled(cmd.Step, cmd.Scale, d)
	case OpOn:
		l.GoOn(d)
	case OpOff:
		l.GoOff(d)
	case OpToggle:
		l.GoToggle(d)
	case OpMax:
		l.GoMax(d)
	case OpMin:
		l.GoMin(d)
	case OpIncr:
		l.GoIncr(d)
	case OpDecr:
		l.GoDecr(d)
	case OpCurve:
		curve, err := luma.ParseCurve(cmd.Curve)
		if err != nil {
			return errors.InvalidInputf("command for light %s: %v", cmd.LightID, err)
		}
		l.SetCurve(curve)
	default:
		return errors.InvalidInputf("unknown op %q for light %s", cmd.Op, cmd.LightID)
	}
	return nil
}

// onEvent handles bus traffic addressed to the manager.
func (m *Manager) onEvent(e events.Event) {
	if e.Type != events.LightCommand {
		return
	}

	var cmd Command
	if err := e.Decode(&cmd); err != nil {
		m.logger.Error("undecodable command event", "event_id", e.ID, "error", err)
		return
	}
	if err := m.Apply(cmd); err != nil {
		m.logger.Error("command rejected", "event_id", e.ID, "light", cmd.LightID, "op", cmd.Op, "error", err)
	}
}
