// Package perception turns sensor data and procedural rules into typed
// observations that behaviors score against. Generators rebuild their
// observations every decision tick.
package perception

import (
	"github.com/talgya/mini-brain/internal/sensor"
	"github.com/talgya/mini-brain/internal/vmath"
	"github.com/talgya/mini-brain/internal/world"
)

// Perception is one observation. Pointers handed out by a generator are valid
// until its next Update.
type Perception struct {
	Type     string
	Position vmath.Vec3
	Target   world.Handle // Zero when the observation is a plain point
}

// Agent is what generators read.
type Agent interface {
	sensor.Agent
	Position() vmath.Vec3
	Forward() vmath.Vec3
	Right() vmath.Vec3
	Resolve(h world.Handle) (vmath.Vec3, bool)
}

// Generator produces perceptions of a single type.
type Generator interface {
	Type() string
	// FlagNeededSensors declares the sensors Update will read this tick.
	FlagNeededSensors(sm *sensor.Manager)
	// Update clears and rebuilds the generator's perceptions.
	Update(agent Agent, sm *sensor.Manager)
	HasAny() bool
	// AppendAll appends pointers to the current perceptions to out.
	AppendAll(out []*Perception) []*Perception
}

// Manager fans out to the generators of one agent.
type Manager struct {
	generators []Generator
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers g. Several generators may share a type.
func (m *Manager) Add(g Generator) {
	m.generators = append(m.generators, g)
}

// Generators returns the registered generators in registration order.
func (m *Manager) Generators() []Generator {
	return m.generators
}

func (m *Manager) FlagNeededSensors(sm *sensor.Manager) {
	for _, g := range m.generators {
		g.FlagNeededSensors(sm)
	}
}

func (m *Manager) Update(agent Agent, sm *sensor.Manager) {
	for _, g := range m.generators {
		g.Update(agent, sm)
	}
}

// HasType reports whether any generator of type key currently has perceptions.
func (m *Manager) HasType(key string) bool {
	for _, g := range m.generators {
		if g.Type() == key && g.HasAny() {
			return true
		}
	}
	return false
}

// AppendType appends the perceptions of every generator of type key to out,
// in registration order.
func (m *Manager) AppendType(key string, out []*Perception) []*Perception {
	for _, g := range m.generators {
		if g.Type() == key {
			out = g.AppendAll(out)
		}
	}
	return out
}

// list is the storage shared by the built-in generators.
type list struct {
	items []Perception
}

func (l *list) HasAny() bool {
	return len(l.items) > 0
}

func (l *list) AppendAll(out []*Perception) []*Perception {
	for i := range l.items {
		out = append(out, &l.items[i])
	}
	return out
}

const (
	TypePOI    = "POI"
	TypeWander = "Wander"

	// SensorSee is the sensor the POI generator reads.
	SensorSee = "Sensor_See"
)

// POI reports every entity seen by the SensorSee spatial sensor.
type POI struct {
	list
}

// NewPOI creates a POI generator.
func NewPOI() *POI {
	return &POI{}
}

func (g *POI) Type() string { return TypePOI }

func (g *POI) FlagNeededSensors(sm *sensor.Manager) {
	sm.FlagAsNeeded(SensorSee)
}

func (g *POI) Update(agent Agent, sm *sensor.Manager) {
	g.items = g.items[:0]

	see, ok := sm.Get(SensorSee).(*sensor.Spatial)
	if !ok {
		return
	}
	for _, h := range see.Detections() {
		pos, ok := agent.Resolve(h)
		if !ok {
			continue
		}
		g.items = append(g.items, Perception{Type: TypePOI, Position: pos, Target: h})
	}
}

// Wander offers points around the agent to stroll to, biased forwards.
type Wander struct {
	list

	Ahead float64 // Distance along forward
	Side  float64 // Distance along right
}

// NewWander creates a wander generator with the default spread.
func NewWander() *Wander {
	return &Wander{Ahead: 3, Side: 5}
}

func (g *Wander) Type() string { return TypeWander }

func (g *Wander) FlagNeededSensors(*sensor.Manager) {}

func (g *Wander) Update(agent Agent, _ *sensor.Manager) {
	g.items = g.items[:0]

	c := agent.Position()
	dir := agent.Forward().Scale(g.Ahead)
	right := agent.Right().Scale(g.Side)

	for _, p := range []vmath.Vec3{
		c.Add(dir),
		c.Add(right),
		c.Sub(right),
		c.Add(dir).Add(right),
		c.Add(dir).Sub(right),
		c.Sub(dir).Add(right),
		c.Sub(dir).Sub(right),
	} {
		g.items = append(g.items, Perception{Type: TypeWander, Position: p})
	}
}
