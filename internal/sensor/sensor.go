// Package sensor holds demand-driven perceptual inputs. Consumers flag the
// sensors they need each tick and the manager updates each flagged sensor once.
package sensor

import (
	"log/slog"

	"github.com/talgya/mini-brain/internal/world"
)

// Agent is what sensors query.
type Agent interface {
	Name() string
	FindChild(name string) (world.Handle, bool)
	Detect(h world.Handle) ([]world.Handle, bool)
}

// Sensor is an input refreshed by Manager.UpdateNeeded.
type Sensor interface {
	Update(agent Agent)
}

type entry struct {
	name   string
	sensor Sensor
	active bool
	needed int
}

// Manager owns the sensors of one agent.
type Manager struct {
	entries []*entry
	byName  map[string]*entry
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{byName: make(map[string]*entry)}
}

// Add registers s under name, active. A second Add with the same name
// replaces the sensor in place.
func (m *Manager) Add(name string, s Sensor) {
	if e, ok := m.byName[name]; ok {
		e.sensor = s
		return
	}
	e := &entry{name: name, sensor: s, active: true}
	m.entries = append(m.entries, e)
	m.byName[name] = e
}

// Get returns the sensor registered under name, or nil.
func (m *Manager) Get(name string) Sensor {
	if e, ok := m.byName[name]; ok {
		return e.sensor
	}
	return nil
}

// SetActive enables or disables a sensor. Inactive sensors are never updated.
func (m *Manager) SetActive(name string, active bool) {
	if e, ok := m.byName[name]; ok {
		e.active = active
	}
}

// FlagAsNeeded marks name as needed for the current tick. Unknown names are ignored.
func (m *Manager) FlagAsNeeded(name string) {
	if e, ok := m.byName[name]; ok {
		e.needed++
	}
}

// Needed returns how many consumers flagged name this tick.
func (m *Manager) Needed(name string) int {
	if e, ok := m.byName[name]; ok {
		return e.needed
	}
	return 0
}

// UpdateNeeded updates every active, flagged sensor once, in registration
// order, and clears the flags for the next tick.
func (m *Manager) UpdateNeeded(agent Agent) {
	for _, e := range m.entries {
		if e.needed > 0 && e.active {
			e.sensor.Update(agent)
		}
		e.needed = 0
	}
}

// Spatial reports the entities inside the detection volume owned by a named
// child of the agent.
type Spatial struct {
	Child string

	volume     world.Handle
	detections []world.Handle
}

// NewSpatial creates a sensor reading the volume of child.
func NewSpatial(child string) *Spatial {
	return &Spatial{Child: child}
}

func (s *Spatial) Update(agent Agent) {
	s.detections = s.detections[:0]

	if !s.volume.IsValid() && !s.resolve(agent) {
		return
	}
	hits, ok := agent.Detect(s.volume)
	if !ok {
		// Cached child went away; look it up again once.
		if !s.resolve(agent) {
			return
		}
		if hits, ok = agent.Detect(s.volume); !ok {
			return
		}
	}
	s.detections = append(s.detections, hits...)
}

func (s *Spatial) resolve(agent Agent) bool {
	h, ok := agent.FindChild(s.Child)
	if !ok {
		s.volume = world.Handle{}
		slog.Debug("sensor volume not found", "agent", agent.Name(), "child", s.Child)
		return false
	}
	s.volume = h
	return true
}

// Detections returns the entities found by the last update. The slice is
// reused by the next update.
func (s *Spatial) Detections() []world.Handle {
	return s.detections
}
