// Package world provides the in-memory host world the AI core runs against:
// entities with transforms and child hierarchies, stable handles that fail to
// resolve once an entity is destroyed, message inboxes, sensor volumes and the
// shared world clock.
package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/mini-brain/internal/blackboard"
	"github.com/talgya/mini-brain/internal/entropy"
	"github.com/talgya/mini-brain/internal/vmath"
)

// ErrEntityNotFound is returned when a handle no longer resolves.
var ErrEntityNotFound = errors.New("entity not found")

// Handle refers to an entity that may since have been destroyed.
type Handle struct {
	ID uuid.UUID
}

// IsValid reports whether the handle was ever assigned.
func (h Handle) IsValid() bool {
	return h.ID != uuid.Nil
}

func (h Handle) String() string {
	return h.ID.String()
}

// Clock tracks accumulated world time and the last frame delta.
type Clock struct {
	accumulated time.Duration
	diff        time.Duration
}

// Advance moves the clock forward by dt.
func (c *Clock) Advance(dt time.Duration) {
	c.diff = dt
	c.accumulated += dt
}

// Accumulated returns total world time.
func (c *Clock) Accumulated() time.Duration {
	return c.accumulated
}

// TimeDiff returns the delta of the most recent frame.
func (c *Clock) TimeDiff() time.Duration {
	return c.diff
}

// World holds every entity keyed by ID.
type World struct {
	entities    map[uuid.UUID]*Entity
	order       []uuid.UUID // Creation order, for deterministic iteration
	clock       Clock
	random      entropy.Source
	blackboards *blackboard.Registry
	resets      []pendingReset // Owner blackboard keys cleared after a spawn
}

// New creates an empty world drawing randomness from src.
func New(src entropy.Source) *World {
	if src == nil {
		src = entropy.Crypto{}
	}
	return &World{
		entities:    make(map[uuid.UUID]*Entity),
		random:      src,
		blackboards: blackboard.NewRegistry(),
	}
}

// Spawn creates a root entity at pos facing +X.
func (w *World) Spawn(name string, pos vmath.Vec3) *Entity {
	e := &Entity{
		world:    w,
		id:       uuid.New(),
		name:     name,
		position: pos,
		rotation: vmath.Identity,
	}
	w.entities[e.id] = e
	w.order = append(w.order, e.id)
	return e
}

// AddChild creates an entity parented to parent with a local offset.
func (w *World) AddChild(parent *Entity, name string, local vmath.Vec3) *Entity {
	c := w.Spawn(name, local)
	c.parent = parent.Handle()
	parent.children = append(parent.children, c.Handle())
	return c
}

// Destroy removes the entity and all of its children. Handles to them stop resolving.
func (w *World) Destroy(h Handle) error {
	e, ok := w.TryGet(h)
	if !ok {
		return fmt.Errorf("destroy %s: %w", h, ErrEntityNotFound)
	}
	children := append([]Handle(nil), e.children...)
	for _, c := range children {
		_ = w.Destroy(c)
	}
	if p, ok := w.TryGet(e.parent); ok {
		for i, c := range p.children {
			if c == h {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	w.blackboards.Detach(e.id)
	delete(w.entities, e.id)
	for i, id := range w.order {
		if id == e.id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return nil
}

// TryGet resolves a handle.
func (w *World) TryGet(h Handle) (*Entity, bool) {
	if !h.IsValid() {
		return nil, false
	}
	e, ok := w.entities[h.ID]
	return e, ok
}

// Entities returns live entities in creation order.
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.entities[id])
	}
	return out
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return len(w.entities)
}

// Clock returns the shared world clock.
func (w *World) Clock() *Clock {
	return &w.clock
}

// Random returns the world's random source.
func (w *World) Random() entropy.Source {
	return w.random
}

// Blackboards returns the registry used by Entity.Blackboard.
func (w *World) Blackboards() *blackboard.Registry {
	return w.blackboards
}

// String returns a summary of the world.
func (w *World) String() string {
	return fmt.Sprintf("World(entities=%d, time=%s)", w.EntityCount(), w.clock.accumulated)
}
