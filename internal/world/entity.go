package world

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/mini-brain/internal/blackboard"
	"github.com/talgya/mini-brain/internal/vmath"
)

// Entity is a game object with a transform. Children store their transform
// relative to the parent; the accessors below work in global space.
type Entity struct {
	world *World
	id    uuid.UUID
	name  string

	position vmath.Vec3 // Local to parent, global for root entities
	rotation vmath.Quat

	parent   Handle
	children []Handle

	Category string  // Matched by sensor volumes
	Speed    float64 // Character controller speed multiplier, 0 = not a character

	volume  *Volume
	spawner *Spawner      // Acts on spawn triggers, nil = not a spawner
	expires time.Duration // World time at which Update destroys the entity, 0 = never
	inbox   []Message
}

// ID returns the entity's stable ID.
func (e *Entity) ID() uuid.UUID {
	return e.id
}

// Name returns the entity's name.
func (e *Entity) Name() string {
	return e.name
}

// Handle returns a handle to the entity.
func (e *Entity) Handle() Handle {
	return Handle{ID: e.id}
}

// World returns the owning world.
func (e *Entity) World() *World {
	return e.world
}

func (e *Entity) parentEntity() (*Entity, bool) {
	return e.world.TryGet(e.parent)
}

// Position returns the global position.
func (e *Entity) Position() vmath.Vec3 {
	if p, ok := e.parentEntity(); ok {
		return p.Position().Add(p.Rotation().Rotate(e.position))
	}
	return e.position
}

// SetPosition sets the global position.
func (e *Entity) SetPosition(pos vmath.Vec3) {
	if p, ok := e.parentEntity(); ok {
		e.position = p.Rotation().Conjugate().Rotate(pos.Sub(p.Position()))
		return
	}
	e.position = pos
}

// Rotation returns the global rotation.
func (e *Entity) Rotation() vmath.Quat {
	if p, ok := e.parentEntity(); ok {
		return p.Rotation().Mul(e.rotation)
	}
	return e.rotation
}

// SetRotation sets the global rotation.
func (e *Entity) SetRotation(q vmath.Quat) {
	q = q.Normalized()
	if p, ok := e.parentEntity(); ok {
		e.rotation = p.Rotation().Conjugate().Mul(q)
		return
	}
	e.rotation = q
}

// Forward returns the global +X direction.
func (e *Entity) Forward() vmath.Vec3 {
	return e.Rotation().Rotate(vmath.UnitX)
}

// Right returns the global +Y direction.
func (e *Entity) Right() vmath.Vec3 {
	return e.Rotation().Rotate(vmath.UnitY)
}

// Resolve returns the global position of the entity behind h.
func (e *Entity) Resolve(h Handle) (vmath.Vec3, bool) {
	t, ok := e.world.TryGet(h)
	if !ok {
		return vmath.Zero, false
	}
	return t.Position(), true
}

// FindChild returns the direct child with the given name.
func (e *Entity) FindChild(name string) (Handle, bool) {
	for _, h := range e.children {
		if c, ok := e.world.TryGet(h); ok && c.name == name {
			return h, true
		}
	}
	return Handle{}, false
}

// Parent returns the parent handle; false for root entities.
func (e *Entity) Parent() (Handle, bool) {
	return e.parent, e.parent.IsValid()
}

// Children returns handles of the direct children.
func (e *Entity) Children() []Handle {
	return append([]Handle(nil), e.children...)
}

// Blackboard returns the blackboard attached to the entity, if any.
func (e *Entity) Blackboard() (blackboard.Store, bool) {
	bb, ok := e.world.blackboards.Find(e.id)
	if !ok {
		return nil, false
	}
	return bb, true
}

// AttachBlackboard creates the entity's blackboard.
func (e *Entity) AttachBlackboard() *blackboard.Blackboard {
	return e.world.blackboards.Attach(e.id)
}

// SendMessage queues msg for processing on the next World.Update.
func (e *Entity) SendMessage(msg Message) {
	e.inbox = append(e.inbox, msg)
}

// Pending returns the queued, unprocessed messages.
func (e *Entity) Pending() []Message {
	return e.inbox
}

// SetSpawner makes the entity act on spawn triggers. An empty Prefab clears it.
func (e *Entity) SetSpawner(s Spawner) {
	if s.Prefab == "" {
		e.spawner = nil
		return
	}
	e.spawner = &s
}

// SetLifetime schedules the entity's destruction d from now. Zero or less
// keeps it forever.
func (e *Entity) SetLifetime(d time.Duration) {
	if d <= 0 {
		e.expires = 0
		return
	}
	e.expires = e.world.clock.Accumulated() + d
}

// Expires returns the world time at which the entity is destroyed, 0 = never.
func (e *Entity) Expires() time.Duration {
	return e.expires
}

// SpawnChild sends a spawn trigger to the named child.
func (e *Entity) SpawnChild(name string) error {
	h, ok := e.FindChild(name)
	if !ok {
		return fmt.Errorf("spawn child %q of %s: %w", name, e.name, ErrEntityNotFound)
	}
	c, _ := e.world.TryGet(h)
	c.SendMessage(Trigger{Name: TriggerSpawn})
	return nil
}

// Detect returns the entities inside the sensor volume owned by h.
func (e *Entity) Detect(h Handle) ([]Handle, bool) {
	return e.world.QueryVolume(h)
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s(%s)", e.name, e.id)
}
