package world

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/mini-brain/internal/vmath"
)

// Message is delivered to an entity's inbox and processed on World.Update.
type Message any

// MoveCharacter asks a character controller to move this frame. Values are
// speed factors in [0, 1+], multiplied by the entity's Speed.
type MoveCharacter struct {
	Forwards    float64
	Backwards   float64
	StrafeLeft  float64
	StrafeRight float64
}

// TriggerSpawn is the trigger name that makes a spawner entity spawn its prefab.
const TriggerSpawn = "spawn"

// Trigger is a named internal trigger.
type Trigger struct {
	Name string
}

// Spawner is what an entity does when it receives a spawn trigger.
type Spawner struct {
	Prefab   string
	Lifetime time.Duration // Spawned entities are destroyed after this, 0 = kept

	// ResetKey is set back to 0 on the blackboard of the spawner's root entity
	// ResetAfter the spawn, the way a firing animation clears its flag when
	// the clip ends. Empty = no reset.
	ResetKey   string
	ResetAfter time.Duration
}

type pendingReset struct {
	owner uuid.UUID
	key   string
	at    time.Duration
}

// Volume is a spherical detection volume owned by an entity.
type Volume struct {
	Radius   float64
	Category string // Only entities with this Category are detected; empty = all
}

// SetVolume attaches a detection volume to e.
func (e *Entity) SetVolume(radius float64, category string) {
	e.volume = &Volume{Radius: radius, Category: category}
}

// QueryVolume returns handles of root entities inside the volume owned by h,
// nearest first. The owner and its ancestors are never reported. Returns false
// when h does not resolve or owns no volume.
func (w *World) QueryVolume(h Handle) ([]Handle, bool) {
	owner, ok := w.TryGet(h)
	if !ok || owner.volume == nil {
		return nil, false
	}

	excluded := map[Handle]bool{h: true}
	for p := owner.parent; p.IsValid(); {
		excluded[p] = true
		pe, ok := w.TryGet(p)
		if !ok {
			break
		}
		p = pe.parent
	}

	center := owner.Position()
	r2 := owner.volume.Radius * owner.volume.Radius

	type hit struct {
		h      Handle
		distSq float64
	}
	var hits []hit
	for _, id := range w.order {
		e := w.entities[id]
		if e.parent.IsValid() || excluded[e.Handle()] {
			continue
		}
		if owner.volume.Category != "" && e.Category != owner.volume.Category {
			continue
		}
		d := e.Position().Sub(center).LengthSq()
		if d <= r2 {
			hits = append(hits, hit{e.Handle(), d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distSq < hits[j].distSq })

	out := make([]Handle, len(hits))
	for i, x := range hits {
		out[i] = x.h
	}
	return out, true
}

// Update advances the world clock, destroys expired entities, clears due
// blackboard resets and processes every entity's inbox.
func (w *World) Update(dt time.Duration) {
	w.clock.Advance(dt)
	now := w.clock.Accumulated()
	w.expire(now)
	w.runResets(now)

	// Snapshot: spawns append to w.order while we iterate.
	for _, h := range w.handles() {
		e, ok := w.TryGet(h)
		if !ok {
			continue
		}
		msgs := e.inbox
		e.inbox = nil
		for _, m := range msgs {
			w.deliver(e, m, dt)
		}
	}
}

func (w *World) expire(now time.Duration) {
	for _, h := range w.handles() {
		e, ok := w.TryGet(h)
		if !ok || e.expires == 0 || now < e.expires {
			continue
		}
		if err := w.Destroy(h); err == nil {
			slog.Debug("entity expired", "name", e.name, "id", e.id)
		}
	}
}

func (w *World) runResets(now time.Duration) {
	kept := w.resets[:0]
	for _, r := range w.resets {
		if now < r.at {
			kept = append(kept, r)
			continue
		}
		bb, ok := w.blackboards.Find(r.owner)
		if !ok {
			continue
		}
		if err := bb.Set(r.key, 0.0); err != nil {
			slog.Warn("blackboard reset failed", "owner", r.owner, "key", r.key, "error", err)
		}
	}
	w.resets = kept
}

// root returns the top of e's hierarchy.
func (w *World) root(e *Entity) *Entity {
	for e.parent.IsValid() {
		p, ok := w.TryGet(e.parent)
		if !ok {
			break
		}
		e = p
	}
	return e
}

func (w *World) handles() []Handle {
	out := make([]Handle, len(w.order))
	for i, id := range w.order {
		out[i] = Handle{ID: id}
	}
	return out
}

func (w *World) deliver(e *Entity, m Message, dt time.Duration) {
	switch msg := m.(type) {
	case MoveCharacter:
		if e.Speed <= 0 {
			return
		}
		local := vmath.Vec3{
			X: msg.Forwards - msg.Backwards,
			Y: msg.StrafeRight - msg.StrafeLeft,
		}
		if local.IsZero() {
			return
		}
		dist := e.Speed * dt.Seconds()
		l, dir := local.LengthAndNormalize()
		dist *= math.Min(l, 1)
		e.SetPosition(e.Position().Add(e.Rotation().Rotate(dir).Planar().Normalized().Scale(dist)))
	case Trigger:
		sp := e.spawner
		if msg.Name != TriggerSpawn || sp == nil {
			return
		}
		spawned := w.Spawn(sp.Prefab, e.Position())
		spawned.SetRotation(e.Rotation())
		spawned.SetLifetime(sp.Lifetime)
		if sp.ResetKey != "" {
			w.resets = append(w.resets, pendingReset{
				owner: w.root(e).id,
				key:   sp.ResetKey,
				at:    w.clock.Accumulated() + sp.ResetAfter,
			})
		}
		slog.Debug("entity spawned", "prefab", sp.Prefab, "by", e.name, "id", spawned.id)
	}
}
