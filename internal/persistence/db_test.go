package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-brain/internal/brain"
	"github.com/talgya/mini-brain/internal/engine"
	"github.com/talgya/mini-brain/internal/entropy"
	"github.com/talgya/mini-brain/internal/vmath"
	"github.com/talgya/mini-brain/internal/world"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_Meta(t *testing.T) {
	t.Parallel()
	db := openTemp(t)

	require.NoError(t, db.SaveMeta("seed", "42"))
	require.NoError(t, db.SaveMeta("seed", "43"))
	v, err := db.GetMeta("seed")
	require.NoError(t, err)
	require.Equal(t, "43", v)

	_, err = db.GetMeta("missing")
	require.Error(t, err)
}

func TestDB_SaveSimulation(t *testing.T) {
	t.Parallel()
	db := openTemp(t)

	w := world.New(entropy.NewSeeded(1))
	sim := engine.NewSimulation(w)
	cfg := engine.DefaultAgentConfig()
	cfg.Count = 2
	brains := sim.Populate(cfg)
	brains[1].SetDebugInfo(true)

	bb, ok := w.Blackboards().Find(brains[0].Agent().ID())
	require.True(t, ok)
	require.NoError(t, bb.Set("MoveForwards", 0.5))

	sim.Record(engine.Event{Frame: 7, Agent: "a", Description: "MoveTo failed", Category: "failure"})
	sim.Frame = 7
	require.NoError(t, db.SaveSimulation(sim))
	require.Len(t, sim.Events, 1, "saving keeps the in-memory log")
	require.Empty(t, sim.UnsavedEvents())

	recs, err := db.Entities()
	require.NoError(t, err)
	require.Len(t, recs, w.EntityCount())
	children := 0
	for _, r := range recs {
		if r.Parent.Valid {
			children++
		}
	}
	require.Equal(t, 4, children, "sensor volume and muzzle per agent")

	rec, ok, err := db.Brain("Agent-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, rec.DebugInfo)
	require.Equal(t, brain.DefaultInterval.Milliseconds(), rec.IntervalMS)
	require.JSONEq(t, `{"MoveForwards":0.5}`, rec.BlackboardJSON)

	_, ok, err = db.Brain("Nobody")
	require.NoError(t, err)
	require.False(t, ok)

	events, err := db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "MoveTo failed", events[0].Description)

	frame, err := db.GetMeta("last_frame")
	require.NoError(t, err)
	require.Equal(t, "7", frame)

	// A second save writes only what was recorded since the first.
	sim.Record(engine.Event{Frame: 8, Agent: "b", Description: "Spawn failed", Category: "failure"})
	require.NoError(t, db.SaveSimulation(sim))
	events, err = db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, uint64(8), events[0].Frame)
	require.Equal(t, uint64(7), events[1].Frame)
	require.Len(t, sim.Events, 2)

	// A fresh run with the same names picks the debug flag back up.
	w2 := world.New(entropy.NewSeeded(1))
	sim2 := engine.NewSimulation(w2)
	restored := sim2.Populate(cfg)
	n, err := db.ApplyBrainSettings(restored)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.False(t, restored[0].DebugInfo())
	require.True(t, restored[1].DebugInfo())
}

func TestDB_SaveEntitiesReplaces(t *testing.T) {
	t.Parallel()
	db := openTemp(t)

	w := world.New(nil)
	e := w.Spawn("walker", vmath.Vec3{X: 1, Y: 2})
	e.Speed = 2
	require.NoError(t, db.SaveEntities(w))

	e.SetPosition(vmath.Vec3{X: 5})
	e.SetRotation(vmath.QuatFromAxisAngle(vmath.UnitZ, vmath.Deg(90)))
	require.NoError(t, db.SaveEntities(w))

	recs, err := db.Entities()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, e.ID().String(), recs[0].ID)
	require.Equal(t, 5.0, recs[0].PosX)
	require.Equal(t, 2.0, recs[0].Speed)
	require.InDelta(t, 0.7071, recs[0].RotW, 1e-4)
	require.False(t, recs[0].Parent.Valid)

	require.NoError(t, db.SaveEvents(nil))
}
