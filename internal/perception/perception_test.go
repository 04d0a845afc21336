package perception

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-brain/internal/sensor"
	"github.com/talgya/mini-brain/internal/vmath"
	"github.com/talgya/mini-brain/internal/world"
)

type fixedGen struct {
	list
	key string
}

func (g *fixedGen) Type() string                      { return g.key }
func (g *fixedGen) FlagNeededSensors(*sensor.Manager) {}
func (g *fixedGen) Update(Agent, *sensor.Manager)     {}

func TestManager_TypeQueries(t *testing.T) {
	t.Parallel()

	a := &fixedGen{key: "A", list: list{items: []Perception{{Type: "A", Position: vmath.Vec3{X: 1}}}}}
	empty := &fixedGen{key: "B"}
	a2 := &fixedGen{key: "A", list: list{items: []Perception{{Type: "A", Position: vmath.Vec3{X: 2}}, {Type: "A", Position: vmath.Vec3{X: 3}}}}}

	m := NewManager()
	m.Add(a)
	m.Add(empty)
	m.Add(a2)

	require.True(t, m.HasType("A"))
	require.False(t, m.HasType("B"))
	require.False(t, m.HasType("C"))

	got := m.AppendType("A", nil)
	require.Len(t, got, 3)
	for i, p := range got {
		require.Equal(t, float64(i+1), p.Position.X, "registration order")
	}
	require.Empty(t, m.AppendType("B", nil))
}

func TestPOI_ReadsSeeSensor(t *testing.T) {
	t.Parallel()
	w := world.New(nil)
	agent := w.Spawn("agent", vmath.Zero)
	eyes := w.AddChild(agent, "Sensor_POI", vmath.Zero)
	eyes.SetVolume(10, world.CategoryPOI)
	near := w.Spawn("near", vmath.Vec3{X: 2})
	near.Category = world.CategoryPOI
	far := w.Spawn("far", vmath.Vec3{X: 5})
	far.Category = world.CategoryPOI

	sm := sensor.NewManager()
	sm.Add(SensorSee, sensor.NewSpatial("Sensor_POI"))

	m := NewManager()
	m.Add(NewPOI())
	m.Add(NewPOI())
	m.FlagNeededSensors(sm)
	require.Equal(t, 2, sm.Needed(SensorSee))
	sm.UpdateNeeded(agent)
	m.Update(agent, sm)

	got := m.AppendType(TypePOI, nil)
	require.Len(t, got, 4)
	require.Equal(t, near.Handle(), got[0].Target)
	require.Equal(t, vmath.Vec3{X: 5}, got[1].Position)

	// A rebuild drops stale entries.
	require.NoError(t, w.Destroy(near.Handle()))
	require.NoError(t, w.Destroy(far.Handle()))
	m.FlagNeededSensors(sm)
	sm.UpdateNeeded(agent)
	m.Update(agent, sm)
	require.False(t, m.HasType(TypePOI))
}

func TestPOI_WithoutSensor(t *testing.T) {
	t.Parallel()
	w := world.New(nil)
	agent := w.Spawn("agent", vmath.Zero)

	g := NewPOI()
	g.Update(agent, sensor.NewManager())
	require.False(t, g.HasAny())
}

func TestWander_SevenPoints(t *testing.T) {
	t.Parallel()
	w := world.New(nil)
	agent := w.Spawn("agent", vmath.Vec3{X: 1, Y: 1})

	g := NewWander()
	g.Update(agent, nil)
	got := g.AppendAll(nil)
	require.Len(t, got, 7)

	want := []vmath.Vec3{
		{X: 4, Y: 1},
		{X: 1, Y: 6},
		{X: 1, Y: -4},
		{X: 4, Y: 6},
		{X: 4, Y: -4},
		{X: -2, Y: 6},
		{X: -2, Y: -4},
	}
	for i, p := range got {
		require.Equal(t, TypeWander, p.Type)
		require.True(t, p.Position.IsEqual(want[i], 1e-9), "point %d: %v", i, p.Position)
	}
}
