package sensor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-brain/internal/vmath"
	"github.com/talgya/mini-brain/internal/world"
)

type countingSensor struct {
	updates int
}

func (c *countingSensor) Update(Agent) { c.updates++ }

func TestManager_UpdatesFlaggedSensorOncePerTick(t *testing.T) {
	t.Parallel()
	w := world.New(nil)
	agent := w.Spawn("agent", vmath.Zero)

	see, hear := &countingSensor{}, &countingSensor{}
	m := NewManager()
	m.Add("Sensor_See", see)
	m.Add("Sensor_Hear", hear)

	// Two consumers flag the same sensor in one tick.
	m.FlagAsNeeded("Sensor_See")
	m.FlagAsNeeded("Sensor_See")
	m.FlagAsNeeded("Sensor_Smell")
	require.Equal(t, 2, m.Needed("Sensor_See"))

	m.UpdateNeeded(agent)
	require.Equal(t, 1, see.updates)
	require.Zero(t, hear.updates)

	// Flags do not carry over.
	m.UpdateNeeded(agent)
	require.Equal(t, 1, see.updates)
	require.Zero(t, m.Needed("Sensor_See"))

	m.SetActive("Sensor_See", false)
	m.FlagAsNeeded("Sensor_See")
	m.UpdateNeeded(agent)
	require.Equal(t, 1, see.updates)

	require.Same(t, see, m.Get("Sensor_See"))
	require.Nil(t, m.Get("Sensor_Smell"))
}

func TestSpatial_DetectsThroughChildVolume(t *testing.T) {
	t.Parallel()
	w := world.New(nil)
	agent := w.Spawn("agent", vmath.Zero)
	eyes := w.AddChild(agent, "Sensor_POI", vmath.Zero)
	eyes.SetVolume(10, world.CategoryPOI)

	poi := w.Spawn("poi", vmath.Vec3{X: 3})
	poi.Category = world.CategoryPOI

	s := NewSpatial("Sensor_POI")
	s.Update(agent)
	require.Equal(t, []world.Handle{poi.Handle()}, s.Detections())

	require.NoError(t, w.Destroy(poi.Handle()))
	s.Update(agent)
	require.Empty(t, s.Detections())

	// The volume child is replaced; the stale cached handle is re-resolved.
	require.NoError(t, w.Destroy(eyes.Handle()))
	eyes = w.AddChild(agent, "Sensor_POI", vmath.Zero)
	eyes.SetVolume(10, world.CategoryPOI)
	other := w.Spawn("other", vmath.Vec3{Y: 2})
	other.Category = world.CategoryPOI
	s.Update(agent)
	require.Equal(t, []world.Handle{other.Handle()}, s.Detections())

	blind := NewSpatial("Missing")
	blind.Update(agent)
	require.Empty(t, blind.Detections())
}
