package brain

import (
	"testing"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-brain/internal/action"
	"github.com/talgya/mini-brain/internal/behavior"
	"github.com/talgya/mini-brain/internal/entropy"
	"github.com/talgya/mini-brain/internal/perception"
	"github.com/talgya/mini-brain/internal/sensor"
	"github.com/talgya/mini-brain/internal/vmath"
	"github.com/talgya/mini-brain/internal/world"
)

// scripted scores whatever the test sets and plans a long wait.
type scripted struct {
	name  string
	score float64
}

func (s *scripted) Name() string { return s.name }

func (s *scripted) Score(action.Agent, *perception.Manager) behavior.Scored {
	return behavior.Scored{Behavior: s, Score: s.score}
}

func (s *scripted) SetUpActions(agent action.Agent, _ *perception.Perception, q *action.Queue) {
	q.Cancel(agent)
	w := q.Pools().NewWait()
	w.Duration = time.Hour
	q.Push(w)
}

func TestBrain_PreemptsOnlyOnStrictlyGreaterScore(t *testing.T) {
	t.Parallel()
	agent := world.New(nil).Spawn("agent", vmath.Zero)

	pools := action.NewPools()
	b := New(agent, Options{Pools: pools})
	first := &scripted{name: "first", score: 0.5}
	rival := &scripted{name: "rival", score: 0.5}
	b.Selector().Add(first)
	b.Selector().Add(rival)

	b.OnTick(500*time.Millisecond, 0)
	require.Zero(t, b.Decisions(), "interval not yet exceeded")

	b.OnTick(600*time.Millisecond, 100*time.Millisecond)
	require.Equal(t, 1, b.Decisions())
	require.Equal(t, "first", b.CurrentBehavior())
	require.Equal(t, 0.5, b.CommittedScore())

	b.OnTick(1200*time.Millisecond, 100*time.Millisecond)
	require.Equal(t, 1, b.Decisions(), "an equal score does not preempt")

	rival.score = 0.50001
	b.OnTick(1800*time.Millisecond, 100*time.Millisecond)
	require.Equal(t, 2, b.Decisions())
	require.Equal(t, "rival", b.CurrentBehavior())
	require.Equal(t, 0.50001, b.CommittedScore())
	require.Equal(t, 1, b.Queue().Len(), "the canceled plan drained this frame")
	require.Equal(t, 1800*time.Millisecond, b.LastUpdate())

	b.Deactivate()
	require.True(t, b.Queue().IsEmpty())
	require.Zero(t, b.CommittedScore())
	require.Zero(t, pools.InUse())
}

func TestBrain_CommittedScoreResetsWhenIdle(t *testing.T) {
	t.Parallel()
	agent := world.New(nil).Spawn("agent", vmath.Zero)

	b := New(agent, Options{Interval: time.Second})
	s := &scripted{name: "s", score: 0.7}
	b.Selector().Add(s)

	b.OnTick(1100*time.Millisecond, 0)
	require.Equal(t, 0.7, b.CommittedScore())

	b.Queue().Clear()
	s.score = 0.2
	b.OnTick(1200*time.Millisecond, 0)
	require.Zero(t, b.CommittedScore(), "idle agent accepts any positive score")

	b.OnTick(2200*time.Millisecond, 0)
	require.Equal(t, 0.2, b.CommittedScore())
}

// scene is an agent with a POI sensor, two points of interest at distances 2
// and 5, and a single GoToPOI behavior.
type scene struct {
	w     *world.World
	agent *world.Entity
	near  *world.Entity
	brain *Brain
	pools *action.Pools
}

func newScene(t *testing.T) *scene {
	t.Helper()
	w := world.New(entropy.NewSeeded(7))

	agent := w.Spawn("agent", vmath.Zero)
	agent.Speed = 1
	agent.AttachBlackboard()
	eyes := w.AddChild(agent, SensorPOIChild, vmath.Zero)
	eyes.SetVolume(10, world.CategoryPOI)

	near := w.Spawn("near", vmath.Vec3{Y: 2})
	near.Category = world.CategoryPOI
	far := w.Spawn("far", vmath.Vec3{X: 5})
	far.Category = world.CategoryPOI

	pools := action.NewPools()
	b := New(agent, Options{Pools: pools})
	b.Sensors().Add(perception.SensorSee, sensor.NewSpatial(SensorPOIChild))
	b.Perceptions().Add(perception.NewPOI())
	b.Selector().Add(behavior.GoToPOI{})

	return &scene{w: w, agent: agent, near: near, brain: b, pools: pools}
}

func (s *scene) frame(dt time.Duration) {
	s.w.Update(dt)
	s.brain.OnTick(s.w.Clock().Accumulated(), s.w.Clock().TimeDiff())
}

func (s *scene) moveForwards() any {
	bb, _ := s.agent.Blackboard()
	return bb.Get(behavior.KeyMoveForwards, nil)
}

func TestBrain_GoesToNearestPOI(t *testing.T) {
	t.Parallel()
	s := newScene(t)
	const dt = 100 * time.Millisecond

	for i := 0; i < 6; i++ {
		s.frame(dt)
	}
	require.Equal(t, "GoToPOI", s.brain.CurrentBehavior())
	require.Equal(t, 0.5, s.brain.CommittedScore())

	sawMoving := false
	for i := 0; i < 100 && !s.brain.Queue().IsEmpty(); i++ {
		s.frame(dt)
		if s.moveForwards() == 1.0 {
			sawMoving = true
		}
	}
	require.True(t, sawMoving)

	// Keep running: arrived agents re-plan and finish within the same frame.
	for i := 0; i < 20; i++ {
		s.frame(dt)
	}
	require.True(t, s.brain.Queue().IsEmpty())
	dist := s.near.Position().Sub(s.agent.Position()).Planar().Length()
	require.LessOrEqual(t, dist, 1.0+1e-9)
	require.Equal(t, 0.0, s.moveForwards())
	require.Zero(t, s.pools.InUse())
}

func TestBrain_ExternalCancelMidMoveStopsWalking(t *testing.T) {
	t.Parallel()
	s := newScene(t)
	const dt = 100 * time.Millisecond

	for i := 0; i < 100; i++ {
		s.frame(dt)
		if h := s.brain.Queue().Head(); h != nil && h.Kind() == action.KindMoveTo {
			break
		}
	}
	require.Equal(t, action.KindMoveTo, s.brain.Queue().Head().Kind())
	require.Equal(t, 1.0, s.moveForwards())

	s.brain.Queue().Cancel(s.agent)
	s.brain.Queue().Step(s.agent, dt)

	require.True(t, s.brain.Queue().IsEmpty())
	require.Equal(t, 0.0, s.moveForwards())
}

func TestBrain_DefaultSetup(t *testing.T) {
	t.Parallel()
	w := world.New(nil)
	agent := w.Spawn("agent", vmath.Zero)
	agent.AttachBlackboard()

	b := New(agent, Options{Random: entropy.Fixed{}, DebugInfo: true})
	b.OnSimulationStarted()

	require.NotNil(t, b.Sensors().Get(perception.SensorSee))
	require.Len(t, b.Perceptions().Generators(), 2)
	names := []string{}
	for _, x := range b.Selector().Behaviors() {
		names = append(names, x.Name())
	}
	require.Equal(t, []string{"GoToPOI", "Wander", "Shoot"}, names)

	// No POIs: the agent wanders.
	b.OnTick(time.Second, 10*time.Millisecond)
	require.Equal(t, "Wander", b.CurrentBehavior())
	require.InDelta(t, 0.1, b.CommittedScore(), 1e-12)
	require.True(t, b.DebugInfo())
	b.SetDebugInfo(false)
	require.False(t, b.DebugInfo())
}

type fakeClock struct{ now, dt time.Duration }

func (c *fakeClock) Accumulated() time.Duration { return c.now }
func (c *fakeClock) TimeDiff() time.Duration    { return c.dt }

func TestBrain_Node(t *testing.T) {
	t.Parallel()
	agent := world.New(nil).Spawn("agent", vmath.Zero)
	b := New(agent, Options{})
	s := &scripted{name: "s", score: 1}
	b.Selector().Add(s)

	clock := &fakeClock{dt: 10 * time.Millisecond}
	node := b.Node(clock)

	status, err := node.Tick()
	require.NoError(t, err)
	require.Equal(t, bt.Success, status, "idle before the first decision")

	clock.now = time.Second
	status, err = node.Tick()
	require.NoError(t, err)
	require.Equal(t, bt.Running, status)
}
