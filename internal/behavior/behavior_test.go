package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-brain/internal/action"
	"github.com/talgya/mini-brain/internal/entropy"
	"github.com/talgya/mini-brain/internal/perception"
	"github.com/talgya/mini-brain/internal/sensor"
	"github.com/talgya/mini-brain/internal/vmath"
	"github.com/talgya/mini-brain/internal/world"
)

// staticGen serves a fixed list of perceptions.
type staticGen struct {
	key   string
	items []perception.Perception
}

func (g *staticGen) Type() string                             { return g.key }
func (g *staticGen) FlagNeededSensors(*sensor.Manager)        {}
func (g *staticGen) Update(perception.Agent, *sensor.Manager) {}
func (g *staticGen) HasAny() bool                             { return len(g.items) > 0 }
func (g *staticGen) AppendAll(out []*perception.Perception) []*perception.Perception {
	for i := range g.items {
		out = append(out, &g.items[i])
	}
	return out
}

func points(key string, ps ...vmath.Vec3) *perception.Manager {
	g := &staticGen{key: key}
	for _, p := range ps {
		g.items = append(g.items, perception.Perception{Type: key, Position: p})
	}
	m := perception.NewManager()
	m.Add(g)
	return m
}

// fixedScore always scores the same.
type fixedScore struct {
	name  string
	score float64
}

func (b *fixedScore) Name() string { return b.name }
func (b *fixedScore) Score(action.Agent, *perception.Manager) Scored {
	return Scored{Behavior: b, Score: b.score}
}
func (b *fixedScore) SetUpActions(action.Agent, *perception.Perception, *action.Queue) {}

func TestSelector_FirstMaxWinsTies(t *testing.T) {
	t.Parallel()
	agent := world.New(nil).Spawn("agent", vmath.Zero)

	first := &fixedScore{"first", 0.5}
	second := &fixedScore{"second", 0.5}
	low := &fixedScore{"low", 0.2}
	s := NewSelector(low, first, second)

	got := s.Select(agent, perception.NewManager())
	require.Same(t, first, got.Behavior)
	require.Equal(t, 0.5, got.Score)

	s.Add(&fixedScore{"higher", 0.50001})
	require.Equal(t, "higher", s.Select(agent, perception.NewManager()).Behavior.Name())

	none := NewSelector(&fixedScore{"zero", 0})
	require.Equal(t, Scored{}, none.Select(agent, perception.NewManager()))
}

func TestGoToPOI_ScoresNearest(t *testing.T) {
	t.Parallel()
	agent := world.New(nil).Spawn("agent", vmath.Zero)

	pm := points(perception.TypePOI, vmath.Vec3{X: 5}, vmath.Vec3{Y: 2})
	got := GoToPOI{}.Score(agent, pm)
	require.InDelta(t, 0.5, got.Score, 1e-12)
	require.Equal(t, vmath.Vec3{Y: 2}, got.Perception.Position)

	near := points(perception.TypePOI, vmath.Vec3{X: 0.5})
	require.InDelta(t, 1.0, GoToPOI{}.Score(agent, near).Score, 1e-12)

	require.Equal(t, Scored{}, GoToPOI{}.Score(agent, perception.NewManager()))
}

func TestGoToPOI_Plan(t *testing.T) {
	t.Parallel()
	w := world.New(nil)
	agent := w.Spawn("agent", vmath.Zero)
	agent.AttachBlackboard()

	pools := action.NewPools()
	q := action.NewQueue(pools)
	old := &action.Wait{Duration: time.Hour}
	q.Push(old)

	p := &perception.Perception{Type: perception.TypePOI, Position: vmath.Vec3{Y: 2}}
	GoToPOI{}.SetUpActions(agent, p, q)

	require.Zero(t, old.Duration, "existing plan is canceled, not cleared")
	require.Equal(t, 5, q.Len())

	q.Step(agent, time.Millisecond)
	require.Equal(t, action.KindTurnTowards, q.Head().Kind())
	require.Equal(t, []string{
		"TurnTowards: 0/2/0, 90°/s",
		"SetBlackboardEntry: MoveForwards = 1",
		"MoveTo: 0/2/0, speed 1",
		"SetBlackboardEntry: MoveForwards = 0",
	}, splitLines(q.DebugInfo()))
}

func TestShoot_Range(t *testing.T) {
	t.Parallel()
	agent := world.New(nil).Spawn("agent", vmath.Zero)
	s := NewShoot()

	require.Equal(t, Scored{}, s.Score(agent, points(perception.TypePOI, vmath.Vec3{X: 1}, vmath.Vec3{X: 6})))

	got := s.Score(agent, points(perception.TypePOI, vmath.Vec3{X: 1}, vmath.Vec3{X: 4}, vmath.Vec3{Y: 3}))
	require.InDelta(t, 0.8/3+0.1, got.Score, 1e-12)
	require.Equal(t, vmath.Vec3{Y: 3}, got.Perception.Position)
}

func TestShoot_PlanFiresAndLowersAim(t *testing.T) {
	t.Parallel()
	w := world.New(nil)
	agent := w.Spawn("agent", vmath.Zero)
	bb := agent.AttachBlackboard()
	muzzle := w.AddChild(agent, "Spawn", vmath.Vec3{X: 0.5})
	muzzle.SetSpawner(world.Spawner{Prefab: "Projectile"})

	q := action.NewQueue(action.NewPools())
	p := &perception.Perception{Type: perception.TypePOI, Position: vmath.Vec3{X: 3}}
	NewShoot().SetUpActions(agent, p, q)
	require.Equal(t, 7, q.Len())

	// Already facing the target: turn, aim and the first wait start this frame.
	q.Step(agent, 100*time.Millisecond)
	require.Equal(t, 1.0, bb.Get(KeyAim, nil))
	require.Equal(t, action.KindWait, q.Head().Kind())

	q.Step(agent, 400*time.Millisecond)
	require.Len(t, muzzle.Pending(), 1, "spawn trigger sent")
	require.Equal(t, 1.0, bb.Get(KeyShoot, nil))
	require.Equal(t, action.KindSetAndWaitBlackboardEntry, q.Head().Kind())

	require.NoError(t, bb.Set(KeyShoot, 0))
	q.Step(agent, 500*time.Millisecond)
	require.True(t, q.IsEmpty())
	require.Equal(t, 0.0, bb.Get(KeyAim, nil))
}

func TestWander_PicksRandomPoint(t *testing.T) {
	t.Parallel()
	w := world.New(nil)
	agent := w.Spawn("agent", vmath.Zero)

	gen := perception.NewWander()
	gen.Update(agent, nil)
	pm := perception.NewManager()
	pm.Add(gen)

	b := &Wander{Random: entropy.Fixed{Int: 2}}
	got := b.Score(agent, pm)
	require.Equal(t, 0.1, got.Score)
	require.Equal(t, vmath.Vec3{Y: -5}, got.Perception.Position)

	require.Equal(t, Scored{}, b.Score(agent, perception.NewManager()))

	// Points from every wander generator are candidates.
	agent.SetPosition(vmath.Vec3{X: 10})
	second := perception.NewWander()
	second.Update(agent, nil)
	pm.Add(second)
	all := pm.AppendType(perception.TypeWander, nil)
	require.Len(t, all, 14)
	b.Random = entropy.Fixed{Int: 9}
	require.Same(t, all[9], b.Score(agent, pm).Perception)
}

func TestExpr(t *testing.T) {
	t.Parallel()
	agent := world.New(nil).Spawn("agent", vmath.Zero)

	_, err := NewExpr("broken", perception.TypePOI, "dist +", 1)
	require.Error(t, err)
	_, err = NewExpr("text", perception.TypePOI, `"far"`, 1)
	require.Error(t, err, "result must be numeric")

	b, err := NewExpr("far", perception.TypePOI, "dist > 3 ? dist / 10 : 0.0", 2)
	require.NoError(t, err)
	require.Equal(t, "far", b.Name())

	pm := points(perception.TypePOI, vmath.Vec3{X: 1}, vmath.Vec3{X: 6}, vmath.Vec3{X: 4})
	got := b.Score(agent, pm)
	require.InDelta(t, 0.6, got.Score, 1e-12)
	require.Equal(t, vmath.Vec3{X: 6}, got.Perception.Position)

	last, err := NewExpr("last", perception.TypePOI, "index == count - 1 ? 1.0 : 0.0", 0)
	require.NoError(t, err)
	require.Equal(t, vmath.Vec3{X: 4}, last.Score(agent, pm).Perception.Position)
	require.Equal(t, 1.0, last.Speed)

	q := action.NewQueue(nil)
	b.SetUpActions(agent, got.Perception, q)
	require.Equal(t, 4, q.Len())
	require.Equal(t, "MoveTo: 6/0/0, speed 2", splitLines(q.DebugInfo())[2])
}
