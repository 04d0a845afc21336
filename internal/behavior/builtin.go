package behavior

import (
	"math"
	"time"

	"github.com/talgya/mini-brain/internal/action"
	"github.com/talgya/mini-brain/internal/entropy"
	"github.com/talgya/mini-brain/internal/perception"
	"github.com/talgya/mini-brain/internal/vmath"
)

// GoToPOI walks to the nearest point of interest. Closer points score higher.
type GoToPOI struct{}

func (GoToPOI) Name() string { return "GoToPOI" }

func (b GoToPOI) Score(agent action.Agent, pm *perception.Manager) Scored {
	p, dist := nearest(agent, pm, perception.TypePOI, 0, math.Inf(1))
	if p == nil {
		return Scored{}
	}
	return Scored{Behavior: b, Score: 1 / math.Max(1, dist), Perception: p}
}

func (GoToPOI) SetUpActions(agent action.Agent, p *perception.Perception, q *action.Queue) {
	q.Cancel(agent)
	pushTravel(q, target(p, false), KeyMoveForwards, 1)
}

// Wander strolls to a random wander point. It only wins when nothing else applies.
type Wander struct {
	Random entropy.Source
}

func (*Wander) Name() string { return "Wander" }

func (b *Wander) Score(_ action.Agent, pm *perception.Manager) Scored {
	if !pm.HasType(perception.TypeWander) {
		return Scored{}
	}
	ps := pm.AppendType(perception.TypeWander, nil)
	if len(ps) == 0 {
		return Scored{}
	}
	src := b.Random
	if src == nil {
		src = entropy.Crypto{}
	}
	return Scored{Behavior: b, Score: 0.1, Perception: ps[src.IntInRange(len(ps))]}
}

func (*Wander) SetUpActions(agent action.Agent, p *perception.Perception, q *action.Queue) {
	q.Cancel(agent)
	pushTravel(q, target(p, false), KeyMoveForwards, 0.5)
}

// Shoot aims at a point of interest between MinDist and MaxDist and fires the
// agent's "Spawn" child.
type Shoot struct {
	MinDist float64
	MaxDist float64
	Child   string
}

// NewShoot returns a Shoot with the default engagement range.
func NewShoot() *Shoot {
	return &Shoot{MinDist: 2, MaxDist: 5, Child: "Spawn"}
}

func (*Shoot) Name() string { return "Shoot" }

func (b *Shoot) Score(agent action.Agent, pm *perception.Manager) Scored {
	p, dist := nearest(agent, pm, perception.TypePOI, b.MinDist, b.MaxDist)
	if p == nil {
		return Scored{}
	}
	return Scored{Behavior: b, Score: 0.8/math.Max(1, dist) + 0.1, Perception: p}
}

func (b *Shoot) SetUpActions(agent action.Agent, p *perception.Perception, q *action.Queue) {
	q.Cancel(agent)
	pools := q.Pools()

	turn := pools.NewTurnTowards()
	turn.Target = target(p, true)
	turn.Rate = vmath.Deg(90)
	q.Push(turn)

	aim := pools.NewSetBlackboardEntry()
	aim.Key = KeyAim
	aim.Value = 1.0
	q.Push(aim)

	settle := pools.NewWait()
	settle.Duration = 500 * time.Millisecond
	q.Push(settle)

	fire := pools.NewSpawn()
	fire.Child = b.Child
	q.Push(fire)

	// The host clears the flag once the shot is done.
	shot := pools.NewSetAndWaitBlackboardEntry()
	shot.Key = KeyShoot
	shot.SetValue = 1.0
	shot.WaitValue = 0.0
	q.Push(shot)

	cooldown := pools.NewWait()
	cooldown.Duration = 500 * time.Millisecond
	q.Push(cooldown)

	lower := pools.NewSetBlackboardEntry()
	lower.Key = KeyAim
	lower.Value = 0.0
	lower.NoCancel = true
	q.Push(lower)
}
