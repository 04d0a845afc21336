// Package behavior ranks what an agent could do next and expands the winner
// into an action plan.
package behavior

import (
	"math"

	"github.com/talgya/mini-brain/internal/action"
	"github.com/talgya/mini-brain/internal/perception"
	"github.com/talgya/mini-brain/internal/vmath"
)

// Blackboard keys written by the built-in plans.
const (
	KeyMoveForwards = "MoveForwards"
	KeyAim          = "Aim"
	KeyShoot        = "Shoot"
)

// Behavior scores itself against the current perceptions and, when selected,
// replaces the agent's plan.
type Behavior interface {
	Name() string
	// Score must not modify pm. A zero score with no perception means the
	// behavior does not apply.
	Score(agent action.Agent, pm *perception.Manager) Scored
	// SetUpActions cancels the queue and pushes the behavior's plan for p.
	SetUpActions(agent action.Agent, p *perception.Perception, q *action.Queue)
}

// Scored is one candidate. The perception pointer is only valid until the
// next perception update.
type Scored struct {
	Behavior   Behavior
	Score      float64
	Perception *perception.Perception
}

// Selector holds the behaviors of one agent.
type Selector struct {
	behaviors []Behavior
}

// NewSelector creates a selector over bs, in order.
func NewSelector(bs ...Behavior) *Selector {
	return &Selector{behaviors: bs}
}

// Add appends b. Registration order breaks score ties.
func (s *Selector) Add(b Behavior) {
	s.behaviors = append(s.behaviors, b)
}

// Behaviors returns the registered behaviors.
func (s *Selector) Behaviors() []Behavior {
	return s.behaviors
}

// Select returns the highest scoring candidate. The first of several equal
// scores wins; the zero value is returned if nothing scores above 0.
func (s *Selector) Select(agent action.Agent, pm *perception.Manager) Scored {
	var best Scored
	for _, b := range s.behaviors {
		if c := b.Score(agent, pm); c.Score > best.Score {
			best = c
		}
	}
	return best
}

// nearest returns the perception of type key closest to the agent whose
// distance lies in [minDist, maxDist].
func nearest(agent action.Agent, pm *perception.Manager, key string, minDist, maxDist float64) (*perception.Perception, float64) {
	if !pm.HasType(key) {
		return nil, 0
	}
	own := agent.Position()

	var (
		best    *perception.Perception
		closest = math.Inf(1)
	)
	for _, p := range pm.AppendType(key, nil) {
		d := p.Position.Sub(own).Length()
		if d < minDist || d > maxDist || d >= closest {
			continue
		}
		closest = d
		best = p
	}
	return best, closest
}

// target aims at the perceived point. Live entities are tracked when track is set.
func target(p *perception.Perception, track bool) action.Target {
	t := action.Target{Point: p.Position}
	if track {
		t.Entity = p.Target
	}
	return t
}

// pushTravel queues the turn, walk and stop sequence shared by the movement plans.
func pushTravel(q *action.Queue, to action.Target, key string, speed float64) {
	pools := q.Pools()

	turn := pools.NewTurnTowards()
	turn.Target = to
	turn.Rate = vmath.Deg(90)
	q.Push(turn)

	walk := pools.NewSetBlackboardEntry()
	walk.Key = key
	walk.Value = speed
	q.Push(walk)

	move := pools.NewMoveTo()
	move.Target = to
	move.Speed = speed
	q.Push(move)

	stop := pools.NewSetBlackboardEntry()
	stop.Key = key
	stop.Value = 0.0
	stop.NoCancel = true
	q.Push(stop)
}
