package action

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-brain/internal/vmath"
	"github.com/talgya/mini-brain/internal/world"
)

func ftoa(f float64) string {
	return humanize.FtoaWithDigits(f, 3)
}

// Wait does nothing until Duration has elapsed.
type Wait struct {
	base
	Duration time.Duration
}

func (a *Wait) Kind() Kind { return KindWait }

func (a *Wait) Reset() {
	a.Duration = 0
}

func (a *Wait) Execute(_ Agent, dt time.Duration) Result {
	if dt >= a.Duration {
		a.Duration = 0
		return Done
	}
	a.Duration -= dt
	return Continue
}

func (a *Wait) Cancel(Agent) {
	a.Duration = 0
}

func (a *Wait) Describe() string {
	return fmt.Sprintf("Wait: %ss", ftoa(a.Duration.Seconds()))
}

// RotateBy turns the agent by Angle radians about Axis at Rate radians per second.
type RotateBy struct {
	base
	Axis  vmath.Vec3
	Angle float64
	Rate  float64
}

func (a *RotateBy) Kind() Kind { return KindRotateBy }

func (a *RotateBy) Reset() {
	a.Axis = vmath.UnitZ
	a.Angle = 0
	a.Rate = 0
}

func (a *RotateBy) Execute(agent Agent, dt time.Duration) Result {
	if a.Rate <= 0 {
		return Done
	}
	if a.Angle < 0 {
		a.Angle = -a.Angle
		a.Axis = a.Axis.Neg()
	}

	turn := a.Rate * dt.Seconds()
	step := math.Min(a.Angle, turn)
	agent.SetRotation(vmath.QuatFromAxisAngle(a.Axis, step).Mul(agent.Rotation()))

	if turn >= a.Angle {
		a.Angle = 0
		return Done
	}
	a.Angle -= step
	return Continue
}

func (a *RotateBy) Cancel(Agent) {
	a.Rate = 0
}

func (a *RotateBy) Describe() string {
	return fmt.Sprintf("RotateBy: %s°, axis %s, %s°/s",
		ftoa(vmath.ToDeg(a.Angle)), a.Axis, ftoa(vmath.ToDeg(a.Rate)))
}

// SlideBy moves the agent by Offset, expressed in its local frame, at Speed
// units per second.
type SlideBy struct {
	base
	Offset vmath.Vec3
	Speed  float64
}

func (a *SlideBy) Kind() Kind { return KindSlideBy }

func (a *SlideBy) Reset() {
	a.Offset = vmath.Zero
	a.Speed = 0
}

func (a *SlideBy) Execute(agent Agent, dt time.Duration) Result {
	if a.Offset.IsZero() {
		return Done
	}
	if a.Speed <= 0 {
		return Failed
	}

	remaining, dir := a.Offset.LengthAndNormalize()
	travel := a.Speed * dt.Seconds()
	step := math.Min(remaining, travel)

	agent.SetPosition(agent.Position().Add(agent.Rotation().Rotate(dir.Scale(step))))

	if travel >= remaining {
		a.Offset = vmath.Zero
		return Done
	}
	a.Offset = a.Offset.Sub(dir.Scale(step))
	return Continue
}

func (a *SlideBy) Cancel(Agent) {
	a.Offset = vmath.Zero
	a.Speed = 0
}

func (a *SlideBy) Describe() string {
	return fmt.Sprintf("SlideBy: %s, %s/s", a.Offset, ftoa(a.Speed))
}

// Target is either a fixed point or a live entity. A valid Entity handle wins
// over Point.
type Target struct {
	Point  vmath.Vec3
	Entity world.Handle
}

func (t Target) resolve(agent Agent) (vmath.Vec3, bool) {
	if t.Entity.IsValid() {
		return agent.Resolve(t.Entity)
	}
	return t.Point, true
}

func (t Target) String() string {
	if t.Entity.IsValid() {
		return "entity " + t.Entity.String()
	}
	return t.Point.String()
}

// DefaultTurnTolerance is the angular delta TurnTowards accepts as aligned.
var DefaultTurnTolerance = vmath.Deg(5)

// TurnTowards yaws the agent in the ground plane until its forward axis points
// at Target within Tolerance.
type TurnTowards struct {
	base
	Target    Target
	Rate      float64 // Radians per second
	Tolerance float64 // Radians
}

func (a *TurnTowards) Kind() Kind { return KindTurnTowards }

func (a *TurnTowards) Reset() {
	a.Target = Target{}
	a.Rate = 0
	a.Tolerance = DefaultTurnTolerance
}

func (a *TurnTowards) Execute(agent Agent, dt time.Duration) Result {
	if a.Rate <= 0 {
		return Done
	}
	pos, ok := a.Target.resolve(agent)
	if !ok {
		return Failed
	}

	cur, ok := agent.Forward().Planar().NormalizeIfNotZero()
	if !ok {
		return Failed
	}
	want, ok := pos.Sub(agent.Position()).Planar().NormalizeIfNotZero()
	if !ok {
		return Failed
	}
	if cur.IsEqual(want, 0.001) {
		return Done
	}

	delta := cur.AngleBetween(want)
	if delta <= a.Tolerance {
		return Done
	}

	axis, ok := cur.Cross(want).NormalizeIfNotZero()
	if !ok {
		// Facing directly away: either way round is shortest.
		axis = vmath.UnitZ
	}
	step := math.Min(delta, a.Rate*dt.Seconds())
	agent.SetRotation(vmath.QuatFromAxisAngle(axis, step).Mul(agent.Rotation()))

	if delta-step <= a.Tolerance {
		return Done
	}
	return Continue
}

func (a *TurnTowards) Cancel(Agent) {
	a.Rate = 0
}

func (a *TurnTowards) Describe() string {
	return fmt.Sprintf("TurnTowards: %s, %s°/s", a.Target, ftoa(vmath.ToDeg(a.Rate)))
}

// DefaultReachDistSq is the squared planar distance at which MoveTo arrives.
const DefaultReachDistSq = 1.0

// MoveTo steers the agent's character controller towards Target. It faces the
// target each frame and asks for forward motion at Speed.
type MoveTo struct {
	base
	Target      Target
	Speed       float64
	ReachDistSq float64
}

func (a *MoveTo) Kind() Kind { return KindMoveTo }

func (a *MoveTo) Reset() {
	a.Target = Target{}
	a.Speed = 0
	a.ReachDistSq = DefaultReachDistSq
}

func (a *MoveTo) Execute(agent Agent, _ time.Duration) Result {
	if a.Speed <= 0 {
		return Done
	}
	pos, ok := a.Target.resolve(agent)
	if !ok {
		return Failed
	}

	dir := pos.Sub(agent.Position()).Planar()
	if dir.LengthSq() <= a.ReachDistSq {
		return Done
	}

	agent.SetRotation(vmath.ShortestRotation(vmath.UnitX, dir.Normalized()))
	agent.SendMessage(world.MoveCharacter{Forwards: a.Speed})
	return Continue
}

func (a *MoveTo) Cancel(Agent) {
	a.Speed = 0
}

func (a *MoveTo) Describe() string {
	return fmt.Sprintf("MoveTo: %s, speed %s", a.Target, ftoa(a.Speed))
}
