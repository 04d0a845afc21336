// Package brain drives one agent: every frame it steps the action queue, and
// on a fixed cadence of world time it refreshes sensors and perceptions and
// lets the behaviors compete for the plan.
package brain

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-brain/internal/action"
	"github.com/talgya/mini-brain/internal/behavior"
	"github.com/talgya/mini-brain/internal/entropy"
	"github.com/talgya/mini-brain/internal/perception"
	"github.com/talgya/mini-brain/internal/sensor"
)

// DefaultInterval is the world time between two decision passes.
const DefaultInterval = 500 * time.Millisecond

// SensorPOIChild is the child entity whose volume backs the default see sensor.
const SensorPOIChild = "Sensor_POI"

// Agent is the entity a brain controls.
type Agent interface {
	action.Agent
	perception.Agent
}

// Options configures a Brain.
type Options struct {
	Interval  time.Duration  // Decision cadence, DefaultInterval when zero
	DebugInfo bool           // Log the plan every frame
	Pools     *action.Pools  // Shared action pools; nil allocates unpooled actions
	Random    entropy.Source // Used by the default Wander behavior
}

// Brain is the AI component of one agent. Not safe for concurrent use.
type Brain struct {
	agent Agent
	opts  Options

	queue       *action.Queue
	sensors     *sensor.Manager
	perceptions *perception.Manager
	selector    *behavior.Selector

	committed  float64
	current    string // Name of the behavior that set up the plan
	lastUpdate time.Duration
	decisions  int
}

// New creates an idle brain with no sensors, generators or behaviors.
func New(agent Agent, opts Options) *Brain {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Random == nil {
		opts.Random = entropy.Crypto{}
	}
	return &Brain{
		agent:       agent,
		opts:        opts,
		queue:       action.NewQueue(opts.Pools),
		sensors:     sensor.NewManager(),
		perceptions: perception.NewManager(),
		selector:    behavior.NewSelector(),
	}
}

// OnSimulationStarted installs the default senses and behaviors: a spatial
// see sensor on the SensorPOIChild volume, the POI and wander generators, and
// the GoToPOI, Wander and Shoot behaviors.
func (b *Brain) OnSimulationStarted() {
	b.sensors.Add(perception.SensorSee, sensor.NewSpatial(SensorPOIChild))
	b.perceptions.Add(perception.NewPOI())
	b.perceptions.Add(perception.NewWander())
	b.selector.Add(behavior.GoToPOI{})
	b.selector.Add(&behavior.Wander{Random: b.opts.Random})
	b.selector.Add(behavior.NewShoot())
}

// OnTick runs one frame. now is the accumulated world time, dt the frame delta.
func (b *Brain) OnTick(now, dt time.Duration) {
	if b.queue.IsEmpty() {
		b.committed = 0
		b.current = ""
	}

	if now > b.lastUpdate+b.opts.Interval {
		b.lastUpdate = now
		b.decide()
	}

	b.queue.Step(b.agent, dt)

	if b.opts.DebugInfo {
		slog.Info("AI debug",
			"agent", b.agent.Name(),
			"behavior", b.current,
			"score", humanize.FtoaWithDigits(b.committed, 3),
			"queue", b.queue.DebugInfo(),
		)
	}
}

func (b *Brain) decide() {
	b.perceptions.FlagNeededSensors(b.sensors)
	b.sensors.UpdateNeeded(b.agent)
	b.perceptions.Update(b.agent, b.sensors)

	best := b.selector.Select(b.agent, b.perceptions)
	if best.Score <= b.committed {
		return
	}

	slog.Debug("behavior selected",
		"agent", b.agent.Name(),
		"behavior", best.Behavior.Name(),
		"score", best.Score,
		"replaces", b.current,
	)
	b.committed = best.Score
	b.current = best.Behavior.Name()
	b.decisions++
	best.Behavior.SetUpActions(b.agent, best.Perception, b.queue)
}

// Deactivate drops the plan without cancel callbacks.
func (b *Brain) Deactivate() {
	b.queue.Clear()
	b.committed = 0
	b.current = ""
}

// Agent returns the controlled agent.
func (b *Brain) Agent() Agent { return b.agent }

// CommittedScore returns the score the running plan was selected with.
func (b *Brain) CommittedScore() float64 { return b.committed }

// CurrentBehavior returns the name of the behavior that owns the running plan.
func (b *Brain) CurrentBehavior() string { return b.current }

// Decisions returns how many plans have been set up.
func (b *Brain) Decisions() int { return b.decisions }

// LastUpdate returns the world time of the last decision pass.
func (b *Brain) LastUpdate() time.Duration { return b.lastUpdate }

func (b *Brain) Queue() *action.Queue             { return b.queue }
func (b *Brain) Sensors() *sensor.Manager         { return b.sensors }
func (b *Brain) Perceptions() *perception.Manager { return b.perceptions }
func (b *Brain) Selector() *behavior.Selector     { return b.selector }

// Interval returns the decision cadence.
func (b *Brain) Interval() time.Duration { return b.opts.Interval }

// DebugInfo reports whether the brain logs its plan every frame.
func (b *Brain) DebugInfo() bool { return b.opts.DebugInfo }

// SetDebugInfo toggles per-frame plan logging.
func (b *Brain) SetDebugInfo(on bool) { b.opts.DebugInfo = on }
