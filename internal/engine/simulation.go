// Simulation ties the world and its brains together and steps them each frame.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/talgya/mini-brain/internal/action"
	"github.com/talgya/mini-brain/internal/behavior"
	"github.com/talgya/mini-brain/internal/brain"
	"github.com/talgya/mini-brain/internal/vmath"
	"github.com/talgya/mini-brain/internal/world"
)

// maxEvents bounds the event log kept in memory.
const maxEvents = 1000

// Simulation holds the world state and the brains acting in it.
type Simulation struct {
	World  *world.World
	Brains []*brain.Brain
	Pools  *action.Pools
	Events []Event // Recent events, oldest first
	Frame  uint64  // Most recent frame processed

	unsaved int // Events at the tail of Events not yet persisted
	tree    bt.Node
	mu      sync.RWMutex // Held while a layer runs

	// Statistics, refreshed every second.
	Stats SimStats
}

// Event is a notable occurrence in the simulation.
type Event struct {
	Frame       uint64 `json:"frame" db:"frame"`
	Agent       string `json:"agent" db:"agent"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "failure", "spawn"
}

// SimStats tracks aggregate statistics.
type SimStats struct {
	Agents    int     `json:"agents"`
	Idle      int     `json:"idle"`
	Queued    int     `json:"queued"` // Actions queued across all brains
	InUse     int     `json:"in_use"` // Pooled actions held by queues
	Entities  int     `json:"entities"`
	Failures  int     `json:"failures"`  // Failed actions since start
	AvgScore  float64 `json:"avg_score"` // Mean committed score
	Decisions int     `json:"decisions"`
}

// NewSimulation creates an empty simulation over w. All brains share one set
// of action pools, used from the simulation goroutine only.
func NewSimulation(w *world.World) *Simulation {
	s := &Simulation{
		World: w,
		Pools: action.NewPools(),
	}
	s.rebuildTree()
	return s
}

// AgentConfig describes the agents spawned by Populate.
type AgentConfig struct {
	Count       int
	SpawnRadius float64
	Speed       float64
	SightRadius float64
	Interval    time.Duration
	DebugInfo   bool
	Projectile  string              // Prefab fired by Shoot, empty = no muzzle
	Extra       []behavior.Behavior // Appended after the default behaviors

	// ShotDuration is how long after a projectile spawns the agent's Shoot
	// flag is cleared, releasing the Shoot plan.
	ShotDuration time.Duration
	// ProjectileLifetime destroys each projectile this long after it spawns.
	ProjectileLifetime time.Duration
}

// DefaultAgentConfig returns the demo agent setup.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Count:       4,
		SpawnRadius: 10,
		Speed:       1.5,
		SightRadius: 8,
		Interval:    brain.DefaultInterval,
		Projectile:  "Projectile",

		ShotDuration:       250 * time.Millisecond,
		ProjectileLifetime: 3 * time.Second,
	}
}

// Populate spawns cfg.Count agents spread on the ground plane, each with a
// blackboard, a sensor volume, a muzzle and a brain running the default setup.
func (s *Simulation) Populate(cfg AgentConfig) []*brain.Brain {
	rng := s.World.Random()
	added := make([]*brain.Brain, 0, cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		pos := vmath.Vec3{
			X: rng.FloatInRange(-cfg.SpawnRadius, cfg.SpawnRadius),
			Y: rng.FloatInRange(-cfg.SpawnRadius, cfg.SpawnRadius),
		}
		e := s.World.Spawn(fmt.Sprintf("Agent-%d", i+1), pos)
		e.SetRotation(vmath.QuatFromAxisAngle(vmath.UnitZ, vmath.Deg(rng.FloatInRange(-180, 180))))
		e.Speed = cfg.Speed
		e.AttachBlackboard()

		eyes := s.World.AddChild(e, brain.SensorPOIChild, vmath.Zero)
		eyes.SetVolume(cfg.SightRadius, world.CategoryPOI)
		if cfg.Projectile != "" {
			muzzle := s.World.AddChild(e, "Spawn", vmath.Vec3{X: 0.5})
			muzzle.SetSpawner(world.Spawner{
				Prefab:     cfg.Projectile,
				Lifetime:   cfg.ProjectileLifetime,
				ResetKey:   behavior.KeyShoot,
				ResetAfter: cfg.ShotDuration,
			})
		}

		b := s.AddBrain(e, brain.Options{
			Interval:  cfg.Interval,
			DebugInfo: cfg.DebugInfo,
			Random:    rng,
		})
		b.OnSimulationStarted()
		for _, x := range cfg.Extra {
			b.Selector().Add(x)
		}
		added = append(added, b)
	}
	s.updateStats()
	return added
}

// AddBrain attaches a brain to agent. Options.Pools is replaced by the
// simulation's pools.
func (s *Simulation) AddBrain(agent brain.Agent, opts brain.Options) *brain.Brain {
	opts.Pools = s.Pools
	b := brain.New(agent, opts)
	b.Queue().OnFailure(func(a action.Agent, desc string) {
		s.Stats.Failures++
		s.Record(Event{
			Frame:       s.Frame,
			Agent:       a.ID().String(),
			Description: desc,
			Category:    "failure",
		})
	})
	s.Brains = append(s.Brains, b)
	s.rebuildTree()
	return b
}

// RemoveBrain deactivates and drops the brain of the agent with the given handle.
func (s *Simulation) RemoveBrain(h world.Handle) bool {
	for i, b := range s.Brains {
		if b.Agent().ID() != h.ID {
			continue
		}
		b.Deactivate()
		s.Brains = append(s.Brains[:i], s.Brains[i+1:]...)
		s.rebuildTree()
		return true
	}
	return false
}

// rebuildTree ticks every brain once per frame regardless of the status of the
// others.
func (s *Simulation) rebuildTree() {
	clock := s.World.Clock()
	children := make([]bt.Node, len(s.Brains))
	for i, b := range s.Brains {
		children[i] = b.Node(clock)
	}
	s.tree = bt.New(func(nodes []bt.Node) (bt.Status, error) {
		status := bt.Success
		for _, c := range nodes {
			st, err := c.Tick()
			if err != nil {
				return bt.Failure, err
			}
			if st == bt.Running {
				status = bt.Running
			}
		}
		return status, nil
	}, children...)
}

// TickFrame processes queued entity messages, advances the clock and runs every
// brain once.
func (s *Simulation) TickFrame(frame uint64, dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Frame = frame
	before := s.World.EntityCount()

	s.World.Update(dt)
	if spawned := s.World.EntityCount() - before; spawned > 0 {
		s.Record(Event{
			Frame:       frame,
			Description: fmt.Sprintf("%d entities spawned", spawned),
			Category:    "spawn",
		})
	}

	if _, err := s.tree.Tick(); err != nil {
		slog.Error("brain tree failed", "frame", frame, "error", err)
	}
}

// TickSecond refreshes statistics.
func (s *Simulation) TickSecond(frame uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateStats()
}

// TickMinute logs a summary and trims the event log.
func (s *Simulation) TickMinute(frame uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateStats()
	slog.Info("minute report",
		"frame", frame,
		"time", s.World.Clock().Accumulated().String(),
		"agents", s.Stats.Agents,
		"idle", s.Stats.Idle,
		"entities", humanize.Comma(int64(s.Stats.Entities)),
		"decisions", humanize.Comma(int64(s.Stats.Decisions)),
		"failures", s.Stats.Failures,
		"avg_score", humanize.FtoaWithDigits(s.Stats.AvgScore, 3),
		"pooled", s.Stats.InUse,
	)
}

// Attach wires the simulation's layers into e.
func (s *Simulation) Attach(e *Engine) {
	e.OnFrame = s.TickFrame
	e.OnSecond = s.TickSecond
	e.OnMinute = s.TickMinute
}

// Read runs fn between frames, concurrently with other readers. fn must not
// mutate the simulation.
func (s *Simulation) Read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// Write runs fn exclusively between frames.
func (s *Simulation) Write(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// UnsavedEvents returns the events recorded since the last MarkEventsSaved,
// oldest first. Saving does not remove them from Events.
func (s *Simulation) UnsavedEvents() []Event {
	return s.Events[len(s.Events)-s.unsaved:]
}

// MarkEventsSaved moves the save cursor past every recorded event.
func (s *Simulation) MarkEventsSaved() {
	s.unsaved = 0
}

// Record appends ev to the event log, dropping the oldest entries past the
// cap. Caller holds the write lock when the engine is running.
func (s *Simulation) Record(ev Event) {
	s.Events = append(s.Events, ev)
	s.unsaved++
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
	if s.unsaved > len(s.Events) {
		s.unsaved = len(s.Events)
	}
}

func (s *Simulation) updateStats() {
	st := SimStats{
		Agents:   len(s.Brains),
		Entities: s.World.EntityCount(),
		InUse:    s.Pools.InUse(),
		Failures: s.Stats.Failures,
	}
	total := 0.0
	for _, b := range s.Brains {
		if b.Queue().IsEmpty() {
			st.Idle++
		}
		st.Queued += b.Queue().Len()
		st.Decisions += b.Decisions()
		total += b.CommittedScore()
	}
	if st.Agents > 0 {
		st.AvgScore = total / float64(st.Agents)
	}
	s.Stats = st
}
