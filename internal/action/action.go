// Package action implements the primitive, resumable units of work an AI agent
// executes over successive frames, the per-scope pools they are allocated
// from, and the FIFO queue that drives them.
package action

import (
	"time"

	"github.com/google/uuid"

	"github.com/talgya/mini-brain/internal/blackboard"
	"github.com/talgya/mini-brain/internal/vmath"
	"github.com/talgya/mini-brain/internal/world"
)

// Result is the outcome of one Execute call.
type Result uint8

const (
	Continue Result = iota // Needs to be executed again next frame
	Done                   // Finished, canceled or nothing to do
	Failed                 // A precondition could not be met; abort the plan
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Kind tags the concrete action variant.
type Kind uint8

const (
	KindWait Kind = iota
	KindRotateBy
	KindSlideBy
	KindTurnTowards
	KindMoveTo
	KindSetBlackboardEntry
	KindWaitForBlackboardEntry
	KindSetAndWaitBlackboardEntry
	KindSpawn

	kindCount
)

var kindNames = [kindCount]string{
	KindWait:                      "Wait",
	KindRotateBy:                  "RotateBy",
	KindSlideBy:                   "SlideBy",
	KindTurnTowards:               "TurnTowards",
	KindMoveTo:                    "MoveTo",
	KindSetBlackboardEntry:        "SetBlackboardEntry",
	KindWaitForBlackboardEntry:    "WaitForBlackboardEntry",
	KindSetAndWaitBlackboardEntry: "SetAndWaitBlackboardEntry",
	KindSpawn:                     "Spawn",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Unknown"
}

// Kinds returns every action kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, kindCount)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// Agent is the entity an action operates on. It is passed into every call and
// never stored by an action.
type Agent interface {
	ID() uuid.UUID
	Name() string
	Position() vmath.Vec3
	SetPosition(vmath.Vec3)
	Rotation() vmath.Quat
	SetRotation(vmath.Quat)
	Forward() vmath.Vec3
	// Resolve returns the live position of a target; false once it is gone.
	Resolve(h world.Handle) (vmath.Vec3, bool)
	SendMessage(msg world.Message)
	Blackboard() (blackboard.Store, bool)
	SpawnChild(name string) error
}

// Action is a resumable unit of work. The set of variants is closed; acquire
// them from Pools.
type Action interface {
	Kind() Kind
	// Reset restores the inert default state.
	Reset()
	// Execute advances the action by dt.
	Execute(agent Agent, dt time.Duration) Result
	// Cancel makes the next Execute terminate immediately, unless the variant
	// is exempt from cancellation.
	Cancel(agent Agent)
	// Describe returns a debug snapshot. No side effects.
	Describe() string

	meta() *base
}

// base carries bookkeeping shared by every variant. Reset never touches it.
type base struct {
	fromPool bool
}

func (b *base) meta() *base { return b }
