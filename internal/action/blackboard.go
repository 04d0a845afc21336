package action

import (
	"fmt"
	"time"

	"github.com/talgya/mini-brain/internal/blackboard"
)

// SetBlackboardEntry writes Value under Key on the agent's blackboard.
// With NoCancel set the write still happens after a cancel, which is how a plan
// guarantees its cleanup step.
type SetBlackboardEntry struct {
	base
	Key      string
	Value    any
	NoCancel bool
}

func (a *SetBlackboardEntry) Kind() Kind { return KindSetBlackboardEntry }

func (a *SetBlackboardEntry) Reset() {
	a.Key = ""
	a.Value = nil
	a.NoCancel = false
}

func (a *SetBlackboardEntry) Execute(agent Agent, _ time.Duration) Result {
	if a.Key == "" {
		return Done
	}
	bb, ok := agent.Blackboard()
	if !ok {
		return Failed
	}
	if err := bb.Set(a.Key, a.Value); err != nil {
		return Failed
	}
	return Done
}

func (a *SetBlackboardEntry) Cancel(Agent) {
	if a.NoCancel {
		return
	}
	a.Reset()
}

func (a *SetBlackboardEntry) Describe() string {
	return fmt.Sprintf("SetBlackboardEntry: %s = %v", a.Key, a.Value)
}

// WaitForBlackboardEntry waits until the value under Key equals Value, or
// differs from it when Equals is false. An unset key reads as Value.
type WaitForBlackboardEntry struct {
	base
	Key    string
	Value  any
	Equals bool
}

func (a *WaitForBlackboardEntry) Kind() Kind { return KindWaitForBlackboardEntry }

func (a *WaitForBlackboardEntry) Reset() {
	a.Key = ""
	a.Value = nil
	a.Equals = true
}

func (a *WaitForBlackboardEntry) Execute(agent Agent, _ time.Duration) Result {
	if a.Key == "" {
		return Done
	}
	bb, ok := agent.Blackboard()
	if !ok {
		return Failed
	}
	if blackboard.Equal(bb.Get(a.Key, a.Value), a.Value) == a.Equals {
		return Done
	}
	return Continue
}

func (a *WaitForBlackboardEntry) Cancel(Agent) {
	a.Reset()
}

func (a *WaitForBlackboardEntry) Describe() string {
	op := "=="
	if !a.Equals {
		op = "!="
	}
	return fmt.Sprintf("WaitForBlackboardEntry: %s %s %v", a.Key, op, a.Value)
}

// SetAndWaitBlackboardEntry writes SetValue under Key once, then waits like
// WaitForBlackboardEntry for WaitValue.
type SetAndWaitBlackboardEntry struct {
	base
	Key        string
	SetValue   any
	WaitValue  any
	WaitEquals bool

	written bool
}

func (a *SetAndWaitBlackboardEntry) Kind() Kind { return KindSetAndWaitBlackboardEntry }

func (a *SetAndWaitBlackboardEntry) Reset() {
	a.Key = ""
	a.SetValue = nil
	a.WaitValue = nil
	a.WaitEquals = true
	a.written = false
}

func (a *SetAndWaitBlackboardEntry) Execute(agent Agent, _ time.Duration) Result {
	if a.Key == "" {
		return Done
	}
	bb, ok := agent.Blackboard()
	if !ok {
		return Failed
	}
	if !a.written {
		if err := bb.Set(a.Key, a.SetValue); err != nil {
			return Failed
		}
		a.written = true
	}
	if blackboard.Equal(bb.Get(a.Key, a.WaitValue), a.WaitValue) == a.WaitEquals {
		return Done
	}
	return Continue
}

func (a *SetAndWaitBlackboardEntry) Cancel(Agent) {
	a.Reset()
}

func (a *SetAndWaitBlackboardEntry) Describe() string {
	op := "=="
	if !a.WaitEquals {
		op = "!="
	}
	return fmt.Sprintf("SetAndWaitBlackboardEntry: %s = %v, wait %s %v", a.Key, a.SetValue, op, a.WaitValue)
}
