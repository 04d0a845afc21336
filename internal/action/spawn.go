package action

import (
	"fmt"
	"log/slog"
	"time"
)

// Spawn fires the spawn trigger on the agent's child named Child.
type Spawn struct {
	base
	Child string
}

func (a *Spawn) Kind() Kind { return KindSpawn }

func (a *Spawn) Reset() {
	a.Child = ""
}

func (a *Spawn) Execute(agent Agent, _ time.Duration) Result {
	if a.Child == "" {
		return Done
	}
	if err := agent.SpawnChild(a.Child); err != nil {
		slog.Warn("spawn action failed", "agent", agent.Name(), "error", err)
		return Failed
	}
	return Done
}

func (a *Spawn) Cancel(Agent) {
	a.Child = ""
}

func (a *Spawn) Describe() string {
	return fmt.Sprintf("Spawn: %s", a.Child)
}
