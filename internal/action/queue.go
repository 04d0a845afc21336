package action

import (
	"log/slog"
	"strings"
	"time"
)

// Queue is the ordered plan of one agent. Only the head executes; the queue
// owns its actions and hands them back to Pools when they finish.
type Queue struct {
	pools     *Pools
	actions   []Action
	onFailure func(agent Agent, desc string)
}

// NewQueue creates an empty queue releasing into pools. pools may be nil when
// every pushed action is built by hand.
func NewQueue(pools *Pools) *Queue {
	return &Queue{pools: pools}
}

// Pools returns the pools the queue releases into.
func (q *Queue) Pools() *Pools {
	return q.pools
}

// OnFailure installs fn to be called with the description of every failed
// head, after it has been logged.
func (q *Queue) OnFailure(fn func(agent Agent, desc string)) {
	q.onFailure = fn
}

// Push appends a to the tail.
func (q *Queue) Push(a Action) {
	q.actions = append(q.actions, a)
}

// Len returns the number of queued actions.
func (q *Queue) Len() int {
	return len(q.actions)
}

// IsEmpty reports whether nothing is queued.
func (q *Queue) IsEmpty() bool {
	return len(q.actions) == 0
}

// Head returns the action executed next, or nil.
func (q *Queue) Head() Action {
	if len(q.actions) == 0 {
		return nil
	}
	return q.actions[0]
}

// Cancel calls Cancel on every queued action, head to tail, without removing
// any. Actions exempt from cancellation still run on the next Step.
func (q *Queue) Cancel(agent Agent) {
	for _, a := range q.actions {
		a.Cancel(agent)
	}
}

// Clear releases every queued action without cancel callbacks.
func (q *Queue) Clear() {
	for i, a := range q.actions {
		q.pools.Release(a)
		q.actions[i] = nil
	}
	q.actions = q.actions[:0]
}

// Step executes the head with dt until an action needs another frame or the
// queue runs dry. A failed head cancels the whole plan.
func (q *Queue) Step(agent Agent, dt time.Duration) {
	for len(q.actions) > 0 {
		head := q.actions[0]

		switch head.Execute(agent, dt) {
		case Continue:
			return
		case Failed:
			desc := head.Describe()
			slog.Error("AI action failed", "agent", agent.Name(), "action", desc)
			if q.onFailure != nil {
				q.onFailure(agent, desc)
			}
			q.Cancel(agent)
		}

		q.pop()
	}
}

func (q *Queue) pop() {
	head := q.actions[0]
	q.actions[0] = nil
	q.actions = q.actions[1:]
	q.pools.Release(head)
}

// DebugInfo returns one line per queued action.
func (q *Queue) DebugInfo() string {
	if len(q.actions) == 0 {
		return "<AI action queue empty>"
	}
	lines := make([]string, len(q.actions))
	for i, a := range q.actions {
		lines[i] = a.Describe()
	}
	return strings.Join(lines, "\n")
}
