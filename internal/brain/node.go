package brain

import (
	"time"

	bt "github.com/joeycumines/go-behaviortree"
)

// Clock supplies world time to a behavior tree node.
type Clock interface {
	Accumulated() time.Duration
	TimeDiff() time.Duration
}

// Node wraps the brain as a behavior tree leaf. Each tick runs one frame at
// the clock's current time; the node is Running while a plan is queued and
// Success once the agent is idle.
func (b *Brain) Node(clock Clock) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		b.OnTick(clock.Accumulated(), clock.TimeDiff())
		if b.queue.IsEmpty() {
			return bt.Success, nil
		}
		return bt.Running, nil
	})
}
