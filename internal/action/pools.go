package action

import (
	"fmt"
	"strings"

	"github.com/talgya/mini-brain/internal/pool"
)

// Pools owns one chunked pool per action variant. Each brain or simulation
// scope owns its own Pools; it is not safe for concurrent use.
type Pools struct {
	wait        *pool.Pool[Wait, *Wait]
	rotateBy    *pool.Pool[RotateBy, *RotateBy]
	slideBy     *pool.Pool[SlideBy, *SlideBy]
	turnTowards *pool.Pool[TurnTowards, *TurnTowards]
	moveTo      *pool.Pool[MoveTo, *MoveTo]
	setEntry    *pool.Pool[SetBlackboardEntry, *SetBlackboardEntry]
	waitEntry   *pool.Pool[WaitForBlackboardEntry, *WaitForBlackboardEntry]
	setAndWait  *pool.Pool[SetAndWaitBlackboardEntry, *SetAndWaitBlackboardEntry]
	spawn       *pool.Pool[Spawn, *Spawn]

	release [kindCount]func(Action)
	stats   [kindCount]func() (live, free int)
}

// NewPools creates an empty set of pools. A nil *Pools is usable too: its
// constructors allocate unpooled actions and Release only resets.
func NewPools() *Pools {
	p := &Pools{
		wait:        pool.New[Wait](),
		rotateBy:    pool.New[RotateBy](),
		slideBy:     pool.New[SlideBy](),
		turnTowards: pool.New[TurnTowards](),
		moveTo:      pool.New[MoveTo](),
		setEntry:    pool.New[SetBlackboardEntry](),
		waitEntry:   pool.New[WaitForBlackboardEntry](),
		setAndWait:  pool.New[SetAndWaitBlackboardEntry](),
		spawn:       pool.New[Spawn](),
	}
	p.release = [kindCount]func(Action){
		KindWait:                      func(a Action) { p.wait.Release(a.(*Wait)) },
		KindRotateBy:                  func(a Action) { p.rotateBy.Release(a.(*RotateBy)) },
		KindSlideBy:                   func(a Action) { p.slideBy.Release(a.(*SlideBy)) },
		KindTurnTowards:               func(a Action) { p.turnTowards.Release(a.(*TurnTowards)) },
		KindMoveTo:                    func(a Action) { p.moveTo.Release(a.(*MoveTo)) },
		KindSetBlackboardEntry:        func(a Action) { p.setEntry.Release(a.(*SetBlackboardEntry)) },
		KindWaitForBlackboardEntry:    func(a Action) { p.waitEntry.Release(a.(*WaitForBlackboardEntry)) },
		KindSetAndWaitBlackboardEntry: func(a Action) { p.setAndWait.Release(a.(*SetAndWaitBlackboardEntry)) },
		KindSpawn:                     func(a Action) { p.spawn.Release(a.(*Spawn)) },
	}
	p.stats = [kindCount]func() (int, int){
		KindWait:                      func() (int, int) { return p.wait.Live(), p.wait.Free() },
		KindRotateBy:                  func() (int, int) { return p.rotateBy.Live(), p.rotateBy.Free() },
		KindSlideBy:                   func() (int, int) { return p.slideBy.Live(), p.slideBy.Free() },
		KindTurnTowards:               func() (int, int) { return p.turnTowards.Live(), p.turnTowards.Free() },
		KindMoveTo:                    func() (int, int) { return p.moveTo.Live(), p.moveTo.Free() },
		KindSetBlackboardEntry:        func() (int, int) { return p.setEntry.Live(), p.setEntry.Free() },
		KindWaitForBlackboardEntry:    func() (int, int) { return p.waitEntry.Live(), p.waitEntry.Free() },
		KindSetAndWaitBlackboardEntry: func() (int, int) { return p.setAndWait.Live(), p.setAndWait.Free() },
		KindSpawn:                     func() (int, int) { return p.spawn.Live(), p.spawn.Free() },
	}
	return p
}

func acquire[E any, P interface {
	*E
	Action
}](pl *pool.Pool[E, P]) P {
	a := pl.Acquire()
	a.meta().fromPool = true
	return a
}

// fresh builds an unpooled action for a nil *Pools.
func fresh[E any, P interface {
	*E
	Action
}]() P {
	a := P(new(E))
	a.Reset()
	return a
}

// NewWait acquires a reset Wait.
func (p *Pools) NewWait() *Wait {
	if p == nil {
		return fresh[Wait]()
	}
	return acquire(p.wait)
}

// NewRotateBy acquires a reset RotateBy.
func (p *Pools) NewRotateBy() *RotateBy {
	if p == nil {
		return fresh[RotateBy]()
	}
	return acquire(p.rotateBy)
}

// NewSlideBy acquires a reset SlideBy.
func (p *Pools) NewSlideBy() *SlideBy {
	if p == nil {
		return fresh[SlideBy]()
	}
	return acquire(p.slideBy)
}

// NewTurnTowards acquires a reset TurnTowards.
func (p *Pools) NewTurnTowards() *TurnTowards {
	if p == nil {
		return fresh[TurnTowards]()
	}
	return acquire(p.turnTowards)
}

// NewMoveTo acquires a reset MoveTo.
func (p *Pools) NewMoveTo() *MoveTo {
	if p == nil {
		return fresh[MoveTo]()
	}
	return acquire(p.moveTo)
}

// NewSetBlackboardEntry acquires a reset SetBlackboardEntry.
func (p *Pools) NewSetBlackboardEntry() *SetBlackboardEntry {
	if p == nil {
		return fresh[SetBlackboardEntry]()
	}
	return acquire(p.setEntry)
}

// NewWaitForBlackboardEntry acquires a reset WaitForBlackboardEntry.
func (p *Pools) NewWaitForBlackboardEntry() *WaitForBlackboardEntry {
	if p == nil {
		return fresh[WaitForBlackboardEntry]()
	}
	return acquire(p.waitEntry)
}

// NewSetAndWaitBlackboardEntry acquires a reset SetAndWaitBlackboardEntry.
func (p *Pools) NewSetAndWaitBlackboardEntry() *SetAndWaitBlackboardEntry {
	if p == nil {
		return fresh[SetAndWaitBlackboardEntry]()
	}
	return acquire(p.setAndWait)
}

// NewSpawn acquires a reset Spawn.
func (p *Pools) NewSpawn() *Spawn {
	if p == nil {
		return fresh[Spawn]()
	}
	return acquire(p.spawn)
}

// Release resets a and, when it was acquired from a pool, returns it there.
// Actions built without Pools are only reset.
func (p *Pools) Release(a Action) {
	if a == nil {
		return
	}
	a.Reset()
	b := a.meta()
	if !b.fromPool || p == nil {
		return
	}
	b.fromPool = false
	p.release[a.Kind()](a)
}

// Stats returns the live and free slot counts of the pool for k.
func (p *Pools) Stats(k Kind) (live, free int) {
	if p == nil || k >= kindCount {
		return 0, 0
	}
	return p.stats[k]()
}

// InUse returns the number of acquired, not yet released actions across all pools.
func (p *Pools) InUse() int {
	if p == nil {
		return 0
	}
	n := 0
	for k := Kind(0); k < kindCount; k++ {
		live, free := p.stats[k]()
		n += live - free
	}
	return n
}

func (p *Pools) String() string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	for k := Kind(0); k < kindCount; k++ {
		live, free := p.stats[k]()
		if live == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s %d/%d\n", k, live-free, live)
	}
	return sb.String()
}
