package pool

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type slot struct {
	value  int
	resets int
}

func (s *slot) Reset() {
	s.value = 0
	s.resets++
}

func (p *Pool[E, P]) isFree(obj P) bool {
	for _, f := range p.free {
		if f == obj {
			return true
		}
	}
	return false
}

func TestPool_AcquireResets(t *testing.T) {
	t.Parallel()

	p := New[slot]()
	s := p.Acquire()
	require.Equal(t, 1, s.resets)

	s.value = 42
	p.Release(s)

	again := p.Acquire()
	require.Same(t, s, again)
	require.Zero(t, again.value)
	require.Equal(t, 2, again.resets)
	require.Equal(t, 1, p.Live())
}

func TestPool_StableAddressesAcrossGrowth(t *testing.T) {
	t.Parallel()

	p := New[slot]()
	first := p.Acquire()
	first.value = 7

	held := []*slot{first}
	for i := 0; i < chunkSize*4; i++ {
		held = append(held, p.Acquire())
	}

	require.Equal(t, 7, first.value)
	require.Same(t, first, held[0])
	require.Equal(t, chunkSize*4+1, p.Live())
	require.Equal(t, p.Live(), p.InUse())
}

func TestPool_InUseAndFreeStayDisjoint(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	p := New[slot]()
	held := map[*slot]bool{}
	lastLive := 0

	for i := 0; i < 2000; i++ {
		if len(held) == 0 || rng.Intn(3) > 0 {
			s := p.Acquire()
			require.False(t, held[s], "acquired a slot that is still held")
			held[s] = true
		} else {
			for s := range held {
				delete(held, s)
				p.Release(s)
				break
			}
		}

		for s := range held {
			require.False(t, p.isFree(s))
		}
		require.GreaterOrEqual(t, p.Live(), lastLive)
		lastLive = p.Live()
		require.Equal(t, len(held), p.InUse())
	}
}

func TestPool_LeakyProducerGrowsUnbounded(t *testing.T) {
	t.Parallel()

	p := New[slot]()
	for i := 0; i < 1000; i++ {
		p.Acquire()
	}
	require.Equal(t, 1000, p.Live())
	require.Zero(t, p.Free())
}

func TestPool_ReleaseNil(t *testing.T) {
	t.Parallel()

	p := New[slot]()
	p.Release(nil)
	require.Zero(t, p.Free())
}
