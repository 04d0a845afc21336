// Package pool provides a free-list allocator for heavyweight, resettable objects.
// Slots live in fixed-size chunks that are never moved or freed, so a pointer
// handed out by Acquire stays valid for the lifetime of the pool.
package pool

// chunkSize is the number of slots allocated together.
const chunkSize = 16

// Resetter is implemented by pointer types that can restore their inert state.
type Resetter[E any] interface {
	*E
	Reset()
}

// Pool hands out and recycles *E values. Not safe for concurrent use.
type Pool[E any, P Resetter[E]] struct {
	chunks []*[chunkSize]E // Backing store, only ever grows
	used   int             // Slots handed out from the newest chunk
	free   []P             // Released slots, reused LIFO
}

// New creates an empty pool.
func New[E any, P Resetter[E]]() *Pool[E, P] {
	return &Pool[E, P]{}
}

// Acquire returns a reset instance, reusing a released slot when one exists.
func (p *Pool[E, P]) Acquire() P {
	var obj P
	if n := len(p.free); n > 0 {
		obj = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
	} else {
		if len(p.chunks) == 0 || p.used == chunkSize {
			p.chunks = append(p.chunks, new([chunkSize]E))
			p.used = 0
		}
		obj = P(&p.chunks[len(p.chunks)-1][p.used])
		p.used++
	}

	obj.Reset()
	return obj
}

// Release pushes obj back onto the free list. Cleanup is left to the next
// Reset performed by Acquire.
func (p *Pool[E, P]) Release(obj P) {
	if obj == nil {
		return
	}
	p.free = append(p.free, obj)
}

// Live returns the number of constructed slots. It never decreases.
func (p *Pool[E, P]) Live() int {
	if len(p.chunks) == 0 {
		return 0
	}
	return (len(p.chunks)-1)*chunkSize + p.used
}

// Free returns the number of slots waiting on the free list.
func (p *Pool[E, P]) Free() int {
	return len(p.free)
}

// InUse returns the number of slots currently held by callers.
func (p *Pool[E, P]) InUse() int {
	return p.Live() - p.Free()
}
