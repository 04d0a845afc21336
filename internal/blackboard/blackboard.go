// Package blackboard provides the per-entity key-value store that actions read
// and write, plus a registry used to find the store belonging to an entity.
package blackboard

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrLocked is returned by Set on a locked blackboard.
	ErrLocked = errors.New("blackboard locked")
	// ErrRejected is returned by Set when a validator refuses the value.
	ErrRejected = errors.New("blackboard value rejected")
)

// Store is the read/write surface actions use.
type Store interface {
	Get(key string, def any) any
	Set(key string, value any) error
}

// Validator inspects a write before it is applied. Returning false rejects it.
type Validator func(key string, value any) bool

// Blackboard is a key-value store for agent state. The zero value is ready to
// use; the map is created on the first write.
type Blackboard struct {
	mu        sync.RWMutex
	data      map[string]any
	locked    bool
	validator Validator
}

// New creates an empty blackboard.
func New() *Blackboard {
	return &Blackboard{}
}

// Get returns the value stored under key, or def when the key is unset.
func (b *Blackboard) Get(key string, def any) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if v, ok := b.data[key]; ok {
		return v
	}
	return def
}

// Set stores value under key.
func (b *Blackboard) Set(key string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.locked {
		return fmt.Errorf("set %q: %w", key, ErrLocked)
	}
	if b.validator != nil && !b.validator(key, value) {
		return fmt.Errorf("set %q: %w", key, ErrRejected)
	}
	if b.data == nil {
		b.data = make(map[string]any)
	}
	b.data[key] = value
	return nil
}

// Has reports whether key is set.
func (b *Blackboard) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.data[key]
	return ok
}

// Keys returns the set keys in sorted order.
func (b *Blackboard) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lock makes every further Set fail with ErrLocked until Unlock.
func (b *Blackboard) Lock() {
	b.mu.Lock()
	b.locked = true
	b.mu.Unlock()
}

// Unlock re-enables writes.
func (b *Blackboard) Unlock() {
	b.mu.Lock()
	b.locked = false
	b.mu.Unlock()
}

// SetValidator installs v; nil removes it.
func (b *Blackboard) SetValidator(v Validator) {
	b.mu.Lock()
	b.validator = v
	b.mu.Unlock()
}

// Equal compares two blackboard values. Numbers of any Go numeric kind compare
// by value, so an int 1 written by one action equals a float64 1 awaited by another.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Registry maps entities to their blackboards.
type Registry struct {
	mu     sync.RWMutex
	boards map[uuid.UUID]*Blackboard
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{boards: make(map[uuid.UUID]*Blackboard)}
}

// Attach creates (or returns the existing) blackboard for id.
func (r *Registry) Attach(id uuid.UUID) *Blackboard {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bb, ok := r.boards[id]; ok {
		return bb
	}
	bb := New()
	r.boards[id] = bb
	return bb
}

// Detach removes the blackboard of id.
func (r *Registry) Detach(id uuid.UUID) {
	r.mu.Lock()
	delete(r.boards, id)
	r.mu.Unlock()
}

// Find returns the blackboard of id, or nil and false when none is attached.
func (r *Registry) Find(id uuid.UUID) (*Blackboard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bb, ok := r.boards[id]
	return bb, ok
}
