// Package entropy provides the random sources owned by a world or agent context.
// Seeded sources are deterministic for replays and tests; the crypto source is
// used when no seed is configured.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source draws uniform random numbers.
type Source interface {
	// IntInRange returns a value in [0, n). n <= 0 yields 0.
	IntInRange(n int) int
	// FloatInRange returns a value in [min, max).
	FloatInRange(min, max float64) float64
}

// Seeded is a deterministic Source backed by math/rand. Not safe for concurrent use.
type Seeded struct {
	rng *mrand.Rand
}

// NewSeeded creates a deterministic source.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

func (s *Seeded) IntInRange(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.Intn(n)
}

func (s *Seeded) FloatInRange(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}

// Crypto is a Source backed by crypto/rand.
type Crypto struct{}

func (Crypto) IntInRange(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(cryptoRandFloat() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

func (Crypto) FloatInRange(min, max float64) float64 {
	return min + cryptoRandFloat()*(max-min)
}

// New returns a Seeded source for a non-zero seed, otherwise Crypto.
func New(seed int64) Source {
	if seed == 0 {
		return Crypto{}
	}
	return NewSeeded(seed)
}

// cryptoRandFloat generates a random float64 in [0, 1) using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Fixed is a Source that always returns the same draws. Useful for scripted scenarios.
type Fixed struct {
	Int   int
	Float float64 // In [0, 1), scaled into the requested range
}

func (f Fixed) IntInRange(n int) int {
	if n <= 0 {
		return 0
	}
	if f.Int >= n {
		return n - 1
	}
	if f.Int < 0 {
		return 0
	}
	return f.Int
}

func (f Fixed) FloatInRange(min, max float64) float64 {
	return min + f.Float*(max-min)
}
