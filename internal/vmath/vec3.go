// Package vmath provides the float 3D vector and rotation math used by the
// world and by movement actions. Conventions: +X forward, +Y right, +Z up.
package vmath

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used by IsZero and equality checks.
const Epsilon = 1e-6

// Vec3 is a float64 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

var (
	Zero  = Vec3{}
	UnitX = Vec3{1, 0, 0}
	UnitY = Vec3{0, 1, 0}
	UnitZ = Vec3{0, 0, 1}
)

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the right-handed cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) LengthSq() float64 {
	return v.Dot(v)
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// IsZero reports whether every component is within Epsilon of zero.
func (v Vec3) IsZero() bool {
	return math.Abs(v.X) <= Epsilon && math.Abs(v.Y) <= Epsilon && math.Abs(v.Z) <= Epsilon
}

// Normalized returns the unit vector, or Zero for a zero-length input.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l == 0 {
		return Zero
	}
	return v.Scale(1 / l)
}

// LengthAndNormalize returns the length and unit direction of v.
func (v Vec3) LengthAndNormalize() (float64, Vec3) {
	l := v.Length()
	if l == 0 {
		return 0, Zero
	}
	return l, v.Scale(1 / l)
}

// NormalizeIfNotZero returns the unit vector and true, or Zero and false when
// the length is below Epsilon.
func (v Vec3) NormalizeIfNotZero() (Vec3, bool) {
	l := v.Length()
	if l <= Epsilon {
		return Zero, false
	}
	return v.Scale(1 / l), true
}

// Planar drops the Z component.
func (v Vec3) Planar() Vec3 {
	return Vec3{v.X, v.Y, 0}
}

// IsEqual compares component-wise within eps.
func (v Vec3) IsEqual(o Vec3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// AngleBetween returns the angle in radians between two unit vectors.
func (v Vec3) AngleBetween(o Vec3) float64 {
	d := v.Dot(o)
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return math.Acos(d)
}

func (v Vec3) String() string {
	return fmt.Sprintf("%g/%g/%g", v.X, v.Y, v.Z)
}

// Deg converts degrees to radians.
func Deg(d float64) float64 {
	return d * math.Pi / 180
}

// ToDeg converts radians to degrees.
func ToDeg(r float64) float64 {
	return r * 180 / math.Pi
}
