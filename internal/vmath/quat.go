package vmath

import "math"

// Quat is a unit rotation quaternion (V vector part, W scalar part).
type Quat struct {
	V Vec3
	W float64
}

// Identity is the no-op rotation.
var Identity = Quat{W: 1}

// QuatFromAxisAngle builds a rotation of angle radians about axis. A zero axis
// yields Identity.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	n, ok := axis.NormalizeIfNotZero()
	if !ok {
		return Identity
	}
	s, c := math.Sincos(angle / 2)
	return Quat{V: n.Scale(s), W: c}
}

// ShortestRotation returns the rotation that turns unit vector from onto unit vector to.
func ShortestRotation(from, to Vec3) Quat {
	from = from.Normalized()
	to = to.Normalized()

	d := from.Dot(to)
	if d >= 1-Epsilon {
		return Identity
	}
	if d <= -1+Epsilon {
		// Opposite vectors: rotate half a turn about any perpendicular axis.
		axis := UnitX.Cross(from)
		if axis.LengthSq() < Epsilon {
			axis = UnitY.Cross(from)
		}
		return QuatFromAxisAngle(axis, math.Pi)
	}

	axis := from.Cross(to)
	return Quat{V: axis, W: 1 + d}.Normalized()
}

// Mul returns q*o, i.e. o applied first, then q.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		V: o.V.Scale(q.W).Add(q.V.Scale(o.W)).Add(q.V.Cross(o.V)),
		W: q.W*o.W - q.V.Dot(o.V),
	}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	t := q.V.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(q.V.Cross(t))
}

// Conjugate returns the inverse of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{V: q.V.Neg(), W: q.W}
}

// Normalized rescales q to unit length.
func (q Quat) Normalized() Quat {
	l := math.Sqrt(q.V.LengthSq() + q.W*q.W)
	if l == 0 {
		return Identity
	}
	return Quat{V: q.V.Scale(1 / l), W: q.W / l}
}

// IsEqualRotation reports whether q and o describe the same rotation within eps.
// q and -q are the same rotation.
func (q Quat) IsEqualRotation(o Quat, eps float64) bool {
	d := q.V.Dot(o.V) + q.W*o.W
	return math.Abs(math.Abs(d)-1) <= eps
}
