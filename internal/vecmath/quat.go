package vecmath

import "math"

// Quat is a rotation quaternion (X, Y, Z vector part, W scalar part)
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity is the no-op rotation
var QuatIdentity = Quat{0, 0, 0, 1}

// QuatFromAxisAngle builds the rotation of angle radians about a unit axis
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	half := angle / 2
	s := math.Sin(half)
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, math.Cos(half)}
}

// QuatFromUnitVectors returns the shortest rotation taking unit vector from
// onto unit vector to. Opposite vectors rotate 180° about any perpendicular axis.
func QuatFromUnitVectors(from, to Vec3) Quat {
	r := from.Dot(to) + 1

	var q Quat
	if r < Epsilon {
		r = 0
		if math.Abs(from.X) > math.Abs(from.Z) {
			q = Quat{-from.Y, from.X, 0, r}
		} else {
			q = Quat{0, -from.Z, from.Y, r}
		}
	} else {
		c := from.Cross(to)
		q = Quat{c.X, c.Y, c.Z, r}
	}
	return q.Normalize()
}

// Len returns the quaternion norm
func (q Quat) Len() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize scales q to unit length; a zero quaternion becomes the identity
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l < Epsilon {
		return QuatIdentity
	}
	inv := 1 / l
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// Mul composes two rotations: the result applies o first, then q
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.X*o.W + q.W*o.X + q.Y*o.Z - q.Z*o.Y,
		Y: q.Y*o.W + q.W*o.Y + q.Z*o.X - q.X*o.Z,
		Z: q.Z*o.W + q.W*o.Z + q.X*o.Y - q.Y*o.X,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Rotate applies the rotation to v
func (q Quat) Rotate(v Vec3) Vec3 {
	tx := 2 * (q.Y*v.Z - q.Z*v.Y)
	ty := 2 * (q.Z*v.X - q.X*v.Z)
	tz := 2 * (q.X*v.Y - q.Y*v.X)

	return Vec3{
		X: v.X + q.W*tx + q.Y*tz - q.Z*ty,
		Y: v.Y + q.W*ty + q.Z*tx - q.X*tz,
		Z: v.Z + q.W*tz + q.X*ty - q.Y*tx,
	}
}
