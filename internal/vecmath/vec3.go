// Package vecmath provides the 3D vector and rotation primitives used by the
// flight simulation. All functions are pure and operate on values.
package vecmath

import (
	"errors"
	"math"
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-9

// ErrDegenerateVector is returned when normalizing a zero or near-zero vector.
var ErrDegenerateVector = errors.New("vecmath: degenerate vector")

// Vec3 is a 3D vector
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// World axes
var (
	UnitX = Vec3{1, 0, 0}
	UnitY = Vec3{0, 1, 0}
	UnitZ = Vec3{0, 0, 1}
)

func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Neg() Vec3            { return Vec3{-v.X, -v.Y, -v.Z} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}
func (v Vec3) LenSq() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }
func (v Vec3) Len() float64   { return math.Sqrt(v.LenSq()) }

// Distance returns the euclidean distance between two points
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Len() }

// Normalize returns the unit vector in the direction of v.
// Vectors shorter than Epsilon yield ErrDegenerateVector and the zero vector.
func (v Vec3) Normalize() (Vec3, error) {
	l := v.Len()
	if l < Epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec3{}, ErrDegenerateVector
	}
	inv := 1 / l
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}, nil
}

// NormalizeOr normalizes v, returning fallback when v is degenerate.
func (v Vec3) NormalizeOr(fallback Vec3) Vec3 {
	n, err := v.Normalize()
	if err != nil {
		return fallback
	}
	return n
}

// ApplyAxisAngle rotates v about the unit axis by angle radians
// (right-handed, positive angle is counter-clockwise looking down the axis).
func (v Vec3) ApplyAxisAngle(axis Vec3, angle float64) Vec3 {
	return QuatFromAxisAngle(axis, angle).Rotate(v)
}

// IsFinite reports whether all components are finite numbers
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Array returns the components as [x, y, z].
func (v Vec3) Array() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
