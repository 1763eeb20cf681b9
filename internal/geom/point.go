// Package geom holds the pure 2D geometry used by the drafting engine: points,
// segments, polygons, angles, rectangles and affine matrices. Everything here
// is a value type or a pure function.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the tolerance used for degenerate-geometry checks in world units.
const Epsilon = 1e-9

// Point is a world- or screen-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a convenience constructor.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func fromVec(v r2.Vec) Point { return Point{X: v.X, Y: v.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return fromVec(r2.Add(p.vec(), q.vec()))
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return fromVec(r2.Sub(p.vec(), q.vec()))
}

// Mul scales p by s.
func (p Point) Mul(s float64) Point {
	return fromVec(r2.Scale(s, p.vec()))
}

// Dot returns the dot product.
func (p Point) Dot(q Point) float64 {
	return r2.Dot(p.vec(), q.vec())
}

// Cross returns the z component of the 2D cross product.
func (p Point) Cross(q Point) float64 {
	return r2.Cross(p.vec(), q.vec())
}

// Length returns the vector length.
func (p Point) Length() float64 {
	return r2.Norm(p.vec())
}

// Unit returns the unit vector in the direction of p, or the zero vector.
func (p Point) Unit() Point {
	if p.Length() < Epsilon {
		return Point{}
	}
	return fromVec(r2.Unit(p.vec()))
}

// RotateAbout rotates p by radians around center.
func (p Point) RotateAbout(center Point, radians float64) Point {
	return fromVec(r2.Rotate(p.vec(), radians, center.vec()))
}

// Lerp interpolates between p (t=0) and q (t=1).
func (p Point) Lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Equal compares two points within Epsilon.
func (p Point) Equal(q Point) bool {
	return math.Abs(p.X-q.X) <= Epsilon && math.Abs(p.Y-q.Y) <= Epsilon
}

// Distance returns the Euclidean distance between two points.
func Distance(p, q Point) float64 {
	return r2.Norm(r2.Sub(p.vec(), q.vec()))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
