package geom

import "math"

// Segment is a finite line segment between A and B.
type Segment struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Seg is a convenience constructor.
func Seg(a, b Point) Segment {
	return Segment{A: a, B: b}
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return Distance(s.A, s.B)
}

// Midpoint returns the center of the segment.
func (s Segment) Midpoint() Point {
	return Midpoint(s.A, s.B)
}

// IsDegenerate reports whether the segment has (near) zero length.
func (s Segment) IsDegenerate() bool {
	return s.Length() < Epsilon
}

// At returns the point at parameter t along the segment.
func (s Segment) At(t float64) Point {
	return s.A.Lerp(s.B, t)
}

// Project returns the unclamped parameter of p's projection onto the line
// through the segment. Degenerate segments project to 0.
func (s Segment) Project(p Point) float64 {
	d := s.B.Sub(s.A)
	l2 := d.Dot(d)
	if l2 < Epsilon*Epsilon {
		return 0
	}
	return p.Sub(s.A).Dot(d) / l2
}

// ClosestPointOnSegment returns the point of segment ab nearest to p.
func ClosestPointOnSegment(p, a, b Point) Point {
	s := Segment{A: a, B: b}
	t := clamp01(s.Project(p))
	return s.At(t)
}

// DistanceToSegment returns the distance from p to segment ab, using the
// clamped projection rather than the infinite line.
func DistanceToSegment(p, a, b Point) float64 {
	return Distance(p, ClosestPointOnSegment(p, a, b))
}

// PerpendicularFoot returns the foot of the perpendicular from p onto ab.
// The second result is false when the foot falls outside the segment.
func PerpendicularFoot(p, a, b Point) (Point, bool) {
	s := Segment{A: a, B: b}
	if s.IsDegenerate() {
		return Point{}, false
	}
	t := s.Project(p)
	if t < 0 || t > 1 {
		return Point{}, false
	}
	return s.At(t), true
}

// SegmentIntersection returns the intersection point of segments a1a2 and
// b1b2. Parallel and collinear segments report no intersection.
func SegmentIntersection(a1, a2, b1, b2 Point) (Point, bool) {
	r := a2.Sub(a1)
	s := b2.Sub(b1)
	denom := r.Cross(s)
	if math.Abs(denom) < Epsilon {
		return Point{}, false
	}
	qp := b1.Sub(a1)
	t := qp.Cross(s) / denom
	u := qp.Cross(r) / denom
	if t < -Epsilon || t > 1+Epsilon || u < -Epsilon || u > 1+Epsilon {
		return Point{}, false
	}
	return a1.Add(r.Mul(t)), true
}

// SegmentsIntersect reports whether two segments touch, including collinear
// overlap.
func SegmentsIntersect(a1, a2, b1, b2 Point) bool {
	if _, ok := SegmentIntersection(a1, a2, b1, b2); ok {
		return true
	}
	r := a2.Sub(a1)
	if math.Abs(r.Cross(b1.Sub(a1))) > Epsilon || math.Abs(r.Cross(b2.Sub(a1))) > Epsilon {
		return false
	}
	// Collinear: compare projections.
	return DistanceToSegment(b1, a1, a2) < Epsilon ||
		DistanceToSegment(b2, a1, a2) < Epsilon ||
		DistanceToSegment(a1, b1, b2) < Epsilon
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
