package geom

// Rect is an axis-aligned box with its origin at the min corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the normalized rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      min(a.X, b.X),
		Y:      min(a.Y, b.Y),
		Width:  abs(b.X - a.X),
		Height: abs(b.Y - a.Y),
	}
}

// Contains checks if a point is inside the rect (edges included).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// IsEmpty reports a rect with no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Max is the corner opposite the origin corner.
func (r Rect) Max() Point {
	return Point{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Union is the bounds of both rects. An empty side is ignored.
func (r Rect) Union(o Rect) Rect {
	switch {
	case r.IsEmpty():
		return o
	case o.IsEmpty():
		return r
	}
	lo := Point{X: min(r.X, o.X), Y: min(r.Y, o.Y)}
	hi := Point{X: max(r.Max().X, o.Max().X), Y: max(r.Max().Y, o.Max().Y)}
	return RectFromPoints(lo, hi)
}

// Intersects reports whether two rects overlap (touching edges count).
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width && r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height && r.Y+r.Height >= other.Y
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Corners returns the four corners in winding order.
func (r Rect) Corners() []Point {
	return []Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

// Inflate grows the rect by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// SegmentIntersectsRect reports whether segment ab touches r.
func SegmentIntersectsRect(a, b Point, r Rect) bool {
	if r.Contains(a) || r.Contains(b) {
		return true
	}
	if !RectFromPoints(a, b).Intersects(r) {
		return false
	}
	for _, e := range Edges(r.Corners(), true) {
		if SegmentsIntersect(a, b, e.A, e.B) {
			return true
		}
	}
	return false
}

// PolygonIntersectsRect reports whether a closed or open point list touches r.
// For closed polygons a rect lying fully inside the polygon also counts.
func PolygonIntersectsRect(points []Point, closed bool, r Rect) bool {
	if len(points) == 0 {
		return false
	}
	if len(points) == 1 {
		return r.Contains(points[0])
	}
	for _, e := range Edges(points, closed) {
		if SegmentIntersectsRect(e.A, e.B, r) {
			return true
		}
	}
	return closed && PointInPolygon(r.Center(), points)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
