package geom

import "math"

// SignedArea returns the shoelace area of a closed polygon. Counter-clockwise
// winding (in a y-up frame) is positive.
func SignedArea(points []Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return sum / 2
}

// Area returns the absolute polygon area.
func Area(points []Point) float64 {
	return math.Abs(SignedArea(points))
}

// Perimeter sums the edge lengths. When closed is set the last point is joined
// back to the first.
func Perimeter(points []Point, closed bool) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	if closed && len(points) > 2 {
		total += Distance(points[len(points)-1], points[0])
	}
	return total
}

// PointInPolygon uses ray casting to test whether p lies inside the polygon.
func PointInPolygon(p Point, polygon []Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			x := (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// DistanceToPolyline returns the smallest distance from p to any edge.
func DistanceToPolyline(p Point, points []Point, closed bool) float64 {
	if len(points) == 0 {
		return math.Inf(1)
	}
	if len(points) == 1 {
		return Distance(p, points[0])
	}
	best := math.Inf(1)
	for _, e := range Edges(points, closed) {
		if d := DistanceToSegment(p, e.A, e.B); d < best {
			best = d
		}
	}
	return best
}

// Edges returns the segments joining consecutive points.
func Edges(points []Point, closed bool) []Segment {
	if len(points) < 2 {
		return nil
	}
	edges := make([]Segment, 0, len(points))
	for i := 1; i < len(points); i++ {
		edges = append(edges, Segment{A: points[i-1], B: points[i]})
	}
	if closed && len(points) > 2 {
		edges = append(edges, Segment{A: points[len(points)-1], B: points[0]})
	}
	return edges
}

// Centroid returns the average of the points.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n}
}

// BoundingBox returns the axis-aligned bounds of the points.
func BoundingBox(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// TranslatePoints returns a copy of points offset by delta.
func TranslatePoints(points []Point, delta Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p.Add(delta)
	}
	return out
}

// RotatePoints returns a copy of points rotated about center.
func RotatePoints(points []Point, center Point, radians float64) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p.RotateAbout(center, radians)
	}
	return out
}
