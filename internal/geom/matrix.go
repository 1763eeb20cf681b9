package geom

import "math"

// Matrix2D is an affine transform stored as [a b c d e f]. It maps (x, y) to
// (a*x + c*y + e, b*x + d*y + f), the layout canvas setTransform expects.
type Matrix2D [6]float64

var identity = Matrix2D{1, 0, 0, 1, 0, 0}

func Identity() Matrix2D { return identity }

func Translate(tx, ty float64) Matrix2D {
	m := identity
	m[4], m[5] = tx, ty
	return m
}

func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Rotate turns counter-clockwise in a y-up frame, clockwise on screen.
func Rotate(radians float64) Matrix2D {
	sin, cos := math.Sincos(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

func RotateAbout(center Point, radians float64) Matrix2D {
	return Translate(center.X, center.Y).
		Multiply(Rotate(radians)).
		Multiply(Translate(-center.X, -center.Y))
}

// Multiply composes m after n: the result applies n first.
func (m Matrix2D) Multiply(n Matrix2D) Matrix2D {
	a, b := m.linear(n[0], n[1])
	c, d := m.linear(n[2], n[3])
	t := m.TransformPoint(Point{X: n[4], Y: n[5]})
	return Matrix2D{a, b, c, d, t.X, t.Y}
}

func (m Matrix2D) linear(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y, m[1]*x + m[3]*y
}

func (m Matrix2D) TransformPoint(p Point) Point {
	x, y := m.linear(p.X, p.Y)
	return Point{X: x + m[4], Y: y + m[5]}
}

// TransformRect returns the axis-aligned bounds of r after the transform.
func (m Matrix2D) TransformRect(r Rect) Rect {
	corners := r.Corners()
	for i, c := range corners {
		corners[i] = m.TransformPoint(c)
	}
	return BoundingBox(corners)
}

func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert reports false for a singular matrix.
func (m Matrix2D) Invert() (Matrix2D, bool) {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 {
		return identity, false
	}
	inv := Matrix2D{m[3] / det, -m[1] / det, -m[2] / det, m[0] / det, 0, 0}
	x, y := inv.linear(m[4], m[5])
	inv[4], inv[5] = -x, -y
	return inv, true
}

func (m Matrix2D) ToSlice() []float64 {
	return append([]float64(nil), m[:]...)
}

func (m Matrix2D) IsIdentity() bool {
	for i, v := range m {
		if math.Abs(v-identity[i]) > 1e-10 {
			return false
		}
	}
	return true
}
