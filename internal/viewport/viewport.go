// Package viewport converts between screen pixels and world (drawing) units.
//
// The relation is screen = world*scale + offset. Conversions reject
// non-finite input instead of propagating NaN into the drawing.
package viewport

import (
	"math"

	"github.com/inamate/drafting/internal/geom"
)

const (
	MinScale = 0.01
	MaxScale = 100.0
)

// ToScreen converts a world point to screen pixels.
func ToScreen(world geom.Point, scale float64, offset geom.Point) (geom.Point, bool) {
	if !validScale(scale) || !world.IsFinite() || !offset.IsFinite() {
		return geom.Point{}, false
	}
	p := geom.Point{X: world.X*scale + offset.X, Y: world.Y*scale + offset.Y}
	return p, p.IsFinite()
}

// ToWorld converts a screen point to world units.
func ToWorld(screen geom.Point, scale float64, offset geom.Point) (geom.Point, bool) {
	if !validScale(scale) || !screen.IsFinite() || !offset.IsFinite() {
		return geom.Point{}, false
	}
	p := geom.Point{X: (screen.X - offset.X) / scale, Y: (screen.Y - offset.Y) / scale}
	return p, p.IsFinite()
}

func validScale(scale float64) bool {
	return scale != 0 && !math.IsNaN(scale) && !math.IsInf(scale, 0)
}

// Viewport is the host's current zoom and pan.
type Viewport struct {
	Scale  float64    `json:"scale"`
	Offset geom.Point `json:"offset"`
}

// New returns a viewport with the given scale and no pan.
func New(scale float64) Viewport {
	return Viewport{Scale: scale}
}

// Valid reports whether the viewport can be used for conversion.
func (v Viewport) Valid() bool {
	return validScale(v.Scale) && v.Offset.IsFinite()
}

// ToWorld converts a screen point with this viewport.
func (v Viewport) ToWorld(screen geom.Point) (geom.Point, bool) {
	return ToWorld(screen, v.Scale, v.Offset)
}

// ToScreen converts a world point with this viewport.
func (v Viewport) ToScreen(world geom.Point) (geom.Point, bool) {
	return ToScreen(world, v.Scale, v.Offset)
}

// PixelsToWorld converts a screen-space length to world units.
func (v Viewport) PixelsToWorld(px float64) float64 {
	if !validScale(v.Scale) {
		return 0
	}
	return px / math.Abs(v.Scale)
}

// Matrix returns the world-to-screen transform.
func (v Viewport) Matrix() geom.Matrix2D {
	return geom.Translate(v.Offset.X, v.Offset.Y).Multiply(geom.Scale(v.Scale, v.Scale))
}

// Pan shifts the offset by a screen-space delta.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.Offset = v.Offset.Add(geom.Pt(dx, dy))
	return v
}

// ZoomAt multiplies the scale by factor while keeping the world point under
// the screen anchor fixed. The resulting scale is clamped to [MinScale, MaxScale].
func (v Viewport) ZoomAt(anchor geom.Point, factor float64) Viewport {
	world, ok := v.ToWorld(anchor)
	if !ok || !validScale(factor) || factor < 0 {
		return v
	}
	next := math.Min(MaxScale, math.Max(MinScale, v.Scale*factor))
	return Viewport{
		Scale:  next,
		Offset: geom.Pt(anchor.X-world.X*next, anchor.Y-world.Y*next),
	}
}

// VisibleWorldRect returns the world-space region covered by a screen of the
// given pixel size.
func (v Viewport) VisibleWorldRect(width, height float64) geom.Rect {
	a, okA := v.ToWorld(geom.Pt(0, 0))
	b, okB := v.ToWorld(geom.Pt(width, height))
	if !okA || !okB {
		return geom.Rect{}
	}
	return geom.RectFromPoints(a, b)
}
