package viewport

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/drafting/internal/geom"
)

func TestRoundTrip(t *testing.T) {
	points := []geom.Point{geom.Pt(0, 0), geom.Pt(123.456, -78.9), geom.Pt(-1e5, 3e4), geom.Pt(0.001, 0.002)}
	scales := []float64{0.05, 0.5, 1, 2.75, 40}
	offsets := []geom.Point{geom.Pt(0, 0), geom.Pt(400, 300), geom.Pt(-1234.5, 88)}

	for _, p := range points {
		for _, s := range scales {
			for _, o := range offsets {
				screen, ok := ToScreen(p, s, o)
				require.True(t, ok)
				back, ok := ToWorld(screen, s, o)
				require.True(t, ok)
				tol := 1e-9 * math.Max(1, math.Max(math.Abs(p.X), math.Abs(p.Y)))
				assert.InDelta(t, p.X, back.X, tol)
				assert.InDelta(t, p.Y, back.Y, tol)
			}
		}
	}
}

func TestRejectsNonFinite(t *testing.T) {
	_, ok := ToWorld(geom.Pt(math.NaN(), 0), 1, geom.Point{})
	assert.False(t, ok)
	_, ok = ToWorld(geom.Pt(1, 1), 0, geom.Point{})
	assert.False(t, ok)
	_, ok = ToScreen(geom.Pt(1, 1), math.Inf(1), geom.Point{})
	assert.False(t, ok)
	_, ok = ToScreen(geom.Pt(1, 1), 1, geom.Pt(math.Inf(-1), 0))
	assert.False(t, ok)
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	v := Viewport{Scale: 2, Offset: geom.Pt(50, 20)}
	anchor := geom.Pt(300, 200)
	before, _ := v.ToWorld(anchor)

	z := v.ZoomAt(anchor, 1.5)
	assert.InDelta(t, 3, z.Scale, 1e-12)
	after, _ := z.ToWorld(anchor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	assert.Equal(t, MaxScale, v.ZoomAt(anchor, 1e6).Scale)
}

func TestMatrixMatchesToScreen(t *testing.T) {
	v := Viewport{Scale: 1.25, Offset: geom.Pt(-10, 40)}
	p := geom.Pt(17, -3)
	want, _ := v.ToScreen(p)
	got := v.Matrix().TransformPoint(p)
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)
	assert.InDelta(t, 8, v.PixelsToWorld(10), 1e-12)
}
