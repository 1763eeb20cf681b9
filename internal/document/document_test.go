package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/drafting/internal/geom"
)

func TestUpdateWallWithElementsKeepsAbsoluteCenter(t *testing.T) {
	wall := Wall{ID: "w1", Start: geom.Pt(0, 0), End: geom.Pt(120, 0), Thickness: 6}
	door := Opening{ID: "d1", Kind: OpeningDoor, WallID: "w1", Position: 0.5, Width: 36}

	updated, openings := UpdateWallWithElements(wall, geom.Pt(0, 0), geom.Pt(200, 0), []Opening{door})

	assert.Equal(t, geom.Pt(200, 0), updated.End)
	require.Len(t, openings, 1)
	assert.InDelta(t, 0.3, openings[0].Position, 1e-12)
}

func TestUpdateWallWithElementsClampsWhenShrinking(t *testing.T) {
	wall := Wall{ID: "w1", Start: geom.Pt(0, 0), End: geom.Pt(200, 0)}
	door := Opening{ID: "d1", WallID: "w1", Position: 0.9, Width: 36}

	_, openings := UpdateWallWithElements(wall, geom.Pt(0, 0), geom.Pt(100, 0), []Opening{door})

	require.Len(t, openings, 1)
	pos := openings[0].Position
	assert.InDelta(t, 1-18.0/100, pos, 1e-12)
	assertInsideWall(t, openings[0], 100)
}

func TestClampPosition(t *testing.T) {
	tests := []struct {
		name                   string
		position, width, wallL float64
		want                   float64
	}{
		{"inside", 0.5, 36, 120, 0.5},
		{"past start", 0.01, 36, 120, 18.0 / 120},
		{"past end", 1.2, 36, 120, 1 - 18.0/120},
		{"wider than wall", 0.2, 200, 120, 0.5},
		{"zero length wall", 0.3, 10, 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ClampPosition(tt.position, tt.width, tt.wallL), 1e-12)
		})
	}
}

func TestClampPositionNeverProtrudes(t *testing.T) {
	for _, length := range []float64{40, 96, 120, 333.3} {
		for _, width := range []float64{0, 12, 36, 39.9} {
			for p := -0.5; p <= 1.5; p += 0.05 {
				o := Opening{Position: ClampPosition(p, width, length), Width: width}
				assertInsideWall(t, o, length)
			}
		}
	}
}

func assertInsideWall(t *testing.T, o Opening, length float64) {
	t.Helper()
	center := o.Position * length
	assert.GreaterOrEqual(t, center, o.Width/2-1e-9)
	assert.LessOrEqual(t, center, length-o.Width/2+1e-9)
}

func TestMinPoints(t *testing.T) {
	assert.Equal(t, 3, MinPoints(KindRoom))
	assert.Equal(t, 3, MinPoints(KindHatch))
	assert.Equal(t, 2, MinPoints(KindPolyline))
	assert.Equal(t, 0, MinPoints(KindWall))
}

func TestCloneIsDeep(t *testing.T) {
	plan := NewSamplePlan("proj_test")
	before, err := json.Marshal(plan)
	require.NoError(t, err)

	c := plan.Clone()
	for id, s := range c.Shapes {
		s.Points[0] = geom.Pt(-999, -999)
		c.Shapes[id] = s
	}
	for id := range c.Walls {
		delete(c.Walls, id)
	}

	after, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestSamplePlanIsConsistent(t *testing.T) {
	plan := NewSamplePlan("proj_test")
	assert.Len(t, plan.Walls, 4)
	assert.Len(t, plan.Openings, 2)
	for id, o := range plan.Openings {
		assert.True(t, plan.Exists(KindOpening, id))
		w := plan.Walls[o.WallID]
		assertInsideWall(t, o, w.Length())
	}
	for _, id := range plan.Order {
		assert.GreaterOrEqual(t, plan.DrawIndex(id), 0)
	}
}

func TestLayerState(t *testing.T) {
	plan := NewEmptyPlan("p", "n", "l1")
	plan.Layers["hidden"] = Layer{ID: "hidden", Visible: false}
	plan.Layers["locked"] = Layer{ID: "locked", Visible: true, Locked: true}

	assert.True(t, plan.Interactive(""))
	assert.True(t, plan.Interactive("l1"))
	assert.False(t, plan.Interactive("hidden"))
	assert.False(t, plan.Interactive("locked"))
	assert.True(t, plan.Visible("locked"))
}

func TestFootprintAndOutline(t *testing.T) {
	w := Wall{Start: geom.Pt(0, 0), End: geom.Pt(100, 0)}
	o := Opening{Position: 0.5, Width: 20}
	fp := o.Footprint(w)
	assert.InDelta(t, 40, fp.A.X, 1e-12)
	assert.InDelta(t, 60, fp.B.X, 1e-12)

	it := Item{Position: geom.Pt(0, 0), Width: 4, Depth: 2}
	bb := geom.BoundingBox(it.Outline())
	assert.InDelta(t, 4, bb.Width, 1e-12)
	assert.InDelta(t, 2, bb.Height, 1e-12)
}
