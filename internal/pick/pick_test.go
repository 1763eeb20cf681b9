package pick

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/viewport"
)

func testPlan() *document.Plan {
	plan := document.NewEmptyPlan("p", "test", "base")
	plan.Layers["hidden"] = document.Layer{ID: "hidden", Visible: false}
	plan.Layers["locked"] = document.Layer{ID: "locked", Visible: true, Locked: true}

	plan.Shapes["room1"] = document.Shape{
		ID:     "room1",
		Kind:   document.KindRoom,
		Points: []geom.Point{geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(100, 100), geom.Pt(0, 100)},
	}
	plan.Walls["w1"] = document.Wall{ID: "w1", Start: geom.Pt(0, 0), End: geom.Pt(100, 0), Thickness: 6}
	plan.Openings["d1"] = document.Opening{ID: "d1", Kind: document.OpeningDoor, WallID: "w1", Position: 0.5, Width: 30}
	plan.Shapes["pl1"] = document.Shape{
		ID:     "pl1",
		Kind:   document.KindPolyline,
		Points: []geom.Point{geom.Pt(200, 0), geom.Pt(300, 0), geom.Pt(300, 100)},
	}
	plan.Items["chair"] = document.Item{ID: "chair", Kind: document.ItemFurniture, Position: geom.Pt(50, 50), Width: 20, Depth: 10}
	plan.Walls["hiddenWall"] = document.Wall{ID: "hiddenWall", Layer: "hidden", Start: geom.Pt(0, 200), End: geom.Pt(100, 200), Thickness: 6}
	plan.Walls["lockedWall"] = document.Wall{ID: "lockedWall", Layer: "locked", Start: geom.Pt(0, 300), End: geom.Pt(100, 300), Thickness: 6}
	plan.Order = []string{"room1", "w1", "d1", "pl1", "chair", "hiddenWall", "lockedWall"}
	return plan
}

func TestPickZOrder(t *testing.T) {
	plan := testPlan()
	vp := viewport.New(1)
	opts := DefaultOptions()

	tests := []struct {
		name   string
		screen geom.Point
		want   Ref
		hit    bool
	}{
		{"door over wall", geom.Pt(50, 1), Ref{document.KindOpening, "d1"}, true},
		{"wall outside door", geom.Pt(10, 2), Ref{document.KindWall, "w1"}, true},
		{"item over room", geom.Pt(52, 52), Ref{document.KindItem, "chair"}, true},
		{"room interior", geom.Pt(20, 70), Ref{document.KindRoom, "room1"}, true},
		{"polyline edge", geom.Pt(250, 2), Ref{document.KindPolyline, "pl1"}, true},
		{"open polyline inside is a miss", geom.Pt(260, 40), Ref{}, false},
		{"hidden layer", geom.Pt(50, 200), Ref{}, false},
		{"locked layer", geom.Pt(50, 300), Ref{}, false},
		{"empty space", geom.Pt(500, 500), Ref{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Pick(tt.screen, vp, plan, opts)
			assert.Equal(t, tt.hit, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPickCustomOrder(t *testing.T) {
	plan := testPlan()
	opts := DefaultOptions()
	// Rooms drawn last now win over the chair.
	opts.Order = []document.EntityKind{document.KindItem, document.KindRoom}
	got, ok := Pick(geom.Pt(52, 52), viewport.New(1), plan, opts)
	require.True(t, ok)
	assert.Equal(t, Ref{document.KindRoom, "room1"}, got)
}

func TestPickToleranceIsScreenSpace(t *testing.T) {
	plan := testPlan()
	opts := DefaultOptions()
	// 6px from the polyline at scale 1 is a miss; zoomed out 4x the same
	// world distance is 1.5px and hits.
	_, ok := PickWorld(geom.Pt(250, 6), viewport.New(1).PixelsToWorld(opts.TolerancePx), plan, opts)
	assert.False(t, ok)
	_, ok = PickWorld(geom.Pt(250, 6), viewport.New(0.25).PixelsToWorld(opts.TolerancePx), plan, opts)
	assert.True(t, ok)
}

func TestMarquee(t *testing.T) {
	plan := testPlan()
	refs := Marquee(geom.RectFromPoints(geom.Pt(190, -10), geom.Pt(320, 10)), plan, DefaultOptions())
	assert.Equal(t, []Ref{{document.KindPolyline, "pl1"}}, refs)

	refs = Marquee(geom.RectFromPoints(geom.Pt(-10, 150), geom.Pt(120, 320)), plan, DefaultOptions())
	assert.Empty(t, refs, "hidden and locked layers are excluded")

	refs = Marquee(geom.RectFromPoints(geom.Pt(45, -5), geom.Pt(55, 5)), plan, DefaultOptions())
	assert.Equal(t, []Ref{
		{document.KindRoom, "room1"},
		{document.KindWall, "w1"},
		{document.KindOpening, "d1"},
	}, refs)
}

func TestIsDrag(t *testing.T) {
	assert.False(t, IsDrag(geom.Pt(0, 0), geom.Pt(2, 2), 4))
	assert.True(t, IsDrag(geom.Pt(0, 0), geom.Pt(4, 4), 4))
}

func TestSelectionSet(t *testing.T) {
	a := Ref{document.KindWall, "a"}
	b := Ref{document.KindWall, "b"}

	s := NewSelection(a, b, a)
	assert.Equal(t, []Ref{a, b}, s.Items())

	toggled := s.Toggle(a)
	assert.Equal(t, []Ref{b}, toggled.Items())
	assert.Equal(t, []Ref{a, b}, s.Items(), "original untouched")

	data, err := json.Marshal(Selection{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(data))

	var back Selection
	require.NoError(t, json.Unmarshal([]byte(`{"items":[{"type":"wall","id":"a"},{"type":"wall","id":"a"}]}`), &back))
	assert.Equal(t, []Ref{a}, back.Items())
}

func TestSelectionPrune(t *testing.T) {
	plan := testPlan()
	s := NewSelection(Ref{document.KindWall, "w1"}, Ref{document.KindWall, "gone"})
	assert.Equal(t, []Ref{{document.KindWall, "w1"}}, s.Prune(plan).Items())
}

func TestBounds(t *testing.T) {
	plan := testPlan()
	r, ok := Bounds(plan, []Ref{{document.KindWall, "w1"}, {document.KindPolyline, "pl1"}})
	require.True(t, ok)
	assert.Equal(t, geom.Rect{X: 0, Y: 0, Width: 300, Height: 100}, r)

	_, ok = Bounds(plan, []Ref{{document.KindWall, "missing"}})
	assert.False(t, ok)
}
