package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
)

func wallOp(typ, id string, x2 float64) Operation {
	return Operation{Type: typ, Wall: &document.Wall{ID: id, Start: geom.Pt(0, 0), End: geom.Pt(x2, 0), Thickness: 6}}
}

func hostedPlan() *document.Plan {
	plan := document.NewEmptyPlan("p", "test", "base")
	plan.Walls["w1"] = document.Wall{ID: "w1", Start: geom.Pt(0, 0), End: geom.Pt(120, 0), Thickness: 6}
	plan.Openings["o1"] = document.Opening{ID: "o1", Kind: document.OpeningDoor, WallID: "w1", Position: 0.5, Width: 30}
	plan.Shapes["r1"] = document.Shape{ID: "r1", Kind: document.KindRoom, Points: []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(10, 10)}}
	plan.Items["i1"] = document.Item{ID: "i1", Kind: document.ItemFurniture, Position: geom.Pt(50, 50), Width: 10, Depth: 10}
	plan.Roofs["f1"] = document.Roof{ID: "f1", Min: geom.Pt(0, 0), Max: geom.Pt(100, 100)}
	plan.Order = []string{"r1", "f1", "w1", "o1", "i1"}
	return plan
}

func TestApplyBatchCreatesInDrawOrder(t *testing.T) {
	ds := NewDocumentState(document.NewEmptyPlan("p", "test", "base"))

	seq, err := ds.ApplyBatch(Batch{ID: "b1", Operations: []Operation{
		wallOp(OpWallCreate, "w1", 120),
		{Type: OpOpeningCreate, Opening: &document.Opening{ID: "o1", WallID: "w1", Position: 0, Width: 30}},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	plan := ds.Plan()
	assert.Equal(t, []string{"w1", "o1"}, plan.Order)
	assert.InDelta(t, 0.125, plan.Openings["o1"].Position, 1e-9, "position is clamped inside the wall")
	assert.Len(t, ds.OpLog(), 1)
}

func TestApplyBatchIsAtomic(t *testing.T) {
	ds := NewDocumentState(document.NewEmptyPlan("p", "test", "base"))

	_, err := ds.ApplyBatch(Batch{ID: "b1", Operations: []Operation{
		wallOp(OpWallCreate, "w1", 120),
		wallOp(OpWallUpdate, "missing", 50),
	}})
	require.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, ds.Plan().Walls)
	assert.Equal(t, int64(0), ds.ServerSeq())
	assert.Empty(t, ds.OpLog())
}

func TestWallDeleteCascadesOpenings(t *testing.T) {
	ds := NewDocumentState(hostedPlan())

	_, err := ds.ApplyBatch(Batch{Operations: []Operation{{Type: OpWallDelete, ObjectID: "w1"}}})
	require.NoError(t, err)

	plan := ds.Plan()
	assert.Empty(t, plan.Walls)
	assert.Empty(t, plan.Openings)
	assert.Equal(t, []string{"r1", "f1", "i1"}, plan.Order)
}

func TestEntityDelete(t *testing.T) {
	tests := []struct {
		kind document.EntityKind
		id   string
	}{
		{document.KindOpening, "o1"},
		{document.KindRoom, "r1"},
		{document.KindItem, "i1"},
		{document.KindRoof, "f1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			ds := NewDocumentState(hostedPlan())
			_, err := ds.ApplyBatch(Batch{Operations: []Operation{{Type: OpEntityDelete, Kind: tt.kind, ObjectID: tt.id}}})
			require.NoError(t, err)

			plan := ds.Plan()
			assert.False(t, plan.Exists(tt.kind, tt.id))
			assert.NotContains(t, plan.Order, tt.id)
			assert.Len(t, plan.Order, 4)
		})
	}

	t.Run("kind mismatch", func(t *testing.T) {
		ds := NewDocumentState(hostedPlan())
		_, err := ds.ApplyBatch(Batch{Operations: []Operation{{Type: OpEntityDelete, Kind: document.KindHatch, ObjectID: "r1"}}})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestShapeValidation(t *testing.T) {
	ds := NewDocumentState(hostedPlan())

	_, err := ds.ApplyBatch(Batch{Operations: []Operation{{
		Type:  OpShapeCreate,
		Shape: &document.Shape{ID: "r2", Kind: document.KindRoom, Points: []geom.Point{geom.Pt(0, 0), geom.Pt(1, 0)}},
	}}})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = ds.ApplyBatch(Batch{Operations: []Operation{{
		Type:     OpShapePoints,
		ObjectID: "r1",
		Points:   []geom.Point{geom.Pt(0, 0), geom.Pt(20, 0), geom.Pt(20, 20), geom.Pt(0, 20)},
	}}})
	require.NoError(t, err)
	assert.Len(t, ds.Plan().Shapes["r1"].Points, 4)
}

func TestCreateAndUpdateExistence(t *testing.T) {
	ds := NewDocumentState(hostedPlan())

	_, err := ds.ApplyBatch(Batch{Operations: []Operation{wallOp(OpWallCreate, "w1", 10)}})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = ds.ApplyBatch(Batch{Operations: []Operation{{Type: OpItemUpdate, Item: &document.Item{ID: "nope"}}}})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ds.ApplyBatch(Batch{Operations: []Operation{{Type: OpOpeningCreate, Opening: &document.Opening{ID: "o2", WallID: "nope", Width: 10}}}})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ds.ApplyBatch(Batch{Operations: []Operation{{Type: "object.transform"}}})
	assert.ErrorIs(t, err, ErrInvalid)

	roof := document.Roof{ID: "f1", Min: geom.Pt(0, 0), Max: geom.Pt(50, 50), Rotation: 0.5}
	_, err = ds.ApplyBatch(Batch{Operations: []Operation{{Type: OpRoofUpdate, Roof: &roof}}})
	require.NoError(t, err)
	assert.Equal(t, roof, ds.Plan().Roofs["f1"])
}

func TestPlanReturnsCopy(t *testing.T) {
	ds := NewDocumentState(hostedPlan())

	plan := ds.Plan()
	delete(plan.Walls, "w1")
	plan.Shapes["r1"].Points[0] = geom.Pt(99, 99)

	ds.View(func(live *document.Plan) {
		assert.Contains(t, live.Walls, "w1")
		assert.Equal(t, geom.Pt(0, 0), live.Shapes["r1"].Points[0])
	})
}

func TestSnapshotPairsPlanWithSeq(t *testing.T) {
	ds := NewDocumentState(hostedPlan())
	_, err := ds.ApplyBatch(Batch{ID: "b1", Operations: []Operation{wallOp(OpWallCreate, "w2", 40)}})
	require.NoError(t, err)

	plan, seq := ds.Snapshot()
	assert.Equal(t, int64(1), seq)
	assert.Contains(t, plan.Walls, "w2")

	delete(plan.Walls, "w2")
	assert.Contains(t, ds.Plan().Walls, "w2")
}
