package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/engine"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/snap"
	"github.com/inamate/drafting/internal/viewport"
)

func plainSettings() engine.Settings {
	s := engine.DefaultSettings()
	s.AngleIncrementDeg = 0
	s.Snap.Enabled = snap.AllKinds.Without(snap.Grid)
	return s
}

func drive(e *engine.Engine, rec *Recorder, s engine.State, events ...engine.Event) engine.State {
	for _, ev := range events {
		s = e.Handle(rec.Plan(), s, ev)
	}
	return s
}

func TestRecorderAppliesEngineEdits(t *testing.T) {
	rec := NewRecorder(NewDocumentState(document.NewEmptyPlan("p", "test", "base")))
	e := engine.New(rec, plainSettings())
	s := engine.NewState(viewport.New(1))

	s = drive(e, rec, s,
		engine.SetTool(engine.ToolDrawWall),
		engine.PointerDown(0, 0),
		engine.PointerMove(120, 0),
		engine.PointerUp(120, 0),
	)
	require.NoError(t, rec.Err())
	plan := rec.Plan()
	require.Len(t, plan.Walls, 1)
	var wall document.Wall
	for _, w := range plan.Walls {
		wall = w
	}
	assert.InDelta(t, 120, wall.Length(), 1e-9)

	s = drive(e, rec, s,
		engine.SetTool(engine.ToolPlaceDoor),
		engine.PointerDown(60, 0),
		engine.PointerUp(60, 0),
	)
	plan = rec.Plan()
	require.Len(t, plan.Openings, 1)
	for _, o := range plan.Openings {
		assert.Equal(t, wall.ID, o.WallID)
		assert.InDelta(t, 0.5, o.Position, 1e-9)
	}

	s = drive(e, rec, s,
		engine.SetTool(engine.ToolSelect),
		engine.PointerDown(20, 0),
		engine.PointerUp(20, 0),
	)
	assert.Equal(t, 1, rec.Selection().Len())

	drive(e, rec, s, engine.KeyDown(engine.KeyDelete))
	plan = rec.Plan()
	assert.Empty(t, plan.Walls)
	assert.Empty(t, plan.Openings, "deleting the wall removes its door")
	assert.True(t, rec.Selection().IsEmpty())

	log := rec.State().OpLog()
	require.Len(t, log, 3)
	assert.Equal(t, OpWallCreate, log[0].Label)
	assert.Equal(t, OpOpeningCreate, log[1].Label)
	assert.Equal(t, "delete", log[2].Label)
	assert.Len(t, log[2].Operations, 1)
}

func TestRecorderBatchesNest(t *testing.T) {
	rec := NewRecorder(NewDocumentState(document.NewEmptyPlan("p", "test", "base")))
	var committed []Batch
	WithCommitHook(func(b Batch, _ int64) { committed = append(committed, b) })(rec)

	rec.BeginBatch("outer")
	rec.CreateWall(document.Wall{ID: "w1", End: geom.Pt(10, 0)})
	rec.BeginBatch("inner")
	rec.CreateItem(document.Item{ID: "i1", Width: 1, Depth: 1})
	rec.EndBatch()
	assert.Empty(t, committed, "nothing is submitted before the outer batch ends")
	rec.EndBatch()
	rec.EndBatch()

	require.Len(t, committed, 1)
	assert.Equal(t, "outer", committed[0].Label)
	require.Len(t, committed[0].Operations, 2)
	assert.Equal(t, int64(1), committed[0].Operations[0].ClientSeq)
	assert.Equal(t, int64(2), committed[0].Operations[1].ClientSeq)
	assert.Equal(t, int64(1), rec.State().ServerSeq())
}

func TestRecorderEmptyBatchIsNotSubmitted(t *testing.T) {
	rec := NewRecorder(NewDocumentState(document.NewEmptyPlan("p", "test", "base")))
	rec.BeginBatch("move")
	rec.EndBatch()
	assert.Equal(t, int64(0), rec.State().ServerSeq())
}

func TestRecorderRejectedBatch(t *testing.T) {
	rec := NewRecorder(NewDocumentState(hostedPlan()))

	rec.UpdateShapePoints("missing", []geom.Point{geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(1, 1)})
	assert.ErrorIs(t, rec.Err(), ErrNotFound)
	assert.Equal(t, int64(0), rec.State().ServerSeq())
}

func TestRecorderCustomSubmit(t *testing.T) {
	var sent []Batch
	rec := NewRecorder(NewDocumentState(hostedPlan()), WithSubmit(func(b Batch) (int64, error) {
		sent = append(sent, b)
		return int64(len(sent)), nil
	}))

	rec.DeleteEntity(document.KindItem, "i1")

	require.Len(t, sent, 1)
	assert.Equal(t, OpEntityDelete, sent[0].Operations[0].Type)
	assert.Contains(t, rec.Plan().Items, "i1", "remote submission leaves the local state alone")
}
