package collab

import (
	"log/slog"
	"slices"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/engine"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/pick"
	"github.com/inamate/drafting/internal/typeid"
)

var (
	_ engine.Host    = (*Recorder)(nil)
	_ engine.Batcher = (*Recorder)(nil)
)

// Recorder is the engine host backed by a DocumentState. Each callback
// becomes an Operation; callbacks between BeginBatch and EndBatch are
// submitted together as one Batch, others as a batch of their own.
//
// A Recorder is driven by a single engine and is not safe for concurrent use.
type Recorder struct {
	state     *DocumentState
	logger    *slog.Logger
	submit    func(Batch) (int64, error)
	onCommit  func(Batch, int64)
	clientSeq int64
	depth     int
	pending   *Batch
	selection pick.Selection
	err       error
}

type RecorderOption func(*Recorder)

func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithSubmit replaces the default submission, which applies batches to the
// recorder's DocumentState. Used when batches go to a remote authority.
func WithSubmit(fn func(Batch) (int64, error)) RecorderOption {
	return func(r *Recorder) {
		r.submit = fn
	}
}

// WithCommitHook registers fn to run after every successfully submitted batch.
func WithCommitHook(fn func(b Batch, serverSeq int64)) RecorderOption {
	return func(r *Recorder) {
		r.onCommit = fn
	}
}

func NewRecorder(state *DocumentState, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		state:  state,
		logger: slog.Default(),
		submit: state.ApplyBatch,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan returns a copy of the current plan for the next engine event.
func (r *Recorder) Plan() *document.Plan {
	return r.state.Plan()
}

func (r *Recorder) State() *DocumentState {
	return r.state
}

// Selection returns the selection last reported by the engine.
func (r *Recorder) Selection() pick.Selection {
	return r.selection
}

// Err returns the last submission error, if any.
func (r *Recorder) Err() error {
	return r.err
}

func (r *Recorder) BeginBatch(label string) {
	if r.depth == 0 {
		r.pending = &Batch{ID: typeid.Batch.New(), Label: label}
	}
	r.depth++
}

func (r *Recorder) EndBatch() {
	if r.depth == 0 {
		return
	}
	r.depth--
	if r.depth > 0 {
		return
	}
	b := *r.pending
	r.pending = nil
	if len(b.Operations) > 0 {
		r.flush(b)
	}
}

func (r *Recorder) record(op Operation) {
	r.clientSeq++
	op.ID = typeid.Op.New()
	op.Timestamp = GetServerTimestamp()
	op.ClientSeq = r.clientSeq

	if r.pending != nil {
		r.pending.Operations = append(r.pending.Operations, op)
		return
	}
	r.flush(Batch{ID: typeid.Batch.New(), Label: op.Type, Operations: []Operation{op}})
}

func (r *Recorder) flush(b Batch) {
	seq, err := r.submit(b)
	if err != nil {
		r.err = err
		r.logger.Warn("batch rejected", "batch", b.ID, "label", b.Label, "error", err)
		return
	}
	r.logger.Debug("batch applied", "batch", b.ID, "label", b.Label, "ops", len(b.Operations), "seq", seq)
	if r.onCommit != nil {
		r.onCommit(b, seq)
	}
}

func (r *Recorder) CreateWall(w document.Wall) {
	r.record(Operation{Type: OpWallCreate, Kind: document.KindWall, ObjectID: w.ID, Wall: &w})
}

func (r *Recorder) UpdateWall(w document.Wall) {
	r.record(Operation{Type: OpWallUpdate, Kind: document.KindWall, ObjectID: w.ID, Wall: &w})
}

func (r *Recorder) DeleteWall(id string) {
	r.record(Operation{Type: OpWallDelete, Kind: document.KindWall, ObjectID: id})
}

func (r *Recorder) CreateHostedElement(o document.Opening) {
	r.record(Operation{Type: OpOpeningCreate, Kind: document.KindOpening, ObjectID: o.ID, Opening: &o})
}

func (r *Recorder) UpdateHostedElement(o document.Opening) {
	r.record(Operation{Type: OpOpeningUpdate, Kind: document.KindOpening, ObjectID: o.ID, Opening: &o})
}

func (r *Recorder) CreateShape(s document.Shape) {
	s.Points = slices.Clone(s.Points)
	r.record(Operation{Type: OpShapeCreate, Kind: s.Kind, ObjectID: s.ID, Shape: &s})
}

func (r *Recorder) UpdateShapePoints(id string, points []geom.Point) {
	r.record(Operation{Type: OpShapePoints, ObjectID: id, Points: slices.Clone(points)})
}

func (r *Recorder) CreateItem(it document.Item) {
	r.record(Operation{Type: OpItemCreate, Kind: document.KindItem, ObjectID: it.ID, Item: &it})
}

func (r *Recorder) UpdateItem(it document.Item) {
	r.record(Operation{Type: OpItemUpdate, Kind: document.KindItem, ObjectID: it.ID, Item: &it})
}

func (r *Recorder) CreateRoof(rf document.Roof) {
	r.record(Operation{Type: OpRoofCreate, Kind: document.KindRoof, ObjectID: rf.ID, Roof: &rf})
}

func (r *Recorder) UpdateRoof(rf document.Roof) {
	r.record(Operation{Type: OpRoofUpdate, Kind: document.KindRoof, ObjectID: rf.ID, Roof: &rf})
}

func (r *Recorder) DeleteEntity(kind document.EntityKind, id string) {
	r.record(Operation{Type: OpEntityDelete, Kind: kind, ObjectID: id})
}

func (r *Recorder) SetSelection(sel pick.Selection) {
	r.selection = sel
}
