package collab

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/inamate/drafting/internal/document"
)

var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalid       = errors.New("invalid operation")
)

// DocumentState holds the authoritative plan for a room.
type DocumentState struct {
	mu        sync.RWMutex
	plan      *document.Plan
	serverSeq int64
	opLog     []Batch // Batch history since load
}

// NewDocumentState creates a new document state from an initial plan.
func NewDocumentState(plan *document.Plan) *DocumentState {
	return &DocumentState{
		plan:  plan,
		opLog: make([]Batch, 0),
	}
}

// Plan returns a deep copy of the current plan.
func (ds *DocumentState) Plan() *document.Plan {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.plan.Clone()
}

// View calls fn with the live plan under the read lock. fn must not retain
// or mutate the plan.
func (ds *DocumentState) View(fn func(plan *document.Plan)) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	fn(ds.plan)
}

// Snapshot returns a copy of the plan together with the sequence it is at.
func (ds *DocumentState) Snapshot() (*document.Plan, int64) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.plan.Clone(), ds.serverSeq
}

func (ds *DocumentState) ServerSeq() int64 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.serverSeq
}

// Reset replaces the plan wholesale, as after a doc.sync, and clears the log.
func (ds *DocumentState) Reset(plan *document.Plan, serverSeq int64) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.plan = plan
	ds.serverSeq = serverSeq
	ds.opLog = ds.opLog[:0]
}

// OpLog returns the batches applied since the state was created.
func (ds *DocumentState) OpLog() []Batch {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return slices.Clone(ds.opLog)
}

// ApplyBatch applies every operation of b and returns the new server
// sequence. The plan is left untouched when any operation fails.
func (ds *DocumentState) ApplyBatch(b Batch) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	next := ds.plan.Clone()
	for i, op := range b.Operations {
		if err := applyOperation(next, op); err != nil {
			return 0, fmt.Errorf("operation %d (%s): %w", i, op.Type, err)
		}
	}

	ds.plan = next
	ds.serverSeq++
	ds.opLog = append(ds.opLog, b)
	return ds.serverSeq, nil
}

func applyOperation(p *document.Plan, op Operation) error {
	switch op.Type {
	case OpWallCreate:
		return applyWallCreate(p, op)
	case OpWallUpdate:
		return applyWallUpdate(p, op)
	case OpWallDelete:
		return deleteWall(p, op.ObjectID)
	case OpOpeningCreate, OpOpeningUpdate:
		return applyOpening(p, op)
	case OpShapeCreate:
		return applyShapeCreate(p, op)
	case OpShapePoints:
		return applyShapePoints(p, op)
	case OpItemCreate, OpItemUpdate:
		return applyItem(p, op)
	case OpRoofCreate, OpRoofUpdate:
		return applyRoof(p, op)
	case OpEntityDelete:
		return applyEntityDelete(p, op)
	default:
		return fmt.Errorf("%w: unknown operation type %q", ErrInvalid, op.Type)
	}
}

func applyWallCreate(p *document.Plan, op Operation) error {
	w := op.Wall
	if w == nil || w.ID == "" {
		return fmt.Errorf("%w: missing wall", ErrInvalid)
	}
	if _, ok := p.Walls[w.ID]; ok {
		return fmt.Errorf("%w: wall %s", ErrAlreadyExists, w.ID)
	}
	p.Walls[w.ID] = *w
	p.Order = append(p.Order, w.ID)
	return nil
}

func applyWallUpdate(p *document.Plan, op Operation) error {
	w := op.Wall
	if w == nil {
		return fmt.Errorf("%w: missing wall", ErrInvalid)
	}
	if _, ok := p.Walls[w.ID]; !ok {
		return fmt.Errorf("%w: wall %s", ErrNotFound, w.ID)
	}
	p.Walls[w.ID] = *w
	return nil
}

// deleteWall removes a wall together with every opening it hosts.
func deleteWall(p *document.Plan, id string) error {
	if _, ok := p.Walls[id]; !ok {
		return fmt.Errorf("%w: wall %s", ErrNotFound, id)
	}
	delete(p.Walls, id)
	removeFromOrder(p, id)
	for oid, o := range p.Openings {
		if o.WallID == id {
			delete(p.Openings, oid)
			removeFromOrder(p, oid)
		}
	}
	return nil
}

func applyOpening(p *document.Plan, op Operation) error {
	o := op.Opening
	if o == nil || o.ID == "" {
		return fmt.Errorf("%w: missing opening", ErrInvalid)
	}
	_, exists := p.Openings[o.ID]
	switch {
	case op.Type == OpOpeningCreate && exists:
		return fmt.Errorf("%w: opening %s", ErrAlreadyExists, o.ID)
	case op.Type == OpOpeningUpdate && !exists:
		return fmt.Errorf("%w: opening %s", ErrNotFound, o.ID)
	}
	w, ok := p.Walls[o.WallID]
	if !ok {
		return fmt.Errorf("%w: host wall %s", ErrNotFound, o.WallID)
	}
	next := *o
	next.Position = document.ClampPosition(o.Position, o.Width, w.Length())
	p.Openings[o.ID] = next
	if !exists {
		p.Order = append(p.Order, o.ID)
	}
	return nil
}

func applyShapeCreate(p *document.Plan, op Operation) error {
	s := op.Shape
	if s == nil || s.ID == "" {
		return fmt.Errorf("%w: missing shape", ErrInvalid)
	}
	if !s.Kind.IsShape() {
		return fmt.Errorf("%w: %q is not a shape kind", ErrInvalid, s.Kind)
	}
	if len(s.Points) < document.MinPoints(s.Kind) {
		return fmt.Errorf("%w: %s needs %d points", ErrInvalid, s.Kind, document.MinPoints(s.Kind))
	}
	if _, ok := p.Shapes[s.ID]; ok {
		return fmt.Errorf("%w: shape %s", ErrAlreadyExists, s.ID)
	}
	next := *s
	next.Points = slices.Clone(s.Points)
	p.Shapes[s.ID] = next
	p.Order = append(p.Order, s.ID)
	return nil
}

func applyShapePoints(p *document.Plan, op Operation) error {
	s, ok := p.Shapes[op.ObjectID]
	if !ok {
		return fmt.Errorf("%w: shape %s", ErrNotFound, op.ObjectID)
	}
	if len(op.Points) < document.MinPoints(s.Kind) {
		return fmt.Errorf("%w: %s needs %d points", ErrInvalid, s.Kind, document.MinPoints(s.Kind))
	}
	s.Points = slices.Clone(op.Points)
	p.Shapes[op.ObjectID] = s
	return nil
}

func applyItem(p *document.Plan, op Operation) error {
	it := op.Item
	if it == nil || it.ID == "" {
		return fmt.Errorf("%w: missing item", ErrInvalid)
	}
	_, exists := p.Items[it.ID]
	if err := checkExistence("item", it.ID, op.Type == OpItemCreate, exists); err != nil {
		return err
	}
	p.Items[it.ID] = *it
	if !exists {
		p.Order = append(p.Order, it.ID)
	}
	return nil
}

func applyRoof(p *document.Plan, op Operation) error {
	r := op.Roof
	if r == nil || r.ID == "" {
		return fmt.Errorf("%w: missing roof", ErrInvalid)
	}
	_, exists := p.Roofs[r.ID]
	if err := checkExistence("roof", r.ID, op.Type == OpRoofCreate, exists); err != nil {
		return err
	}
	p.Roofs[r.ID] = *r
	if !exists {
		p.Order = append(p.Order, r.ID)
	}
	return nil
}

func checkExistence(what, id string, create, exists bool) error {
	if create && exists {
		return fmt.Errorf("%w: %s %s", ErrAlreadyExists, what, id)
	}
	if !create && !exists {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return nil
}

func applyEntityDelete(p *document.Plan, op Operation) error {
	id := op.ObjectID
	if !p.Exists(op.Kind, id) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, op.Kind, id)
	}
	switch op.Kind {
	case document.KindWall:
		return deleteWall(p, id)
	case document.KindOpening:
		delete(p.Openings, id)
	case document.KindRoom, document.KindPolyline, document.KindHatch:
		delete(p.Shapes, id)
	case document.KindRoof:
		delete(p.Roofs, id)
	case document.KindItem:
		delete(p.Items, id)
	}
	removeFromOrder(p, id)
	return nil
}

func removeFromOrder(p *document.Plan, id string) {
	p.Order = slices.DeleteFunc(p.Order, func(s string) bool { return s == id })
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
