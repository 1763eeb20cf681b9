package engine

import (
	"log/slog"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/pick"
	"github.com/inamate/drafting/internal/snap"
	"github.com/inamate/drafting/internal/typeid"
)

// Engine turns raw pointer and keyboard events into host mutations.
// It holds no interaction state of its own: every call to Handle receives
// the current State and returns the next one.
type Engine struct {
	host     Host
	settings Settings
	logger   *slog.Logger
	newID    func(kind document.EntityKind) string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for discard diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithIDGenerator overrides how ids of created entities are allocated.
func WithIDGenerator(fn func(kind document.EntityKind) string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New creates an engine that reports mutations to host.
func New(host Host, settings Settings, opts ...Option) *Engine {
	if host == nil {
		host = NopHost{}
	}
	e := &Engine{
		host:     host,
		settings: settings,
		logger:   slog.Default(),
		newID:    NewEntityID,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

var entityPrefix = map[document.EntityKind]typeid.Prefix{
	document.KindWall:     typeid.Wall,
	document.KindOpening:  typeid.Opening,
	document.KindRoom:     typeid.Room,
	document.KindPolyline: typeid.Polyline,
	document.KindHatch:    typeid.Hatch,
	document.KindRoof:     typeid.Roof,
	document.KindItem:     typeid.Item,
}

// NewEntityID allocates a prefixed id for a new entity of the given kind.
func NewEntityID(kind document.EntityKind) string {
	if p, ok := entityPrefix[kind]; ok {
		return p.New()
	}
	return typeid.Prefix(kind).New()
}

// Settings returns the active settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// SetSettings replaces the settings used by subsequent events.
func (e *Engine) SetSettings(s Settings) {
	e.settings = s
}

// Handle processes one event against a read-only plan and returns the next
// state. Mutations are reported through the host callbacks before Handle
// returns; the plan itself is never modified.
func (e *Engine) Handle(plan *document.Plan, s State, ev Event) State {
	if plan == nil {
		return s
	}
	s = e.pruneSelection(plan, s)

	switch ev.Type {
	case EventSetTool:
		return e.setTool(s, ev.Tool)
	case EventCancel:
		return e.cancel(s)
	case EventFinish:
		return e.finish(plan, s)
	case EventKeyDown:
		return e.keyDown(plan, s, ev)
	case EventPointerCaptureLost:
		return e.captureLost(s)
	case EventZoom:
		s.Viewport = s.Viewport.ZoomAt(ev.Screen, ev.Factor)
		return s
	}
	if !ev.isPointer() {
		e.logger.Debug("ignoring unknown event", "type", ev.Type)
		return s
	}
	if _, ok := s.Viewport.ToWorld(ev.Screen); !ok {
		e.logger.Debug("ignoring non-finite pointer event", "type", ev.Type)
		return s
	}

	if s.Manipulation != nil {
		return e.manipulate(plan, s, ev)
	}
	if s.Pan != nil || s.Tool == ToolPan {
		return e.pan(s, ev)
	}

	switch s.Tool {
	case ToolSelect:
		return e.selectTool(plan, s, ev)
	case ToolDrawWall, ToolDrawRoof:
		return e.dragTool(plan, s, ev)
	case ToolDrawRoom, ToolDrawPolyline, ToolDrawHatch:
		return e.multiPointTool(plan, s, ev)
	case ToolPlaceDoor, ToolPlaceWindow:
		return e.placeOpening(plan, s, ev)
	case ToolPlaceItem:
		return e.placeItem(plan, s, ev)
	case ToolMove, ToolRotate:
		return e.manipulationTool(plan, s, ev)
	}
	return s
}

// pruneSelection drops refs to entities the host has removed since the last
// event, and aborts a manipulation whose targets disappeared.
func (e *Engine) pruneSelection(plan *document.Plan, s State) State {
	pruned := s.Selection.Prune(plan)
	if !pruned.Equal(s.Selection) {
		s.Selection = pruned
		e.host.SetSelection(pruned)
	}
	if m := s.Manipulation; m != nil {
		for _, ref := range m.Targets {
			if !plan.Exists(ref.Kind, ref.ID) {
				e.logger.Debug("aborting manipulation of stale entity", "kind", ref.Kind, "id", ref.ID)
				s.Manipulation = nil
				break
			}
		}
	}
	if s.Hover != nil && !plan.Exists(s.Hover.Kind, s.Hover.ID) {
		s.Hover = nil
	}
	return s
}

func (e *Engine) setTool(s State, t Tool) State {
	if _, err := ParseTool(string(t)); err != nil {
		e.logger.Debug("ignoring tool change", "err", err)
		return s
	}
	s = s.Discard()
	s.Hover = nil
	s.Tool = t
	return s
}

// cancel discards every gesture in progress. With nothing to cancel it
// clears the selection instead.
func (e *Engine) cancel(s State) State {
	if s.Busy() {
		return s.Discard()
	}
	if !s.Selection.IsEmpty() {
		s.Selection = pick.Selection{}
		e.host.SetSelection(s.Selection)
	}
	s.Snap = nil
	return s
}

func (e *Engine) captureLost(s State) State {
	s.Manipulation = nil
	s.Press = nil
	s.Pan = nil
	if s.Session != nil {
		if _, multi := s.Session.Tool.shapeKind(); multi {
			s.Session = &Session{Tool: s.Session.Tool, Points: s.Session.Points}
		} else {
			s.Session = nil
		}
	}
	return s
}

func (e *Engine) keyDown(plan *document.Plan, s State, ev Event) State {
	switch ev.Key {
	case KeyEscape:
		return e.cancel(s)
	case KeyEnter:
		return e.finish(plan, s)
	case KeyDelete, KeyBackspace:
		if s.Busy() {
			return s
		}
		return e.deleteSelection(plan, s)
	}
	return s
}

// deleteSelection requests deletion of every selected entity. Openings whose
// host wall is deleted too are left to the host's cascade.
func (e *Engine) deleteSelection(plan *document.Plan, s State) State {
	refs := s.Selection.Items()
	if len(refs) == 0 {
		return s
	}
	walls := make(map[string]bool)
	for _, r := range refs {
		if r.Kind == document.KindWall {
			walls[r.ID] = true
		}
	}
	batch(e.host, "delete", func() {
		for _, r := range refs {
			switch r.Kind {
			case document.KindWall:
				e.host.DeleteWall(r.ID)
			case document.KindOpening:
				if walls[plan.Openings[r.ID].WallID] {
					continue
				}
				e.host.DeleteEntity(r.Kind, r.ID)
			default:
				e.host.DeleteEntity(r.Kind, r.ID)
			}
		}
	})
	s.Selection = pick.Selection{}
	s.Hover = nil
	e.host.SetSelection(s.Selection)
	return s
}

// resolve converts a screen point to world space and snaps it. When from is
// set and constrain is requested with angle snap on, the point is locked to
// the angle-snapped ray from it. extra adds session points to the scene.
func (e *Engine) resolve(plan *document.Plan, s State, screen geom.Point, from *geom.Point, constrain bool, extra []geom.Point, exclude snap.ExcludeFunc) (snap.Result, bool) {
	world, ok := s.Viewport.ToWorld(screen)
	if !ok {
		return snap.Result{}, false
	}
	scene := snap.SceneFromPlan(plan, exclude)
	if len(extra) > 0 {
		scene = scene.WithPoints(extra)
	}
	q := snap.Query{Cursor: world, Scale: s.Viewport.Scale, From: from}
	if inc := e.settings.angleIncrement(); constrain && from != nil && inc > 0 {
		_, dir := geom.ConstrainToAngle(*from, world, inc)
		return snap.ResolveOnRay(q, *from, dir, scene, e.settings.Snap), true
	}
	return snap.Resolve(q, scene, e.settings.Snap), true
}

// screenDistance returns the distance between two world points in pixels.
func screenDistance(s State, a, b geom.Point) float64 {
	return geom.Distance(a, b) * absScale(s)
}

func absScale(s State) float64 {
	if s.Viewport.Scale < 0 {
		return -s.Viewport.Scale
	}
	return s.Viewport.Scale
}

func excludeRefs(refs []pick.Ref) snap.ExcludeFunc {
	if len(refs) == 0 {
		return nil
	}
	set := make(map[pick.Ref]bool, len(refs))
	for _, r := range refs {
		set[r] = true
	}
	return func(kind document.EntityKind, id string) bool {
		return set[pick.Ref{Kind: kind, ID: id}]
	}
}
