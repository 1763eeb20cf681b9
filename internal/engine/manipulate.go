package engine

import (
	"math"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/pick"
)

// Mode is the kind of manipulation in progress.
type Mode string

const (
	ModeNone    Mode = "none"
	ModeMove    Mode = "move"
	ModeRotate  Mode = "rotate"
	ModeStretch Mode = "stretch"
)

// Manipulation is a live move, rotate or vertex stretch of selected
// entities. It only exists between the grip press and the release.
type Manipulation struct {
	Mode    Mode       `json:"mode"`
	Targets []pick.Ref `json:"targets"`

	BasePoint    geom.Point `json:"basePoint"`
	PreviewPoint geom.Point `json:"previewPoint"`

	Center       geom.Point `json:"center"`
	StartAngle   float64    `json:"startAngle"`
	PreviewAngle float64    `json:"previewAngle"`

	// Vertex is the index of the dragged vertex in stretch mode.
	Vertex int `json:"vertex,omitempty"`
}

// Delta returns the translation of a move.
func (m *Manipulation) Delta() geom.Point {
	return m.PreviewPoint.Sub(m.BasePoint)
}

// Angle returns the rotation delta in (-π, π], rounded to increment when it
// is positive.
func (m *Manipulation) Angle(increment float64) float64 {
	d := math.Remainder(m.PreviewAngle-m.StartAngle, 2*math.Pi)
	return geom.SnapAngle(d, increment)
}

// GripKind identifies what a grip does when pressed.
type GripKind string

const (
	GripMove   GripKind = "move"
	GripRotate GripKind = "rotate"
	GripVertex GripKind = "vertex"
)

// Grip is an interactive handle on the current selection.
type Grip struct {
	Kind   GripKind   `json:"kind"`
	Point  geom.Point `json:"point"`
	Ref    *pick.Ref  `json:"ref,omitempty"`
	Vertex int        `json:"vertex,omitempty"`
}

// Grips returns the handles of the current selection: a move grip at the
// bounds center, a rotate grip above the bounds and, for a single selected
// wall or shape, one vertex grip per defining point.
func (e *Engine) Grips(plan *document.Plan, s State) []Grip {
	refs := s.Selection.Items()
	bounds, ok := pick.Bounds(plan, refs)
	if !ok {
		return nil
	}
	var grips []Grip
	if len(refs) == 1 {
		ref := refs[0]
		for i, p := range vertices(plan, ref) {
			grips = append(grips, Grip{Kind: GripVertex, Point: p, Ref: &ref, Vertex: i})
		}
	}
	c := bounds.Center()
	offset := s.Viewport.PixelsToWorld(e.settings.RotateGripOffsetPx)
	grips = append(grips,
		Grip{Kind: GripMove, Point: c},
		Grip{Kind: GripRotate, Point: geom.Pt(c.X, bounds.Y-offset)},
	)
	return grips
}

// vertices returns the stretchable points of an entity.
func vertices(plan *document.Plan, ref pick.Ref) []geom.Point {
	switch ref.Kind {
	case document.KindWall:
		w := plan.Walls[ref.ID]
		return []geom.Point{w.Start, w.End}
	case document.KindRoom, document.KindPolyline, document.KindHatch:
		return plan.Shapes[ref.ID].Points
	}
	return nil
}

// gripAt returns the grip closest to the screen point within GripRadiusPx.
func (e *Engine) gripAt(plan *document.Plan, s State, screen geom.Point) (Grip, bool) {
	if s.Selection.IsEmpty() {
		return Grip{}, false
	}
	world, ok := s.Viewport.ToWorld(screen)
	if !ok {
		return Grip{}, false
	}
	var best Grip
	bestDist := math.Inf(1)
	for _, g := range e.Grips(plan, s) {
		d := screenDistance(s, world, g.Point)
		if d <= e.settings.GripRadiusPx && d < bestDist {
			best, bestDist = g, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

func (e *Engine) startGrip(plan *document.Plan, s State, g Grip, screen geom.Point) State {
	s.Press = nil
	s.Hover = nil
	switch g.Kind {
	case GripVertex:
		s.Manipulation = &Manipulation{
			Mode:         ModeStretch,
			Targets:      []pick.Ref{*g.Ref},
			BasePoint:    g.Point,
			PreviewPoint: g.Point,
			Vertex:       g.Vertex,
		}
		return s
	case GripRotate:
		return e.startRotate(plan, s, screen)
	}
	return e.startMove(plan, s, screen)
}

func (e *Engine) startMove(plan *document.Plan, s State, screen geom.Point) State {
	targets := s.Selection.Items()
	res, _ := e.resolve(plan, s, screen, nil, false, nil, excludeRefs(targets))
	s.Snap = &res
	s.Manipulation = &Manipulation{
		Mode:         ModeMove,
		Targets:      targets,
		BasePoint:    res.Point,
		PreviewPoint: res.Point,
	}
	return s
}

func (e *Engine) startRotate(plan *document.Plan, s State, screen geom.Point) State {
	targets := s.Selection.Items()
	bounds, ok := pick.Bounds(plan, targets)
	if !ok {
		return s
	}
	world, _ := s.Viewport.ToWorld(screen)
	center := bounds.Center()
	angle := geom.AngleOf(center, world)
	s.Manipulation = &Manipulation{
		Mode:         ModeRotate,
		Targets:      targets,
		BasePoint:    world,
		PreviewPoint: world,
		Center:       center,
		StartAngle:   angle,
		PreviewAngle: angle,
	}
	return s
}

// manipulationTool is the move and rotate tools: a press anywhere
// manipulates the selection, or the entity under the cursor when nothing is
// selected.
func (e *Engine) manipulationTool(plan *document.Plan, s State, ev Event) State {
	if ev.Type != EventPointerDown {
		world, _ := s.Viewport.ToWorld(ev.Screen)
		s.Cursor = world
		return s
	}
	if s.Selection.IsEmpty() {
		ref, ok := pick.Pick(ev.Screen, s.Viewport, plan, e.settings.Pick)
		if !ok {
			return s
		}
		s = e.updateSelection(s, pick.NewSelection(ref))
	}
	if s.Tool == ToolRotate {
		return e.startRotate(plan, s, ev.Screen)
	}
	return e.startMove(plan, s, ev.Screen)
}

// manipulate updates the preview on move and commits on release.
func (e *Engine) manipulate(plan *document.Plan, s State, ev Event) State {
	m := *s.Manipulation
	world, _ := s.Viewport.ToWorld(ev.Screen)
	s.Cursor = world

	switch m.Mode {
	case ModeMove:
		res, _ := e.resolve(plan, s, ev.Screen, &m.BasePoint, false, nil, excludeRefs(m.Targets))
		s.Snap = &res
		m.PreviewPoint = res.Point
	case ModeRotate:
		m.PreviewPoint = world
		m.PreviewAngle = geom.AngleOf(m.Center, world)
	case ModeStretch:
		anchor, ok := stretchAnchor(plan, m.Targets[0], m.Vertex)
		var from *geom.Point
		if ok {
			from = &anchor
		}
		res, _ := e.resolve(plan, s, ev.Screen, from, true, nil, excludeRefs(m.Targets))
		s.Snap = &res
		m.PreviewPoint = res.Point
	}

	if ev.Type != EventPointerUp {
		s.Manipulation = &m
		return s
	}
	s.Manipulation = nil
	s.Snap = nil
	e.commitManipulation(plan, &m)
	return s
}

// stretchAnchor returns the neighbouring vertex a stretched point is drawn
// from, used for angle locking.
func stretchAnchor(plan *document.Plan, ref pick.Ref, vertex int) (geom.Point, bool) {
	pts := vertices(plan, ref)
	switch {
	case len(pts) < 2:
		return geom.Point{}, false
	case vertex > 0:
		return pts[vertex-1], true
	default:
		return pts[1], true
	}
}

// PreviewShape is the transformed outline of one entity during a
// manipulation.
type PreviewShape struct {
	Ref    pick.Ref     `json:"ref"`
	Points []geom.Point `json:"points"`
	Closed bool         `json:"closed"`
}

// PreviewGeometry returns the live outlines of every entity affected by the
// active manipulation. The plan is not modified.
func (e *Engine) PreviewGeometry(plan *document.Plan, s State) []PreviewShape {
	m := s.Manipulation
	if m == nil {
		return nil
	}
	next, ok := e.transformed(plan, m)
	if !ok {
		return nil
	}
	var out []PreviewShape
	for _, ref := range affected(next, m.Targets) {
		pts := pick.Points(next, ref)
		if len(pts) == 0 {
			continue
		}
		out = append(out, PreviewShape{Ref: ref, Points: pts, Closed: closedOutline(next, ref)})
	}
	return out
}

func closedOutline(plan *document.Plan, ref pick.Ref) bool {
	switch ref.Kind {
	case document.KindRoom, document.KindHatch, document.KindRoof, document.KindItem:
		return true
	case document.KindPolyline:
		return plan.Shapes[ref.ID].Closed
	}
	return false
}

// affected returns the targets plus the openings hosted by targeted walls.
func affected(plan *document.Plan, targets []pick.Ref) []pick.Ref {
	out := append([]pick.Ref(nil), targets...)
	seen := make(map[pick.Ref]bool, len(targets))
	for _, r := range targets {
		seen[r] = true
	}
	for _, r := range targets {
		if r.Kind != document.KindWall {
			continue
		}
		for _, o := range plan.HostedOpenings(r.ID) {
			ref := pick.Ref{Kind: document.KindOpening, ID: o.ID}
			if !seen[ref] {
				seen[ref] = true
				out = append(out, ref)
			}
		}
	}
	return out
}

// transformed returns a copy of the plan with the manipulation applied. It
// reports false when the result would be degenerate.
func (e *Engine) transformed(plan *document.Plan, m *Manipulation) (*document.Plan, bool) {
	next := plan.Clone()
	if m.Mode == ModeStretch {
		return next, stretch(next, m)
	}

	var f func(geom.Point) geom.Point
	var turn float64
	switch m.Mode {
	case ModeMove:
		delta := m.Delta()
		f = func(p geom.Point) geom.Point { return p.Add(delta) }
	case ModeRotate:
		turn = m.Angle(e.settings.angleIncrement())
		center := m.Center
		f = func(p geom.Point) geom.Point { return p.RotateAbout(center, turn) }
	default:
		return next, false
	}

	walls := make(map[string]bool)
	for _, ref := range m.Targets {
		if ref.Kind == document.KindWall {
			walls[ref.ID] = true
		}
	}
	for _, ref := range m.Targets {
		if !next.Exists(ref.Kind, ref.ID) {
			return next, false
		}
		switch ref.Kind {
		case document.KindWall:
			w := next.Walls[ref.ID]
			w.Start, w.End = f(w.Start), f(w.End)
			next.Walls[ref.ID] = w
		case document.KindOpening:
			o := next.Openings[ref.ID]
			if walls[o.WallID] {
				continue
			}
			w := next.Walls[o.WallID]
			o.Position = document.PositionOnWall(w, f(o.Center(w)), o.Width)
			next.Openings[ref.ID] = o
		case document.KindRoom, document.KindPolyline, document.KindHatch:
			sh := next.Shapes[ref.ID]
			out := make([]geom.Point, len(sh.Points))
			for i, p := range sh.Points {
				out[i] = f(p)
			}
			sh.Points = out
			next.Shapes[ref.ID] = sh
		case document.KindRoof:
			r := next.Roofs[ref.ID]
			c := geom.RectFromPoints(r.Min, r.Max).Center()
			shift := f(c).Sub(c)
			r.Min, r.Max = r.Min.Add(shift), r.Max.Add(shift)
			r.Rotation = geom.NormalizeAngle(r.Rotation + turn)
			next.Roofs[ref.ID] = r
		case document.KindItem:
			it := next.Items[ref.ID]
			it.Position = f(it.Position)
			it.Rotation = geom.NormalizeAngle(it.Rotation + turn)
			next.Items[ref.ID] = it
		}
	}
	return next, true
}

// stretch moves one vertex of a wall or shape. Walls re-project their hosted
// openings for the new length.
func stretch(plan *document.Plan, m *Manipulation) bool {
	ref := m.Targets[0]
	p := m.PreviewPoint
	switch ref.Kind {
	case document.KindWall:
		w, ok := plan.Walls[ref.ID]
		if !ok {
			return false
		}
		start, end := w.Start, w.End
		if m.Vertex == 0 {
			start = p
		} else {
			end = p
		}
		if geom.Distance(start, end) < geom.Epsilon {
			return false
		}
		w, hosted := document.UpdateWallWithElements(w, start, end, plan.HostedOpenings(w.ID))
		plan.Walls[w.ID] = w
		for _, o := range hosted {
			plan.Openings[o.ID] = o
		}
		return true
	case document.KindRoom, document.KindPolyline, document.KindHatch:
		sh, ok := plan.Shapes[ref.ID]
		if !ok || m.Vertex < 0 || m.Vertex >= len(sh.Points) {
			return false
		}
		sh.Points[m.Vertex] = p
		if ref.Kind != document.KindPolyline && geom.Area(sh.Points) < geom.Epsilon {
			return false
		}
		plan.Shapes[ref.ID] = sh
		return true
	}
	return false
}

// unchanged reports whether releasing the manipulation would be a no-op.
func (e *Engine) unchanged(m *Manipulation) bool {
	switch m.Mode {
	case ModeMove, ModeStretch:
		return m.Delta().Length() < geom.Epsilon
	case ModeRotate:
		return math.Abs(m.Angle(e.settings.angleIncrement())) < geom.Epsilon
	}
	return true
}

// commitManipulation reports one update per affected entity inside a single
// batch.
func (e *Engine) commitManipulation(plan *document.Plan, m *Manipulation) {
	if e.unchanged(m) {
		return
	}
	next, ok := e.transformed(plan, m)
	if !ok {
		e.logger.Debug("discarding degenerate manipulation", "mode", m.Mode)
		return
	}
	batch(e.host, string(m.Mode), func() {
		for _, ref := range m.Targets {
			switch ref.Kind {
			case document.KindWall:
				e.host.UpdateWall(next.Walls[ref.ID])
				if m.Mode != ModeStretch {
					continue
				}
				for _, o := range next.HostedOpenings(ref.ID) {
					if o != plan.Openings[o.ID] {
						e.host.UpdateHostedElement(o)
					}
				}
			case document.KindOpening:
				if o := next.Openings[ref.ID]; o != plan.Openings[ref.ID] {
					e.host.UpdateHostedElement(o)
				}
			case document.KindRoom, document.KindPolyline, document.KindHatch:
				e.host.UpdateShapePoints(ref.ID, next.Shapes[ref.ID].Points)
			case document.KindRoof:
				e.host.UpdateRoof(next.Roofs[ref.ID])
			case document.KindItem:
				e.host.UpdateItem(next.Items[ref.ID])
			}
		}
	})
}
