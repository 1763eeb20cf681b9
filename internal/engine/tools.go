package engine

import (
	"slices"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/pick"
)

func (e *Engine) pan(s State, ev Event) State {
	switch ev.Type {
	case EventPointerDown:
		s.Pan = &PanDrag{Start: ev.Screen, Offset: s.Viewport.Offset}
	case EventPointerMove:
		if s.Pan != nil {
			s.Viewport.Offset = s.Pan.Offset.Add(ev.Screen.Sub(s.Pan.Start))
		}
	case EventPointerUp:
		if s.Pan != nil {
			s.Viewport.Offset = s.Pan.Offset.Add(ev.Screen.Sub(s.Pan.Start))
		}
		s.Pan = nil
	}
	return s
}

// selectTool picks on click, marquee-selects on drag and starts a
// manipulation when a grip of the current selection is pressed.
func (e *Engine) selectTool(plan *document.Plan, s State, ev Event) State {
	world, _ := s.Viewport.ToWorld(ev.Screen)
	s.Cursor = world

	switch ev.Type {
	case EventPointerDown:
		if g, ok := e.gripAt(plan, s, ev.Screen); ok {
			return e.startGrip(plan, s, g, ev.Screen)
		}
		s.Press = &Press{Screen: ev.Screen, World: world, Current: ev.Screen, Additive: ev.Modifiers.additive()}

	case EventPointerMove:
		if p := s.Press; p != nil {
			next := *p
			next.Current = ev.Screen
			next.Dragging = p.Dragging || pick.IsDrag(p.Screen, ev.Screen, e.settings.DragThresholdPx)
			s.Press = &next
			return s
		}
		s.Hover = nil
		if ref, ok := pick.Pick(ev.Screen, s.Viewport, plan, e.settings.Pick); ok {
			s.Hover = &ref
		}

	case EventPointerUp:
		p := s.Press
		if p == nil {
			return s
		}
		s.Press = nil
		if p.Dragging || pick.IsDrag(p.Screen, ev.Screen, e.settings.DragThresholdPx) {
			final := *p
			final.Current = ev.Screen
			refs := pick.Marquee(final.Rect(s.Viewport), plan, e.settings.Pick)
			next := pick.NewSelection(refs...)
			if p.Additive {
				next = s.Selection.Union(next)
			}
			return e.updateSelection(s, next)
		}
		ref, hit := pick.Pick(p.Screen, s.Viewport, plan, e.settings.Pick)
		switch {
		case hit && p.Additive:
			return e.updateSelection(s, s.Selection.Toggle(ref))
		case hit:
			return e.updateSelection(s, pick.NewSelection(ref))
		case !p.Additive:
			return e.updateSelection(s, pick.Selection{})
		}
	}
	return s
}

func (e *Engine) updateSelection(s State, next pick.Selection) State {
	if next.Equal(s.Selection) {
		return s
	}
	s.Selection = next
	e.host.SetSelection(next)
	return s
}

// dragTool handles draw-wall and draw-roof: down anchors, move previews and
// up commits when the result is not degenerate.
func (e *Engine) dragTool(plan *document.Plan, s State, ev Event) State {
	constrain := s.Tool == ToolDrawWall
	if s.Session == nil || s.Session.Tool != s.Tool {
		s.Session = nil
		res, _ := e.resolve(plan, s, ev.Screen, nil, false, nil, nil)
		s.Snap = &res
		s.Cursor = res.Point
		if ev.Type == EventPointerDown {
			s.Session = &Session{Tool: s.Tool, Points: []geom.Point{res.Point}}
		}
		return s
	}

	anchor := s.Session.Points[0]
	res, _ := e.resolve(plan, s, ev.Screen, &anchor, constrain, nil, nil)
	s.Snap = &res
	s.Cursor = res.Point

	switch ev.Type {
	case EventPointerMove, EventPointerDown:
		s.Session = s.Session.withPreview(res.Point)
	case EventPointerUp:
		s.Session = nil
		s.Snap = nil
		if s.Tool == ToolDrawWall {
			e.commitWall(plan, anchor, res.Point)
		} else {
			e.commitRoof(plan, anchor, res.Point)
		}
	}
	return s
}

func (e *Engine) commitWall(plan *document.Plan, start, end geom.Point) {
	if geom.Distance(start, end) < geom.Epsilon {
		e.logger.Debug("discarding zero-length wall", "at", start)
		return
	}
	if !e.layerWritable(plan) {
		return
	}
	d := e.settings.Wall
	e.host.CreateWall(document.Wall{
		ID:        e.newID(document.KindWall),
		Layer:     e.settings.Layer,
		Start:     start,
		End:       end,
		Type:      d.Type,
		Thickness: d.Thickness,
		Height:    d.Height,
	})
}

func (e *Engine) commitRoof(plan *document.Plan, a, b geom.Point) {
	r := geom.RectFromPoints(a, b)
	if r.Width < geom.Epsilon || r.Height < geom.Epsilon {
		e.logger.Debug("discarding zero-area roof", "from", a, "to", b)
		return
	}
	if !e.layerWritable(plan) {
		return
	}
	e.host.CreateRoof(document.Roof{
		ID:       e.newID(document.KindRoof),
		Layer:    e.settings.Layer,
		Min:      geom.Pt(r.X, r.Y),
		Max:      geom.Pt(r.X+r.Width, r.Y+r.Height),
		Pitch:    e.settings.Roof.Pitch,
		Overhang: e.settings.Roof.Overhang,
	})
}

// multiPointTool accumulates points for rooms, polylines and hatches.
func (e *Engine) multiPointTool(plan *document.Plan, s State, ev Event) State {
	if s.Session != nil && s.Session.Tool != s.Tool {
		s.Session = nil
	}
	if ev.Type == EventDoubleClick {
		return e.finish(plan, s)
	}

	var from *geom.Point
	var points []geom.Point
	if last, ok := s.Session.Last(); ok {
		from = &last
		points = s.Session.Points
	}
	res, _ := e.resolve(plan, s, ev.Screen, from, true, points, nil)
	s.Snap = &res
	s.Cursor = res.Point

	switch ev.Type {
	case EventPointerMove:
		if s.Session != nil {
			s.Session = s.Session.withPreview(res.Point)
		}
	case EventPointerDown:
		if s.Session == nil {
			s.Session = &Session{Tool: s.Tool, Points: []geom.Point{res.Point}}
			return s
		}
		if e.closesSession(s, ev.Screen, res.Point) {
			return e.commitShape(plan, s, true)
		}
		last, _ := s.Session.Last()
		if screenDistance(s, last, res.Point) < e.settings.DragThresholdPx {
			return s
		}
		s.Session = s.Session.withPoint(res.Point)
	}
	return s
}

// closesSession reports whether a click lands on the session's first vertex
// with enough points to form a closed shape.
func (e *Engine) closesSession(s State, screen, p geom.Point) bool {
	pts := s.Session.Points
	if len(pts) < 3 {
		return false
	}
	first := pts[0]
	if p.Equal(first) {
		return true
	}
	world, ok := s.Viewport.ToWorld(screen)
	return ok && screenDistance(s, world, first) < e.settings.Snap.ThresholdPx
}

// finish commits the active multi-point session. Other sessions are
// unaffected.
func (e *Engine) finish(plan *document.Plan, s State) State {
	if s.Session == nil {
		return s
	}
	if _, ok := s.Session.Tool.shapeKind(); !ok {
		return s
	}
	return e.commitShape(plan, s, false)
}

func (e *Engine) commitShape(plan *document.Plan, s State, closed bool) State {
	sess := s.Session
	s.Session = nil
	s.Snap = nil

	kind, _ := sess.Tool.shapeKind()
	points := slices.Clone(sess.Points)
	if len(points) < document.MinPoints(kind) {
		e.logger.Debug("discarding shape with too few points", "kind", kind, "points", len(points))
		return s
	}
	if kind != document.KindPolyline && geom.Area(points) < geom.Epsilon {
		e.logger.Debug("discarding zero-area shape", "kind", kind)
		return s
	}
	if !e.layerWritable(plan) {
		return s
	}
	e.host.CreateShape(document.Shape{
		ID:     e.newID(kind),
		Kind:   kind,
		Layer:  e.settings.Layer,
		Points: points,
		Closed: closed || kind != document.KindPolyline,
	})
	return s
}

// placeOpening creates a door or window on the wall under the cursor. A click
// that misses every wall, or hits one shorter than the opening, does nothing.
func (e *Engine) placeOpening(plan *document.Plan, s State, ev Event) State {
	world, _ := s.Viewport.ToWorld(ev.Screen)
	s.Cursor = world
	s.Hover = nil

	w, ok := e.hostWall(plan, s, world)
	if !ok {
		return s
	}
	ref := pick.Ref{Kind: document.KindWall, ID: w.ID}
	s.Hover = &ref
	if ev.Type != EventPointerDown {
		return s
	}

	kind := document.OpeningDoor
	d := e.settings.Door
	if s.Tool == ToolPlaceWindow {
		kind = document.OpeningWindow
		d = e.settings.Window
	}
	if d.Width > w.Length() {
		e.logger.Debug("wall too short for opening", "wall", w.ID, "width", d.Width)
		return s
	}
	e.host.CreateHostedElement(document.Opening{
		ID:         e.newID(document.KindOpening),
		Kind:       kind,
		WallID:     w.ID,
		Position:   document.PositionOnWall(w, world, d.Width),
		Width:      d.Width,
		Height:     d.Height,
		SillHeight: d.SillHeight,
		Swing:      d.Swing,
	})
	return s
}

// hostWall returns the topmost interactive wall within pick or snap
// distance of world.
func (e *Engine) hostWall(plan *document.Plan, s State, world geom.Point) (document.Wall, bool) {
	opts := e.settings.Pick
	opts.Order = []document.EntityKind{document.KindWall}
	tolPx := max(opts.TolerancePx, e.settings.Snap.ThresholdPx)
	ref, ok := pick.PickWorld(world, s.Viewport.PixelsToWorld(tolPx), plan, opts)
	if !ok {
		return document.Wall{}, false
	}
	w := plan.Walls[ref.ID]
	if w.Segment().IsDegenerate() {
		return document.Wall{}, false
	}
	return w, true
}

func (e *Engine) placeItem(plan *document.Plan, s State, ev Event) State {
	res, _ := e.resolve(plan, s, ev.Screen, nil, false, nil, nil)
	s.Snap = &res
	s.Cursor = res.Point
	if ev.Type != EventPointerDown || !e.layerWritable(plan) {
		return s
	}
	d := e.settings.Item
	e.host.CreateItem(document.Item{
		ID:       e.newID(document.KindItem),
		Kind:     d.Kind,
		Layer:    e.settings.Layer,
		Position: res.Point,
		Width:    d.Width,
		Depth:    d.Depth,
		Label:    d.Label,
	})
	return s
}

// layerWritable reports whether new entities may go on the active layer.
func (e *Engine) layerWritable(plan *document.Plan) bool {
	if plan.Interactive(e.settings.Layer) {
		return true
	}
	e.logger.Debug("active layer is hidden or locked", "layer", e.settings.Layer)
	return false
}
