// Package pick resolves which plan entity lies under a point, or inside a
// marquee rectangle, respecting layer visibility and locks.
package pick

import (
	"slices"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/viewport"
)

type Options struct {
	// TolerancePx widens thin geometry (walls, polylines) in screen pixels.
	TolerancePx float64
	// Order is the z-order of entity kinds, back to front. Later kinds win
	// when entities overlap.
	Order []document.EntityKind
}

// DefaultOptions returns a 4px tolerance and the default draw order.
func DefaultOptions() Options {
	return Options{TolerancePx: 4, Order: document.AllKinds}
}

// Pick returns the topmost interactive entity under the screen point.
func Pick(screen geom.Point, vp viewport.Viewport, plan *document.Plan, opts Options) (Ref, bool) {
	world, ok := vp.ToWorld(screen)
	if !ok || plan == nil {
		return Ref{}, false
	}
	return PickWorld(world, vp.PixelsToWorld(opts.TolerancePx), plan, opts)
}

// PickWorld is Pick in world space with the tolerance already converted.
func PickWorld(world geom.Point, tolWorld float64, plan *document.Plan, opts Options) (Ref, bool) {
	order := opts.Order
	if len(order) == 0 {
		order = document.AllKinds
	}
	for i := len(order) - 1; i >= 0; i-- {
		kind := order[i]
		ids := idsOfKind(plan, kind)
		for j := len(ids) - 1; j >= 0; j-- {
			ref := Ref{Kind: kind, ID: ids[j]}
			if !plan.Interactive(plan.EntityLayer(kind, ref.ID)) {
				continue
			}
			if Hit(plan, ref, world, tolWorld) {
				return ref, true
			}
		}
	}
	return Ref{}, false
}

// Hit runs the geometric test for one entity.
func Hit(plan *document.Plan, ref Ref, p geom.Point, tolWorld float64) bool {
	switch ref.Kind {
	case document.KindWall:
		w, ok := plan.Walls[ref.ID]
		if !ok {
			return false
		}
		return geom.DistanceToSegment(p, w.Start, w.End) <= w.Thickness/2+tolWorld
	case document.KindOpening:
		o, ok := plan.Openings[ref.ID]
		if !ok {
			return false
		}
		w, ok := plan.Walls[o.WallID]
		if !ok {
			return false
		}
		fp := o.Footprint(w)
		return geom.DistanceToSegment(p, fp.A, fp.B) <= w.Thickness/2+tolWorld
	case document.KindRoom, document.KindHatch:
		s, ok := plan.Shapes[ref.ID]
		if !ok {
			return false
		}
		return geom.PointInPolygon(p, s.Points)
	case document.KindPolyline:
		s, ok := plan.Shapes[ref.ID]
		if !ok {
			return false
		}
		if s.Closed && geom.PointInPolygon(p, s.Points) {
			return true
		}
		return geom.DistanceToPolyline(p, s.Points, s.Closed) <= tolWorld
	case document.KindRoof:
		r, ok := plan.Roofs[ref.ID]
		if !ok {
			return false
		}
		return geom.PointInPolygon(p, r.Outline())
	case document.KindItem:
		it, ok := plan.Items[ref.ID]
		if !ok {
			return false
		}
		outline := it.Outline()
		return geom.PointInPolygon(p, outline) || geom.DistanceToPolyline(p, outline, true) <= tolWorld
	}
	return false
}

// Marquee returns every interactive entity whose geometry touches the world
// rectangle, in z-order.
func Marquee(rect geom.Rect, plan *document.Plan, opts Options) []Ref {
	if plan == nil {
		return nil
	}
	order := opts.Order
	if len(order) == 0 {
		order = document.AllKinds
	}
	var refs []Ref
	for _, kind := range order {
		for _, id := range idsOfKind(plan, kind) {
			ref := Ref{Kind: kind, ID: id}
			if !plan.Interactive(plan.EntityLayer(kind, id)) {
				continue
			}
			if intersectsRect(plan, ref, rect) {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

func intersectsRect(plan *document.Plan, ref Ref, rect geom.Rect) bool {
	switch ref.Kind {
	case document.KindWall:
		w := plan.Walls[ref.ID]
		return geom.SegmentIntersectsRect(w.Start, w.End, rect)
	case document.KindOpening:
		o := plan.Openings[ref.ID]
		fp := o.Footprint(plan.Walls[o.WallID])
		return geom.SegmentIntersectsRect(fp.A, fp.B, rect)
	case document.KindRoom, document.KindHatch, document.KindPolyline:
		s := plan.Shapes[ref.ID]
		return geom.PolygonIntersectsRect(s.Points, s.IsClosed(), rect)
	case document.KindRoof:
		return geom.PolygonIntersectsRect(plan.Roofs[ref.ID].Outline(), true, rect)
	case document.KindItem:
		return geom.PolygonIntersectsRect(plan.Items[ref.ID].Outline(), true, rect)
	}
	return false
}

// IsDrag reports whether the pointer travelled further than thresholdPx
// between two screen points.
func IsDrag(down, up geom.Point, thresholdPx float64) bool {
	return geom.Distance(down, up) > thresholdPx
}

// Points returns the defining points of an entity: wall endpoints, shape
// vertices, roof and item outlines, or an opening's footprint.
func Points(plan *document.Plan, ref Ref) []geom.Point {
	switch ref.Kind {
	case document.KindWall:
		w, ok := plan.Walls[ref.ID]
		if !ok {
			return nil
		}
		return []geom.Point{w.Start, w.End}
	case document.KindOpening:
		o, ok := plan.Openings[ref.ID]
		if !ok {
			return nil
		}
		w, ok := plan.Walls[o.WallID]
		if !ok {
			return nil
		}
		fp := o.Footprint(w)
		return []geom.Point{fp.A, fp.B}
	case document.KindRoom, document.KindPolyline, document.KindHatch:
		s, ok := plan.Shapes[ref.ID]
		if !ok || s.Kind != ref.Kind {
			return nil
		}
		return slices.Clone(s.Points)
	case document.KindRoof:
		r, ok := plan.Roofs[ref.ID]
		if !ok {
			return nil
		}
		return r.Outline()
	case document.KindItem:
		it, ok := plan.Items[ref.ID]
		if !ok {
			return nil
		}
		return it.Outline()
	}
	return nil
}

// Bounds returns the world bounding box of the given refs.
func Bounds(plan *document.Plan, refs []Ref) (geom.Rect, bool) {
	var pts []geom.Point
	for _, r := range refs {
		pts = append(pts, Points(plan, r)...)
	}
	if len(pts) == 0 {
		return geom.Rect{}, false
	}
	return geom.BoundingBox(pts), true
}

func idsOfKind(plan *document.Plan, kind document.EntityKind) []string {
	switch kind {
	case document.KindWall:
		return document.SortedIDs(plan, plan.Walls)
	case document.KindOpening:
		return document.SortedIDs(plan, plan.Openings)
	case document.KindRoom, document.KindPolyline, document.KindHatch:
		var out []string
		for _, id := range document.SortedIDs(plan, plan.Shapes) {
			if plan.Shapes[id].Kind == kind {
				out = append(out, id)
			}
		}
		return out
	case document.KindRoof:
		return document.SortedIDs(plan, plan.Roofs)
	case document.KindItem:
		return document.SortedIDs(plan, plan.Items)
	}
	return nil
}
