package snap

import (
	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
)

// Scene is the snappable geometry: segments contribute endpoints, midpoints,
// perpendicular feet and nearest points; loose vertices contribute endpoints.
type Scene struct {
	Segments []geom.Segment
	Vertices []geom.Point
}

// ExcludeFunc reports entities that must not be snapped to, typically the
// ones being drawn or dragged.
type ExcludeFunc func(kind document.EntityKind, id string) bool

// SceneFromPlan gathers snappable geometry from every visible entity of the
// plan. Walls, shape edges and roof outlines become segments; item centers
// become vertices.
func SceneFromPlan(plan *document.Plan, exclude ExcludeFunc) Scene {
	var scene Scene
	if plan == nil {
		return scene
	}
	skip := func(kind document.EntityKind, id, layer string) bool {
		if !plan.Visible(layer) {
			return true
		}
		return exclude != nil && exclude(kind, id)
	}

	for _, id := range document.SortedIDs(plan, plan.Walls) {
		w := plan.Walls[id]
		if skip(document.KindWall, id, w.Layer) || w.Segment().IsDegenerate() {
			continue
		}
		scene.Segments = append(scene.Segments, w.Segment())
	}
	for _, id := range document.SortedIDs(plan, plan.Shapes) {
		s := plan.Shapes[id]
		if skip(s.Kind, id, s.Layer) {
			continue
		}
		if len(s.Points) == 1 {
			scene.Vertices = append(scene.Vertices, s.Points[0])
		}
		for _, e := range geom.Edges(s.Points, s.IsClosed()) {
			if !e.IsDegenerate() {
				scene.Segments = append(scene.Segments, e)
			}
		}
	}
	for _, id := range document.SortedIDs(plan, plan.Roofs) {
		r := plan.Roofs[id]
		if skip(document.KindRoof, id, r.Layer) {
			continue
		}
		scene.Segments = append(scene.Segments, geom.Edges(r.Outline(), true)...)
	}
	for _, id := range document.SortedIDs(plan, plan.Items) {
		it := plan.Items[id]
		if skip(document.KindItem, id, it.Layer) {
			continue
		}
		scene.Vertices = append(scene.Vertices, it.Position)
	}
	return scene
}

// WithPoints returns a copy of the scene extended with the given vertices and
// the edges between them. Used to snap to a session's own committed points.
func (s Scene) WithPoints(points []geom.Point) Scene {
	out := Scene{
		Segments: append([]geom.Segment(nil), s.Segments...),
		Vertices: append(append([]geom.Point(nil), s.Vertices...), points...),
	}
	for _, e := range geom.Edges(points, false) {
		if !e.IsDegenerate() {
			out.Segments = append(out.Segments, e)
		}
	}
	return out
}
