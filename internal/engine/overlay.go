package engine

import (
	"encoding/json"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/snap"
)

// DrawCommand is one overlay drawing operation for the host canvas. Paths
// are in world units; Transform maps them to screen pixels.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "path"
	Role        string        `json:"role"`                  // "session", "preview", "marquee", "guide", "snap", "grip"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width in world units
	Dash        []float64     `json:"dash,omitempty"`        // Line dash in world units
}

// PathCommand is a single path segment in Canvas2D form: ["M", x, y],
// ["L", x, y] or ["Z"].
type PathCommand []interface{}

const (
	colorSession = "#1f6feb"
	colorPreview = "#8250df"
	colorGuide   = "#d29922"
	colorSnap    = "#e5534b"
	colorGrip    = "#ffffff"
)

// Overlay compiles the transient state into draw commands in painter's
// order: previews, marquee, guideline, snap marker and grips.
func (e *Engine) Overlay(plan *document.Plan, s State) []DrawCommand {
	if plan == nil || !s.Viewport.Valid() {
		return nil
	}
	xf := s.Viewport.Matrix().ToSlice()
	px := s.Viewport.PixelsToWorld(1)
	var commands []DrawCommand
	add := func(cmd DrawCommand) {
		cmd.Op = "path"
		cmd.Transform = xf
		commands = append(commands, cmd)
	}

	if sess := s.Session; sess != nil {
		pts := sess.Points
		if sess.Preview != nil {
			pts = append(append([]geom.Point(nil), pts...), *sess.Preview)
		}
		if sess.Tool == ToolDrawRoof && len(pts) == 2 {
			pts = geom.RectFromPoints(pts[0], pts[1]).Corners()
			add(DrawCommand{Role: "session", Path: pathFromPoints(pts, true), Stroke: colorSession, StrokeWidth: px})
		} else if len(pts) > 1 {
			kind, _ := sess.Tool.shapeKind()
			closed := kind == document.KindRoom || kind == document.KindHatch
			add(DrawCommand{Role: "session", Path: pathFromPoints(pts, closed && len(pts) > 2), Stroke: colorSession, StrokeWidth: px})
		}
	}

	for _, p := range e.PreviewGeometry(plan, s) {
		add(DrawCommand{
			Role:        "preview",
			ObjectID:    p.Ref.ID,
			Path:        pathFromPoints(p.Points, p.Closed),
			Stroke:      colorPreview,
			StrokeWidth: px,
			Dash:        []float64{4 * px, 4 * px},
		})
	}

	if p := s.Press; p != nil && p.Dragging {
		add(DrawCommand{
			Role:        "marquee",
			Path:        pathFromPoints(p.Rect(s.Viewport).Corners(), true),
			Fill:        "rgba(31,111,235,0.08)",
			Stroke:      colorSession,
			StrokeWidth: px,
		})
	}

	if res := s.Snap; res != nil {
		if g := res.Guideline; g != nil {
			add(DrawCommand{
				Role:        "guide",
				Path:        pathFromPoints([]geom.Point{g.From, g.To}, false),
				Stroke:      colorGuide,
				StrokeWidth: px,
				Dash:        []float64{6 * px, 4 * px},
			})
		}
		if res.Snapped {
			add(DrawCommand{Role: "snap", Path: snapMarker(res, 5*px), Stroke: colorSnap, StrokeWidth: 1.5 * px})
		}
	}

	if s.Manipulation == nil {
		r := e.settings.GripRadiusPx * px
		for _, g := range e.Grips(plan, s) {
			sq := geom.Rect{X: g.Point.X - r/2, Y: g.Point.Y - r/2, Width: r, Height: r}
			add(DrawCommand{Role: "grip", Path: pathFromPoints(sq.Corners(), true), Fill: colorGrip, Stroke: colorSession, StrokeWidth: px})
		}
	}
	return commands
}

// snapMarker draws the conventional CAD glyph for the snap kind: a square
// for endpoints, a triangle for midpoints and a cross otherwise.
func snapMarker(res *snap.Result, size float64) []PathCommand {
	c := res.Point
	switch res.Kind {
	case snap.Endpoint:
		sq := geom.Rect{X: c.X - size, Y: c.Y - size, Width: 2 * size, Height: 2 * size}
		return pathFromPoints(sq.Corners(), true)
	case snap.Midpoint:
		return pathFromPoints([]geom.Point{
			geom.Pt(c.X, c.Y-size),
			geom.Pt(c.X+size, c.Y+size),
			geom.Pt(c.X-size, c.Y+size),
		}, true)
	}
	return []PathCommand{
		{"M", c.X - size, c.Y - size}, {"L", c.X + size, c.Y + size},
		{"M", c.X + size, c.Y - size}, {"L", c.X - size, c.Y + size},
	}
}

func pathFromPoints(points []geom.Point, closed bool) []PathCommand {
	if len(points) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(points)+1)
	path = append(path, PathCommand{"M", points[0].X, points[0].Y})
	for _, p := range points[1:] {
		path = append(path, PathCommand{"L", p.X, p.Y})
	}
	if closed {
		path = append(path, PathCommand{"Z"})
	}
	return path
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
