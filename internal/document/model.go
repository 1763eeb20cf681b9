package document

import (
	"maps"
	"slices"

	"github.com/inamate/drafting/internal/geom"
)

// Plan is the floor-plan document. The engine reads it; only the host mutates it.
type Plan struct {
	Project    Project            `json:"project"`
	Layers     map[string]Layer   `json:"layers"`
	LayerOrder []string           `json:"layerOrder"`
	Walls      map[string]Wall    `json:"walls"`
	Openings   map[string]Opening `json:"openings"`
	Shapes     map[string]Shape   `json:"shapes"`
	Roofs      map[string]Roof    `json:"roofs"`
	Items      map[string]Item    `json:"items"`
	// Order is the draw order of every entity id, back to front.
	Order []string `json:"order"`
}

type Project struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Version     int     `json:"version"`
	Unit        string  `json:"unit"`
	GridSpacing float64 `json:"gridSpacing"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
}

// EntityKind tags every selectable entity.
type EntityKind string

const (
	KindWall     EntityKind = "wall"
	KindOpening  EntityKind = "opening"
	KindRoom     EntityKind = "room"
	KindPolyline EntityKind = "polyline"
	KindHatch    EntityKind = "hatch"
	KindRoof     EntityKind = "roof"
	KindItem     EntityKind = "item"
)

// AllKinds lists entity kinds in default draw order, back to front.
var AllKinds = []EntityKind{KindHatch, KindRoom, KindRoof, KindPolyline, KindWall, KindOpening, KindItem}

// IsShape reports whether the kind is a multi-point shape.
func (k EntityKind) IsShape() bool {
	return k == KindRoom || k == KindPolyline || k == KindHatch
}

// MinPoints returns the minimum vertex count a shape kind needs to be valid.
func MinPoints(k EntityKind) int {
	switch k {
	case KindRoom, KindHatch:
		return 3
	case KindPolyline:
		return 2
	default:
		return 0
	}
}

type Wall struct {
	ID        string     `json:"id"`
	Layer     string     `json:"layer,omitempty"`
	Start     geom.Point `json:"start"`
	End       geom.Point `json:"end"`
	Type      string     `json:"type"`
	Thickness float64    `json:"thickness"`
	Height    float64    `json:"height"`
}

// Segment returns the wall center line.
func (w Wall) Segment() geom.Segment {
	return geom.Seg(w.Start, w.End)
}

// Length returns the center line length.
func (w Wall) Length() float64 {
	return geom.Distance(w.Start, w.End)
}

type OpeningKind string

const (
	OpeningDoor   OpeningKind = "door"
	OpeningWindow OpeningKind = "window"
)

// Opening is a wall-hosted door or window. Position is normalized along the
// host wall from Start (0) to End (1) and locates the opening's center.
type Opening struct {
	ID         string      `json:"id"`
	Kind       OpeningKind `json:"kind"`
	WallID     string      `json:"wallId"`
	Position   float64     `json:"position"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	SillHeight float64     `json:"sillHeight,omitempty"`
	Swing      string      `json:"swing,omitempty"`
}

// Footprint returns the opening's extent along its host wall.
func (o Opening) Footprint(w Wall) geom.Segment {
	length := w.Length()
	if length < geom.Epsilon {
		return geom.Seg(w.Start, w.Start)
	}
	half := o.Width / 2 / length
	seg := w.Segment()
	return geom.Seg(seg.At(o.Position-half), seg.At(o.Position+half))
}

// Center returns the world position of the opening's center.
func (o Opening) Center(w Wall) geom.Point {
	return w.Segment().At(o.Position)
}

type Style struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Pattern     string  `json:"pattern,omitempty"`
}

// Shape is a room, polyline or hatch defined by a point list.
type Shape struct {
	ID     string       `json:"id"`
	Kind   EntityKind   `json:"kind"`
	Layer  string       `json:"layer,omitempty"`
	Points []geom.Point `json:"points"`
	Closed bool         `json:"closed"`
	Name   string       `json:"name,omitempty"`
	Style  Style        `json:"style"`
}

// IsClosed reports whether the shape has polygon semantics.
func (s Shape) IsClosed() bool {
	return s.Kind == KindRoom || s.Kind == KindHatch || s.Closed
}

// Roof is a bounding-rectangle roof with an optional rotation in radians
// about its center.
type Roof struct {
	ID       string     `json:"id"`
	Layer    string     `json:"layer,omitempty"`
	Min      geom.Point `json:"min"`
	Max      geom.Point `json:"max"`
	Rotation float64    `json:"rotation"`
	Pitch    float64    `json:"pitch"`
	Overhang float64    `json:"overhang"`
}

// Outline returns the four roof corners in world space.
func (r Roof) Outline() []geom.Point {
	rect := geom.RectFromPoints(r.Min, r.Max)
	return geom.RotatePoints(rect.Corners(), rect.Center(), r.Rotation)
}

type ItemKind string

const (
	ItemFurniture ItemKind = "furniture"
	ItemText      ItemKind = "text"
)

// Item is a furniture block or text label anchored at its center.
type Item struct {
	ID       string     `json:"id"`
	Kind     ItemKind   `json:"kind"`
	Layer    string     `json:"layer,omitempty"`
	Position geom.Point `json:"position"`
	Width    float64    `json:"width"`
	Depth    float64    `json:"depth"`
	Rotation float64    `json:"rotation"`
	Label    string     `json:"label,omitempty"`
}

// Outline returns the rotated bounding box corners.
func (it Item) Outline() []geom.Point {
	rect := geom.Rect{X: it.Position.X - it.Width/2, Y: it.Position.Y - it.Depth/2, Width: it.Width, Height: it.Depth}
	return geom.RotatePoints(rect.Corners(), it.Position, it.Rotation)
}

// NewEmptyPlan creates an empty plan with a single default layer.
func NewEmptyPlan(projectID, name, layerID string) *Plan {
	return &Plan{
		Project: Project{
			ID:          projectID,
			Name:        name,
			Version:     1,
			Unit:        "in",
			GridSpacing: 12,
		},
		Layers: map[string]Layer{
			layerID: {ID: layerID, Name: "Default", Visible: true},
		},
		LayerOrder: []string{layerID},
		Walls:      map[string]Wall{},
		Openings:   map[string]Opening{},
		Shapes:     map[string]Shape{},
		Roofs:      map[string]Roof{},
		Items:      map[string]Item{},
		Order:      []string{},
	}
}

// LayerState reports whether entities on the layer can be seen and edited.
// Unknown or empty layer ids are visible and unlocked.
func (p *Plan) LayerState(layerID string) (visible, locked bool) {
	if layerID == "" {
		return true, false
	}
	l, ok := p.Layers[layerID]
	if !ok {
		return true, false
	}
	return l.Visible, l.Locked
}

// Interactive reports whether an entity on the layer can be picked or snapped to.
func (p *Plan) Interactive(layerID string) bool {
	visible, locked := p.LayerState(layerID)
	return visible && !locked
}

// Visible reports whether entities on the layer are drawn.
func (p *Plan) Visible(layerID string) bool {
	visible, _ := p.LayerState(layerID)
	return visible
}

// Exists reports whether an entity of the given kind and id is present.
func (p *Plan) Exists(kind EntityKind, id string) bool {
	switch kind {
	case KindWall:
		_, ok := p.Walls[id]
		return ok
	case KindOpening:
		o, ok := p.Openings[id]
		if !ok {
			return false
		}
		_, ok = p.Walls[o.WallID]
		return ok
	case KindRoom, KindPolyline, KindHatch:
		s, ok := p.Shapes[id]
		return ok && s.Kind == kind
	case KindRoof:
		_, ok := p.Roofs[id]
		return ok
	case KindItem:
		_, ok := p.Items[id]
		return ok
	}
	return false
}

// EntityLayer returns the layer of an entity. Openings inherit their wall's layer.
func (p *Plan) EntityLayer(kind EntityKind, id string) string {
	switch kind {
	case KindWall:
		return p.Walls[id].Layer
	case KindOpening:
		return p.Walls[p.Openings[id].WallID].Layer
	case KindRoom, KindPolyline, KindHatch:
		return p.Shapes[id].Layer
	case KindRoof:
		return p.Roofs[id].Layer
	case KindItem:
		return p.Items[id].Layer
	}
	return ""
}

// DrawIndex returns the position of id in the draw order, or -1.
func (p *Plan) DrawIndex(id string) int {
	return slices.Index(p.Order, id)
}

// SortedIDs returns the ids of m in draw order; ids missing from Order are
// placed first, sorted lexically.
func SortedIDs[V any](p *Plan, m map[string]V) []string {
	ids := slices.Collect(maps.Keys(m))
	index := make(map[string]int, len(p.Order))
	for i, id := range p.Order {
		index[id] = i
	}
	slices.SortFunc(ids, func(a, b string) int {
		ia, oka := index[a]
		ib, okb := index[b]
		switch {
		case oka && okb:
			return ia - ib
		case oka:
			return 1
		case okb:
			return -1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return ids
}

// HostedOpenings returns the openings hosted by wallID in draw order.
func (p *Plan) HostedOpenings(wallID string) []Opening {
	var out []Opening
	for _, id := range SortedIDs(p, p.Openings) {
		if o := p.Openings[id]; o.WallID == wallID {
			out = append(out, o)
		}
	}
	return out
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	c := *p
	c.Layers = maps.Clone(p.Layers)
	c.LayerOrder = slices.Clone(p.LayerOrder)
	c.Walls = maps.Clone(p.Walls)
	c.Openings = maps.Clone(p.Openings)
	c.Roofs = maps.Clone(p.Roofs)
	c.Items = maps.Clone(p.Items)
	c.Order = slices.Clone(p.Order)
	c.Shapes = make(map[string]Shape, len(p.Shapes))
	for id, s := range p.Shapes {
		s.Points = slices.Clone(s.Points)
		c.Shapes[id] = s
	}
	return &c
}
