package engine

import (
	"fmt"
	"slices"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/pick"
	"github.com/inamate/drafting/internal/snap"
	"github.com/inamate/drafting/internal/viewport"
)

// Tool is the active interaction mode.
type Tool string

const (
	ToolSelect       Tool = "select"
	ToolPan          Tool = "pan"
	ToolDrawWall     Tool = "draw-wall"
	ToolPlaceDoor    Tool = "place-door"
	ToolPlaceWindow  Tool = "place-window"
	ToolPlaceItem    Tool = "place-item"
	ToolDrawRoom     Tool = "draw-room"
	ToolDrawPolyline Tool = "draw-polyline"
	ToolDrawHatch    Tool = "draw-hatch"
	ToolDrawRoof     Tool = "draw-roof"
	ToolMove         Tool = "move"
	ToolRotate       Tool = "rotate"
)

var tools = []Tool{
	ToolSelect, ToolPan, ToolDrawWall, ToolPlaceDoor, ToolPlaceWindow, ToolPlaceItem,
	ToolDrawRoom, ToolDrawPolyline, ToolDrawHatch, ToolDrawRoof, ToolMove, ToolRotate,
}

// ParseTool validates a tool name.
func ParseTool(name string) (Tool, error) {
	t := Tool(name)
	if !slices.Contains(tools, t) {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return t, nil
}

// shapeKind returns the entity kind a multi-point tool creates.
func (t Tool) shapeKind() (document.EntityKind, bool) {
	switch t {
	case ToolDrawRoom:
		return document.KindRoom, true
	case ToolDrawPolyline:
		return document.KindPolyline, true
	case ToolDrawHatch:
		return document.KindHatch, true
	}
	return "", false
}

// Session is the in-progress drawing of the active tool. Points holds the
// committed (post-snap) points; Preview is the rubber-band cursor position.
type Session struct {
	Tool    Tool         `json:"tool"`
	Points  []geom.Point `json:"points"`
	Preview *geom.Point  `json:"preview,omitempty"`
}

// Last returns the most recently committed point.
func (s *Session) Last() (geom.Point, bool) {
	if s == nil || len(s.Points) == 0 {
		return geom.Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

func (s *Session) withPoint(p geom.Point) *Session {
	return &Session{Tool: s.Tool, Points: append(slices.Clone(s.Points), p)}
}

func (s *Session) withPreview(p geom.Point) *Session {
	return &Session{Tool: s.Tool, Points: s.Points, Preview: &p}
}

// Press records a select-tool pointer-down until it resolves into a click
// or a marquee drag.
type Press struct {
	Screen   geom.Point `json:"screen"`
	World    geom.Point `json:"world"`
	Current  geom.Point `json:"current"`
	Additive bool       `json:"additive"`
	Dragging bool       `json:"dragging"`
}

// Rect returns the marquee rectangle in world space.
func (p *Press) Rect(vp viewport.Viewport) geom.Rect {
	cur, ok := vp.ToWorld(p.Current)
	if !ok {
		cur = p.World
	}
	return geom.RectFromPoints(p.World, cur)
}

// PanDrag is an active pan gesture.
type PanDrag struct {
	Start  geom.Point `json:"start"`
	Offset geom.Point `json:"offset"`
}

// Modifiers are the keyboard modifiers held during an event.
type Modifiers struct {
	Shift bool `json:"shift,omitempty" yaml:"shift"`
	Ctrl  bool `json:"ctrl,omitempty" yaml:"ctrl"`
	Alt   bool `json:"alt,omitempty" yaml:"alt"`
}

func (m Modifiers) additive() bool {
	return m.Shift || m.Ctrl
}

// State is the complete interaction state. The host keeps it between events
// and passes it back in; Handle never retains or mutates a State it was given.
type State struct {
	Tool      Tool              `json:"tool"`
	Viewport  viewport.Viewport `json:"viewport"`
	Selection pick.Selection    `json:"selection"`

	Session      *Session      `json:"session,omitempty"`
	Manipulation *Manipulation `json:"manipulation,omitempty"`
	Press        *Press        `json:"press,omitempty"`
	Pan          *PanDrag      `json:"pan,omitempty"`

	// Snap is the result of the last snap evaluation, for the indicator.
	Snap *snap.Result `json:"snap,omitempty"`
	// Hover is the entity under the cursor, if any.
	Hover *pick.Ref `json:"hover,omitempty"`
	// Cursor is the last world cursor position.
	Cursor geom.Point `json:"cursor"`
}

// NewState returns the idle select-tool state at the given zoom.
func NewState(vp viewport.Viewport) State {
	return State{Tool: ToolSelect, Viewport: vp}
}

// Busy reports whether a session, manipulation or gesture is in progress.
func (s State) Busy() bool {
	return s.Session != nil || s.Manipulation != nil || s.Press != nil || s.Pan != nil
}

// Discard drops every transient gesture.
func (s State) Discard() State {
	s.Session = nil
	s.Manipulation = nil
	s.Press = nil
	s.Pan = nil
	s.Snap = nil
	return s
}
