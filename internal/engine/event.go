package engine

import "github.com/inamate/drafting/internal/geom"

// EventType names an input event forwarded by the host.
type EventType string

const (
	EventPointerDown        EventType = "pointerdown"
	EventPointerMove        EventType = "pointermove"
	EventPointerUp          EventType = "pointerup"
	EventDoubleClick        EventType = "dblclick"
	EventPointerCaptureLost EventType = "lostpointercapture"
	EventKeyDown            EventType = "keydown"
	EventSetTool            EventType = "settool"
	EventFinish             EventType = "finish"
	EventCancel             EventType = "cancel"
	EventZoom               EventType = "zoom"
)

// Keys the engine reacts to.
const (
	KeyEscape    = "Escape"
	KeyEnter     = "Enter"
	KeyDelete    = "Delete"
	KeyBackspace = "Backspace"
)

// Event is one host input. Screen is in pixels; Key is set for keydown, Tool
// for settool and Factor for zoom.
type Event struct {
	Type      EventType  `json:"type" yaml:"type"`
	Screen    geom.Point `json:"screen" yaml:"screen"`
	Modifiers Modifiers  `json:"modifiers" yaml:"modifiers"`
	Key       string     `json:"key,omitempty" yaml:"key,omitempty"`
	Tool      Tool       `json:"tool,omitempty" yaml:"tool,omitempty"`
	Factor    float64    `json:"factor,omitempty" yaml:"factor,omitempty"`
}

func PointerDown(x, y float64) Event {
	return Event{Type: EventPointerDown, Screen: geom.Pt(x, y)}
}

func PointerMove(x, y float64) Event {
	return Event{Type: EventPointerMove, Screen: geom.Pt(x, y)}
}

func PointerUp(x, y float64) Event {
	return Event{Type: EventPointerUp, Screen: geom.Pt(x, y)}
}

func DoubleClick(x, y float64) Event {
	return Event{Type: EventDoubleClick, Screen: geom.Pt(x, y)}
}

func KeyDown(key string) Event {
	return Event{Type: EventKeyDown, Key: key}
}

func SetTool(t Tool) Event {
	return Event{Type: EventSetTool, Tool: t}
}

func Zoom(x, y, factor float64) Event {
	return Event{Type: EventZoom, Screen: geom.Pt(x, y), Factor: factor}
}

// WithModifiers returns a copy of the event with the given modifiers held.
func (ev Event) WithModifiers(m Modifiers) Event {
	ev.Modifiers = m
	return ev
}

func (ev Event) isPointer() bool {
	switch ev.Type {
	case EventPointerDown, EventPointerMove, EventPointerUp, EventDoubleClick:
		return true
	}
	return false
}
