package engine

import (
	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/pick"
	"github.com/inamate/drafting/internal/snap"
)

// Settings are the host-controlled knobs read on every event.
type Settings struct {
	Snap snap.Options
	Pick pick.Options

	// AngleIncrementDeg locks drawn segments and rotation deltas to multiples
	// of this angle. Zero turns angle snap off.
	AngleIncrementDeg float64
	// DragThresholdPx separates a click from a drag (marquee, grip press).
	DragThresholdPx float64
	// GripRadiusPx is the screen radius within which a grip is hit.
	GripRadiusPx float64
	// RotateGripOffsetPx places the rotate grip above the selection bounds.
	RotateGripOffsetPx float64

	// Layer receives newly created entities.
	Layer string

	Wall   WallDefaults
	Door   OpeningDefaults
	Window OpeningDefaults
	Item   ItemDefaults
	Roof   RoofDefaults
}

type WallDefaults struct {
	Type      string
	Thickness float64
	Height    float64
}

type OpeningDefaults struct {
	Width      float64
	Height     float64
	SillHeight float64
	Swing      string
}

type ItemDefaults struct {
	Kind  document.ItemKind
	Width float64
	Depth float64
	Label string
}

type RoofDefaults struct {
	Pitch    float64
	Overhang float64
}

// DefaultSettings returns imperial-unit defaults: 6" interior walls, 36"
// doors and 48" windows.
func DefaultSettings() Settings {
	return Settings{
		Snap:               snap.DefaultOptions(),
		Pick:               pick.DefaultOptions(),
		AngleIncrementDeg:  15,
		DragThresholdPx:    4,
		GripRadiusPx:       6,
		RotateGripOffsetPx: 24,
		Wall:               WallDefaults{Type: "interior", Thickness: 6, Height: 96},
		Door:               OpeningDefaults{Width: 36, Height: 80, Swing: "left"},
		Window:             OpeningDefaults{Width: 48, Height: 48, SillHeight: 30},
		Item:               ItemDefaults{Kind: document.ItemFurniture, Width: 24, Depth: 24},
		Roof:               RoofDefaults{Pitch: 6, Overhang: 12},
	}
}

// angleIncrement returns the increment in radians, zero when angle snap is off.
func (s Settings) angleIncrement() float64 {
	if s.AngleIncrementDeg <= 0 {
		return 0
	}
	return geom.Radians(s.AngleIncrementDeg)
}
