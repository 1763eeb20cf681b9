package document

import (
	"math"

	"github.com/inamate/drafting/internal/geom"
)

// ClampPosition keeps an opening of the given width inside a wall of the
// given length: the result lies in [halfWidth/length, 1-halfWidth/length].
// Openings wider than their wall are centered.
func ClampPosition(position, width, wallLength float64) float64 {
	if wallLength < geom.Epsilon || math.IsNaN(position) {
		return 0.5
	}
	half := math.Max(width, 0) / 2 / wallLength
	if half >= 0.5 {
		return 0.5
	}
	return math.Min(1-half, math.Max(half, position))
}

// PositionOnWall projects a world point onto the wall and returns the clamped
// normalized position for an opening of the given width.
func PositionOnWall(w Wall, p geom.Point, width float64) float64 {
	t := w.Segment().Project(p)
	return ClampPosition(t, width, w.Length())
}

// UpdateWallWithElements moves the wall to new endpoints and re-projects its
// hosted openings so each keeps the same absolute center distance from the
// wall start. Positions are re-clamped for the new length.
func UpdateWallWithElements(w Wall, start, end geom.Point, hosted []Opening) (Wall, []Opening) {
	oldLength := w.Length()
	w.Start, w.End = start, end
	newLength := w.Length()

	out := make([]Opening, 0, len(hosted))
	for _, o := range hosted {
		if o.WallID != w.ID {
			continue
		}
		if newLength >= geom.Epsilon {
			o.Position = ClampPosition(o.Position*oldLength/newLength, o.Width, newLength)
		}
		out = append(out, o)
	}
	return w, out
}
