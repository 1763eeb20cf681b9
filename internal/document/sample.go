package document

import (
	"time"

	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/typeid"
)

// NewSamplePlan builds a small single-room plan: four walls, a door, a
// window, the room polygon and a table.
func NewSamplePlan(projectID string) *Plan {
	now := time.Now().UTC().Format(time.RFC3339)

	layerID := typeid.Layer.New()
	furnitureLayerID := typeid.Layer.New()
	plan := NewEmptyPlan(projectID, "Sample plan", layerID)
	plan.Project.CreatedAt = now
	plan.Project.UpdatedAt = now
	plan.Layers[furnitureLayerID] = Layer{ID: furnitureLayerID, Name: "Furniture", Visible: true}
	plan.LayerOrder = append(plan.LayerOrder, furnitureLayerID)

	corners := []geom.Point{geom.Pt(0, 0), geom.Pt(240, 0), geom.Pt(240, 180), geom.Pt(0, 180)}

	roomID := typeid.Room.New()
	plan.Shapes[roomID] = Shape{
		ID:     roomID,
		Kind:   KindRoom,
		Layer:  layerID,
		Points: corners,
		Name:   "Living",
		Style:  Style{Fill: "#e8e2d4"},
	}
	plan.Order = append(plan.Order, roomID)

	var wallIDs []string
	for i := range corners {
		id := typeid.Wall.New()
		plan.Walls[id] = Wall{
			ID:        id,
			Layer:     layerID,
			Start:     corners[i],
			End:       corners[(i+1)%len(corners)],
			Type:      "exterior",
			Thickness: 8,
			Height:    96,
		}
		plan.Order = append(plan.Order, id)
		wallIDs = append(wallIDs, id)
	}

	doorID := typeid.Opening.New()
	plan.Openings[doorID] = Opening{
		ID:       doorID,
		Kind:     OpeningDoor,
		WallID:   wallIDs[0],
		Position: 0.25,
		Width:    36,
		Height:   80,
		Swing:    "left",
	}
	windowID := typeid.Opening.New()
	plan.Openings[windowID] = Opening{
		ID:         windowID,
		Kind:       OpeningWindow,
		WallID:     wallIDs[1],
		Position:   0.5,
		Width:      48,
		Height:     48,
		SillHeight: 30,
	}
	plan.Order = append(plan.Order, doorID, windowID)

	tableID := typeid.Item.New()
	plan.Items[tableID] = Item{
		ID:       tableID,
		Kind:     ItemFurniture,
		Layer:    furnitureLayerID,
		Position: geom.Pt(120, 90),
		Width:    60,
		Depth:    36,
		Label:    "Table",
	}
	plan.Order = append(plan.Order, tableID)

	return plan
}
