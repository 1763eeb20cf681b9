package engine

import (
	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/pick"
)

// Host receives every mutation the engine decides on. The engine never
// touches the plan itself: the host applies each call, records it for undo
// and hands the updated plan back on the next event.
type Host interface {
	CreateWall(w document.Wall)
	UpdateWall(w document.Wall)
	// DeleteWall removes the wall. The host also removes every opening the
	// wall hosts.
	DeleteWall(id string)

	CreateHostedElement(o document.Opening)
	UpdateHostedElement(o document.Opening)

	CreateShape(s document.Shape)
	UpdateShapePoints(id string, points []geom.Point)

	CreateItem(it document.Item)
	UpdateItem(it document.Item)

	CreateRoof(r document.Roof)
	UpdateRoof(r document.Roof)

	DeleteEntity(kind document.EntityKind, id string)
	SetSelection(sel pick.Selection)
}

// Batcher is implemented by hosts that can group several callbacks into one
// logical edit. Multi-entity commits are bracketed by BeginBatch/EndBatch
// when the host supports it.
type Batcher interface {
	BeginBatch(label string)
	EndBatch()
}

// batch runs fn inside a host batch when the host supports batching.
func batch(h Host, label string, fn func()) {
	b, ok := h.(Batcher)
	if !ok {
		fn()
		return
	}
	b.BeginBatch(label)
	defer b.EndBatch()
	fn()
}

// NopHost ignores every callback. Useful for preview-only engines.
type NopHost struct{}

func (NopHost) CreateWall(document.Wall)                 {}
func (NopHost) UpdateWall(document.Wall)                 {}
func (NopHost) DeleteWall(string)                        {}
func (NopHost) CreateHostedElement(document.Opening)     {}
func (NopHost) UpdateHostedElement(document.Opening)     {}
func (NopHost) CreateShape(document.Shape)               {}
func (NopHost) UpdateShapePoints(string, []geom.Point)   {}
func (NopHost) CreateItem(document.Item)                 {}
func (NopHost) UpdateItem(document.Item)                 {}
func (NopHost) CreateRoof(document.Roof)                 {}
func (NopHost) UpdateRoof(document.Roof)                 {}
func (NopHost) DeleteEntity(document.EntityKind, string) {}
func (NopHost) SetSelection(pick.Selection)              {}
