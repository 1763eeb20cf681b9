package pick

import (
	"encoding/json"
	"slices"

	"github.com/inamate/drafting/internal/document"
)

// Ref identifies one entity of the plan.
type Ref struct {
	Kind document.EntityKind `json:"type"`
	ID   string              `json:"id"`
}

// Selection is an ordered set of refs. The zero value is the empty selection.
// Methods never modify the receiver's backing array.
type Selection struct {
	items []Ref
}

// NewSelection builds a selection, dropping duplicates.
func NewSelection(refs ...Ref) Selection {
	var s Selection
	for _, r := range refs {
		s = s.Add(r)
	}
	return s
}

// Items returns a copy of the selected refs in order.
func (s Selection) Items() []Ref {
	return slices.Clone(s.items)
}

func (s Selection) Len() int {
	return len(s.items)
}

func (s Selection) IsEmpty() bool {
	return len(s.items) == 0
}

func (s Selection) Contains(r Ref) bool {
	return slices.Contains(s.items, r)
}

// Add appends r unless already present.
func (s Selection) Add(r Ref) Selection {
	if s.Contains(r) {
		return s
	}
	return Selection{items: append(slices.Clone(s.items), r)}
}

// Remove drops r if present.
func (s Selection) Remove(r Ref) Selection {
	i := slices.Index(s.items, r)
	if i < 0 {
		return s
	}
	return Selection{items: slices.Delete(slices.Clone(s.items), i, i+1)}
}

// Toggle adds r, or removes it when already selected.
func (s Selection) Toggle(r Ref) Selection {
	if s.Contains(r) {
		return s.Remove(r)
	}
	return s.Add(r)
}

// Union adds every ref of other in order.
func (s Selection) Union(other Selection) Selection {
	for _, r := range other.items {
		s = s.Add(r)
	}
	return s
}

// Prune drops refs whose entity no longer exists in the plan.
func (s Selection) Prune(plan *document.Plan) Selection {
	var out Selection
	for _, r := range s.items {
		if plan.Exists(r.Kind, r.ID) {
			out.items = append(out.items, r)
		}
	}
	return out
}

// Equal reports whether both selections hold the same refs in the same order.
func (s Selection) Equal(other Selection) bool {
	return slices.Equal(s.items, other.items)
}

func (s Selection) MarshalJSON() ([]byte, error) {
	items := s.items
	if items == nil {
		items = []Ref{}
	}
	return json.Marshal(map[string][]Ref{"items": items})
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw struct {
		Items []Ref `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewSelection(raw.Items...)
	return nil
}
