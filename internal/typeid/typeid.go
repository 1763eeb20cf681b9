// Package typeid mints the prefixed, sortable ids used for every stored and
// drawn thing, e.g. wall_01h2xcejqtf2nbrexx3vqjhp41.
package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix names the kind of thing an id refers to.
type Prefix string

const (
	User     Prefix = "user"
	Project  Prefix = "proj"
	Snapshot Prefix = "snap"
	Op       Prefix = "op"
	Batch    Prefix = "edit"
	Layer    Prefix = "layer"
	Wall     Prefix = "wall"
	Opening  Prefix = "open"
	Room     Prefix = "room"
	Polyline Prefix = "pline"
	Hatch    Prefix = "hatch"
	Roof     Prefix = "roof"
	Item     Prefix = "item"
)

// New returns a fresh id carrying the prefix. It panics only if the prefix
// itself is not a valid typeid prefix.
func (p Prefix) New() string {
	return typeid.MustGenerate(string(p)).String()
}

// Validate reports whether id is a well formed typeid with this prefix.
func (p Prefix) Validate(id string) error {
	got, err := Parse(id)
	if err != nil {
		return err
	}
	if got != p {
		return fmt.Errorf("id %q: want prefix %q, got %q", id, p, got)
	}
	return nil
}

// Parse returns the prefix of id.
func Parse(id string) (Prefix, error) {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("parse id %q: %w", id, err)
	}
	return Prefix(parsed.Prefix()), nil
}
