package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/engine"
	"github.com/inamate/drafting/internal/snap"
)

// Profile is a drafting profile file (YAML or JSON). Unset fields keep the
// value they are applied over.
type Profile struct {
	Snap              SnapProfile     `yaml:"snap" json:"snap"`
	AngleIncrementDeg *float64        `yaml:"angleIncrementDeg" json:"angleIncrementDeg"`
	DragThresholdPx   *float64        `yaml:"dragThresholdPx" json:"dragThresholdPx"`
	PickTolerancePx   *float64        `yaml:"pickTolerancePx" json:"pickTolerancePx"`
	ZOrder            []string        `yaml:"zOrder" json:"zOrder"`
	Layer             string          `yaml:"layer" json:"layer"`
	Wall              *WallProfile    `yaml:"wall" json:"wall"`
	Door              *OpeningProfile `yaml:"door" json:"door"`
	Window            *OpeningProfile `yaml:"window" json:"window"`
}

type SnapProfile struct {
	Kinds        []string `yaml:"kinds" json:"kinds"`
	ThresholdPx  *float64 `yaml:"thresholdPx" json:"thresholdPx"`
	TieEpsilonPx *float64 `yaml:"tieEpsilonPx" json:"tieEpsilonPx"`
	GridSpacing  *float64 `yaml:"gridSpacing" json:"gridSpacing"`
}

type WallProfile struct {
	Type      string  `yaml:"type" json:"type"`
	Thickness float64 `yaml:"thickness" json:"thickness"`
	Height    float64 `yaml:"height" json:"height"`
}

type OpeningProfile struct {
	Width      float64 `yaml:"width" json:"width"`
	Height     float64 `yaml:"height" json:"height"`
	SillHeight float64 `yaml:"sillHeight" json:"sillHeight"`
	Swing      string  `yaml:"swing" json:"swing"`
}

// LoadProfile reads a profile, choosing the decoder by file extension.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse profile %s: %w", path, err)
		}
		return &p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &p, nil
}

// Apply overlays the profile on s.
func (p *Profile) Apply(s engine.Settings) (engine.Settings, error) {
	if p.Snap.Kinds != nil {
		kinds, err := snap.ParseKinds(p.Snap.Kinds)
		if err != nil {
			return s, err
		}
		s.Snap.Enabled = kinds
	}
	setFloat(&s.Snap.ThresholdPx, p.Snap.ThresholdPx)
	setFloat(&s.Snap.TieEpsilonPx, p.Snap.TieEpsilonPx)
	setFloat(&s.Snap.GridSpacing, p.Snap.GridSpacing)
	setFloat(&s.AngleIncrementDeg, p.AngleIncrementDeg)
	setFloat(&s.DragThresholdPx, p.DragThresholdPx)
	setFloat(&s.Pick.TolerancePx, p.PickTolerancePx)

	if p.ZOrder != nil {
		order := make([]document.EntityKind, 0, len(p.ZOrder))
		for _, name := range p.ZOrder {
			k := document.EntityKind(name)
			if !slices.Contains(document.AllKinds, k) {
				return s, fmt.Errorf("unknown entity kind %q in zOrder", name)
			}
			order = append(order, k)
		}
		s.Pick.Order = order
	}

	if p.Layer != "" {
		s.Layer = p.Layer
	}
	if w := p.Wall; w != nil {
		s.Wall = engine.WallDefaults{Type: w.Type, Thickness: w.Thickness, Height: w.Height}
	}
	if d := p.Door; d != nil {
		s.Door = engine.OpeningDefaults(*d)
	}
	if w := p.Window; w != nil {
		s.Window = engine.OpeningDefaults(*w)
	}
	return s, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
