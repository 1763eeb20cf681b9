// Package snap resolves the single best snap point for a cursor position.
//
// Candidates are generated per enabled Kind from the scene's segments and
// vertices, measured in screen pixels, and accepted only below the pixel
// threshold. Distance ties within TieEpsilonPx go to the higher-priority kind
// (endpoint > midpoint > perpendicular > nearest > grid).
package snap

import (
	"math"

	"github.com/inamate/drafting/internal/geom"
)

type Options struct {
	ThresholdPx  float64 `json:"thresholdPx" yaml:"thresholdPx"`
	TieEpsilonPx float64 `json:"tieEpsilonPx" yaml:"tieEpsilonPx"`
	GridSpacing  float64 `json:"gridSpacing" yaml:"gridSpacing"`
	Enabled      KindSet `json:"enabled" yaml:"-"`
}

// DefaultOptions returns a 10px threshold with every kind enabled.
func DefaultOptions() Options {
	return Options{
		ThresholdPx:  10,
		TieEpsilonPx: 0.5,
		GridSpacing:  12,
		Enabled:      AllKinds,
	}
}

// Guideline is presentation data for a dashed alignment line.
type Guideline struct {
	From geom.Point `json:"from"`
	To   geom.Point `json:"to"`
}

// Result is the outcome of one snap evaluation. When Snapped is false, Point
// is the (possibly angle-constrained) cursor position.
type Result struct {
	Snapped    bool       `json:"snapped"`
	Kind       Kind       `json:"kind"`
	Point      geom.Point `json:"point"`
	DistancePx float64    `json:"distancePx"`
	Guideline  *Guideline `json:"guideline,omitempty"`
}

// Query is the input of a snap evaluation.
type Query struct {
	Cursor geom.Point
	Scale  float64
	// From is the point the current segment is drawn from, if any. It is the
	// origin of the perpendicular guideline; the foot itself comes from Cursor.
	From *geom.Point
}

type candidate struct {
	kind  Kind
	point geom.Point
	dist  float64
	guide *Guideline
}

// Resolve returns the best snap for the query, or the raw cursor when nothing
// lies within the threshold.
func Resolve(q Query, scene Scene, opts Options) Result {
	miss := Result{Point: q.Cursor}
	if q.Scale == 0 || !q.Cursor.IsFinite() {
		return miss
	}
	cands := collect(q, scene, opts)
	if best, ok := pick(cands, opts); ok {
		return best
	}
	return miss
}

// ResolveOnRay resolves a snap for a cursor locked to the ray starting at
// origin with unit direction dir. Only candidates lying on the ray are
// accepted; intersections of the ray with scene segments are offered as
// nearest candidates. Without a hit the projected cursor is returned.
func ResolveOnRay(q Query, origin, dir geom.Point, scene Scene, opts Options) Result {
	along := math.Max(0, q.Cursor.Sub(origin).Dot(dir))
	onRay := origin.Add(dir.Mul(along))
	guide := &Guideline{From: origin, To: onRay}
	miss := Result{Point: onRay, Guideline: guide}
	if q.Scale == 0 || !onRay.IsFinite() {
		return miss
	}

	q.Cursor = onRay
	tolWorld := 1e-6 * math.Max(1, geom.Distance(origin, onRay))
	var cands []candidate
	for _, c := range collect(q, scene, opts) {
		if rayDistance(c.point, origin, dir) <= tolWorld {
			c.guide = &Guideline{From: origin, To: c.point}
			cands = append(cands, c)
		}
	}
	if opts.Enabled.Has(Nearest) {
		far := origin.Add(dir.Mul(along + opts.ThresholdPx/math.Abs(q.Scale)*4 + 1))
		for _, s := range scene.Segments {
			p, ok := geom.SegmentIntersection(origin, far, s.A, s.B)
			if !ok {
				continue
			}
			cands = append(cands, candidate{
				kind:  Nearest,
				point: p,
				dist:  geom.Distance(p, onRay) * math.Abs(q.Scale),
				guide: &Guideline{From: origin, To: p},
			})
		}
	}
	if best, ok := pick(cands, opts); ok {
		return best
	}
	return miss
}

func rayDistance(p, origin, dir geom.Point) float64 {
	v := p.Sub(origin)
	if v.Dot(dir) < -geom.Epsilon {
		return math.Inf(1)
	}
	return math.Abs(v.Cross(dir))
}

func collect(q Query, scene Scene, opts Options) []candidate {
	scale := math.Abs(q.Scale)
	cursor := q.Cursor
	var cands []candidate
	add := func(k Kind, p geom.Point, g *Guideline) {
		cands = append(cands, candidate{kind: k, point: p, dist: geom.Distance(cursor, p) * scale, guide: g})
	}

	if opts.Enabled.Has(Endpoint) {
		for _, v := range scene.Vertices {
			add(Endpoint, v, nil)
		}
		for _, s := range scene.Segments {
			add(Endpoint, s.A, nil)
			add(Endpoint, s.B, nil)
		}
	}
	if opts.Enabled.Has(Midpoint) {
		for _, s := range scene.Segments {
			add(Midpoint, s.Midpoint(), nil)
		}
	}
	if opts.Enabled.Has(Perpendicular) {
		// The foot is always taken from the cursor; the anchor only moves
		// the guideline origin.
		from := cursor
		if q.From != nil {
			from = *q.From
		}
		for _, s := range scene.Segments {
			foot, ok := geom.PerpendicularFoot(cursor, s.A, s.B)
			if !ok {
				continue
			}
			add(Perpendicular, foot, &Guideline{From: from, To: foot})
		}
	}
	if opts.Enabled.Has(Nearest) && len(scene.Segments) > 0 {
		best, bestDist := geom.Point{}, math.Inf(1)
		for _, s := range scene.Segments {
			p := geom.ClosestPointOnSegment(cursor, s.A, s.B)
			if d := geom.Distance(cursor, p); d < bestDist {
				best, bestDist = p, d
			}
		}
		add(Nearest, best, nil)
	}
	if opts.Enabled.Has(Grid) && opts.GridSpacing > 0 {
		g := opts.GridSpacing
		add(Grid, geom.Pt(math.Round(cursor.X/g)*g, math.Round(cursor.Y/g)*g), nil)
	}
	return cands
}

// pick applies the threshold and the tie-break: the minimum screen distance
// wins unless a higher-priority kind is within TieEpsilonPx of it.
func pick(cands []candidate, opts Options) (Result, bool) {
	minDist := math.Inf(1)
	for _, c := range cands {
		if c.dist < opts.ThresholdPx && c.dist < minDist {
			minDist = c.dist
		}
	}
	if math.IsInf(minDist, 1) {
		return Result{}, false
	}

	var best *candidate
	for i := range cands {
		c := &cands[i]
		if c.dist >= opts.ThresholdPx || c.dist > minDist+opts.TieEpsilonPx {
			continue
		}
		if best == nil || c.kind < best.kind || (c.kind == best.kind && c.dist < best.dist) {
			best = c
		}
	}
	return Result{
		Snapped:    true,
		Kind:       best.kind,
		Point:      best.point,
		DistancePx: best.dist,
		Guideline:  best.guide,
	}, true
}
