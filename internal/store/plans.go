package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/typeid"
)

// LoadPlan decodes the latest snapshot of a project.
func (s *Store) LoadPlan(ctx context.Context, projectID string) (*document.Plan, error) {
	snap, err := s.GetLatestSnapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return DecodePlan(snap.Document)
}

// LoadPlanVersion decodes one snapshot version of a project.
func (s *Store) LoadPlanVersion(ctx context.Context, projectID string, version int32) (*document.Plan, error) {
	snap, err := s.GetSnapshotVersion(ctx, projectID, version)
	if err != nil {
		return nil, err
	}
	return DecodePlan(snap.Document)
}

// SavePlan stores plan as a new snapshot version.
func (s *Store) SavePlan(ctx context.Context, projectID string, plan *document.Plan) (Snapshot, error) {
	doc, err := json.Marshal(plan)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal plan: %w", err)
	}
	return s.SaveSnapshot(ctx, typeid.Snapshot.New(), projectID, doc)
}

// DecodePlan parses a snapshot document, filling the maps a sparse
// document omits.
func DecodePlan(data []byte) (*document.Plan, error) {
	var plan document.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if plan.Layers == nil {
		plan.Layers = map[string]document.Layer{}
	}
	if plan.Walls == nil {
		plan.Walls = map[string]document.Wall{}
	}
	if plan.Openings == nil {
		plan.Openings = map[string]document.Opening{}
	}
	if plan.Shapes == nil {
		plan.Shapes = map[string]document.Shape{}
	}
	if plan.Roofs == nil {
		plan.Roofs = map[string]document.Roof{}
	}
	if plan.Items == nil {
		plan.Items = map[string]document.Item{}
	}
	return &plan, nil
}
