// Package replay drives the engine headlessly from a recorded event script
// and collects the edits it produces.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inamate/drafting/internal/collab"
	"github.com/inamate/drafting/internal/config"
	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/engine"
	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/viewport"
)

// Script is a named sequence of host events.
type Script struct {
	Name string `yaml:"name" json:"name"`
	// Plan selects the starting plan: "empty" (default) or "sample".
	Plan    string          `yaml:"plan" json:"plan"`
	Scale   float64         `yaml:"scale" json:"scale"`
	Offset  geom.Point      `yaml:"offset" json:"offset"`
	Profile *config.Profile `yaml:"profile" json:"profile"`
	Events  []engine.Event  `yaml:"events" json:"events"`
}

// Result is the outcome of a replay.
type Result struct {
	Plan    *document.Plan `json:"plan"`
	Batches []collab.Batch `json:"batches"`
	State   engine.State   `json:"state"`
}

// Load reads a script, choosing the decoder by file extension.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	format := "yaml"
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = "json"
	}
	return Parse(data, format)
}

// Parse decodes a script in the given format ("yaml" or "json").
func Parse(data []byte, format string) (*Script, error) {
	var s Script
	switch format {
	case "json":
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse script: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse script: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown script format %q", format)
	}
	return &s, nil
}

type options struct {
	plan     *document.Plan
	settings *engine.Settings
	logger   *slog.Logger
	newID    func(document.EntityKind) string
}

type Option func(*options)

// WithPlan starts the replay from plan instead of the script's choice.
func WithPlan(plan *document.Plan) Option {
	return func(o *options) {
		o.plan = plan
	}
}

// WithSettings replaces the default settings the script profile is applied to.
func WithSettings(s engine.Settings) Option {
	return func(o *options) {
		o.settings = &s
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithIDGenerator makes created entity ids deterministic.
func WithIDGenerator(fn func(document.EntityKind) string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

// Run feeds every event of the script to a fresh engine whose host is a
// collab.Recorder, so the returned batches are exactly what a live client
// would submit.
func Run(ctx context.Context, script *Script, opts ...Option) (*Result, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	plan, err := startPlan(script, o.plan)
	if err != nil {
		return nil, err
	}

	settings := engine.DefaultSettings()
	if o.settings != nil {
		settings = *o.settings
	}
	if script.Profile != nil {
		settings, err = script.Profile.Apply(settings)
		if err != nil {
			return nil, fmt.Errorf("apply script profile: %w", err)
		}
	}

	scale := script.Scale
	if scale == 0 {
		scale = 1
	}
	vp := viewport.Viewport{Scale: scale, Offset: script.Offset}
	if !vp.Valid() {
		return nil, fmt.Errorf("invalid viewport scale %v", script.Scale)
	}

	var batches []collab.Batch
	rec := collab.NewRecorder(collab.NewDocumentState(plan),
		collab.WithRecorderLogger(o.logger),
		collab.WithCommitHook(func(b collab.Batch, _ int64) {
			batches = append(batches, b)
		}),
	)
	engineOpts := []engine.Option{engine.WithLogger(o.logger)}
	if o.newID != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(o.newID))
	}
	e := engine.New(rec, settings, engineOpts...)

	state := engine.NewState(vp)
	for i, ev := range script.Events {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		state = e.Handle(rec.Plan(), state, ev)
	}
	o.logger.Debug("replay finished", "script", script.Name, "events", len(script.Events), "batches", len(batches))

	return &Result{Plan: rec.Plan(), Batches: batches, State: state}, nil
}

func startPlan(script *Script, given *document.Plan) (*document.Plan, error) {
	if given != nil {
		return given.Clone(), nil
	}
	switch script.Plan {
	case "", "empty":
		return document.NewEmptyPlan("replay", script.Name, "layer_default"), nil
	case "sample":
		return document.NewSamplePlan("replay"), nil
	}
	return nil, fmt.Errorf("unknown starting plan %q", script.Plan)
}
