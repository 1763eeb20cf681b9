package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/engine"
	"github.com/inamate/drafting/internal/snap"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("DRAFTING_PROFILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("ANGLE_INCREMENT_DEG", "45")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, https://b.test:8443,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, []string{"http://a.test", "https://b.test:8443"}, cfg.Origins())
	assert.Equal(t, []string{"a.test", "b.test:8443"}, cfg.OriginPatterns())

	s, err := cfg.EngineSettings()
	require.NoError(t, err)
	assert.Equal(t, 45.0, s.AngleIncrementDeg)
	assert.Equal(t, 10.0, s.Snap.ThresholdPx)
	assert.Equal(t, 12.0, s.Snap.GridSpacing)
}

func TestSlogLevelFallsBack(t *testing.T) {
	cfg := &Config{LogLevel: "chatty"}
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProfileApply(t *testing.T) {
	path := writeFile(t, "profile.yaml", `
snap:
  kinds: [endpoint, midpoint]
  thresholdPx: 14
angleIncrementDeg: 0
zOrder: [room, wall, item]
layer: layer_upper
wall:
  type: exterior
  thickness: 8
  height: 108
`)
	cfg := &Config{
		ProfilePath:        path,
		SnapThresholdPx:    10,
		GridSpacing:        12,
		AngleIncrementDeg:  15,
		MarqueeThresholdPx: 4,
		PickTolerancePx:    4,
	}

	s, err := cfg.EngineSettings()
	require.NoError(t, err)
	assert.Equal(t, snap.Kinds(snap.Endpoint, snap.Midpoint), s.Snap.Enabled)
	assert.Equal(t, 14.0, s.Snap.ThresholdPx)
	assert.Equal(t, 12.0, s.Snap.GridSpacing, "unset fields keep their value")
	assert.Equal(t, 0.0, s.AngleIncrementDeg)
	assert.Equal(t, []document.EntityKind{document.KindRoom, document.KindWall, document.KindItem}, s.Pick.Order)
	assert.Equal(t, "layer_upper", s.Layer)
	assert.Equal(t, 8.0, s.Wall.Thickness)
	assert.Equal(t, 36.0, s.Door.Width)
}

func TestProfileJSONAndErrors(t *testing.T) {
	p, err := LoadProfile(writeFile(t, "profile.json", `{"door":{"width":32,"height":80,"swing":"right"}}`))
	require.NoError(t, err)
	s, err := p.Apply(engine.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 32.0, s.Door.Width)
	assert.Equal(t, "right", s.Door.Swing)

	bad, err := LoadProfile(writeFile(t, "bad.yaml", "zOrder: [wall, chimney]\n"))
	require.NoError(t, err)
	_, err = bad.Apply(engine.DefaultSettings())
	assert.ErrorContains(t, err, "chimney")

	bad, err = LoadProfile(writeFile(t, "bad.yaml", "snap:\n  kinds: [tangent]\n"))
	require.NoError(t, err)
	_, err = bad.Apply(engine.DefaultSettings())
	assert.Error(t, err)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
