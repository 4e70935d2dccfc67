package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-blend/engine/config"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
	"github.com/Carmen-Shannon/oxy-blend/engine/model"
)

const tailDocument = `
bones:
  - name: base
  - name: tip
    parent: base
    translation: [0, 1, 0]
actions:
  - name: wag
    fps: 10
    features:
      - name: tip
        curves:
          - type: loc-x
            points:
              - {frame: 1, value: 0, interpolation: linear}
              - {frame: 11, value: 1}
      - name: fin
        curves:
          - type: loc-y
            points:
              - {frame: 1, value: 0}
constraints:
  - name: Stiff
    owner: tip
    type: bLocLimitConstraint
    flag: 2
    max: [0.5, 0, 0]
`

func testSettings() config.Settings {
	s := config.Default()
	s.FixUpAxis = false
	s.Workers = 2
	return s
}

func TestLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tailDocument), 0644))

	rec := diagnostics.NewRecorder()
	l := NewLoader(BackendTypeDocument, WithSettings(testSettings()), WithSink(rec))

	m, report, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "tail", m.Name())
	assert.True(t, m.Skinned())
	assert.Equal(t, []string{"wag"}, m.AnimationNames())

	clip := m.Animations()[0]
	require.Len(t, clip.Channels, 1)
	keys := clip.Channels[0].PositionKeys
	require.Len(t, keys, 11)
	assert.InDelta(t, 0.5, keys[10].Value[0], 1e-5)
	assert.InDelta(t, 1, clip.Duration, 1e-5)

	assert.Equal(t, 1, report.Tracks)
	assert.Len(t, rec.WithCode(diagnostics.CodeMissingBone), 1)

	cached, _, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, m, cached)
	assert.Same(t, m, l.Get(path))
	assert.Len(t, l.Models(), 1)
}

func TestLoader_LoadReaderSpatial(t *testing.T) {
	l := NewLoader(BackendTypeDocument, WithSettings(testSettings()))

	m, report, err := l.LoadReader(context.Background(), "door", strings.NewReader(`{
		"name": "door",
		"spatial": true,
		"bind": {"translation": [0, 1, 0]},
		"actions": [{"name": "open", "fps": 1, "features": [{"name": "door", "curves": [
			{"type": "loc-x", "points": [{"frame": 1, "value": 0, "interpolation": "linear"}, {"frame": 3, "value": 4}]}
		]}]}]
	}`), "json")
	require.NoError(t, err)
	assert.False(t, m.Skinned())
	assert.Nil(t, m.Skeleton())
	require.Equal(t, 1, m.AnimationCount())

	ch := m.Animations()[0].Channels[0]
	assert.Equal(t, int32(-1), ch.BoneIndex)
	assert.Equal(t, [3]float32{4, 1, 0}, ch.PositionKeys[2].Value)
	assert.Equal(t, 3, report.Frames)
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoader(BackendTypeDocument, WithModel("cached", model.NewModel(model.WithName("cached"))))
	assert.Equal(t, "cached", l.Get("cached").Name())
	assert.Nil(t, l.Get("missing"))

	_, _, err := l.Load(context.Background(), "arm.blend")
	assert.ErrorContains(t, err, "unsupported document format")

	_, _, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, _, err = l.LoadReader(context.Background(), "nameless", strings.NewReader(`{"spatial": true}`), "json")
	assert.ErrorIs(t, err, config.ErrInvalidDocument)

	_, _, err = l.LoadReader(context.Background(), "orphan", strings.NewReader(`{"bones": [{"name": "a", "parent": "b"}]}`), "json")
	assert.ErrorIs(t, err, config.ErrInvalidDocument)
}
