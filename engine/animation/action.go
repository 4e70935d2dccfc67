package animation

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
)

// NamedTrack pairs a baked track with the feature (bone or object name) it animates.
type NamedTrack struct {
	// Feature is the bone or object name.
	Feature string
	// Track is the baked track, owned by the caller.
	Track *Track
}

// BlenderAction is a named set of Ipos keyed by the bone or object they animate.
type BlenderAction struct {
	name      string
	fps       int
	stopFrame int
	features  map[string]*Ipo
}

// NewBlenderAction creates an empty action.
//
// Parameters:
//   - name: the action name
//   - fps: the frame rate the action is baked at
//
// Returns:
//   - *BlenderAction: the action
func NewBlenderAction(name string, fps int) *BlenderAction {
	return &BlenderAction{
		name:      name,
		fps:       fps,
		stopFrame: 1,
		features:  make(map[string]*Ipo),
	}
}

// Name returns the action name.
func (a *BlenderAction) Name() string {
	return a.name
}

// FPS returns the frame rate of the action.
func (a *BlenderAction) FPS() int {
	return a.fps
}

// StopFrame returns the last frame keyed by any feature, at least 1.
func (a *BlenderAction) StopFrame() int {
	return a.stopFrame
}

// AddFeature registers the Ipo animating the named feature, replacing any previous one.
//
// Parameters:
//   - name: the bone or object name
//   - ipo: the curves animating it
func (a *BlenderAction) AddFeature(name string, ipo *Ipo) {
	a.features[name] = ipo
	if !ipo.IsConstant() {
		a.stopFrame = max(a.stopFrame, ipo.LastFrame())
	}
}

// Feature returns the Ipo of the named feature.
//
// Returns:
//   - *Ipo: the Ipo, nil if the feature is not animated
//   - bool: true if the feature is animated
func (a *BlenderAction) Feature(name string) (*Ipo, bool) {
	ipo, ok := a.features[name]
	return ipo, ok
}

// FeatureNames returns the animated feature names in sorted order.
func (a *BlenderAction) FeatureNames() []string {
	return slices.Sorted(maps.Keys(a.features))
}

// Duration returns the length of the action in seconds.
func (a *BlenderAction) Duration() float32 {
	if a.fps <= 0 {
		return 0
	}
	return float32(a.stopFrame-1) / float32(a.fps)
}

// CloneFiltered copies the action keeping only the given features. The Ipos are shared, so tracks
// memoized on them are shared too. The copy keeps the original stop frame, so every binding of an
// action bakes to the same length.
//
// Parameters:
//   - names: the feature names to keep; names the action does not animate are ignored
//
// Returns:
//   - *BlenderAction: the filtered copy
func (a *BlenderAction) CloneFiltered(names []string) *BlenderAction {
	out := NewBlenderAction(a.name, a.fps)
	for _, n := range names {
		if ipo, ok := a.features[n]; ok {
			out.AddFeature(n, ipo)
		}
	}
	out.stopFrame = a.stopFrame
	return out
}

// ToSpatialTracks bakes every feature into a spatial track over the whole action.
//
// Parameters:
//   - bind: the spatial's rest transform
//   - sink: receives curve routing warnings (may be nil)
//
// Returns:
//   - []NamedTrack: one caller-owned track per feature, in feature name order
//   - error: the first bake error, wrapped with the feature name
func (a *BlenderAction) ToSpatialTracks(bind Transform, sink diagnostics.Sink) ([]NamedTrack, error) {
	out := make([]NamedTrack, 0, len(a.features))
	for _, name := range a.FeatureNames() {
		t, err := a.features[name].CalculateTrack(TrackSpec{
			Bind:       bind,
			StartFrame: 1,
			StopFrame:  a.stopFrame,
			FPS:        a.fps,
			Spatial:    true,
			Feature:    name,
			Sink:       sink,
		})
		if err != nil {
			return nil, fmt.Errorf("action %q feature %q: %w", a.name, name, err)
		}
		out = append(out, NamedTrack{Feature: name, Track: t.Clone()})
	}
	return out, nil
}

// ToBoneTracks bakes every feature that names a bone into a bone track over the whole action.
// Features without a matching bone are reported as missing-bone and skipped.
//
// Parameters:
//   - boneIndex: resolves a feature name to a bone index
//   - bind: resolves a bone index to the bone's rest transform
//   - sink: receives missing bone and curve routing warnings (may be nil)
//
// Returns:
//   - []NamedTrack: one caller-owned track per matched feature, in feature name order
//   - error: the first bake error, wrapped with the feature name
func (a *BlenderAction) ToBoneTracks(boneIndex func(name string) (int, bool), bind func(index int) Transform, sink diagnostics.Sink) ([]NamedTrack, error) {
	out := make([]NamedTrack, 0, len(a.features))
	for _, name := range a.FeatureNames() {
		idx, ok := boneIndex(name)
		if !ok {
			diagnostics.Warn(sink, diagnostics.CodeMissingBone, name,
				"action %q animates a bone the skeleton does not have", a.name)
			continue
		}
		rest := IdentityTransform()
		if bind != nil {
			rest = bind(idx)
		}
		t, err := a.features[name].CalculateTrack(TrackSpec{
			TargetIndex: idx,
			Bind:        rest,
			StartFrame:  1,
			StopFrame:   a.stopFrame,
			FPS:         a.fps,
			Feature:     name,
			Sink:        sink,
		})
		if err != nil {
			return nil, fmt.Errorf("action %q feature %q: %w", a.name, name, err)
		}
		out = append(out, NamedTrack{Feature: name, Track: t.Clone()})
	}
	return out, nil
}
