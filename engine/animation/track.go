package animation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrTrackLength is returned when the keyframe arrays of a track disagree in length.
	ErrTrackLength = errors.New("track keyframe arrays differ in length")
	// ErrTrackTimes is returned when track times are not strictly increasing.
	ErrTrackTimes = errors.New("track times are not strictly increasing")
)

// TrackKind tells whether a track animates a skeleton bone or a whole spatial.
type TrackKind int

const (
	// TrackKindBone animates a single bone, addressed by index.
	TrackKindBone TrackKind = iota
	// TrackKindSpatial animates a scene node's local transform.
	TrackKindSpatial
)

// String returns the lower-case kind name.
func (k TrackKind) String() string {
	switch k {
	case TrackKindBone:
		return "bone"
	case TrackKindSpatial:
		return "spatial"
	default:
		return fmt.Sprintf("track-kind(%d)", int(k))
	}
}

// Track is a baked keyframe sequence with parallel time, translation, rotation and scale arrays.
// All keyframes are stored by value; the accessors copy in and out so no two tracks ever share
// keyframe storage. The number of keyframes is fixed once the track is created.
type Track struct {
	kind         TrackKind
	boneIndex    int
	times        []float32
	translations []mgl32.Vec3
	rotations    []mgl32.Quat
	scales       []mgl32.Vec3
}

// NewBoneTrack creates a track animating the bone with the given index.
//
// Parameters:
//   - boneIndex: the index of the animated bone in its skeleton
//   - times: keyframe times in seconds, strictly increasing
//   - translations: one translation per keyframe
//   - rotations: one rotation per keyframe
//   - scales: one scale per keyframe
//
// Returns:
//   - *Track: the track owning copies of the given arrays
//   - error: ErrTrackLength or ErrTrackTimes when the arrays are malformed
func NewBoneTrack(boneIndex int, times []float32, translations []mgl32.Vec3, rotations []mgl32.Quat, scales []mgl32.Vec3) (*Track, error) {
	return newTrack(TrackKindBone, boneIndex, times, translations, rotations, scales)
}

// NewSpatialTrack creates a track animating a spatial's local transform.
//
// Parameters:
//   - times: keyframe times in seconds, strictly increasing
//   - translations: one translation per keyframe
//   - rotations: one rotation per keyframe
//   - scales: one scale per keyframe
//
// Returns:
//   - *Track: the track owning copies of the given arrays
//   - error: ErrTrackLength or ErrTrackTimes when the arrays are malformed
func NewSpatialTrack(times []float32, translations []mgl32.Vec3, rotations []mgl32.Quat, scales []mgl32.Vec3) (*Track, error) {
	return newTrack(TrackKindSpatial, -1, times, translations, rotations, scales)
}

func newTrack(kind TrackKind, boneIndex int, times []float32, translations []mgl32.Vec3, rotations []mgl32.Quat, scales []mgl32.Vec3) (*Track, error) {
	if err := validateKeyframes(times, translations, rotations, scales); err != nil {
		return nil, err
	}
	return &Track{
		kind:         kind,
		boneIndex:    boneIndex,
		times:        slices.Clone(times),
		translations: slices.Clone(translations),
		rotations:    slices.Clone(rotations),
		scales:       slices.Clone(scales),
	}, nil
}

func validateKeyframes(times []float32, translations []mgl32.Vec3, rotations []mgl32.Quat, scales []mgl32.Vec3) error {
	n := len(times)
	if len(translations) != n || len(rotations) != n || len(scales) != n {
		return fmt.Errorf("%w: times=%d translations=%d rotations=%d scales=%d",
			ErrTrackLength, n, len(translations), len(rotations), len(scales))
	}
	for i := 1; i < n; i++ {
		if times[i] <= times[i-1] {
			return fmt.Errorf("%w: times[%d]=%v after times[%d]=%v", ErrTrackTimes, i, times[i], i-1, times[i-1])
		}
	}
	return nil
}

// Kind returns whether the track animates a bone or a spatial.
func (t *Track) Kind() TrackKind {
	return t.kind
}

// BoneIndex returns the animated bone index, or -1 for spatial tracks.
func (t *Track) BoneIndex() int {
	return t.boneIndex
}

// Len returns the number of keyframes.
func (t *Track) Len() int {
	return len(t.times)
}

// Times returns a copy of the keyframe times.
func (t *Track) Times() []float32 {
	return slices.Clone(t.times)
}

// Translations returns a copy of the keyframe translations.
func (t *Track) Translations() []mgl32.Vec3 {
	return slices.Clone(t.translations)
}

// Rotations returns a copy of the keyframe rotations.
func (t *Track) Rotations() []mgl32.Quat {
	return slices.Clone(t.rotations)
}

// Scales returns a copy of the keyframe scales.
func (t *Track) Scales() []mgl32.Vec3 {
	return slices.Clone(t.scales)
}

// TimeAt returns the time of keyframe i in seconds.
func (t *Track) TimeAt(i int) float32 {
	return t.times[i]
}

// Duration returns the time of the last keyframe, or 0 for an empty track.
func (t *Track) Duration() float32 {
	if len(t.times) == 0 {
		return 0
	}
	return t.times[len(t.times)-1]
}

// TransformAt reads keyframe i as a Transform.
//
// Parameters:
//   - i: the keyframe index, in [0, Len())
//
// Returns:
//   - Transform: a copy of the keyframe
func (t *Track) TransformAt(i int) Transform {
	return Transform{
		Translation: t.translations[i],
		Rotation:    t.rotations[i],
		Scale:       t.scales[i],
	}
}

// SetTransformAt overwrites keyframe i with the components of tr. The keyframe time is unchanged.
//
// Parameters:
//   - i: the keyframe index, in [0, Len())
//   - tr: the new keyframe value
func (t *Track) SetTransformAt(i int, tr Transform) {
	t.translations[i] = tr.Translation
	t.rotations[i] = tr.Rotation
	t.scales[i] = tr.Scale
}

// SetKeyframes replaces every keyframe at once. The keyframe count cannot change.
//
// Parameters:
//   - times: keyframe times in seconds, strictly increasing
//   - translations: one translation per keyframe
//   - rotations: one rotation per keyframe
//   - scales: one scale per keyframe
//
// Returns:
//   - error: ErrTrackLength if the count differs from Len(), ErrTrackTimes if times are unordered
func (t *Track) SetKeyframes(times []float32, translations []mgl32.Vec3, rotations []mgl32.Quat, scales []mgl32.Vec3) error {
	if len(times) != len(t.times) {
		return fmt.Errorf("%w: track has %d keyframes, got %d", ErrTrackLength, len(t.times), len(times))
	}
	if err := validateKeyframes(times, translations, rotations, scales); err != nil {
		return err
	}
	copy(t.times, times)
	copy(t.translations, translations)
	copy(t.rotations, rotations)
	copy(t.scales, scales)
	return nil
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	return &Track{
		kind:         t.kind,
		boneIndex:    t.boneIndex,
		times:        slices.Clone(t.times),
		translations: slices.Clone(t.translations),
		rotations:    slices.Clone(t.rotations),
		scales:       slices.Clone(t.scales),
	}
}

// SampleAt interpolates the track at an arbitrary time. Translation and scale are interpolated
// linearly, rotation by normalized slerp.
//
// Parameters:
//   - time: the sample time in seconds
//
// Returns:
//   - Transform: the interpolated transform
func (t *Track) SampleAt(time float32) Transform {
	return Transform{
		Translation: InterpolateVector(t.times, t.translations, time),
		Rotation:    InterpolateQuaternion(t.times, t.rotations, time),
		Scale:       InterpolateVector(t.times, t.scales, time),
	}
}
