package animation

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-blend/common"
	"github.com/Carmen-Shannon/oxy-blend/engine/curve"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoCurves is returned when an Ipo is created without curves.
	ErrNoCurves = errors.New("ipo has no curves")
	// ErrInvalidFrameRange is returned when a track is requested with stop frame before start frame.
	ErrInvalidFrameRange = errors.New("invalid frame range")
	// ErrInvalidFPS is returned when a track is requested with a non-positive frame rate.
	ErrInvalidFPS = errors.New("invalid frames per second")
)

// legacyBlenderVersion is the first version storing euler rotation curves in radians.
// Earlier euler values are scaled by DegToRad/10.
const legacyBlenderVersion = 250

// TrackSpec describes the track to bake from an Ipo.
type TrackSpec struct {
	// TargetIndex is the bone index of the produced track. Ignored for spatial tracks.
	TargetIndex int
	// Bind is the rest transform the animated deltas are applied to.
	Bind Transform
	// StartFrame is the first baked frame (inclusive).
	StartFrame int
	// StopFrame is the last baked frame (inclusive).
	StopFrame int
	// FPS is the sample rate; keyframe i lands at i/FPS seconds.
	FPS int
	// Spatial selects a spatial track instead of a bone track.
	Spatial bool
	// Feature names the bone or object in diagnostics.
	Feature string
	// Sink receives warnings about curves that cannot be routed. May be nil.
	Sink diagnostics.Sink
}

// trackKey is the memoization key of a TrackSpec; the feature name and sink do not affect the result.
type trackKey struct {
	targetIndex int
	bind        Transform
	start, stop int
	fps         int
	spatial     bool
}

func (s TrackSpec) key() trackKey {
	return trackKey{
		targetIndex: s.TargetIndex,
		bind:        s.Bind,
		start:       s.StartFrame,
		stop:        s.StopFrame,
		fps:         s.FPS,
		spatial:     s.Spatial,
	}
}

// Ipo is a set of curves animating one bone or object. It is either curve-backed or constant; a
// constant Ipo only answers ValueAt and is used for constraint influence.
type Ipo struct {
	curves         []*curve.BezierCurve
	fixUpAxis      bool
	blenderVersion int

	constant   bool
	constValue float32

	mu     sync.Mutex
	tracks map[trackKey]*Track
}

// NewIpo creates a curve-backed Ipo.
//
// Parameters:
//   - curves: the curves, one per animated channel
//   - fixUpAxis: whether Blender's Z-up data is converted to the Y-up convention
//   - blenderVersion: the version of the file the curves come from (e.g. 249, 250)
//
// Returns:
//   - *Ipo: the Ipo
//   - error: ErrNoCurves if curves is empty or holds only nil entries
func NewIpo(curves []*curve.BezierCurve, fixUpAxis bool, blenderVersion int) (*Ipo, error) {
	cs := make([]*curve.BezierCurve, 0, len(curves))
	for _, c := range curves {
		if c != nil {
			cs = append(cs, c)
		}
	}
	if len(cs) == 0 {
		return nil, ErrNoCurves
	}
	return &Ipo{
		curves:         cs,
		fixUpAxis:      fixUpAxis,
		blenderVersion: blenderVersion,
		tracks:         make(map[trackKey]*Track),
	}, nil
}

// NewConstIpo creates an Ipo returning v for every frame.
//
// Parameters:
//   - v: the constant value
//
// Returns:
//   - *Ipo: the constant Ipo
func NewConstIpo(v float32) *Ipo {
	return &Ipo{constant: true, constValue: v}
}

// IsConstant reports whether the Ipo was created by NewConstIpo.
func (p *Ipo) IsConstant() bool {
	return p.constant
}

// CurveCount returns the number of curves, 0 for a constant Ipo.
func (p *Ipo) CurveCount() int {
	return len(p.curves)
}

// ValueAt evaluates the first curve at the given frame, or returns the constant.
//
// Parameters:
//   - frame: the frame to evaluate at
//
// Returns:
//   - float32: the value
func (p *Ipo) ValueAt(frame float32) float32 {
	if p.constant {
		return p.constValue
	}
	return p.curves[0].Evaluate(frame)
}

// CurveValueAt evaluates curve i at the given frame. A constant Ipo returns its constant for any i.
//
// Parameters:
//   - frame: the frame to evaluate at
//   - i: the curve index, in [0, CurveCount())
//
// Returns:
//   - float32: the value
func (p *Ipo) CurveValueAt(frame float32, i int) float32 {
	if p.constant {
		return p.constValue
	}
	return p.curves[i].Evaluate(frame)
}

// LastFrame returns the last keyed frame over all curves, rounded up; at least 1.
func (p *Ipo) LastFrame() int {
	last := 1
	for _, c := range p.curves {
		last = max(last, int(math.Ceil(float64(c.LastFrame()))))
	}
	return last
}

// CalculateTrack bakes the curves into a track with one keyframe per frame of [StartFrame, StopFrame].
// The result is computed once per distinct spec and the same *Track is returned on later calls, so
// callers that modify the track must Clone it first. Curve routing warnings go to spec.Sink on
// every call, cached or not.
//
// Parameters:
//   - spec: the frame range, rate, bind transform and target of the track
//
// Returns:
//   - *Track: the baked track
//   - error: ErrInvalidFrameRange or ErrInvalidFPS for an unusable spec
func (p *Ipo) CalculateTrack(spec TrackSpec) (*Track, error) {
	if p.constant {
		panic("animation: constant ipo cannot be baked into a track")
	}
	if spec.StopFrame < spec.StartFrame {
		return nil, fmt.Errorf("%w: start %d, stop %d", ErrInvalidFrameRange, spec.StartFrame, spec.StopFrame)
	}
	if spec.FPS <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFPS, spec.FPS)
	}

	p.reportRouting(spec)

	p.mu.Lock()
	defer p.mu.Unlock()

	key := spec.key()
	if t, ok := p.tracks[key]; ok {
		return t, nil
	}
	t := p.bake(spec)
	p.tracks[key] = t
	return t, nil
}

// reportRouting warns about curves the track builder ignores or overrides.
func (p *Ipo) reportRouting(spec TrackSpec) {
	if spec.Sink == nil {
		return
	}
	feature := spec.Feature
	if feature == "" && !spec.Spatial {
		feature = fmt.Sprintf("bone %d", spec.TargetIndex)
	}

	var eulerUsed, quatUsed bool
	for ci, c := range p.curves {
		switch t := c.Type(); {
		case t.IsEulerRotation():
			eulerUsed = true
		case t.IsQuaternionRotation():
			quatUsed = true
		case !t.Valid():
			diagnostics.Warn(spec.Sink, diagnostics.CodeUnknownCurveType, feature,
				"curve %d has unknown type %s and is ignored", ci, t)
		}
	}
	if eulerUsed && quatUsed {
		diagnostics.Warn(spec.Sink, diagnostics.CodeAmbiguousRotation, feature,
			"both euler and quaternion rotation curves are animated, using the quaternion")
	}
}

// channel routing of a curve into the per-frame component arrays
type route struct {
	target *[3]float32
	index  int
	negate bool
	scale  float32
	quat   int // quaternion component (x,y,z,w) or -1
}

func (p *Ipo) bake(spec TrackSpec) *Track {
	n := spec.StopFrame - spec.StartFrame + 1
	times := make([]float32, n)
	translations := make([]mgl32.Vec3, n)
	rotations := make([]mgl32.Quat, n)
	scales := make([]mgl32.Vec3, n)

	yIndex, zIndex := 1, 2
	swap := spec.Spatial && p.fixUpAxis
	if swap {
		yIndex, zIndex = 2, 1
	}
	degToRad := float32(1)
	if p.blenderVersion < legacyBlenderVersion {
		degToRad = common.DegToRad / 10
	}

	bind := spec.Bind
	var translation [3]float32
	euler := common.QuatToEuler(bind.Rotation)
	quat := [4]float32{bind.Rotation.V[0], bind.Rotation.V[1], bind.Rotation.V[2], bind.Rotation.W}
	scale := [3]float32(bind.Scale)

	routes := make([]route, len(p.curves))
	var eulerUsed, quatUsed bool
	for ci, c := range p.curves {
		r := route{index: -1, quat: -1, scale: 1}
		switch t := c.Type(); t {
		case curve.LocX, curve.LocY, curve.LocZ:
			r.target, r.index = &translation, axisIndex(int(t-curve.LocX), yIndex, zIndex)
			r.negate = swap && t == curve.LocY
		case curve.RotX, curve.RotY, curve.RotZ:
			r.target, r.index = &euler, axisIndex(int(t-curve.RotX), yIndex, zIndex)
			r.negate = swap && t == curve.RotY
			r.scale = degToRad
			eulerUsed = true
		case curve.SizeX, curve.SizeY, curve.SizeZ:
			r.target, r.index = &scale, axisIndex(int(t-curve.SizeX), yIndex, zIndex)
		case curve.QuatW:
			r.quat = 3
			quatUsed = true
		case curve.QuatX, curve.QuatY, curve.QuatZ:
			r.quat = axisIndex(int(t-curve.QuatX), yIndex, zIndex)
			r.negate = swap && t == curve.QuatY
			quatUsed = true
		}
		routes[ci] = r
	}

	for i := range n {
		frame := float32(spec.StartFrame + i)
		for ci, c := range p.curves {
			r := routes[ci]
			if r.target == nil && r.quat < 0 {
				continue
			}
			v := c.Evaluate(frame) * r.scale
			if r.negate && v != 0 {
				v = -v
			}
			if r.quat >= 0 {
				quat[r.quat] = v
			} else {
				r.target[r.index] = v
			}
		}

		times[i] = float32(i) / float32(spec.FPS)
		translations[i] = bind.Translation.Add(bind.Rotation.Rotate(mgl32.Vec3(translation)))
		switch {
		case quatUsed:
			// components are interpolated independently
			rotations[i] = mgl32.Quat{W: quat[3], V: mgl32.Vec3{quat[0], quat[1], quat[2]}}.Normalize()
		case eulerUsed:
			rotations[i] = common.EulerToQuat(euler[0], euler[1], euler[2])
		default:
			rotations[i] = bind.Rotation
		}
		scales[i] = mgl32.Vec3(scale)
	}

	t := &Track{
		kind:         TrackKindBone,
		boneIndex:    spec.TargetIndex,
		times:        times,
		translations: translations,
		rotations:    rotations,
		scales:       scales,
	}
	if spec.Spatial {
		t.kind, t.boneIndex = TrackKindSpatial, -1
	}
	return t
}

// axisIndex maps a component offset (0=x, 1=y, 2=z) to its destination index.
func axisIndex(offset, yIndex, zIndex int) int {
	switch offset {
	case 1:
		return yIndex
	case 2:
		return zIndex
	default:
		return 0
	}
}
