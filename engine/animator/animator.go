package animator

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
	"github.com/Carmen-Shannon/oxy-blend/engine/model"
)

// instanceState holds the playback state of a single instance.
type instanceState struct {
	clipIndex int

	time, speed                 float32
	loop, blending              bool
	blendTo                     int
	blendToTime                 float32
	blendDuration, blendElapsed float32
}

// sampledChannel is an AnimationChannel split into the slices the interpolators read.
type sampledChannel struct {
	slot int

	positionTimes []float32
	positions     []mgl32.Vec3
	rotationTimes []float32
	rotations     []mgl32.Quat
	scaleTimes    []float32
	scales        []mgl32.Vec3
}

type sampledClip struct {
	duration float32
	channels []sampledChannel
}

// animator is the implementation of the Animator interface.
type animator struct {
	mu sync.Mutex

	model model.Model

	bind        []animation.Transform
	parents     []int32
	inverseBind []mgl32.Mat4
	clips       []sampledClip

	instances []instanceState
}

// Animator plays baked clips of a Model on the CPU. It is the preview counterpart of a GPU skinning
// pass: each instance tracks a clip, playback time, speed, looping and an optional crossfade, and
// Pose / SkinningMatrices sample the baked keyframes with the track interpolators.
//
// A spatial (non-skinned) model has a single pose slot that receives its channel.
type Animator interface {
	// Model returns the model whose clips are played.
	//
	// Returns:
	//   - model.Model: the model, nil if none was set
	Model() model.Model

	// SetModel replaces the played model. Clips are resampled and every instance restarts at rest.
	//
	// Parameters:
	//   - m: the model to play
	SetModel(m model.Model)

	// AddInstance registers a new instance at rest pose.
	//
	// Returns:
	//   - int: the index of the newly registered instance
	AddInstance() int

	// InstanceCount returns the current number of registered instances.
	//
	// Returns:
	//   - int: the number of instances
	InstanceCount() int

	// PlayAnimation starts a clip from the beginning at normal speed, cancelling any blend.
	//
	// Parameters:
	//   - instance: the instance index
	//   - clip: the clip index in the model's animations
	//   - loop: whether playback wraps around at the end of the clip
	PlayAnimation(instance, clip int, loop bool)

	// BlendToAnimation crossfades from the current clip to another over blendDuration seconds.
	//
	// Parameters:
	//   - instance: the instance index
	//   - clip: the clip to blend to, started from its beginning
	//   - blendDuration: the crossfade length in seconds
	BlendToAnimation(instance, clip int, blendDuration float32)

	// SetAnimationTime moves the playback position of the current clip.
	//
	// Parameters:
	//   - instance: the instance index
	//   - time: the new position in seconds
	SetAnimationTime(instance int, time float32)

	// SetAnimationSpeed scales how fast Update advances playback.
	//
	// Parameters:
	//   - instance: the instance index
	//   - speed: the playback rate, 1 is real time
	SetAnimationSpeed(instance int, speed float32)

	// AnimationTime returns the playback position of the current clip.
	AnimationTime(instance int) float32

	// IsBlending reports whether the instance is crossfading.
	IsBlending(instance int) bool

	// BlendProgress returns the crossfade progress in [0, 1), 0 when not blending.
	BlendProgress(instance int) float32

	// CancelBlend stops a crossfade and keeps playing the current clip.
	CancelBlend(instance int)

	// Update advances every instance by deltaTime, wrapping looped clips, clamping the others and
	// resolving finished blends.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last update in seconds
	Update(deltaTime float32)

	// Pose samples the local transform of every bone (or the single spatial slot).
	//
	// Parameters:
	//   - instance: the instance index
	//
	// Returns:
	//   - []animation.Transform: one local transform per bone, nil for an unknown instance
	Pose(instance int) []animation.Transform

	// SkinningMatrices composes the pose down the hierarchy and multiplies each bone's world matrix
	// by its inverse bind matrix. At rest every matrix is the identity.
	//
	// Parameters:
	//   - instance: the instance index
	//
	// Returns:
	//   - []mgl32.Mat4: one skinning matrix per bone, nil for an unknown instance
	SkinningMatrices(instance int) []mgl32.Mat4
}

var _ Animator = &animator{}

// NewAnimator creates a new Animator with the specified options applied.
//
// Parameters:
//   - options: a variadic list of AnimatorBuilderOption functions to configure the Animator
//
// Returns:
//   - Animator: the animator
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *animator) Model() model.Model {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model
}

func (a *animator) SetModel(m model.Model) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setModelLocked(m)
}

func (a *animator) setModelLocked(m model.Model) {
	a.model = m
	a.bind, a.parents, a.inverseBind, a.clips = nil, nil, nil, nil
	if m == nil {
		return
	}

	if s := m.Skeleton(); s != nil && len(s.Bones) > 0 {
		n := len(s.Bones)
		a.bind = make([]animation.Transform, n)
		a.parents = make([]int32, n)
		a.inverseBind = make([]mgl32.Mat4, n)
		for i, b := range s.Bones {
			a.bind[i] = s.BindTransform(i)
			a.parents[i] = b.ParentIndex
			a.inverseBind[i] = mgl32.Mat4(b.InverseBindMatrix)
		}
	} else {
		a.bind = []animation.Transform{animation.IdentityTransform()}
		a.parents = []int32{-1}
		a.inverseBind = []mgl32.Mat4{mgl32.Ident4()}
	}

	for _, clip := range m.Animations() {
		a.clips = append(a.clips, sampleClip(clip, len(a.bind)))
	}
	for i := range a.instances {
		a.instances[i] = newInstanceState()
	}
}

func sampleClip(clip *model.AnimationClip, slots int) sampledClip {
	sc := sampledClip{duration: clip.Duration}
	for _, ch := range clip.Channels {
		slot := int(ch.BoneIndex)
		if slot < 0 {
			slot = 0
		}
		if slot >= slots {
			continue
		}
		c := sampledChannel{slot: slot}
		for _, k := range ch.PositionKeys {
			c.positionTimes = append(c.positionTimes, k.Time)
			c.positions = append(c.positions, k.Value)
		}
		for _, k := range ch.RotationKeys {
			c.rotationTimes = append(c.rotationTimes, k.Time)
			c.rotations = append(c.rotations, mgl32.Quat{W: k.Value[3], V: mgl32.Vec3{k.Value[0], k.Value[1], k.Value[2]}})
		}
		for _, k := range ch.ScaleKeys {
			c.scaleTimes = append(c.scaleTimes, k.Time)
			c.scales = append(c.scales, k.Value)
		}
		sc.channels = append(sc.channels, c)
	}
	return sc
}

func newInstanceState() instanceState {
	return instanceState{clipIndex: -1, blendTo: -1, speed: 1}
}

func (a *animator) AddInstance() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.instances = append(a.instances, newInstanceState())
	return len(a.instances) - 1
}

func (a *animator) InstanceCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.instances)
}

func (a *animator) state(instance int) *instanceState {
	if instance < 0 || instance >= len(a.instances) {
		return nil
	}
	return &a.instances[instance]
}

func (a *animator) validClip(clip int) bool {
	return clip >= 0 && clip < len(a.clips)
}

func (a *animator) PlayAnimation(instance, clip int, loop bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.state(instance)
	if state == nil || !a.validClip(clip) {
		return
	}
	state.clipIndex = clip
	state.time = 0
	state.speed = 1.0
	state.loop = loop
	state.blending = false
	state.blendElapsed = 0
}

func (a *animator) BlendToAnimation(instance, clip int, blendDuration float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.state(instance)
	if state == nil || !a.validClip(clip) {
		return
	}
	if blendDuration <= 0 || state.clipIndex < 0 {
		state.clipIndex = clip
		state.time = 0
		state.blending = false
		return
	}
	state.blending = true
	state.blendTo = clip
	state.blendToTime = 0
	state.blendDuration = blendDuration
	state.blendElapsed = 0
}

func (a *animator) SetAnimationTime(instance int, time float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if state := a.state(instance); state != nil {
		state.time = time
	}
}

func (a *animator) SetAnimationSpeed(instance int, speed float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if state := a.state(instance); state != nil {
		state.speed = speed
	}
}

func (a *animator) AnimationTime(instance int) float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if state := a.state(instance); state != nil {
		return state.time
	}
	return 0
}

func (a *animator) IsBlending(instance int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.state(instance)
	return state != nil && state.blending
}

func (a *animator) BlendProgress(instance int) float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.state(instance)
	if state == nil || !state.blending {
		return 0
	}
	return state.blendElapsed / state.blendDuration
}

func (a *animator) CancelBlend(instance int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if state := a.state(instance); state != nil {
		state.blending = false
		state.blendElapsed = 0
	}
}

func (a *animator) Update(deltaTime float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.instances {
		state := &a.instances[i]
		if state.clipIndex < 0 {
			continue
		}
		state.time = a.advance(state.clipIndex, state.time, deltaTime*state.speed, state.loop)

		if state.blending {
			state.blendElapsed += deltaTime
			state.blendToTime = a.advance(state.blendTo, state.blendToTime, deltaTime*state.speed, state.loop)
			if state.blendElapsed/state.blendDuration >= 1.0 {
				state.clipIndex = state.blendTo
				state.time = state.blendToTime
				state.blending = false
				state.blendElapsed = 0
			}
		}
	}
}

// advance moves time forward on a clip, wrapping when looping and clamping otherwise.
func (a *animator) advance(clip int, time, delta float32, loop bool) float32 {
	time += delta
	duration := a.clips[clip].duration
	switch {
	case duration <= 0:
		return 0
	case loop && time > duration:
		return float32(math.Mod(float64(time), float64(duration)))
	case !loop && time > duration:
		return duration
	}
	return time
}

func (a *animator) Pose(instance int) []animation.Transform {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.poseLocked(instance)
}

func (a *animator) poseLocked(instance int) []animation.Transform {
	state := a.state(instance)
	if state == nil {
		return nil
	}
	pose := make([]animation.Transform, len(a.bind))
	copy(pose, a.bind)
	if state.clipIndex < 0 {
		return pose
	}
	a.sampleInto(pose, state.clipIndex, state.time)
	if !state.blending {
		return pose
	}

	target := make([]animation.Transform, len(a.bind))
	copy(target, a.bind)
	a.sampleInto(target, state.blendTo, state.blendToTime)
	w := state.blendElapsed / state.blendDuration
	for i := range pose {
		pose[i] = animation.Transform{
			Translation: pose[i].Translation.Mul(1 - w).Add(target[i].Translation.Mul(w)),
			Rotation:    mgl32.QuatSlerp(pose[i].Rotation, target[i].Rotation, w),
			Scale:       pose[i].Scale.Mul(1 - w).Add(target[i].Scale.Mul(w)),
		}
	}
	return pose
}

func (a *animator) sampleInto(pose []animation.Transform, clip int, time float32) {
	for _, c := range a.clips[clip].channels {
		tr := pose[c.slot]
		if len(c.positions) > 0 {
			tr.Translation = animation.InterpolateVector(c.positionTimes, c.positions, time)
		}
		if len(c.rotations) > 0 {
			tr.Rotation = animation.InterpolateQuaternion(c.rotationTimes, c.rotations, time)
		}
		if len(c.scales) > 0 {
			tr.Scale = animation.InterpolateVector(c.scaleTimes, c.scales, time)
		}
		pose[c.slot] = tr
	}
}

func (a *animator) SkinningMatrices(instance int) []mgl32.Mat4 {
	a.mu.Lock()
	defer a.mu.Unlock()

	pose := a.poseLocked(instance)
	if pose == nil {
		return nil
	}
	world := make([]mgl32.Mat4, len(pose))
	done := make([]bool, len(pose))
	var resolve func(i int) mgl32.Mat4
	resolve = func(i int) mgl32.Mat4 {
		if done[i] {
			return world[i]
		}
		local := model.TransformFromAnimation(pose[i]).Mat4()
		if p := a.parents[i]; p >= 0 {
			local = resolve(int(p)).Mul4(local)
		}
		world[i], done[i] = local, true
		return local
	}

	out := make([]mgl32.Mat4, len(pose))
	for i := range pose {
		out[i] = resolve(i).Mul4(a.inverseBind[i])
	}
	return out
}
