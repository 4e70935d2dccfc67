package constraint

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-blend/common"
	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
)

// bakeLocLike copies the enabled target location axes. Partial influence moves the owner towards the
// fully constrained location along the unit direction, influence units far.
func bakeLocLike(p *copyParams, owner *animation.Transform, target animation.Transform, influence float32) {
	start := owner.Translation
	loc := start
	for i := range 3 {
		if !p.axes[i] {
			continue
		}
		v := target.Translation[i]
		if p.invert[i] {
			v = -v
		}
		if p.offset {
			v += start[i]
		}
		loc[i] = v
	}

	if influence < 1 {
		loc = start.Add(common.NormalizeOrZero(loc.Sub(start)).Mul(influence))
	}
	owner.Translation = loc
}

// bakeRotLike copies the enabled target euler angles and slerps towards the result by influence.
func bakeRotLike(p *copyParams, owner *animation.Transform, target animation.Transform, influence float32) {
	start := owner.Rotation
	angles := common.QuatToEuler(start)
	targetAngles := common.QuatToEuler(target.Rotation)

	changed := false
	for i := range 3 {
		if !p.axes[i] {
			continue
		}
		angles[i] = targetAngles[i]
		if p.invert[i] {
			angles[i] = -angles[i]
		}
		changed = true
	}
	if !changed {
		return
	}

	rot := common.EulerToQuat(angles[0], angles[1], angles[2])
	if p.offset {
		rot = rot.Mul(start).Normalize()
	}
	if influence < 1 {
		rot = mgl32.QuatSlerp(start, rot, influence)
	}
	owner.Rotation = rot
}

// bakeSizeLike blends the enabled scale axes linearly towards the target.
func bakeSizeLike(p *copyParams, owner *animation.Transform, target animation.Transform, influence float32) {
	start := owner.Scale
	for i := range 3 {
		if !p.axes[i] {
			continue
		}
		v := target.Scale[i]*influence + start[i]*(1-influence)
		if p.offset {
			v += start[i]
		}
		owner.Scale[i] = v
	}
}
