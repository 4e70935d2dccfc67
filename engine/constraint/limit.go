package constraint

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-blend/common"
	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
)

func parseLimits(flag int, lo, hi mgl32.Vec3) limitParams {
	return limitParams{
		hasMin: [3]bool{flag&LimitXMin != 0, flag&LimitYMin != 0, flag&LimitZMin != 0},
		hasMax: [3]bool{flag&LimitXMax != 0, flag&LimitYMax != 0, flag&LimitZMax != 0},
		min:    lo,
		max:    hi,
	}
}

// parseRotLimits reads rotation limits, where one bit enables both bounds of an axis.
func parseRotLimits(flag int, lo, hi mgl32.Vec3) limitParams {
	axes := [3]bool{flag&LimitXRot != 0, flag&LimitYRot != 0, flag&LimitZRot != 0}
	return limitParams{hasMin: axes, hasMax: axes, min: lo, max: hi}
}

// swapYZ moves the limits into the Y-up convention. With negate the old Y range maps to the new
// negated Z range, so its bounds swap to keep min <= max.
func (l limitParams) swapYZ(negate bool) limitParams {
	out := l
	out.hasMin[1], out.hasMax[1] = l.hasMin[2], l.hasMax[2]
	out.min[1], out.max[1] = l.min[2], l.max[2]
	if negate {
		out.hasMin[2], out.hasMax[2] = l.hasMax[1], l.hasMin[1]
		out.min[2], out.max[2] = -l.max[1], -l.min[1]
	} else {
		out.hasMin[2], out.hasMax[2] = l.hasMin[1], l.hasMax[1]
		out.min[2], out.max[2] = l.min[1], l.max[1]
	}
	return out
}

// apply pulls every component that crosses an enabled bound back towards it by influence.
func (l *limitParams) apply(v mgl32.Vec3, influence float32) mgl32.Vec3 {
	for i := range v {
		if l.hasMin[i] && v[i] < l.min[i] {
			v[i] -= (v[i] - l.min[i]) * influence
		}
		if l.hasMax[i] && v[i] > l.max[i] {
			v[i] -= (v[i] - l.max[i]) * influence
		}
	}
	return v
}

func bakeRotLimit(l *limitParams, owner *animation.Transform, influence float32) {
	angles := mgl32.Vec3(common.QuatToEuler(owner.Rotation))
	limited := l.apply(angles, influence)
	if limited == angles {
		return
	}
	owner.Rotation = common.EulerToQuat(limited[0], limited[1], limited[2])
}

func bakeDistLimit(p *distParams, owner *animation.Transform, target animation.Transform, influence float32) {
	v := owner.Translation.Sub(target.Translation)
	current := v.Len()
	if current == 0 {
		return
	}

	var modifier float32
	switch p.mode {
	case DistInside:
		if current >= p.distance {
			modifier = (p.distance - current) / current
		}
	case DistOutside:
		if current <= p.distance {
			modifier = (p.distance - current) / current
		}
	case DistOnSurface:
		modifier = (p.distance - current) / current
	}
	if modifier == 0 {
		return
	}
	owner.Translation = owner.Translation.Add(v.Mul(modifier * influence))
}
