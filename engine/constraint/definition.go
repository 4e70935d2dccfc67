package constraint

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-blend/common"
	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
)

// ErrInvalidParams is returned when constraint parameters cannot describe a valid constraint.
var ErrInvalidParams = errors.New("invalid constraint parameters")

// Copy constraint flag bits, shared by copy location and copy rotation.
const (
	CopyX       = 0x01
	CopyY       = 0x02
	CopyZ       = 0x04
	CopyTip     = 0x08
	CopyXInvert = 0x10
	CopyYInvert = 0x20
	CopyZInvert = 0x40
	CopyOffset  = 0x80
)

// Copy scale flag bits.
const (
	SizeX      = 0x01
	SizeY      = 0x02
	SizeZ      = 0x04
	SizeOffset = 0x08
)

// Location and scale limit flag bits.
const (
	LimitXMin = 0x01
	LimitXMax = 0x02
	LimitYMin = 0x04
	LimitYMax = 0x08
	LimitZMin = 0x10
	LimitZMax = 0x20
)

// Rotation limit flag bits.
const (
	LimitXRot = 0x01
	LimitYRot = 0x02
	LimitZRot = 0x04
)

// DistMode selects how a distance limit constrains the owner.
type DistMode int

const (
	// DistInside keeps the owner within the distance.
	DistInside DistMode = iota
	// DistOutside keeps the owner beyond the distance.
	DistOutside
	// DistOnSurface keeps the owner exactly at the distance.
	DistOnSurface
)

// Params holds the raw constraint fields as read from the source file.
// Which fields matter depends on the kind.
type Params struct {
	// Flag is the kind specific bit set (see the Copy*, Size* and Limit* constants).
	Flag int
	// Min holds the lower limits (xmin, ymin, zmin). Rotation limits are in degrees.
	Min mgl32.Vec3
	// Max holds the upper limits (xmax, ymax, zmax). Rotation limits are in degrees.
	Max mgl32.Vec3
	// Distance is the distance limit radius.
	Distance float32
	// Mode is the distance limit mode (see DistMode).
	Mode int
}

type copyParams struct {
	axes   [3]bool
	invert [3]bool
	offset bool
}

type limitParams struct {
	hasMin, hasMax [3]bool
	min, max       mgl32.Vec3
}

type distParams struct {
	distance float32
	mode     DistMode
}

// Definition is a parsed constraint of a single Kind. Only the payload of its kind is populated.
type Definition struct {
	kind  Kind
	copy  copyParams
	limit limitParams
	dist  distParams
}

// NewDefinition parses the raw fields of a constraint. Under fixUpAxis the Y and Z parameters are
// swapped here, once, so baking works directly in the Y-up convention.
//
// Parameters:
//   - typeName: the Blender DNA structure name, e.g. "bLocateLikeConstraint"
//   - p: the raw constraint fields
//   - fixUpAxis: whether the baked data uses the Y-up convention
//
// Returns:
//   - *Definition: the parsed definition
//   - error: ErrUnknownConstraintType for an unregistered name, ErrInvalidParams for unusable fields
func NewDefinition(typeName string, p Params, fixUpAxis bool) (*Definition, error) {
	kind, err := KindFromTypeName(typeName)
	if err != nil {
		return nil, err
	}

	d := &Definition{kind: kind}
	switch kind {
	case KindLocLike, KindRotLike:
		flag := p.Flag
		if fixUpAxis {
			flag = swapCopyFlagYZ(flag)
		}
		d.copy = copyParams{
			axes:   [3]bool{flag&CopyX != 0, flag&CopyY != 0, flag&CopyZ != 0},
			invert: [3]bool{flag&CopyXInvert != 0, flag&CopyYInvert != 0, flag&CopyZInvert != 0},
			offset: flag&CopyOffset != 0,
		}
	case KindSizeLike:
		flag := p.Flag
		d.copy = copyParams{
			axes:   [3]bool{flag&SizeX != 0, flag&SizeY != 0, flag&SizeZ != 0},
			offset: flag&SizeOffset != 0,
		}
		if fixUpAxis {
			d.copy.axes[1], d.copy.axes[2] = d.copy.axes[2], d.copy.axes[1]
		}
	case KindLocLimit, KindSizeLimit:
		d.limit = parseLimits(p.Flag, p.Min, p.Max)
		if fixUpAxis {
			d.limit = d.limit.swapYZ(kind == KindLocLimit)
		}
	case KindRotLimit:
		d.limit = parseRotLimits(p.Flag, p.Min.Mul(common.DegToRad), p.Max.Mul(common.DegToRad))
		if fixUpAxis {
			d.limit = d.limit.swapYZ(true)
		}
	case KindDistLimit:
		mode := DistMode(p.Mode)
		if mode < DistInside || mode > DistOnSurface {
			return nil, fmt.Errorf("%w: %s mode %d", ErrInvalidParams, kind, p.Mode)
		}
		if p.Distance < 0 {
			return nil, fmt.Errorf("%w: %s distance %v", ErrInvalidParams, kind, p.Distance)
		}
		d.dist = distParams{distance: p.Distance, mode: mode}
	}
	return d, nil
}

// Kind returns the kind of the definition.
func (d *Definition) Kind() Kind {
	return d.kind
}

// Bake applies the constraint to a single owner transform.
//
// Parameters:
//   - owner: the transform to constrain, modified in place
//   - target: the target's transform at the same time
//   - influence: the blend weight, clamped to [0, 1]; 0 leaves owner untouched
//   - sink: receives the unsupported constraint warning (may be nil)
func (d *Definition) Bake(owner *animation.Transform, target animation.Transform, influence float32, sink diagnostics.Sink) {
	if !d.kind.Supported() {
		diagnostics.Warn(sink, diagnostics.CodeUnsupportedConstraint, d.kind.String(),
			"constraint %s (%s) is not supported and is ignored", d.kind, d.kind.TypeName())
		return
	}
	influence = common.Clamp01(influence)
	if influence == 0 {
		return
	}

	switch d.kind {
	case KindLocLike:
		bakeLocLike(&d.copy, owner, target, influence)
	case KindRotLike:
		bakeRotLike(&d.copy, owner, target, influence)
	case KindSizeLike:
		bakeSizeLike(&d.copy, owner, target, influence)
	case KindLocLimit:
		owner.Translation = d.limit.apply(owner.Translation, influence)
	case KindSizeLimit:
		owner.Scale = d.limit.apply(owner.Scale, influence)
	case KindRotLimit:
		bakeRotLimit(&d.limit, owner, influence)
	case KindDistLimit:
		bakeDistLimit(&d.dist, owner, target, influence)
	}
}

// swapCopyFlagYZ exchanges the Y and Z enable and invert bits, keeping X and the offset bit.
func swapCopyFlagYZ(flag int) int {
	y, invY := flag&CopyY, flag&CopyYInvert
	z, invZ := flag&CopyZ, flag&CopyZInvert

	out := flag & (CopyX | CopyXInvert | CopyOffset)
	out |= y<<1 | invY<<1
	out |= z>>1 | invZ>>1
	return out
}
