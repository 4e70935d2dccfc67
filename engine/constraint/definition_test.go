package constraint

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-blend/common"
	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
)

func at(x, y, z float32) animation.Transform {
	tr := animation.IdentityTransform()
	tr.Translation = mgl32.Vec3{x, y, z}
	return tr
}

func scaled(x, y, z float32) animation.Transform {
	tr := animation.IdentityTransform()
	tr.Scale = mgl32.Vec3{x, y, z}
	return tr
}

func mustDefinition(t *testing.T, typeName string, p Params, fixUpAxis bool) *Definition {
	t.Helper()
	d, err := NewDefinition(typeName, p, fixUpAxis)
	require.NoError(t, err)
	return d
}

func TestKindFromTypeName(t *testing.T) {
	k, err := KindFromTypeName("bLocateLikeConstraint")
	require.NoError(t, err)
	assert.Equal(t, KindLocLike, k)
	assert.Equal(t, "CopyLocation", k.String())

	_, err = KindFromTypeName("bWarpConstraint")
	assert.ErrorIs(t, err, ErrUnknownConstraintType)
	assert.Contains(t, err.Error(), "bWarpConstraint")

	for k := KindNull; k <= KindObjectSolver; k++ {
		got, err := KindFromTypeName(k.TypeName())
		require.NoError(t, err, "kind %s", k)
		assert.Equal(t, k, got)
	}
}

func TestNewDefinition_UnknownType(t *testing.T) {
	_, err := NewDefinition("bNothingConstraint", Params{}, false)
	assert.ErrorIs(t, err, ErrUnknownConstraintType)
}

func TestSwapCopyFlagYZ(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"x and offset kept", CopyX | CopyXInvert | CopyOffset, CopyX | CopyXInvert | CopyOffset},
		{"y moves to z", CopyY | CopyYInvert, CopyZ | CopyZInvert},
		{"z moves to y", CopyZ, CopyY},
		{"both swap", CopyY | CopyZ | CopyZInvert, CopyY | CopyZ | CopyYInvert},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, swapCopyFlagYZ(tt.in))
		})
	}
}

func TestLocLike_AllAxesDisabledIsNoOp(t *testing.T) {
	d := mustDefinition(t, "bLocateLikeConstraint", Params{Flag: CopyOffset}, true)

	for _, influence := range []float32{0, 0.3, 1} {
		owner := at(1, 2, 3)
		d.Bake(&owner, at(7, 8, 9), influence, nil)
		assert.Equal(t, at(1, 2, 3), owner, "influence %v", influence)
	}
}

func TestLocLike_CopiesEnabledAxis(t *testing.T) {
	d := mustDefinition(t, "bLocateLikeConstraint", Params{Flag: CopyX}, false)

	owner := at(1, 2, 3)
	d.Bake(&owner, at(0.3, 8, 9), 1, nil)
	assert.Equal(t, mgl32.Vec3{0.3, 2, 3}, owner.Translation)
}

func TestLocLike_InvertAndOffset(t *testing.T) {
	d := mustDefinition(t, "bLocateLikeConstraint", Params{Flag: CopyX | CopyXInvert | CopyZ | CopyOffset}, false)

	owner := at(1, 2, 3)
	d.Bake(&owner, at(5, 8, 9), 1, nil)
	assert.Equal(t, mgl32.Vec3{-4, 2, 12}, owner.Translation)
}

func TestLocLike_PartialInfluenceMovesAlongUnitDirection(t *testing.T) {
	d := mustDefinition(t, "bLocateLikeConstraint", Params{Flag: CopyX}, false)

	owner := at(0, 0, 0)
	d.Bake(&owner, at(10, 0, 0), 0.5, nil)
	assert.InDelta(t, 0.5, owner.Translation.X(), 1e-6)

	owner = at(0, 0, 0)
	d.Bake(&owner, at(10, 0, 0), 0, nil)
	assert.Equal(t, float32(0), owner.Translation.X())
}

func TestLocLike_FixUpAxisSwapsEnabledAxes(t *testing.T) {
	d := mustDefinition(t, "bLocateLikeConstraint", Params{Flag: CopyY}, true)

	owner := at(1, 2, 3)
	d.Bake(&owner, at(7, 8, 9), 1, nil)
	assert.Equal(t, mgl32.Vec3{1, 2, 9}, owner.Translation)
}

func TestSizeLike_LinearBlend(t *testing.T) {
	d := mustDefinition(t, "bSizeLikeConstraint", Params{Flag: SizeX}, false)

	owner := scaled(2, 1, 1)
	d.Bake(&owner, scaled(4, 5, 5), 0.5, nil)
	assert.Equal(t, mgl32.Vec3{3, 1, 1}, owner.Scale)
}

func TestSizeLike_Offset(t *testing.T) {
	d := mustDefinition(t, "bSizeLikeConstraint", Params{Flag: SizeY | SizeOffset}, false)

	owner := scaled(1, 2, 1)
	d.Bake(&owner, scaled(5, 4, 5), 1, nil)
	assert.Equal(t, mgl32.Vec3{1, 6, 1}, owner.Scale)
}

func TestRotLike_CopiesAxis(t *testing.T) {
	d := mustDefinition(t, "bRotateLikeConstraint", Params{Flag: CopyY}, false)

	target := animation.IdentityTransform()
	target.Rotation = common.EulerToQuat(0, 0.7, 0)
	owner := animation.IdentityTransform()
	d.Bake(&owner, target, 1, nil)
	assert.True(t, target.Rotation.OrientationEqualThreshold(owner.Rotation, 1e-5), "got %v", owner.Rotation)

	half := animation.IdentityTransform()
	d.Bake(&half, target, 0.5, nil)
	want := common.EulerToQuat(0, 0.35, 0)
	assert.True(t, want.OrientationEqualThreshold(half.Rotation, 1e-4), "got %v", half.Rotation)
}

func TestLocLimit(t *testing.T) {
	p := Params{Flag: LimitXMax | LimitZMin, Max: mgl32.Vec3{1, 0, 0}, Min: mgl32.Vec3{0, 0, -1}}
	d := mustDefinition(t, "bLocLimitConstraint", p, false)

	owner := at(3, 100, -5)
	d.Bake(&owner, animation.IdentityTransform(), 1, nil)
	assert.Equal(t, mgl32.Vec3{1, 100, -1}, owner.Translation)

	owner = at(3, 100, -5)
	d.Bake(&owner, animation.IdentityTransform(), 0.5, nil)
	assert.Equal(t, mgl32.Vec3{2, 100, -3}, owner.Translation)
}

func TestLocLimit_FixUpAxisNegatesY(t *testing.T) {
	p := Params{Flag: LimitYMin | LimitZMax, Min: mgl32.Vec3{0, 1, 0}, Max: mgl32.Vec3{0, 0, 4}}
	d := mustDefinition(t, "bLocLimitConstraint", p, true)

	// source Y >= 1 becomes target Z <= -1, source Z <= 4 becomes target Y <= 4
	owner := at(0, 10, 0)
	d.Bake(&owner, animation.IdentityTransform(), 1, nil)
	assert.Equal(t, mgl32.Vec3{0, 4, -1}, owner.Translation)
}

func TestSizeLimit(t *testing.T) {
	p := Params{Flag: LimitXMin | LimitYMax, Min: mgl32.Vec3{0.5, 0, 0}, Max: mgl32.Vec3{0, 2, 0}}
	d := mustDefinition(t, "bSizeLimitConstraint", p, false)

	owner := scaled(0.1, 3, 7)
	d.Bake(&owner, animation.IdentityTransform(), 1, nil)
	assert.True(t, mgl32.Vec3{0.5, 2, 7}.ApproxEqualThreshold(owner.Scale, 1e-6), "got %v", owner.Scale)
}

func TestRotLimit(t *testing.T) {
	p := Params{Flag: LimitXRot, Min: mgl32.Vec3{-45, 0, 0}, Max: mgl32.Vec3{45, 0, 0}}
	d := mustDefinition(t, "bRotLimitConstraint", p, false)

	owner := animation.IdentityTransform()
	owner.Rotation = common.EulerToQuat(math.Pi/2, 0, 0)
	d.Bake(&owner, animation.IdentityTransform(), 1, nil)

	want := common.EulerToQuat(math.Pi/4, 0, 0)
	assert.True(t, want.OrientationEqualThreshold(owner.Rotation, 1e-5), "got %v", owner.Rotation)

	inside := animation.IdentityTransform()
	inside.Rotation = common.EulerToQuat(0.2, 0, 0)
	before := inside.Rotation
	d.Bake(&inside, animation.IdentityTransform(), 1, nil)
	assert.Equal(t, before, inside.Rotation)
}

func TestDistLimit(t *testing.T) {
	tests := []struct {
		name  string
		mode  DistMode
		owner float32
		want  float32
	}{
		{"inside pulls in", DistInside, 4, 2},
		{"inside leaves closer owner", DistInside, 1, 1},
		{"outside pushes out", DistOutside, 1, 2},
		{"outside leaves farther owner", DistOutside, 4, 4},
		{"surface pulls in", DistOnSurface, 4, 2},
		{"surface pushes out", DistOnSurface, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDefinition(t, "bDistLimitConstraint", Params{Distance: 2, Mode: int(tt.mode)}, false)
			owner := at(tt.owner, 0, 0)
			d.Bake(&owner, animation.IdentityTransform(), 1, nil)
			assert.InDelta(t, tt.want, owner.Translation.X(), 1e-6)
		})
	}
}

func TestDistLimit_InvalidParams(t *testing.T) {
	_, err := NewDefinition("bDistLimitConstraint", Params{Distance: 1, Mode: 7}, false)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = NewDefinition("bDistLimitConstraint", Params{Distance: -1}, false)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestUnsupportedKindsWarnAndDoNothing(t *testing.T) {
	for _, name := range []string{"bKinematicConstraint", "bTrackToConstraint", "bChildOfConstraint", "bPythonConstraint"} {
		t.Run(name, func(t *testing.T) {
			rec := diagnostics.NewRecorder()
			d := mustDefinition(t, name, Params{Flag: 0xff}, true)

			owner := at(1, 2, 3)
			assert.NotPanics(t, func() { d.Bake(&owner, at(9, 9, 9), 1, rec) })
			assert.Equal(t, at(1, 2, 3), owner)

			notes := rec.WithCode(diagnostics.CodeUnsupportedConstraint)
			require.Len(t, notes, 1)
			assert.Equal(t, d.Kind().String(), notes[0].Feature)
			assert.Contains(t, notes[0].Message, name)
		})
	}
}

func TestNullConstraintIsSilent(t *testing.T) {
	rec := diagnostics.NewRecorder()
	d := mustDefinition(t, "bNullConstraint", Params{}, false)

	owner := at(1, 2, 3)
	d.Bake(&owner, at(9, 9, 9), 1, rec)
	assert.Equal(t, at(1, 2, 3), owner)
	assert.Zero(t, rec.Len())
}
