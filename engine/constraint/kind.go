package constraint

import (
	"errors"
	"fmt"
)

// ErrUnknownConstraintType is returned when a constraint type name has no registered Kind.
var ErrUnknownConstraintType = errors.New("unknown constraint type")

// Kind identifies a Blender constraint type.
type Kind int

const (
	KindNull Kind = iota
	KindChildOf
	KindTrackTo
	KindKinematic
	KindFollowPath
	KindRotLimit
	KindLocLimit
	KindSizeLimit
	KindRotLike
	KindLocLike
	KindSizeLike
	KindPython
	KindAction
	KindLockTrack
	KindDistLimit
	KindStretchTo
	KindMinMax
	KindRigidBodyJoint
	KindClampTo
	KindTransform
	KindShrinkWrap
	KindDampTrack
	KindSplineIK
	KindTransLike
	KindSameVolume
	KindPivot
	KindFollowTrack
	KindCameraSolver
	KindObjectSolver
)

type kindInfo struct {
	name     string
	typeName string
}

var kinds = map[Kind]kindInfo{
	KindNull:           {"Null", "bNullConstraint"},
	KindChildOf:        {"ChildOf", "bChildOfConstraint"},
	KindTrackTo:        {"TrackTo", "bTrackToConstraint"},
	KindKinematic:      {"InverseKinematics", "bKinematicConstraint"},
	KindFollowPath:     {"FollowPath", "bFollowPathConstraint"},
	KindRotLimit:       {"LimitRotation", "bRotLimitConstraint"},
	KindLocLimit:       {"LimitLocation", "bLocLimitConstraint"},
	KindSizeLimit:      {"LimitScale", "bSizeLimitConstraint"},
	KindRotLike:        {"CopyRotation", "bRotateLikeConstraint"},
	KindLocLike:        {"CopyLocation", "bLocateLikeConstraint"},
	KindSizeLike:       {"CopyScale", "bSizeLikeConstraint"},
	KindPython:         {"Python", "bPythonConstraint"},
	KindAction:         {"Action", "bActionConstraint"},
	KindLockTrack:      {"LockTrack", "bLockTrackConstraint"},
	KindDistLimit:      {"LimitDistance", "bDistLimitConstraint"},
	KindStretchTo:      {"StretchTo", "bStretchToConstraint"},
	KindMinMax:         {"MinMax", "bMinMaxConstraint"},
	KindRigidBodyJoint: {"RigidBodyJoint", "bRigidBodyJointConstraint"},
	KindClampTo:        {"ClampTo", "bClampToConstraint"},
	KindTransform:      {"Transform", "bTransformConstraint"},
	KindShrinkWrap:     {"ShrinkWrap", "bShrinkwrapConstraint"},
	KindDampTrack:      {"DampTrack", "bDampTrackConstraint"},
	KindSplineIK:       {"SplineIK", "bSplineIKConstraint"},
	KindTransLike:      {"CopyTransforms", "bTransLikeConstraint"},
	KindSameVolume:     {"MaintainVolume", "bSameVolumeConstraint"},
	KindPivot:          {"Pivot", "bPivotConstraint"},
	KindFollowTrack:    {"FollowTrack", "bFollowTrackConstraint"},
	KindCameraSolver:   {"CameraSolver", "bCameraSolverConstraint"},
	KindObjectSolver:   {"ObjectSolver", "bObjectSolverConstraint"},
}

var kindsByTypeName = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for k, info := range kinds {
		m[info.typeName] = k
	}
	return m
}()

// String returns the display name of the kind, e.g. "CopyLocation".
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// TypeName returns the Blender DNA structure name of the kind, e.g. "bLocateLikeConstraint".
func (k Kind) TypeName() string {
	return kinds[k].typeName
}

// Supported reports whether constraints of this kind change the baked animation.
// Null is supported trivially; it never changes anything and never warns.
func (k Kind) Supported() bool {
	switch k {
	case KindNull, KindLocLike, KindRotLike, KindSizeLike,
		KindLocLimit, KindRotLimit, KindSizeLimit, KindDistLimit:
		return true
	default:
		return false
	}
}

// KindFromTypeName resolves a Blender constraint DNA structure name.
//
// Parameters:
//   - typeName: the structure name, e.g. "bSizeLikeConstraint"
//
// Returns:
//   - Kind: the matching kind
//   - error: ErrUnknownConstraintType wrapping the name if it is not registered
func KindFromTypeName(typeName string) (Kind, error) {
	if k, ok := kindsByTypeName[typeName]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownConstraintType, typeName)
}
