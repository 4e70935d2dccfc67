package curve

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCurveType is returned when a channel cannot be mapped to a CurveType.
var ErrUnknownCurveType = errors.New("unknown curve type")

// CurveType tags the channel a BezierCurve animates. The values are Blender's Ipo adrcodes so
// curves read from pre-2.50 files can be tagged without translation.
type CurveType int

const (
	// LocX animates the X location.
	LocX CurveType = 1
	// LocY animates the Y location.
	LocY CurveType = 2
	// LocZ animates the Z location.
	LocZ CurveType = 3
	// RotX animates the euler X rotation.
	RotX CurveType = 7
	// RotY animates the euler Y rotation.
	RotY CurveType = 8
	// RotZ animates the euler Z rotation.
	RotZ CurveType = 9
	// SizeX animates the X scale.
	SizeX CurveType = 13
	// SizeY animates the Y scale.
	SizeY CurveType = 14
	// SizeZ animates the Z scale.
	SizeZ CurveType = 15
	// QuatW animates the W component of a quaternion rotation.
	QuatW CurveType = 25
	// QuatX animates the X component of a quaternion rotation.
	QuatX CurveType = 26
	// QuatY animates the Y component of a quaternion rotation.
	QuatY CurveType = 27
	// QuatZ animates the Z component of a quaternion rotation.
	QuatZ CurveType = 28
)

var curveTypeNames = map[CurveType]string{
	LocX: "loc-x", LocY: "loc-y", LocZ: "loc-z",
	RotX: "rot-x", RotY: "rot-y", RotZ: "rot-z",
	SizeX: "scale-x", SizeY: "scale-y", SizeZ: "scale-z",
	QuatW: "quat-w", QuatX: "quat-x", QuatY: "quat-y", QuatZ: "quat-z",
}

// String returns the channel name of the curve type.
func (t CurveType) String() string {
	if name, ok := curveTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("curve-type(%d)", int(t))
}

// Valid reports whether t is one of the known channel tags.
//
// Returns:
//   - bool: true if the tag can be routed into a track
func (t CurveType) Valid() bool {
	_, ok := curveTypeNames[t]
	return ok
}

// IsLocation reports whether t animates a location component.
func (t CurveType) IsLocation() bool { return t >= LocX && t <= LocZ }

// IsEulerRotation reports whether t animates an euler rotation component.
func (t CurveType) IsEulerRotation() bool { return t >= RotX && t <= RotZ }

// IsScale reports whether t animates a scale component.
func (t CurveType) IsScale() bool { return t >= SizeX && t <= SizeZ }

// IsQuaternionRotation reports whether t animates a quaternion component.
func (t CurveType) IsQuaternionRotation() bool { return t >= QuatW && t <= QuatZ }

// ParseCurveType resolves a channel name as produced by CurveType.String.
//
// Parameters:
//   - name: the channel name, e.g. "loc-x" or "quat-w"
//
// Returns:
//   - CurveType: the matching tag
//   - error: ErrUnknownCurveType wrapping the name if it is not recognized
func ParseCurveType(name string) (CurveType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for t, s := range curveTypeNames {
		if s == n {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCurveType, name)
}

// CurveTypeFromRNAPath maps a Blender 2.50+ F-curve (RNA data path plus array index) to a CurveType.
//
// Parameters:
//   - rnaPath: the F-curve data path, e.g. `pose.bones["arm"].location`
//   - arrayIndex: the component index within the animated property
//
// Returns:
//   - CurveType: the channel tag
//   - error: ErrUnknownCurveType wrapping the path when the property is not a transform channel
func CurveTypeFromRNAPath(rnaPath string, arrayIndex int) (CurveType, error) {
	var t CurveType
	switch {
	case strings.HasSuffix(rnaPath, "location"):
		t = LocX + CurveType(arrayIndex)
	case strings.HasSuffix(rnaPath, "rotation_quaternion"):
		t = QuatW + CurveType(arrayIndex)
	case strings.HasSuffix(rnaPath, "scale"):
		t = SizeX + CurveType(arrayIndex)
	case strings.HasSuffix(rnaPath, "rotation"), strings.HasSuffix(rnaPath, "rotation_euler"):
		t = RotX + CurveType(arrayIndex)
	default:
		return 0, fmt.Errorf("%w: rna path %q", ErrUnknownCurveType, rnaPath)
	}

	maxIndex := 2
	if t.IsQuaternionRotation() {
		maxIndex = 3
	}
	if arrayIndex < 0 || arrayIndex > maxIndex {
		return 0, fmt.Errorf("%w: rna path %q index %d", ErrUnknownCurveType, rnaPath, arrayIndex)
	}
	return t, nil
}
