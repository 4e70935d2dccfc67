package animation

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a decomposed translation, rotation and scale. It is a plain value: copies never
// share storage, so a Transform read out of a Track can be modified freely.
type Transform struct {
	// Translation is the position offset.
	Translation mgl32.Vec3

	// Rotation is the orientation quaternion.
	Rotation mgl32.Quat

	// Scale is the scale factor along each axis.
	Scale mgl32.Vec3
}

// IdentityTransform returns the transform with zero translation, identity rotation and unit scale.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// NewTransform assembles a transform from its components.
//
// Parameters:
//   - translation: the position offset
//   - rotation: the orientation quaternion
//   - scale: the per-axis scale
//
// Returns:
//   - Transform: the transform
func NewTransform(translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) Transform {
	return Transform{Translation: translation, Rotation: rotation, Scale: scale}
}

// ApproxEqual compares two transforms component-wise within the given threshold. Rotations are
// compared by orientation, so q and -q are equal.
//
// Parameters:
//   - o: the transform to compare with
//   - epsilon: the per-component tolerance
//
// Returns:
//   - bool: true if all components are within epsilon
func (t Transform) ApproxEqual(o Transform, epsilon float32) bool {
	return t.Translation.ApproxEqualThreshold(o.Translation, epsilon) &&
		t.Scale.ApproxEqualThreshold(o.Scale, epsilon) &&
		t.Rotation.OrientationEqualThreshold(o.Rotation, epsilon)
}

// String formats the transform for logs.
func (t Transform) String() string {
	return fmt.Sprintf("T%v R(%v %v) S%v", t.Translation, t.Rotation.W, t.Rotation.V, t.Scale)
}
