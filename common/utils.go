// package common contains small value helpers shared by the baking packages. They are not interface-wrapped structs,
// just plain functions over the mgl32 vector types.
package common

import "github.com/go-gl/mathgl/mgl32"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// NormalizeOrZero returns the unit vector of v, or the zero vector when v has no length.
// mgl32's Normalize divides by the length unconditionally and yields Inf/NaN for zero vectors.
//
// Parameters:
//   - v: the vector to normalize
//
// Returns:
//   - mgl32.Vec3: the normalized vector or the zero vector
func NormalizeOrZero(v mgl32.Vec3) mgl32.Vec3 {
	if v.LenSqr() == 0 {
		return mgl32.Vec3{}
	}
	return v.Normalize()
}
