package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DegToRad is the factor converting degrees to radians.
const DegToRad = float32(math.Pi / 180.0)

// halfPi is used by QuatToEuler at the gimbal poles.
const halfPi = float32(math.Pi / 2.0)

// EulerToQuat builds a unit quaternion from Euler angles in radians.
// The angles are applied in yaw (Y), roll (Z), pitch (X) order, which is the convention of the
// engine the baked tracks are played back in.
//
// Parameters:
//   - x: pitch angle around the X axis in radians
//   - y: yaw angle around the Y axis in radians
//   - z: roll angle around the Z axis in radians
//
// Returns:
//   - mgl32.Quat: the normalized rotation quaternion
func EulerToQuat(x, y, z float32) mgl32.Quat {
	sinZ, cosZ := sincos(z * 0.5)
	sinY, cosY := sincos(y * 0.5)
	sinX, cosX := sincos(x * 0.5)

	cosYcosZ := cosY * cosZ
	sinYsinZ := sinY * sinZ
	cosYsinZ := cosY * sinZ
	sinYcosZ := sinY * cosZ

	q := mgl32.Quat{
		W: cosYcosZ*cosX - sinYsinZ*sinX,
		V: mgl32.Vec3{
			cosYcosZ*sinX + sinYsinZ*cosX,
			sinYcosZ*cosX + cosYsinZ*sinX,
			cosYsinZ*cosX - sinYcosZ*sinX,
		},
	}
	return q.Normalize()
}

// QuatToEuler is the inverse of EulerToQuat. Near the gimbal poles the pitch is forced to zero and
// the whole rotation is expressed through yaw and roll.
//
// Parameters:
//   - q: the rotation quaternion (need not be normalized)
//
// Returns:
//   - [3]float32: the pitch (X), yaw (Y) and roll (Z) angles in radians
func QuatToEuler(q mgl32.Quat) [3]float32 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	sqw, sqx, sqy, sqz := w*w, x*x, y*y, z*z
	unit := sqx + sqy + sqz + sqw
	if unit == 0 {
		return [3]float32{}
	}
	test := x*y + z*w

	var angles [3]float32
	switch {
	case test > 0.499*unit:
		angles[1] = 2 * atan2(x, w)
		angles[2] = halfPi
	case test < -0.499*unit:
		angles[1] = -2 * atan2(x, w)
		angles[2] = -halfPi
	default:
		angles[1] = atan2(2*y*w-2*x*z, sqx-sqy-sqz+sqw)
		angles[2] = float32(math.Asin(float64(mgl32.Clamp(2*test/unit, -1, 1))))
		angles[0] = atan2(2*x*w-2*y*z, -sqx+sqy-sqz+sqw)
	}
	return angles
}

// SwapYZ exchanges the Y and Z components of a vector.
// Used to move data between Blender's Z-up and the engine's Y-up world.
//
// Parameters:
//   - v: the source vector
//
// Returns:
//   - mgl32.Vec3: the vector with Y and Z exchanged
func SwapYZ(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[2], v[1]}
}

// Clamp01 restricts a value to the closed range [0, 1].
//
// Parameters:
//   - v: the value to clamp
//
// Returns:
//   - float32: v limited to [0, 1]
func Clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}

// Lerp linearly interpolates between a and b.
//
// Parameters:
//   - a: the value at amount 0
//   - b: the value at amount 1
//   - amount: the blend factor
//
// Returns:
//   - float32: a + (b-a)*amount
func Lerp(a, b, amount float32) float32 {
	return a + (b-a)*amount
}

func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}

func atan2(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)))
}
