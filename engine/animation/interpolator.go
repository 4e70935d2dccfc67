package animation

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// bracket returns the greatest index whose time is strictly less than t, or -1 when there is none,
// together with the interpolation scale towards the following sample.
func bracket(times []float32, t float32) (int, float32) {
	i := sort.Search(len(times), func(k int) bool { return times[k] >= t }) - 1
	if i < 0 || i >= len(times)-1 {
		return i, 0
	}
	dt := times[i+1] - times[i]
	if dt == 0 {
		return i, 1
	}
	return i, (t - times[i]) / dt
}

// InterpolateVector samples a vector channel at time t by linear interpolation between the two
// keyframes bracketing t. Times at or before the first keyframe return the first sample, times past
// the last keyframe return the last sample, and every keyframe time returns its sample exactly.
//
// Parameters:
//   - times: keyframe times, strictly increasing
//   - samples: one vector per keyframe
//   - t: the sample time
//
// Returns:
//   - mgl32.Vec3: the interpolated vector, or the zero vector for an empty channel
func InterpolateVector(times []float32, samples []mgl32.Vec3, t float32) mgl32.Vec3 {
	n := min(len(times), len(samples))
	if n == 0 {
		return mgl32.Vec3{}
	}
	i, s := bracket(times[:n], t)
	switch {
	case i < 0:
		return samples[0]
	case i >= n-1:
		return samples[n-1]
	}

	a, b := samples[i], samples[i+1]
	if a == b || s >= 1 {
		return b
	}
	return a.Mul(1 - s).Add(b.Mul(s))
}

// InterpolateQuaternion samples a rotation channel at time t by spherical linear interpolation
// between the two keyframes bracketing t. The edge rules match InterpolateVector; interpolated
// results are unit quaternions.
//
// Parameters:
//   - times: keyframe times, strictly increasing
//   - samples: one rotation per keyframe
//   - t: the sample time
//
// Returns:
//   - mgl32.Quat: the interpolated rotation, or identity for an empty channel
func InterpolateQuaternion(times []float32, samples []mgl32.Quat, t float32) mgl32.Quat {
	n := min(len(times), len(samples))
	if n == 0 {
		return mgl32.QuatIdent()
	}
	i, s := bracket(times[:n], t)
	switch {
	case i < 0:
		return samples[0]
	case i >= n-1:
		return samples[n-1]
	}

	a, b := samples[i], samples[i+1]
	if s >= 1 {
		return b
	}
	if a == b {
		return a.Normalize()
	}
	return mgl32.QuatSlerp(a, b, s)
}
