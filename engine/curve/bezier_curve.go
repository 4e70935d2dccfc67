package curve

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
)

// ErrEmptyCurve is returned when a curve is constructed without control points.
var ErrEmptyCurve = errors.New("curve has no control points")

const (
	// solveTolerance is the frame distance at which the time→parameter search stops.
	solveTolerance = 1e-7
	// solveIterations bounds the bisection; 64 halvings exhaust float64 precision.
	solveIterations = 64
)

// Interpolation selects how the segment starting at a control point is evaluated.
type Interpolation int

const (
	// InterpolationBezier evaluates the cubic segment shaped by the point handles.
	InterpolationBezier Interpolation = iota
	// InterpolationLinear draws a straight line to the next point, ignoring handles.
	InterpolationLinear
	// InterpolationConstant holds the point value until the next point.
	InterpolationConstant
)

// String returns the interpolation name.
func (i Interpolation) String() string {
	switch i {
	case InterpolationBezier:
		return "bezier"
	case InterpolationLinear:
		return "linear"
	case InterpolationConstant:
		return "constant"
	default:
		return fmt.Sprintf("interpolation(%d)", int(i))
	}
}

// ParseInterpolation resolves an interpolation name as produced by Interpolation.String.
// An empty name selects InterpolationBezier, Blender's default.
//
// Parameters:
//   - name: "bezier", "linear" or "constant", case-insensitive
//
// Returns:
//   - Interpolation: the interpolation mode
//   - error: if the name is not recognized
func ParseInterpolation(name string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bezier":
		return InterpolationBezier, nil
	case "linear":
		return InterpolationLinear, nil
	case "constant":
		return InterpolationConstant, nil
	default:
		return 0, fmt.Errorf("curve: unknown interpolation %q", name)
	}
}

// Handle is a bezier handle stored as an offset from its control point.
type Handle struct {
	// Time is the frame offset of the handle.
	Time float32
	// Value is the value offset of the handle.
	Value float32
}

// BezierPoint is one control point of a BezierCurve.
type BezierPoint struct {
	// Time is the frame of the point.
	Time float32
	// Value is the curve value at Time.
	Value float32
	// HandleLeft shapes the segment ending at this point. Its Time is expected to be <= 0.
	HandleLeft Handle
	// HandleRight shapes the segment starting at this point. Its Time is expected to be >= 0.
	HandleRight Handle
	// Interpolation selects how the segment starting at this point is evaluated.
	Interpolation Interpolation
}

// BezierCurve is an immutable piecewise cubic curve over frames, tagged with the channel it animates.
type BezierCurve struct {
	curveType CurveType
	points    []BezierPoint
}

// NewBezierCurve creates a curve from the given control points. The points are copied and sorted
// by time; the input slice is not retained.
//
// Parameters:
//   - t: the channel the curve animates
//   - points: the control points (at least one)
//
// Returns:
//   - *BezierCurve: the curve
//   - error: ErrEmptyCurve if points is empty
func NewBezierCurve(t CurveType, points []BezierPoint) (*BezierCurve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: channel %s", ErrEmptyCurve, t)
	}
	ps := slices.Clone(points)
	slices.SortStableFunc(ps, func(a, b BezierPoint) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return &BezierCurve{curveType: t, points: ps}, nil
}

// MustBezierCurve is like NewBezierCurve but panics when no points are given.
// Use it where an empty curve is a caller bug rather than malformed input.
//
// Parameters:
//   - t: the channel the curve animates
//   - points: the control points (at least one)
//
// Returns:
//   - *BezierCurve: the curve
func MustBezierCurve(t CurveType, points ...BezierPoint) *BezierCurve {
	c, err := NewBezierCurve(t, points)
	if err != nil {
		panic("curve: " + err.Error())
	}
	return c
}

// Type returns the channel tag of the curve.
func (c *BezierCurve) Type() CurveType {
	return c.curveType
}

// Len returns the number of control points.
func (c *BezierCurve) Len() int {
	return len(c.points)
}

// Points returns a copy of the control points in time order.
func (c *BezierCurve) Points() []BezierPoint {
	return slices.Clone(c.points)
}

// FirstFrame returns the time of the first control point.
func (c *BezierCurve) FirstFrame() float32 {
	return c.points[0].Time
}

// LastFrame returns the time of the final control point, never less than 1.
func (c *BezierCurve) LastFrame() float32 {
	return max(c.points[len(c.points)-1].Time, 1)
}

// Evaluate returns the curve value at the given frame. Frames at or before the first point yield
// the first value and frames at or after the last point yield the last value.
//
// Parameters:
//   - frame: the frame to evaluate at (may be fractional)
//
// Returns:
//   - float32: the curve value
func (c *BezierCurve) Evaluate(frame float32) float32 {
	first, last := c.points[0], c.points[len(c.points)-1]
	if frame <= first.Time {
		return first.Value
	}
	if frame >= last.Time {
		return last.Value
	}

	// index of the first point strictly after frame; always in [1, len-1] here
	j := sort.Search(len(c.points), func(i int) bool { return c.points[i].Time > frame })
	return evaluateSegment(c.points[j-1], c.points[j], frame)
}

func evaluateSegment(p0, p1 BezierPoint, frame float32) float32 {
	dt := float64(p1.Time) - float64(p0.Time)
	if dt <= 0 {
		return p1.Value
	}
	u := (float64(frame) - float64(p0.Time)) / dt

	switch p0.Interpolation {
	case InterpolationConstant:
		return p0.Value
	case InterpolationLinear:
		return float32(float64(p0.Value) + (float64(p1.Value)-float64(p0.Value))*u)
	}

	out, in := correctHandles(p0.HandleRight, p1.HandleLeft, dt)
	x0, x3 := float64(p0.Time), float64(p1.Time)
	x1, x2 := x0+out.t, x3+in.t
	v0, v3 := float64(p0.Value), float64(p1.Value)
	v1, v2 := v0+out.v, v3+in.v

	s := solveParameter(x0, x1, x2, x3, float64(frame))
	return float32(cubic(v0, v1, v2, v3, s))
}

type handle64 struct {
	t, v float64
}

// correctHandles keeps the time components of both handles inside the segment and scales them down
// when they overlap, so the segment's time axis is monotone in the bezier parameter.
func correctHandles(right, left Handle, dt float64) (handle64, handle64) {
	out := clampHandle(right, 0, dt)
	in := clampHandle(left, -dt, 0)

	if sum := out.t - in.t; sum > dt {
		f := dt / sum
		out.t, out.v = out.t*f, out.v*f
		in.t, in.v = in.t*f, in.v*f
	}
	return out, in
}

func clampHandle(h Handle, lo, hi float64) handle64 {
	t, v := float64(h.Time), float64(h.Value)
	ct := math.Min(math.Max(t, lo), hi)
	if t != 0 && ct != t {
		v *= ct / t
	}
	return handle64{t: ct, v: v}
}

// solveParameter inverts the monotone time polynomial of a segment by bisection.
func solveParameter(x0, x1, x2, x3, frame float64) float64 {
	lo, hi := 0.0, 1.0
	s := 0.5
	for range solveIterations {
		s = (lo + hi) * 0.5
		x := cubic(x0, x1, x2, x3, s)
		if math.Abs(x-frame) < solveTolerance {
			break
		}
		if x < frame {
			lo = s
		} else {
			hi = s
		}
	}
	return s
}

func cubic(p0, p1, p2, p3, s float64) float64 {
	r := 1 - s
	return r*r*r*p0 + 3*r*r*s*p1 + 3*r*s*s*p2 + s*s*s*p3
}
