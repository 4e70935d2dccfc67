package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearPoints() []BezierPoint {
	return []BezierPoint{
		{Time: 1, Value: 0},
		{Time: 10, Value: 5},
	}
}

func easedPoints() []BezierPoint {
	return []BezierPoint{
		{Time: 0, Value: 0, HandleRight: Handle{Time: 3, Value: 0}},
		{Time: 10, Value: 10, HandleLeft: Handle{Time: -3, Value: 0}, HandleRight: Handle{Time: 2, Value: 4}},
		{Time: 20, Value: -5, HandleLeft: Handle{Time: -4, Value: 2}},
	}
}

func TestNewBezierCurve_RejectsEmpty(t *testing.T) {
	c, err := NewBezierCurve(LocX, nil)
	require.ErrorIs(t, err, ErrEmptyCurve)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "loc-x")
}

func TestMustBezierCurve_PanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { MustBezierCurve(LocX) })
}

func TestNewBezierCurve_SortsAndCopies(t *testing.T) {
	pts := []BezierPoint{{Time: 5, Value: 2}, {Time: 1, Value: 1}}
	c, err := NewBezierCurve(SizeY, pts)
	require.NoError(t, err)

	pts[0].Value = 99
	got := c.Points()
	require.Len(t, got, 2)
	assert.Equal(t, float32(1), got[0].Time)
	assert.Equal(t, float32(2), got[1].Value)
	assert.Equal(t, SizeY, c.Type())
}

func TestEvaluate_Clamps(t *testing.T) {
	c := MustBezierCurve(LocX, easedPoints()...)

	for _, f := range []float32{-100, -1, 0} {
		assert.Equal(t, float32(0), c.Evaluate(f), "frame %v", f)
	}
	for _, f := range []float32{20, 21, 1000} {
		assert.Equal(t, float32(-5), c.Evaluate(f), "frame %v", f)
	}
}

func TestEvaluate_SinglePoint(t *testing.T) {
	c := MustBezierCurve(RotZ, BezierPoint{Time: 4, Value: 7})
	assert.Equal(t, float32(7), c.Evaluate(-3))
	assert.Equal(t, float32(7), c.Evaluate(4))
	assert.Equal(t, float32(7), c.Evaluate(40))
	assert.Equal(t, float32(4), c.LastFrame())
}

func TestEvaluate_ZeroHandlesAreLinear(t *testing.T) {
	c := MustBezierCurve(LocX, linearPoints()...)
	for f := float32(1); f <= 10; f += 0.5 {
		want := (f - 1) / 9 * 5
		assert.InDelta(t, want, c.Evaluate(f), 1e-4, "frame %v", f)
	}
}

func TestEvaluate_ContinuousAtControlPoints(t *testing.T) {
	c := MustBezierCurve(LocY, easedPoints()...)
	const eps = 1e-4

	at := c.Evaluate(10)
	assert.InDelta(t, 10, at, 1e-5)
	assert.InDelta(t, at, c.Evaluate(10-eps), 1e-2)
	assert.InDelta(t, at, c.Evaluate(10+eps), 1e-2)
}

func TestEvaluate_EaseInEaseOutStaysInRange(t *testing.T) {
	c := MustBezierCurve(LocX,
		BezierPoint{Time: 0, Value: 0, HandleRight: Handle{Time: 4, Value: 0}},
		BezierPoint{Time: 10, Value: 1, HandleLeft: Handle{Time: -4, Value: 0}},
	)

	prev := c.Evaluate(0)
	for f := float32(0.25); f <= 10; f += 0.25 {
		v := c.Evaluate(f)
		assert.GreaterOrEqual(t, v, prev-1e-5, "frame %v", f)
		assert.LessOrEqual(t, v, float32(1)+1e-5)
		prev = v
	}
	// symmetric handles put the midpoint of the segment at the middle value
	assert.InDelta(t, 0.5, c.Evaluate(5), 1e-4)
	// ease-in: early frames lag a straight line
	assert.Less(t, c.Evaluate(1), float32(0.1))
}

func TestEvaluate_OverlongHandlesAreCorrected(t *testing.T) {
	c := MustBezierCurve(LocX,
		BezierPoint{Time: 0, Value: 0, HandleRight: Handle{Time: 30, Value: 0}},
		BezierPoint{Time: 10, Value: 1, HandleLeft: Handle{Time: -30, Value: 0}},
	)

	prev := c.Evaluate(0)
	for f := float32(0.5); f <= 10; f += 0.5 {
		v := c.Evaluate(f)
		assert.GreaterOrEqual(t, v, prev-1e-5, "frame %v", f)
		prev = v
	}
}

func TestEvaluate_Interpolations(t *testing.T) {
	tests := []struct {
		name  string
		ipo   Interpolation
		frame float32
		want  float32
	}{
		{"constant holds left value", InterpolationConstant, 7, 2},
		{"linear ignores handles", InterpolationLinear, 5, 4},
		{"linear at start", InterpolationLinear, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := MustBezierCurve(LocZ,
				BezierPoint{Time: 0, Value: 2, HandleRight: Handle{Time: 5, Value: 50}, Interpolation: tt.ipo},
				BezierPoint{Time: 10, Value: 6},
			)
			assert.InDelta(t, tt.want, c.Evaluate(tt.frame), 1e-5)
		})
	}
}

func TestEvaluate_DuplicateTimesPreferLaterPoint(t *testing.T) {
	c := MustBezierCurve(LocX,
		BezierPoint{Time: 0, Value: 0},
		BezierPoint{Time: 5, Value: 1},
		BezierPoint{Time: 5, Value: 3},
		BezierPoint{Time: 10, Value: 3},
	)
	assert.Equal(t, float32(3), c.Evaluate(5))
	assert.InDelta(t, 3, c.Evaluate(7), 1e-5)
}

func TestLastFrame_Minimum(t *testing.T) {
	c := MustBezierCurve(LocX, BezierPoint{Time: -4, Value: 0}, BezierPoint{Time: 0.5, Value: 1})
	assert.Equal(t, float32(1), c.LastFrame())
	assert.Equal(t, float32(-4), c.FirstFrame())
	assert.Equal(t, 2, c.Len())
}

func TestParseInterpolation(t *testing.T) {
	for _, ipo := range []Interpolation{InterpolationBezier, InterpolationLinear, InterpolationConstant} {
		got, err := ParseInterpolation(ipo.String())
		assert.NoError(t, err)
		assert.Equal(t, ipo, got)
	}

	got, err := ParseInterpolation(" Linear")
	assert.NoError(t, err)
	assert.Equal(t, InterpolationLinear, got)

	got, err = ParseInterpolation("")
	assert.NoError(t, err)
	assert.Equal(t, InterpolationBezier, got)

	_, err = ParseInterpolation("elastic")
	assert.Error(t, err)
}
