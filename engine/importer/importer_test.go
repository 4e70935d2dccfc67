package importer

import (
	"context"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
	"github.com/Carmen-Shannon/oxy-blend/engine/constraint"
	"github.com/Carmen-Shannon/oxy-blend/engine/curve"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
	"github.com/Carmen-Shannon/oxy-blend/engine/model"
)

// recordingMeter sums every Int64Counter by instrument name.
type recordingMeter struct {
	noop.Meter
	mu     sync.Mutex
	counts map[string]int64
}

func newRecordingMeter() *recordingMeter {
	return &recordingMeter{counts: make(map[string]int64)}
}

func (m *recordingMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return &recordingCounter{name: name, m: m}, nil
}

func (m *recordingMeter) count(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

type recordingCounter struct {
	noop.Int64Counter
	name string
	m    *recordingMeter
}

func (c *recordingCounter) Add(_ context.Context, v int64, _ ...metric.AddOption) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.m.counts[c.name] += v
}

func armSkeleton(t *testing.T) *model.Skeleton {
	t.Helper()
	root := model.IdentityTransform()
	root.Translation = [3]float32{5, 0, 0}
	arm := model.IdentityTransform()
	arm.Translation = [3]float32{0, 0, 2}
	s, err := model.NewSkeleton([]model.Bone{
		{Name: "root", ParentIndex: -1, LocalTransform: root},
		{Name: "arm", ParentIndex: 0, LocalTransform: arm},
	})
	require.NoError(t, err)
	return s
}

// slideAction moves each feature along X from 0 to 2 over frames 1..3 at one frame per second.
func slideAction(t *testing.T, name string, features ...string) *animation.BlenderAction {
	t.Helper()
	a := animation.NewBlenderAction(name, 1)
	for _, f := range features {
		ipo, err := animation.NewIpo([]*curve.BezierCurve{curve.MustBezierCurve(curve.LocX,
			curve.BezierPoint{Time: 1, Value: 0, Interpolation: curve.InterpolationLinear},
			curve.BezierPoint{Time: 3, Value: 2},
		)}, false, 250)
		require.NoError(t, err)
		a.AddFeature(f, ipo)
	}
	return a
}

func newTestImporter(t *testing.T, options ...ImporterBuilderOption) Importer {
	t.Helper()
	im, err := NewImporter(append([]ImporterBuilderOption{WithWorkers(2)}, options...)...)
	require.NoError(t, err)
	t.Cleanup(im.Close)
	return im
}

func xs(ch model.AnimationChannel) []float32 {
	out := make([]float32, len(ch.PositionKeys))
	for i, k := range ch.PositionKeys {
		out[i] = k.Value[0]
	}
	return out
}

func TestImporter_ActionLibrary(t *testing.T) {
	im := newTestImporter(t, WithAction(slideAction(t, "wave", "arm")))
	im.AddAction(slideAction(t, "idle", "root"))
	im.AddAction(slideAction(t, "wave", "root"))
	im.AddAction(nil)

	assert.Equal(t, []string{"wave", "idle"}, im.Actions())
	require.NotNil(t, im.Action("wave"))
	assert.Equal(t, []string{"root"}, im.Action("wave").FeatureNames())
	assert.Nil(t, im.Action("run"))
}

func TestImporter_BakeSkeleton(t *testing.T) {
	meter := newRecordingMeter()
	rec := diagnostics.NewRecorder()
	im := newTestImporter(t, WithMeter(meter), WithSink(rec))
	im.AddAction(slideAction(t, "wave", "arm", "tail"))
	im.AddAction(slideAction(t, "idle", "root"))

	clips, report, err := im.BakeSkeleton(context.Background(), armSkeleton(t), []string{"wave", "run", "idle"})
	require.NoError(t, err)
	require.Len(t, clips, 2)

	wave := clips[0]
	assert.Equal(t, "wave", wave.Name)
	assert.Equal(t, float32(2), wave.Duration)
	require.Len(t, wave.Channels, 1)
	ch := wave.Channels[0]
	assert.Equal(t, "arm", ch.Target)
	assert.Equal(t, int32(1), ch.BoneIndex)
	assert.InDeltaSlice(t, []float32{0, 1, 2}, xs(ch), 1e-5)
	assert.Equal(t, float32(2), ch.PositionKeys[2].Value[2])

	assert.Equal(t, "idle", clips[1].Name)
	assert.InDeltaSlice(t, []float32{5, 6, 7}, xs(clips[1].Channels[0]), 1e-5)

	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], ErrActionNotFound)
	assert.ErrorIs(t, report.Err(), ErrActionNotFound)
	assert.Equal(t, 2, report.Tracks)
	assert.Equal(t, 6, report.Frames)

	missing := rec.WithCode(diagnostics.CodeMissingBone)
	require.Len(t, missing, 1)
	assert.Equal(t, "tail", missing[0].Feature)
	assert.Equal(t, 1, report.Warnings())

	assert.Equal(t, int64(2), meter.count("bake.tracks"))
	assert.Equal(t, int64(6), meter.count("bake.frames"))
}

func TestImporter_BakeAllActions(t *testing.T) {
	im := newTestImporter(t)
	im.AddAction(slideAction(t, "a", "arm"))
	im.AddAction(slideAction(t, "b", "arm"))
	im.AddAction(slideAction(t, "c", "arm"))

	clips, report, err := im.BakeSkeleton(context.Background(), armSkeleton(t), nil)
	require.NoError(t, err)
	require.Len(t, clips, 3)
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, clips[i].Name)
	}
	assert.NoError(t, report.Err())
}

func TestImporter_Constraints(t *testing.T) {
	meter := newRecordingMeter()
	im := newTestImporter(t, WithMeter(meter))
	im.AddAction(slideAction(t, "wave", "arm"))

	limit, err := constraint.New("Limit", "bLocLimitConstraint", constraint.Params{
		Flag: constraint.LimitXMax,
		Max:  mgl32.Vec3{0.5, 0, 0},
	}, nil, false)
	require.NoError(t, err)
	ik, err := constraint.New("IK", "bKinematicConstraint", constraint.Params{}, nil, false)
	require.NoError(t, err)
	im.AddConstraint("arm", limit, "")
	im.AddConstraint("arm", ik, "root")
	im.AddConstraint("spine", limit, "")
	im.AddConstraint("arm", nil, "")

	clips, report, err := im.BakeSkeleton(context.Background(), armSkeleton(t), nil)
	require.NoError(t, err)
	require.Len(t, clips, 1)
	assert.InDeltaSlice(t, []float32{0, 0.5, 0.5}, xs(clips[0].Channels[0]), 1e-5)

	codes := make([]diagnostics.Code, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		codes = append(codes, d.Code)
	}
	assert.ElementsMatch(t, []diagnostics.Code{
		diagnostics.CodeMissingTargetTrack,
		diagnostics.CodeUnsupportedConstraint,
	}, codes)
	assert.Equal(t, int64(1), meter.count("bake.unsupported_constraints"))
}

func TestImporter_ConstraintTargets(t *testing.T) {
	copyX, err := constraint.New("Copy", "bLocateLikeConstraint", constraint.Params{Flag: constraint.CopyX}, nil, false)
	require.NoError(t, err)

	t.Run("rest transform of an unanimated bone", func(t *testing.T) {
		im := newTestImporter(t)
		im.AddAction(slideAction(t, "wave", "arm"))
		im.AddConstraint("arm", copyX, "root")

		clips, _, err := im.BakeSkeleton(context.Background(), armSkeleton(t), nil)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float32{5, 5, 5}, xs(clips[0].Channels[0]), 1e-5)
	})

	t.Run("rest transform override", func(t *testing.T) {
		im := newTestImporter(t)
		im.AddAction(slideAction(t, "wave", "arm"))
		im.AddConstraint("arm", copyX, "root")
		im.SetRestTransform("root", animation.NewTransform(mgl32.Vec3{-3, 0, 0}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}))

		clips, _, err := im.BakeSkeleton(context.Background(), armSkeleton(t), nil)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float32{-3, -3, -3}, xs(clips[0].Channels[0]), 1e-5)
	})

	t.Run("animated target", func(t *testing.T) {
		im := newTestImporter(t)
		im.AddAction(slideAction(t, "wave", "arm", "root"))
		im.AddConstraint("arm", copyX, "root")

		clips, report, err := im.BakeSkeleton(context.Background(), armSkeleton(t), nil)
		require.NoError(t, err)
		require.Len(t, clips[0].Channels, 2)
		for _, ch := range clips[0].Channels {
			assert.InDeltaSlice(t, []float32{5, 6, 7}, xs(ch), 1e-5, ch.Target)
		}
		assert.Empty(t, report.Diagnostics)
	})
}

func TestImporter_BakeSpatial(t *testing.T) {
	im := newTestImporter(t)
	im.AddAction(slideAction(t, "open", "door", "window"))

	bind := animation.NewTransform(mgl32.Vec3{0, 1, 0}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
	clips, report, err := im.BakeSpatial(context.Background(), "door", bind, nil)
	require.NoError(t, err)
	require.Len(t, clips, 1)
	require.Len(t, clips[0].Channels, 1)

	ch := clips[0].Channels[0]
	assert.Equal(t, "door", ch.Target)
	assert.Equal(t, int32(-1), ch.BoneIndex)
	assert.InDeltaSlice(t, []float32{0, 1, 2}, xs(ch), 1e-5)
	assert.Equal(t, float32(1), ch.PositionKeys[0].Value[1])
	assert.Empty(t, report.Diagnostics)
}

func TestImporter_ConstantFeatureIsSkipped(t *testing.T) {
	a := slideAction(t, "wave", "arm")
	a.AddFeature("root", animation.NewConstIpo(1))
	im := newTestImporter(t, WithAction(a))

	clips, report, err := im.BakeSkeleton(context.Background(), armSkeleton(t), nil)
	require.NoError(t, err)
	require.Len(t, clips, 1)
	assert.Len(t, clips[0].Channels, 1)
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], animation.ErrNoCurves)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, diagnostics.CodeFeatureFailed, report.Diagnostics[0].Code)
}

func TestImporter_Cancelled(t *testing.T) {
	im := newTestImporter(t, WithAction(slideAction(t, "wave", "arm")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clips, report, err := im.BakeSkeleton(ctx, armSkeleton(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, clips)
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], context.Canceled)
}

func TestImporter_Errors(t *testing.T) {
	im := newTestImporter(t)
	_, _, err := im.BakeSkeleton(context.Background(), nil, nil)
	assert.ErrorIs(t, err, model.ErrInvalidSkeleton)

	im.Close()
	_, _, err = im.BakeSpatial(context.Background(), "door", animation.IdentityTransform(), nil)
	assert.ErrorIs(t, err, ErrImporterClosed)
}

func TestImporter_RepeatedBakeKeepsCurveWarnings(t *testing.T) {
	ipo, err := animation.NewIpo([]*curve.BezierCurve{
		curve.MustBezierCurve(curve.RotX, curve.BezierPoint{Time: 1, Value: 0}, curve.BezierPoint{Time: 3, Value: 1}),
		curve.MustBezierCurve(curve.QuatW, curve.BezierPoint{Time: 1, Value: 1}, curve.BezierPoint{Time: 3, Value: 1}),
	}, false, 250)
	require.NoError(t, err)
	twist := animation.NewBlenderAction("twist", 1)
	twist.AddFeature("arm", ipo)

	im := newTestImporter(t, WithAction(twist))
	skeleton := armSkeleton(t)
	for range 2 {
		_, report, err := im.BakeSkeleton(context.Background(), skeleton, nil)
		require.NoError(t, err)

		var ambiguous int
		for _, d := range report.Diagnostics {
			if d.Code == diagnostics.CodeAmbiguousRotation {
				ambiguous++
				assert.Equal(t, "arm", d.Feature)
			}
		}
		assert.Equal(t, 1, ambiguous)
	}
}
