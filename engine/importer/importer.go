package importer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
	"github.com/Carmen-Shannon/oxy-blend/engine/constraint"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
	"github.com/Carmen-Shannon/oxy-blend/engine/model"
	"github.com/Carmen-Shannon/oxy-blend/engine/profiler"
)

var (
	// ErrActionNotFound is recorded in a Report for every requested action the importer does not hold.
	ErrActionNotFound = errors.New("action not found")
	// ErrImporterClosed is returned by bake calls after Close.
	ErrImporterClosed = errors.New("importer is closed")
)

// boundConstraint is a constraint registered for an owner feature.
type boundConstraint struct {
	owner  string
	target string
	c      *constraint.Constraint
}

// importer is the implementation of the Importer interface.
type importer struct {
	mu sync.RWMutex

	logger zerolog.Logger
	sink   diagnostics.Sink

	workers int
	pool    worker.DynamicWorkerPool
	taskID  atomic.Int64

	profiler         *profiler.Profiler
	profilingEnabled bool
	profileInterval  time.Duration

	meter   metric.Meter
	metrics *bakeMetrics

	actions     map[string]*animation.BlenderAction
	actionOrder []string
	constraints []boundConstraint
	rest        map[string]animation.Transform

	closed bool
}

// Importer holds a library of Blender actions and constraints and bakes them into animation clips
// for a skeleton or a single spatial. Every action is baked as an independent job on a worker pool;
// the frames of one track are always baked sequentially.
type Importer interface {
	// AddAction registers an action, replacing any action with the same name.
	//
	// Parameters:
	//   - action: the action to register
	AddAction(action *animation.BlenderAction)

	// Action retrieves a registered action by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the action name
	//
	// Returns:
	//   - *animation.BlenderAction: the action or nil
	Action(name string) *animation.BlenderAction

	// Actions returns the names of all registered actions in registration order.
	//
	// Returns:
	//   - []string: the action names
	Actions() []string

	// AddConstraint registers a constraint on a bone or object. Constraints are applied in
	// registration order after the owner's track is baked.
	//
	// Parameters:
	//   - feature: the constrained bone or object
	//   - c: the constraint
	//   - targetFeature: the bone or object the constraint reads from, empty for none
	AddConstraint(feature string, c *constraint.Constraint, targetFeature string)

	// SetRestTransform overrides the transform used for a constraint target that the baked
	// action does not animate. Bone targets default to their bind transform, others to identity.
	//
	// Parameters:
	//   - feature: the bone or object name
	//   - t: the rest transform
	SetRestTransform(feature string, t animation.Transform)

	// BakeSkeleton bakes actions onto the bones of a skeleton.
	// Features naming no bone are reported as missing-bone and skipped.
	//
	// Parameters:
	//   - ctx: checked before each action starts baking
	//   - skeleton: the skeleton providing bone indices and bind transforms
	//   - actionNames: the actions to bake; empty bakes every registered action
	//
	// Returns:
	//   - []*model.AnimationClip: one clip per successfully baked action, in request order
	//   - *Report: diagnostics, skipped failures and totals
	//   - error: ErrImporterClosed, or the context error if ctx was cancelled
	BakeSkeleton(ctx context.Context, skeleton *model.Skeleton, actionNames []string) ([]*model.AnimationClip, *Report, error)

	// BakeSpatial bakes the feature with the given name of each action onto a single object.
	//
	// Parameters:
	//   - ctx: checked before each action starts baking
	//   - name: the object name, i.e. the action feature to bake
	//   - bind: the object's rest transform
	//   - actionNames: the actions to bake; empty bakes every registered action
	//
	// Returns:
	//   - []*model.AnimationClip: one clip per successfully baked action, in request order
	//   - *Report: diagnostics, skipped failures and totals
	//   - error: ErrImporterClosed, or the context error if ctx was cancelled
	BakeSpatial(ctx context.Context, name string, bind animation.Transform, actionNames []string) ([]*model.AnimationClip, *Report, error)

	// Close stops accepting bake calls. Idle pool workers exit on their own.
	Close()
}

var _ Importer = &importer{}

// NewImporter creates a new Importer with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ImporterBuilderOption functions to configure the Importer
//
// Returns:
//   - Importer: the importer
//   - error: if the metric instruments cannot be created
func NewImporter(options ...ImporterBuilderOption) (Importer, error) {
	im := &importer{
		logger:          zerolog.Nop(),
		sink:            diagnostics.Discard,
		workers:         defaultWorkers(),
		profileInterval: time.Second,
		meter:           defaultMeter(),
		actions:         make(map[string]*animation.BlenderAction),
		rest:            make(map[string]animation.Transform),
	}
	for _, opt := range options {
		opt(im)
	}

	metrics, err := newBakeMetrics(im.meter)
	if err != nil {
		return nil, fmt.Errorf("importer: %w", err)
	}
	im.metrics = metrics
	im.profiler = profiler.NewProfiler(im.logger, im.profileInterval)

	// Queue size of 256 leaves headroom for large action libraries; excess submissions wait.
	im.pool = worker.NewDynamicWorkerPool(im.workers, 256, 1*time.Second)
	return im, nil
}

func (im *importer) AddAction(action *animation.BlenderAction) {
	if action == nil {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.addActionLocked(action)
}

func (im *importer) addActionLocked(action *animation.BlenderAction) {
	if _, ok := im.actions[action.Name()]; !ok {
		im.actionOrder = append(im.actionOrder, action.Name())
	}
	im.actions[action.Name()] = action
}

func (im *importer) Action(name string) *animation.BlenderAction {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.actions[name]
}

func (im *importer) Actions() []string {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return slices.Clone(im.actionOrder)
}

func (im *importer) AddConstraint(feature string, c *constraint.Constraint, targetFeature string) {
	if c == nil {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.constraints = append(im.constraints, boundConstraint{owner: feature, target: targetFeature, c: c})
}

func (im *importer) SetRestTransform(feature string, t animation.Transform) {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.rest[feature] = t
}

func (im *importer) Close() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.closed = true
}

func (im *importer) BakeSkeleton(ctx context.Context, skeleton *model.Skeleton, actionNames []string) ([]*model.AnimationClip, *Report, error) {
	if skeleton == nil {
		return nil, nil, fmt.Errorf("importer: %w: nil skeleton", model.ErrInvalidSkeleton)
	}
	b := binding{
		has: func(feature string) bool {
			_, ok := skeleton.BoneIndex(feature)
			return ok
		},
		reportMissing: true,
		tracks: func(a *animation.BlenderAction, sink diagnostics.Sink) ([]animation.NamedTrack, error) {
			return a.ToBoneTracks(func(name string) (int, bool) {
				i, ok := skeleton.BoneIndex(name)
				return int(i), ok
			}, skeleton.BindTransform, sink)
		},
		rest: func(feature string) animation.Transform {
			if i, ok := skeleton.BoneIndex(feature); ok {
				return skeleton.BindTransform(int(i))
			}
			return animation.IdentityTransform()
		},
	}
	return im.bake(ctx, b, actionNames)
}

func (im *importer) BakeSpatial(ctx context.Context, name string, bind animation.Transform, actionNames []string) ([]*model.AnimationClip, *Report, error) {
	b := binding{
		has: func(feature string) bool {
			return feature == name
		},
		tracks: func(a *animation.BlenderAction, sink diagnostics.Sink) ([]animation.NamedTrack, error) {
			return a.ToSpatialTracks(bind, sink)
		},
		rest: func(feature string) animation.Transform {
			if feature == name {
				return bind
			}
			return animation.IdentityTransform()
		},
	}
	return im.bake(ctx, b, actionNames)
}

// binding adapts the bake job to a skeleton or a spatial.
type binding struct {
	// has reports whether a feature belongs to the bake target.
	has func(feature string) bool
	// reportMissing reports features rejected by has as missing bones.
	reportMissing bool
	// tracks bakes the filtered action.
	tracks func(a *animation.BlenderAction, sink diagnostics.Sink) ([]animation.NamedTrack, error)
	// rest resolves the default transform of a constraint target.
	rest func(feature string) animation.Transform
}

// jobResult is the outcome of baking one action.
type jobResult struct {
	clip        *model.AnimationClip
	notes       []diagnostics.Diagnostic
	errs        []error
	tracks      int
	frames      int
	unsupported int
	elapsed     time.Duration
}

func (im *importer) bake(ctx context.Context, b binding, actionNames []string) ([]*model.AnimationClip, *Report, error) {
	im.mu.RLock()
	if im.closed {
		im.mu.RUnlock()
		return nil, nil, ErrImporterClosed
	}
	actions, missing := im.resolveLocked(actionNames)
	constraints := slices.Clone(im.constraints)
	rest := make(map[string]animation.Transform, len(im.rest))
	for k, v := range im.rest {
		rest[k] = v
	}
	im.mu.RUnlock()

	restOf := func(feature string) animation.Transform {
		if t, ok := rest[feature]; ok {
			return t
		}
		return b.rest(feature)
	}

	report := &Report{}
	for _, name := range missing {
		report.Errors = append(report.Errors, fmt.Errorf("%w: %q", ErrActionNotFound, name))
	}

	// Each job writes only its own slot; the WaitGroup is the barrier before results are read.
	results := make([]*jobResult, len(actions))
	var wg sync.WaitGroup
	for i, action := range actions {
		wg.Add(1)
		idx := i
		a := action
		im.pool.SubmitTask(worker.Task{
			ID: int(im.taskID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				results[idx] = im.bakeAction(ctx, a, b, restOf, constraints)
				return nil, nil
			},
		})
	}
	wg.Wait()

	clips := make([]*model.AnimationClip, 0, len(actions))
	for i, r := range results {
		report.merge(r)
		im.metrics.record(actions[i].Name(), r)
		if r.clip != nil {
			clips = append(clips, r.clip)
		}
	}
	for _, d := range report.Diagnostics {
		im.sink.Report(d)
	}

	im.logger.Info().
		Int("clips", len(clips)).
		Int("tracks", report.Tracks).
		Int("frames", report.Frames).
		Int("warnings", report.Warnings()).
		Int("errors", len(report.Errors)).
		Msg("bake finished")
	if im.profilingEnabled {
		im.profiler.Summary()
	}
	return clips, report, ctx.Err()
}

// resolveLocked maps requested names to actions; an empty request selects every action.
func (im *importer) resolveLocked(names []string) ([]*animation.BlenderAction, []string) {
	if len(names) == 0 {
		names = im.actionOrder
	}
	var (
		actions []*animation.BlenderAction
		missing []string
	)
	for _, n := range names {
		if a, ok := im.actions[n]; ok {
			actions = append(actions, a)
		} else {
			missing = append(missing, n)
		}
	}
	return actions, missing
}

func (im *importer) bakeAction(ctx context.Context, action *animation.BlenderAction, b binding, rest func(string) animation.Transform, constraints []boundConstraint) *jobResult {
	r := &jobResult{}
	if err := ctx.Err(); err != nil {
		r.errs = append(r.errs, fmt.Errorf("action %q: %w", action.Name(), err))
		return r
	}
	start := time.Now()
	rec := diagnostics.NewRecorder()
	logger := im.logger.With().Str("action", action.Name()).Logger()

	keep := make([]string, 0, len(action.FeatureNames()))
	for _, name := range action.FeatureNames() {
		if !b.has(name) {
			if b.reportMissing {
				diagnostics.Warn(rec, diagnostics.CodeMissingBone, name,
					"action %q animates a bone the skeleton does not have", action.Name())
			}
			continue
		}
		if ipo, _ := action.Feature(name); ipo.IsConstant() {
			diagnostics.Warn(rec, diagnostics.CodeFeatureFailed, name,
				"action %q has no curves for this feature", action.Name())
			r.errs = append(r.errs, fmt.Errorf("action %q feature %q: %w", action.Name(), name, animation.ErrNoCurves))
			continue
		}
		keep = append(keep, name)
	}

	tracks, err := b.tracks(action.CloneFiltered(keep), rec)
	if err != nil {
		r.errs = append(r.errs, err)
		r.notes = rec.Diagnostics()
		r.elapsed = time.Since(start)
		logger.Error().Err(err).Msg("failed to bake action")
		return r
	}

	byFeature := make(map[string]*animation.Track, len(tracks))
	for _, nt := range tracks {
		byFeature[nt.Feature] = nt.Track
	}
	for _, bc := range constraints {
		owner, ok := byFeature[bc.owner]
		if !ok {
			continue
		}
		var target *animation.Track
		static := animation.IdentityTransform()
		if bc.target != "" {
			if target = byFeature[bc.target]; target == nil {
				static = rest(bc.target)
				diagnostics.Warn(rec, diagnostics.CodeMissingTargetTrack, bc.owner,
					"constraint %q target %q is not animated by action %q, using its rest transform",
					bc.c.Name, bc.target, action.Name())
			}
		}
		if err := bc.c.Apply(owner, target, static, rec); err != nil {
			diagnostics.Warn(rec, diagnostics.CodeFeatureFailed, bc.owner, "constraint %q: %v", bc.c.Name, err)
			r.errs = append(r.errs, fmt.Errorf("action %q constraint %q: %w", action.Name(), bc.c.Name, err))
		}
	}

	r.clip = model.NewAnimationClip(action.Name(), action.FPS(), tracks)
	for _, nt := range tracks {
		r.tracks++
		r.frames += nt.Track.Len()
		if im.profilingEnabled {
			im.profiler.Tick(nt.Track.Len())
		}
	}
	r.unsupported = len(rec.WithCode(diagnostics.CodeUnsupportedConstraint))
	r.notes = rec.Diagnostics()
	r.elapsed = time.Since(start)

	logger.Debug().
		Int("tracks", r.tracks).
		Int("frames", r.frames).
		Dur("elapsed", r.elapsed).
		Msg("baked action")
	return r
}
