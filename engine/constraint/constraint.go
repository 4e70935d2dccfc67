package constraint

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
)

// ErrNoOwnerTrack is returned when a constraint is applied without an owner track.
var ErrNoOwnerTrack = errors.New("constraint has no owner track")

// Constraint is a Definition attached to an owner, with an optional influence curve.
type Constraint struct {
	// Name is the constraint name as shown in Blender.
	Name string
	// Definition is the parsed constraint.
	Definition *Definition
	// Influence drives the per-frame influence. Nil means full influence on every frame.
	Influence *animation.Ipo
}

// New parses a constraint definition and attaches a name and influence curve to it.
//
// Parameters:
//   - name: the constraint name
//   - typeName: the Blender DNA structure name, e.g. "bLocLimitConstraint"
//   - p: the raw constraint fields
//   - influence: the influence curve (may be nil)
//   - fixUpAxis: whether the baked data uses the Y-up convention
//
// Returns:
//   - *Constraint: the constraint
//   - error: the NewDefinition error, wrapped with the constraint name
func New(name, typeName string, p Params, influence *animation.Ipo, fixUpAxis bool) (*Constraint, error) {
	def, err := NewDefinition(typeName, p, fixUpAxis)
	if err != nil {
		return nil, fmt.Errorf("constraint %q: %w", name, err)
	}
	return &Constraint{Name: name, Definition: def, Influence: influence}, nil
}

// Kind returns the kind of the constraint definition.
func (c *Constraint) Kind() Kind {
	return c.Definition.Kind()
}

// InfluenceAt returns the influence for the keyframe with the given index.
func (c *Constraint) InfluenceAt(frame int) float32 {
	if c.Influence == nil {
		return 1
	}
	return c.Influence.ValueAt(float32(frame))
}

// Apply bakes the constraint into every keyframe of the owner track. When a target track is given
// it is sampled at each owner keyframe time, so the two tracks need not share keyframe count or
// spacing; otherwise the static target transform is used for every frame.
//
// Parameters:
//   - owner: the track to constrain, modified in place
//   - target: the animated target track (may be nil)
//   - static: the target transform used when target is nil
//   - sink: receives the unsupported constraint warning (may be nil)
//
// Returns:
//   - error: ErrNoOwnerTrack if owner is nil
func (c *Constraint) Apply(owner, target *animation.Track, static animation.Transform, sink diagnostics.Sink) error {
	if owner == nil {
		return fmt.Errorf("constraint %q: %w", c.Name, ErrNoOwnerTrack)
	}
	if owner.Len() == 0 {
		return nil
	}
	if target != nil && target.Len() == 0 {
		target = nil
	}

	targetAt := func(i int) animation.Transform {
		if target == nil {
			return static
		}
		return target.SampleAt(owner.TimeAt(i))
	}

	// frame 0 on a scratch copy; this is also where unsupported kinds report themselves
	baseline := owner.TransformAt(0)
	c.Definition.Bake(&baseline, targetAt(0), c.InfluenceAt(0), sink)
	if !c.Kind().Supported() || c.Kind() == KindNull {
		return nil
	}

	for i := range owner.Len() {
		tr := owner.TransformAt(i)
		c.Definition.Bake(&tr, targetAt(i), c.InfluenceAt(i), sink)
		owner.SetTransformAt(i, tr)
	}
	return nil
}
