package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/viper"

	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
	"github.com/Carmen-Shannon/oxy-blend/engine/constraint"
	"github.com/Carmen-Shannon/oxy-blend/engine/curve"
	"github.com/Carmen-Shannon/oxy-blend/engine/model"
)

// ErrInvalidDocument is returned when an action document is structurally wrong.
var ErrInvalidDocument = errors.New("invalid action document")

// Document is a serialized set of actions, constraints and the skeleton or object they animate.
type Document struct {
	// Name names the baked model.
	Name string `json:"name" mapstructure:"name"`
	// Spatial bakes the actions onto a single object instead of a skeleton.
	Spatial bool `json:"spatial" mapstructure:"spatial"`
	// Bind is the object's rest transform for spatial documents.
	Bind TransformDoc `json:"bind" mapstructure:"bind"`
	// Bones is the skeleton for bone documents.
	Bones []BoneDoc `json:"bones" mapstructure:"bones"`
	// Actions are the animation clips.
	Actions []ActionDoc `json:"actions" mapstructure:"actions"`
	// Constraints are applied to every action in declaration order.
	Constraints []ConstraintDoc `json:"constraints" mapstructure:"constraints"`
}

// TransformDoc is a transform with optional components. Rotation is (x, y, z, w).
type TransformDoc struct {
	Translation []float32 `json:"translation" mapstructure:"translation"`
	Rotation    []float32 `json:"rotation" mapstructure:"rotation"`
	Scale       []float32 `json:"scale" mapstructure:"scale"`
}

// BoneDoc is one bone. Parent names another bone; empty means root.
type BoneDoc struct {
	Name         string `json:"name" mapstructure:"name"`
	Parent       string `json:"parent" mapstructure:"parent"`
	TransformDoc `mapstructure:",squash"`
}

// ActionDoc is one action. A zero FPS uses the settings default.
type ActionDoc struct {
	Name     string       `json:"name" mapstructure:"name"`
	FPS      int          `json:"fps" mapstructure:"fps"`
	Features []FeatureDoc `json:"features" mapstructure:"features"`
}

// FeatureDoc is the Ipo of one bone or object.
type FeatureDoc struct {
	Name   string     `json:"name" mapstructure:"name"`
	Curves []CurveDoc `json:"curves" mapstructure:"curves"`
}

// CurveDoc is one curve, tagged either by Type ("loc-x", "quat-w", ...) or by a 2.50 RNA path and index.
type CurveDoc struct {
	Type    string     `json:"type" mapstructure:"type"`
	RNAPath string     `json:"rnaPath" mapstructure:"rnaPath"`
	Index   int        `json:"index" mapstructure:"index"`
	Points  []PointDoc `json:"points" mapstructure:"points"`
}

// PointDoc is one control point. Handles are (frame offset, value offset) pairs.
type PointDoc struct {
	Frame         float32   `json:"frame" mapstructure:"frame"`
	Value         float32   `json:"value" mapstructure:"value"`
	Interpolation string    `json:"interpolation" mapstructure:"interpolation"`
	HandleLeft    []float32 `json:"handleLeft" mapstructure:"handleLeft"`
	HandleRight   []float32 `json:"handleRight" mapstructure:"handleRight"`
}

// ConstraintDoc is one constraint. Type is the Blender DNA name, e.g. "bLocLimitConstraint".
// Influence is a constant; InfluenceCurve overrides it when present.
type ConstraintDoc struct {
	Name           string     `json:"name" mapstructure:"name"`
	Owner          string     `json:"owner" mapstructure:"owner"`
	Target         string     `json:"target" mapstructure:"target"`
	Type           string     `json:"type" mapstructure:"type"`
	Flag           int        `json:"flag" mapstructure:"flag"`
	Min            []float32  `json:"min" mapstructure:"min"`
	Max            []float32  `json:"max" mapstructure:"max"`
	Distance       float32    `json:"distance" mapstructure:"distance"`
	Mode           int        `json:"mode" mapstructure:"mode"`
	Influence      *float32   `json:"influence" mapstructure:"influence"`
	InfluenceCurve []PointDoc `json:"influenceCurve" mapstructure:"influenceCurve"`
}

// BoundConstraint is a parsed constraint together with the features it connects.
type BoundConstraint struct {
	// Owner is the constrained feature.
	Owner string
	// Target is the feature the constraint reads from (may be empty).
	Target string
	// Constraint is the parsed constraint.
	Constraint *constraint.Constraint
}

// LoadDocument reads an action document from a JSON, YAML or TOML file.
//
// Parameters:
//   - path: the document file
//
// Returns:
//   - Document: the decoded document
//   - error: if the file cannot be read or decoded
func LoadDocument(path string) (Document, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Document{}, fmt.Errorf("error reading action document: %w", err)
	}
	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return Document{}, fmt.Errorf("error decoding action document: %w", err)
	}
	return doc, nil
}

// DecodeDocument reads an action document from a stream.
//
// Parameters:
//   - r: the document data
//   - format: the encoding, "json", "yaml" or "toml"
//
// Returns:
//   - Document: the decoded document
//   - error: if the stream cannot be read or decoded
func DecodeDocument(r io.Reader, format string) (Document, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return Document{}, fmt.Errorf("error reading action document: %w", err)
	}
	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return Document{}, fmt.Errorf("error decoding action document: %w", err)
	}
	return doc, nil
}

// Skeleton builds the document's bone hierarchy.
//
// Returns:
//   - *model.Skeleton: the skeleton
//   - error: ErrInvalidDocument for unknown parents or malformed transforms, or the model.NewSkeleton error
func (d Document) Skeleton() (*model.Skeleton, error) {
	index := make(map[string]int32, len(d.Bones))
	for i, b := range d.Bones {
		index[b.Name] = int32(i)
	}

	bones := make([]model.Bone, len(d.Bones))
	for i, b := range d.Bones {
		parent := int32(-1)
		if b.Parent != "" {
			p, ok := index[b.Parent]
			if !ok {
				return nil, fmt.Errorf("%w: bone %q has unknown parent %q", ErrInvalidDocument, b.Name, b.Parent)
			}
			parent = p
		}
		tr, err := b.TransformDoc.Transform()
		if err != nil {
			return nil, fmt.Errorf("bone %q: %w", b.Name, err)
		}
		bones[i] = model.Bone{Name: b.Name, ParentIndex: parent, LocalTransform: model.TransformFromAnimation(tr)}
	}
	return model.NewSkeleton(bones)
}

// Transform converts the document transform, filling missing components with identity values.
//
// Returns:
//   - animation.Transform: the transform
//   - error: ErrInvalidDocument if a component has the wrong length
func (t TransformDoc) Transform() (animation.Transform, error) {
	out := animation.IdentityTransform()
	var err error
	if out.Translation, err = vec3(t.Translation, out.Translation); err != nil {
		return out, fmt.Errorf("translation: %w", err)
	}
	if out.Scale, err = vec3(t.Scale, out.Scale); err != nil {
		return out, fmt.Errorf("scale: %w", err)
	}
	switch len(t.Rotation) {
	case 0:
	case 4:
		out.Rotation = mgl32.Quat{W: t.Rotation[3], V: mgl32.Vec3{t.Rotation[0], t.Rotation[1], t.Rotation[2]}}
	default:
		return out, fmt.Errorf("%w: rotation needs 4 components, got %d", ErrInvalidDocument, len(t.Rotation))
	}
	return out, nil
}

// Actions builds every action of the document.
//
// Parameters:
//   - s: supplies the default fps, fix-up-axis and Blender version
//
// Returns:
//   - []*animation.BlenderAction: the actions in declaration order
//   - error: the first malformed curve, wrapped with the action and feature names
func (d Document) Actions(s Settings) ([]*animation.BlenderAction, error) {
	out := make([]*animation.BlenderAction, 0, len(d.Actions))
	for _, a := range d.Actions {
		fps := a.FPS
		if fps <= 0 {
			fps = s.FPS
		}
		action := animation.NewBlenderAction(a.Name, fps)
		for _, f := range a.Features {
			curves := make([]*curve.BezierCurve, 0, len(f.Curves))
			for _, c := range f.Curves {
				bc, err := c.Curve()
				if err != nil {
					return nil, fmt.Errorf("action %q feature %q: %w", a.Name, f.Name, err)
				}
				curves = append(curves, bc)
			}
			ipo, err := animation.NewIpo(curves, s.FixUpAxis, s.BlenderVersion)
			if err != nil {
				return nil, fmt.Errorf("action %q feature %q: %w", a.Name, f.Name, err)
			}
			action.AddFeature(f.Name, ipo)
		}
		out = append(out, action)
	}
	return out, nil
}

// Curve builds the bezier curve described by c.
//
// Returns:
//   - *curve.BezierCurve: the curve
//   - error: curve.ErrUnknownCurveType, curve.ErrEmptyCurve or ErrInvalidDocument
func (c CurveDoc) Curve() (*curve.BezierCurve, error) {
	var (
		t   curve.CurveType
		err error
	)
	if c.RNAPath != "" {
		t, err = curve.CurveTypeFromRNAPath(c.RNAPath, c.Index)
	} else {
		t, err = curve.ParseCurveType(c.Type)
	}
	if err != nil {
		return nil, err
	}
	points, err := bezierPoints(c.Points)
	if err != nil {
		return nil, fmt.Errorf("curve %s: %w", t, err)
	}
	return curve.NewBezierCurve(t, points)
}

// Constraints builds every constraint of the document.
//
// Parameters:
//   - s: supplies fix-up-axis and the Blender version of influence curves
//
// Returns:
//   - []BoundConstraint: the constraints in declaration order
//   - error: the first malformed constraint
func (d Document) Constraints(s Settings) ([]BoundConstraint, error) {
	out := make([]BoundConstraint, 0, len(d.Constraints))
	for _, c := range d.Constraints {
		if c.Owner == "" {
			return nil, fmt.Errorf("%w: constraint %q has no owner", ErrInvalidDocument, c.Name)
		}
		var influence *animation.Ipo
		switch {
		case len(c.InfluenceCurve) > 0:
			points, err := bezierPoints(c.InfluenceCurve)
			if err != nil {
				return nil, fmt.Errorf("constraint %q influence: %w", c.Name, err)
			}
			bc, err := curve.NewBezierCurve(curve.LocX, points)
			if err != nil {
				return nil, fmt.Errorf("constraint %q influence: %w", c.Name, err)
			}
			if influence, err = animation.NewIpo([]*curve.BezierCurve{bc}, false, s.BlenderVersion); err != nil {
				return nil, fmt.Errorf("constraint %q influence: %w", c.Name, err)
			}
		case c.Influence != nil:
			influence = animation.NewConstIpo(*c.Influence)
		}

		lo, err := vec3(c.Min, mgl32.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("constraint %q min: %w", c.Name, err)
		}
		hi, err := vec3(c.Max, mgl32.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("constraint %q max: %w", c.Name, err)
		}
		params := constraint.Params{Flag: c.Flag, Min: lo, Max: hi, Distance: c.Distance, Mode: c.Mode}
		con, err := constraint.New(c.Name, c.Type, params, influence, s.FixUpAxis)
		if err != nil {
			return nil, err
		}
		out = append(out, BoundConstraint{Owner: c.Owner, Target: c.Target, Constraint: con})
	}
	return out, nil
}

func bezierPoints(docs []PointDoc) ([]curve.BezierPoint, error) {
	points := make([]curve.BezierPoint, len(docs))
	for i, p := range docs {
		ipo, err := curve.ParseInterpolation(p.Interpolation)
		if err != nil {
			return nil, err
		}
		left, err := handle(p.HandleLeft)
		if err != nil {
			return nil, fmt.Errorf("point %d left handle: %w", i, err)
		}
		right, err := handle(p.HandleRight)
		if err != nil {
			return nil, fmt.Errorf("point %d right handle: %w", i, err)
		}
		points[i] = curve.BezierPoint{
			Time:          p.Frame,
			Value:         p.Value,
			HandleLeft:    left,
			HandleRight:   right,
			Interpolation: ipo,
		}
	}
	return points, nil
}

func handle(v []float32) (curve.Handle, error) {
	switch len(v) {
	case 0:
		return curve.Handle{}, nil
	case 2:
		return curve.Handle{Time: v[0], Value: v[1]}, nil
	default:
		return curve.Handle{}, fmt.Errorf("%w: handle needs 2 components, got %d", ErrInvalidDocument, len(v))
	}
}

func vec3(v []float32, fallback mgl32.Vec3) (mgl32.Vec3, error) {
	switch len(v) {
	case 0:
		return fallback, nil
	case 3:
		return mgl32.Vec3{v[0], v[1], v[2]}, nil
	default:
		return fallback, fmt.Errorf("%w: need 3 components, got %d", ErrInvalidDocument, len(v))
	}
}
