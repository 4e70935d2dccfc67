package model

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
)

// ErrInvalidSkeleton is returned when a bone hierarchy has bad parent links or duplicate names.
var ErrInvalidSkeleton = errors.New("invalid skeleton")

// NewSkeleton builds a skeleton from bones in any order. Root indices, the name lookup and every
// bone's InverseBindMatrix are derived from the parent links and local bind transforms.
//
// Parameters:
//   - bones: the bones; ParentIndex refers to positions in this slice
//
// Returns:
//   - *Skeleton: the skeleton owning a copy of bones
//   - error: ErrInvalidSkeleton for out of range parents, cycles or duplicate names
func NewSkeleton(bones []Bone) (*Skeleton, error) {
	s := &Skeleton{
		Bones:           make([]Bone, len(bones)),
		BoneNameToIndex: make(map[string]int32, len(bones)),
	}
	copy(s.Bones, bones)

	for i, b := range s.Bones {
		if b.ParentIndex < -1 || int(b.ParentIndex) >= len(bones) || int(b.ParentIndex) == i {
			return nil, fmt.Errorf("%w: bone %q has parent index %d", ErrInvalidSkeleton, b.Name, b.ParentIndex)
		}
		if _, dup := s.BoneNameToIndex[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate bone name %q", ErrInvalidSkeleton, b.Name)
		}
		s.BoneNameToIndex[b.Name] = int32(i)
		if b.ParentIndex == -1 {
			s.RootBoneIndices = append(s.RootBoneIndices, int32(i))
		}
	}

	world := make([]mgl32.Mat4, len(bones))
	state := make([]uint8, len(bones)) // 0 pending, 1 visiting, 2 done
	var resolve func(i int) error
	resolve = func(i int) error {
		switch state[i] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("%w: bone %q is its own ancestor", ErrInvalidSkeleton, s.Bones[i].Name)
		}
		state[i] = 1
		local := s.Bones[i].LocalTransform.Mat4()
		if p := s.Bones[i].ParentIndex; p >= 0 {
			if err := resolve(int(p)); err != nil {
				return err
			}
			local = world[p].Mul4(local)
		}
		world[i] = local
		state[i] = 2
		return nil
	}
	for i := range s.Bones {
		if err := resolve(i); err != nil {
			return nil, err
		}
		s.Bones[i].InverseBindMatrix = world[i].Inv()
	}
	return s, nil
}

// BoneIndex looks up a bone by name.
//
// Parameters:
//   - name: the bone name
//
// Returns:
//   - int32: the bone index, -1 when absent
//   - bool: true if the bone exists
func (s *Skeleton) BoneIndex(name string) (int32, bool) {
	i, ok := s.BoneNameToIndex[name]
	if !ok {
		return -1, false
	}
	return i, true
}

// BindTransform returns the local bind transform of a bone in the baking representation.
//
// Parameters:
//   - index: the bone index
//
// Returns:
//   - animation.Transform: the bind transform, identity for an out of range index
func (s *Skeleton) BindTransform(index int) animation.Transform {
	if index < 0 || index >= len(s.Bones) {
		return animation.IdentityTransform()
	}
	return s.Bones[index].LocalTransform.ToAnimation()
}

// IdentityTransform returns the rest transform with no offset, rotation or scaling.
func IdentityTransform() Transform {
	return Transform{Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}
}

// TransformFromAnimation converts a baking transform into the playback layout.
//
// Parameters:
//   - t: the transform to convert
//
// Returns:
//   - Transform: the same transform with the quaternion stored as (x, y, z, w)
func TransformFromAnimation(t animation.Transform) Transform {
	return Transform{
		Translation: t.Translation,
		Rotation:    quatToArray(t.Rotation),
		Scale:       t.Scale,
	}
}

// ToAnimation converts the playback transform into the baking representation.
func (t Transform) ToAnimation() animation.Transform {
	return animation.NewTransform(t.Translation, arrayToQuat(t.Rotation), t.Scale)
}

// Mat4 composes translation, rotation and scale into a column-major matrix.
func (t Transform) Mat4() mgl32.Mat4 {
	tr := mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2])
	rot := arrayToQuat(t.Rotation).Normalize().Mat4()
	sc := mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	return tr.Mul4(rot).Mul4(sc)
}

func quatToArray(q mgl32.Quat) [4]float32 {
	return [4]float32{q.V[0], q.V[1], q.V[2], q.W}
}

func arrayToQuat(a [4]float32) mgl32.Quat {
	return mgl32.Quat{W: a[3], V: mgl32.Vec3{a[0], a[1], a[2]}}
}
