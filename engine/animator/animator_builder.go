package animator

import (
	"github.com/Carmen-Shannon/oxy-blend/engine/model"
)

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithModel is an option builder that assigns a Model to the Animator during construction.
//
// Parameters:
//   - m: the Model whose clips are played
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the model option to an animator
func WithModel(m model.Model) AnimatorBuilderOption {
	return func(a *animator) {
		a.setModelLocked(m)
	}
}

// WithInstances is an option builder that registers instances at rest pose.
//
// Parameters:
//   - n: the number of instances to add
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the instances option to an animator
func WithInstances(n int) AnimatorBuilderOption {
	return func(a *animator) {
		for range n {
			a.instances = append(a.instances, newInstanceState())
		}
	}
}
