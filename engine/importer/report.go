package importer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
)

// Report summarizes one bake call.
type Report struct {
	// Diagnostics are the notes of every baked action, in action order.
	Diagnostics []diagnostics.Diagnostic
	// Errors are the failures of actions or features that were skipped.
	Errors []error
	// Tracks is the number of baked tracks.
	Tracks int
	// Frames is the number of baked keyframes over all tracks.
	Frames int
}

// Err joins every recorded failure.
//
// Returns:
//   - error: the joined errors, nil when the bake had no failures
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// Warnings counts the warning-level diagnostics.
func (r *Report) Warnings() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == diagnostics.SeverityWarning {
			n++
		}
	}
	return n
}

func (r *Report) merge(o *jobResult) {
	r.Diagnostics = append(r.Diagnostics, o.notes...)
	r.Errors = append(r.Errors, o.errs...)
	r.Tracks += o.tracks
	r.Frames += o.frames
}
