package diagnostics

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Severity grades a Diagnostic. Diagnostics never abort a bake; failures travel as errors.
type Severity int

const (
	// SeverityInfo marks purely informational notes.
	SeverityInfo Severity = iota
	// SeverityWarning marks a degraded result, e.g. an ignored constraint.
	SeverityWarning
)

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Code identifies the kind of condition a Diagnostic describes.
type Code string

const (
	// CodeUnsupportedConstraint is reported when a constraint kind has no baking implementation.
	CodeUnsupportedConstraint Code = "unsupported-constraint"
	// CodeUnknownCurveType is reported when a curve carries a channel tag the track builder cannot route.
	CodeUnknownCurveType Code = "unknown-curve-type"
	// CodeAmbiguousRotation is reported when one Ipo animates both euler and quaternion rotation.
	CodeAmbiguousRotation Code = "ambiguous-rotation"
	// CodeMissingTargetTrack is reported when a constraint target is not animated and its static transform is used.
	CodeMissingTargetTrack Code = "missing-target-track"
	// CodeMissingBone is reported when an action animates a bone the skeleton does not have.
	CodeMissingBone Code = "missing-bone"
	// CodeFeatureFailed is reported when baking a single feature failed and was skipped.
	CodeFeatureFailed Code = "feature-failed"
)

// Diagnostic is a single structured note produced while baking.
type Diagnostic struct {
	// Severity grades the note.
	Severity Severity
	// Code identifies the condition.
	Code Code
	// Feature names the bone, object or constraint the note is about.
	Feature string
	// Message is a human readable description.
	Message string
}

// String formats the diagnostic on a single line.
func (d Diagnostic) String() string {
	if d.Feature == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s (%s): %s", d.Severity, d.Code, d.Feature, d.Message)
}

// Sink receives diagnostics from the baking code. It replaces ambient loggers so callers decide
// whether notes go to a log, get collected for a report, or are dropped.
type Sink interface {
	// Report hands one diagnostic to the sink.
	//
	// Parameters:
	//   - d: the diagnostic to record
	Report(d Diagnostic)
}

// Warn is a convenience wrapper reporting a warning-level diagnostic to s. A nil sink drops it.
//
// Parameters:
//   - s: the destination sink (may be nil)
//   - code: the condition code
//   - feature: the bone, object or constraint name
//   - format: a fmt format string for the message
//   - args: the format arguments
func Warn(s Sink, code Code, feature, format string, args ...any) {
	if s == nil {
		return
	}
	s.Report(Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Feature:  feature,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(Diagnostic) {}

// logSink forwards diagnostics to a zerolog.Logger.
type logSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a Sink that writes every diagnostic to the given logger.
// Warnings are logged at warn level, everything else at info level.
//
// Parameters:
//   - logger: the destination logger
//
// Returns:
//   - Sink: the logging sink
func NewLogSink(logger zerolog.Logger) Sink {
	return &logSink{logger: logger}
}

func (s *logSink) Report(d Diagnostic) {
	ev := s.logger.Info()
	if d.Severity == SeverityWarning {
		ev = s.logger.Warn()
	}
	ev.Str("code", string(d.Code)).Str("feature", d.Feature).Msg(d.Message)
}

// Recorder is a Sink collecting diagnostics in memory. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	notes []Diagnostic
}

// NewRecorder creates an empty Recorder.
//
// Returns:
//   - *Recorder: the recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report appends d to the recorded diagnostics.
func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, d)
}

// Diagnostics returns a copy of everything recorded so far, in report order.
//
// Returns:
//   - []Diagnostic: the recorded diagnostics
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.notes))
	copy(out, r.notes)
	return out
}

// WithCode returns the recorded diagnostics carrying the given code.
//
// Parameters:
//   - code: the code to filter by
//
// Returns:
//   - []Diagnostic: the matching diagnostics
func (r *Recorder) WithCode(code Code) []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Diagnostic
	for _, d := range r.notes {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of recorded diagnostics.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

type multiSink []Sink

// Multi fans every diagnostic out to all given sinks. Nil sinks are skipped.
//
// Parameters:
//   - sinks: the destination sinks
//
// Returns:
//   - Sink: the fan-out sink
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Report(d Diagnostic) {
	for _, s := range m {
		s.Report(d)
	}
}
