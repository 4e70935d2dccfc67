package importer

import (
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/Carmen-Shannon/oxy-blend/engine/animation"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
)

// ImporterBuilderOption is a functional option for configuring an Importer via NewImporter.
type ImporterBuilderOption func(*importer)

func defaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// WithLogger is an option builder that sets the logger of the Importer.
//
// Parameters:
//   - logger: the logger; defaults to a no-op logger
//
// Returns:
//   - ImporterBuilderOption: a function that applies the logger option to an importer
func WithLogger(logger zerolog.Logger) ImporterBuilderOption {
	return func(im *importer) {
		im.logger = logger.With().Str("sub", "importer").Logger()
	}
}

// WithSink is an option builder that sets the sink every bake diagnostic is forwarded to,
// in addition to the returned Report.
//
// Parameters:
//   - sink: the diagnostics sink; nil keeps the default that drops everything
//
// Returns:
//   - ImporterBuilderOption: a function that applies the sink option to an importer
func WithSink(sink diagnostics.Sink) ImporterBuilderOption {
	return func(im *importer) {
		if sink != nil {
			im.sink = sink
		}
	}
}

// WithWorkers is an option builder that sets the maximum number of actions baked concurrently.
//
// Parameters:
//   - n: the worker count; values below 1 keep the default of NumCPU-1
//
// Returns:
//   - ImporterBuilderOption: a function that applies the workers option to an importer
func WithWorkers(n int) ImporterBuilderOption {
	return func(im *importer) {
		if n >= 1 {
			im.workers = n
		}
	}
}

// WithProfiling is an option builder that enables the bake throughput profiler.
//
// Parameters:
//   - enabled: whether baked tracks are reported to the profiler
//   - interval: the time between two profiler lines; non-positive keeps 1 second
//
// Returns:
//   - ImporterBuilderOption: a function that applies the profiling option to an importer
func WithProfiling(enabled bool, interval time.Duration) ImporterBuilderOption {
	return func(im *importer) {
		im.profilingEnabled = enabled
		if interval > 0 {
			im.profileInterval = interval
		}
	}
}

// WithMeter is an option builder that sets the meter the bake metrics are recorded with.
//
// Parameters:
//   - meter: the meter; defaults to the global provider's meter
//
// Returns:
//   - ImporterBuilderOption: a function that applies the meter option to an importer
func WithMeter(meter metric.Meter) ImporterBuilderOption {
	return func(im *importer) {
		if meter != nil {
			im.meter = meter
		}
	}
}

// WithAction is an option builder that pre-registers an action.
//
// Parameters:
//   - action: the action to register
//
// Returns:
//   - ImporterBuilderOption: a function that applies the action option to an importer
func WithAction(action *animation.BlenderAction) ImporterBuilderOption {
	return func(im *importer) {
		if action != nil {
			im.addActionLocked(action)
		}
	}
}
