package loader

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/Carmen-Shannon/oxy-blend/engine/config"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
	"github.com/Carmen-Shannon/oxy-blend/engine/model"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithSettings is an option builder that sets the bake settings used for every loaded document.
//
// Parameters:
//   - s: the settings
//
// Returns:
//   - LoaderBuilderOption: a function that applies the settings option to a loader
func WithSettings(s config.Settings) LoaderBuilderOption {
	return func(l *loader) {
		l.settings = s
	}
}

// WithLogger is an option builder that sets the logger handed to every bake.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger zerolog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithSink is an option builder that sets the sink receiving bake diagnostics.
//
// Parameters:
//   - sink: the diagnostics sink
//
// Returns:
//   - LoaderBuilderOption: a function that applies the sink option to a loader
func WithSink(sink diagnostics.Sink) LoaderBuilderOption {
	return func(l *loader) {
		l.sink = sink
	}
}

// WithMeter is an option builder that sets the meter bake metrics are recorded with.
//
// Parameters:
//   - meter: the meter
//
// Returns:
//   - LoaderBuilderOption: a function that applies the meter option to a loader
func WithMeter(meter metric.Meter) LoaderBuilderOption {
	return func(l *loader) {
		l.meter = meter
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}
