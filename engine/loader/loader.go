package loader

import (
	"context"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/Carmen-Shannon/oxy-blend/common"
	"github.com/Carmen-Shannon/oxy-blend/engine/config"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
	"github.com/Carmen-Shannon/oxy-blend/engine/importer"
	"github.com/Carmen-Shannon/oxy-blend/engine/model"
)

// LoaderBackendType identifies the action document backend to use.
type LoaderBackendType int

const (
	// BackendTypeDocument selects the JSON/YAML/TOML action document backend.
	BackendTypeDocument LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	settings config.Settings
	logger   zerolog.Logger
	sink     diagnostics.Sink
	meter    metric.Meter

	modelCache map[string]model.Model

	backend loaderBackend
}

// Loader defines the public-facing interface for loading, baking and caching animated models.
// It abstracts the document format behind a generic backend, bakes every action of a document
// through an importer.Importer and manages a cache of previously baked models.
type Loader interface {
	// Load reads an action document, bakes it and caches the result.
	// If the model is already cached (by file path), the cached version is returned with an empty report.
	// The backend is selected based on the file extension.
	//
	// Parameters:
	//   - ctx: cancels the bake
	//   - path: the file path to the document
	//
	// Returns:
	//   - model.Model: the baked and cached model
	//   - *importer.Report: the bake report
	//   - error: error if loading or baking fails
	Load(ctx context.Context, path string) (model.Model, *importer.Report, error)

	// LoadReader reads an action document from a reader stream, bakes it and caches it by the given name.
	//
	// Parameters:
	//   - ctx: cancels the bake
	//   - name: the cache key for the baked model
	//   - r: the reader providing document data
	//   - format: the encoding of the stream, e.g. "yaml"
	//
	// Returns:
	//   - model.Model: the baked model
	//   - *importer.Report: the bake report
	//   - error: error if loading or baking fails
	LoadReader(ctx context.Context, name string, r io.Reader, format string) (model.Model, *importer.Report, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeDocument)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		settings:   config.Default(),
		logger:     zerolog.Nop(),
		modelCache: make(map[string]model.Model),
	}

	switch backendType {
	case BackendTypeDocument:
		l.backend = newDocumentLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(ctx context.Context, path string) (model.Model, *importer.Report, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[path]; ok {
		l.mu.RUnlock()
		return cached, &importer.Report{}, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, nil, err
	}

	doc, err := backend.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	fallbackName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, report, err := l.documentToModel(ctx, doc, fallbackName)
	if err != nil {
		return nil, report, fmt.Errorf("failed to bake %s: %w", path, err)
	}

	l.mu.Lock()
	l.modelCache[path] = m
	l.mu.Unlock()

	return m, report, nil
}

func (l *loader) LoadReader(ctx context.Context, name string, r io.Reader, format string) (model.Model, *importer.Report, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[name]; ok {
		l.mu.RUnlock()
		return cached, &importer.Report{}, nil
	}
	l.mu.RUnlock()

	doc, err := l.backend.LoadReader(r, format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	m, report, err := l.documentToModel(ctx, doc, name)
	if err != nil {
		return nil, report, fmt.Errorf("failed to bake %q: %w", name, err)
	}

	l.mu.Lock()
	l.modelCache[name] = m
	l.mu.Unlock()

	return m, report, nil
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.modelCache)
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if l.backend == nil || !slices.Contains(l.backend.Formats(), ext) {
		return nil, fmt.Errorf("unsupported document format: %q", ext)
	}
	return l.backend, nil
}

// documentToModel builds the actions and constraints of a document, bakes them onto the document's
// skeleton or object and wraps the clips in a Model.
//
// Parameters:
//   - ctx: cancels the bake
//   - doc: the decoded document
//   - fallbackName: the model name when the document does not name itself
//
// Returns:
//   - model.Model: the baked model
//   - *importer.Report: the bake report, nil if baking never started
//   - error: error if the document is malformed or the bake was cancelled
func (l *loader) documentToModel(ctx context.Context, doc config.Document, fallbackName string) (model.Model, *importer.Report, error) {
	actions, err := doc.Actions(l.settings)
	if err != nil {
		return nil, nil, err
	}
	bound, err := doc.Constraints(l.settings)
	if err != nil {
		return nil, nil, err
	}

	im, err := importer.NewImporter(
		importer.WithLogger(l.logger),
		importer.WithSink(l.sink),
		importer.WithWorkers(l.settings.Workers),
		importer.WithProfiling(l.settings.Profiling, l.settings.ProfileInterval),
		importer.WithMeter(l.meter),
	)
	if err != nil {
		return nil, nil, err
	}
	defer im.Close()

	for _, a := range actions {
		im.AddAction(a)
	}
	for _, bc := range bound {
		im.AddConstraint(bc.Owner, bc.Constraint, bc.Target)
	}

	name := common.Coalesce(doc.Name, fallbackName)
	if doc.Spatial {
		if doc.Name == "" {
			return nil, nil, fmt.Errorf("%w: spatial document needs the animated object's name", config.ErrInvalidDocument)
		}
		bind, err := doc.Bind.Transform()
		if err != nil {
			return nil, nil, fmt.Errorf("bind: %w", err)
		}
		clips, report, err := im.BakeSpatial(ctx, doc.Name, bind, nil)
		if err != nil {
			return nil, report, err
		}
		return model.NewModel(model.WithName(name), model.WithAnimations(clips)), report, nil
	}

	skeleton, err := doc.Skeleton()
	if err != nil {
		return nil, nil, err
	}
	clips, report, err := im.BakeSkeleton(ctx, skeleton, nil)
	if err != nil {
		return nil, report, err
	}
	l.logger.Debug().Str("model", name).Int("bones", len(skeleton.Bones)).Int("clips", len(clips)).Msg("baked skeleton model")
	return model.NewModel(model.WithName(name), model.WithSkeleton(skeleton), model.WithAnimations(clips)), report, nil
}
