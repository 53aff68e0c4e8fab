package pipeline

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/aerogeophys/magqc/pkg/errors"
	"github.com/aerogeophys/magqc/pkg/logger"
	"github.com/aerogeophys/magqc/pkg/survey"
)

// Filter is a single pipeline step implementation. It receives the run
// context, the current dataset, and the step's keyword parameters. A filter
// that mutates the dataset in place returns nil; returning a dataset
// replaces the working dataset for subsequent steps.
type Filter func(ctx *Context, ds *survey.Dataset, args Args) (*survey.Dataset, error)

// Registry maps stable step names to filter implementations. It is
// populated at process start by filter packages registering themselves;
// an explicit Registry can also be constructed and injected for tests.
type Registry struct {
	filters map[string]Filter
	mu      sync.RWMutex
	logger  *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new empty filter registry.
func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[string]Filter),
		logger:  logger.Get().With(zap.String("component", "filter_registry")),
	}
}

// Register registers a filter implementation under a stable name.
func (r *Registry) Register(name string, f Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.filters[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "filter %s already registered", name)
	}

	r.filters[name] = f
	return nil
}

// Lookup resolves a filter by name.
func (r *Registry) Lookup(name string) (Filter, error) {
	r.mu.RLock()
	f, exists := r.filters[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeUnknownFilter, "unknown filter %s", name)
	}
	return f, nil
}

// List returns the registered filter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has checks whether a filter is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.filters[name]
	return exists
}

// Clear removes all registered filters (mainly for testing).
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = make(map[string]Filter)
}

// Global registry functions

// Register registers a filter in the global registry.
func Register(name string, f Filter) error {
	return globalRegistry.Register(name, f)
}

// Lookup resolves a filter from the global registry.
func Lookup(name string) (Filter, error) {
	return globalRegistry.Lookup(name)
}

// List returns filter names registered in the global registry.
func List() []string {
	return globalRegistry.List()
}

// Has checks if a filter is registered in the global registry.
func Has(name string) bool {
	return globalRegistry.Has(name)
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
