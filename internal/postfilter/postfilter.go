// Package postfilter provides named, parameterized in-memory filters
// applied to records after the store query returns. Post-filters express
// predicates the store query language cannot, at the price of running on
// the full result set in memory.
package postfilter

import (
	"encoding/json"
	"fmt"

	"github.com/logsift-systems/logsift/internal/models"
	"github.com/logsift-systems/logsift/internal/query"
)

// Filter is a pure transform over an in-memory record collection. A
// filter exposes its name and bound parameters for introspection.
type Filter interface {
	Name() string
	Parameters() any
	Apply(records []models.LogRecord) []models.LogRecord
}

// Constructor builds a filter instance from its raw parameter payload.
// Parameter validation happens here, at construction time, not at use time.
type Constructor func(params json.RawMessage) (Filter, error)

// Registry resolves filter names to constructors.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry creates a registry with all built-in filters registered.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.Register(DropByLevelName, newDropByLevel)
	r.Register(DropByCategoryName, newDropByCategory)
	r.Register(DropByRecordPatternName, newDropByRecordPattern)
	return r
}

// Register adds a constructor under the given name, replacing any
// previous registration.
func (r *Registry) Register(name string, c Constructor) {
	r.constructors[name] = c
}

// Build resolves the given specs into an ordered filter chain. Unknown
// names and invalid parameters fail the whole build.
func (r *Registry) Build(specs []query.PostFilterSpec) ([]Filter, error) {
	filters := make([]Filter, 0, len(specs))
	for _, spec := range specs {
		ctor, ok := r.constructors[spec.Name]
		if !ok {
			return nil, fmt.Errorf("unsupported post-filter: %s", spec.Name)
		}
		f, err := ctor(spec.Params)
		if err != nil {
			return nil, fmt.Errorf("build post-filter %s: %w", spec.Name, err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// Apply runs the chain left to right: filter 2 sees filter 1's output.
// An empty chain is the identity transform.
func Apply(chain []Filter, records []models.LogRecord) []models.LogRecord {
	for _, f := range chain {
		records = f.Apply(records)
	}
	return records
}
