// Package aggregation computes named statistics over record sets. An
// aggregator is a pure, parameterized reduction: deterministic for a given
// record set and parameters, stateless across invocations. The registry
// creates a fresh instance per use with bound parameters.
package aggregation

import (
	"encoding/json"
	"fmt"

	"github.com/logsift-systems/logsift/internal/models"
)

// Aggregator reduces a record collection to a single statistic value.
// Values are scalars, ordered sequences, or nested mappings, anything
// JSON-serializable.
type Aggregator interface {
	Name() string
	Apply(records []models.LogRecord) (any, error)
}

// Constructor builds an aggregator from its raw parameter payload.
// Names and parameters are validated here, at construction time.
type Constructor func(params json.RawMessage) (Aggregator, error)

// Registry resolves aggregator names to constructors.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry creates a registry with all built-in aggregators registered.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]Constructor)}
	r.Register(CountName, newCountFromJSON)
	r.Register(FrequencyName, newFrequencyFromJSON)
	r.Register(ErrorsAverageIntervalName, newErrorsAverageIntervalFromJSON)
	return r
}

// Register adds a constructor under the given name, replacing any
// previous registration.
func (r *Registry) Register(name string, c Constructor) {
	r.constructors[name] = c
}

// Create builds a single-use aggregator by name.
func (r *Registry) Create(name string, params json.RawMessage) (Aggregator, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown aggregator: %s", name)
	}
	agg, err := ctor(params)
	if err != nil {
		return nil, fmt.Errorf("create aggregator %s: %w", name, err)
	}
	return agg, nil
}

// matchesFilter reports whether every field named in filter holds the
// given value on the record. An empty filter matches everything.
func matchesFilter(r models.LogRecord, filter map[string]string) (bool, error) {
	for field, want := range filter {
		got, err := r.FieldValue(field)
		if err != nil {
			return false, err
		}
		if got != want {
			return false, nil
		}
	}
	return true, nil
}

// validateFilterFields rejects equality filters naming unknown fields so
// misuse fails at construction time rather than mid-analysis.
func validateFilterFields(filter map[string]string) error {
	for field := range filter {
		if !models.SupportedField(field) {
			return fmt.Errorf("unsupported filter field: %s", field)
		}
	}
	return nil
}
