package aggregation

import (
	"fmt"
	"sort"

	"github.com/logsift-systems/logsift/internal/models"
	"github.com/logsift-systems/logsift/internal/query"
)

// Statistics maps aggregation names to computed values.
type Statistics map[string]any

// Names returns the statistic names in lexical order.
func (s Statistics) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default aggregation names, applied when an analyze query declares no
// aggregations of its own.
const (
	StatErrorsFrequencies           = "errors.frequencies"
	StatMostFrequentErrors          = "errors.most.frequent"
	StatMostFrequentWarns           = "warns.most.frequent"
	StatErrorsCount                 = "errors.count"
	StatAllRecordsCount             = "all.records.count"
	StatWarnsCount                  = "warns.count"
	StatErrorsFrequenciesByCategory = "errors.frequencies.by.category"
	StatRecordsFrequencyByCategory  = "records.frequency.by.category"
	StatRecordsFrequencyByThread    = "records.frequency.by.thread"
	StatErrorsAverageInterval       = "errors.average.interval"
)

// Engine orchestrates named aggregators over a record set.
type Engine struct {
	registry *Registry
	defaults map[string]Aggregator
}

// NewEngine creates an engine with the default aggregation set built from
// the given registry.
func NewEngine(registry *Registry) (*Engine, error) {
	defaults, err := defaultAggregations()
	if err != nil {
		return nil, fmt.Errorf("build default aggregations: %w", err)
	}
	return &Engine{registry: registry, defaults: defaults}, nil
}

// Analyze applies the query's aggregators, or the default set when the
// query declares none, to the full record set and collects results by
// aggregation name. It has no side effects; persistence belongs to the
// caller.
func (e *Engine) Analyze(records []models.LogRecord, analyzeQuery *query.AnalyzeQuery) (Statistics, error) {
	aggregations := make(map[string]Aggregator, len(analyzeQuery.Aggregations))
	for name, params := range analyzeQuery.Aggregations {
		agg, err := e.registry.Create(name, params)
		if err != nil {
			return nil, err
		}
		aggregations[name] = agg
	}
	if len(aggregations) == 0 {
		aggregations = e.defaults
	}

	stats := make(Statistics, len(aggregations))
	for name, agg := range aggregations {
		value, err := agg.Apply(records)
		if err != nil {
			return nil, fmt.Errorf("aggregation %s: %w", name, err)
		}
		stats[name] = value
	}
	return stats, nil
}

func defaultAggregations() (map[string]Aggregator, error) {
	errorsFilter := map[string]string{"level": "ERROR"}
	warnsFilter := map[string]string{"level": "WARN"}

	defs := map[string]func() (Aggregator, error){
		StatErrorsFrequencies: func() (Aggregator, error) {
			return NewFrequency(FrequencyParams{Field: "record", Filter: errorsFilter})
		},
		StatMostFrequentErrors: func() (Aggregator, error) {
			return NewFrequency(FrequencyParams{Field: "record", Filter: errorsFilter, Top: 5})
		},
		StatMostFrequentWarns: func() (Aggregator, error) {
			return NewFrequency(FrequencyParams{Field: "record", Filter: warnsFilter, Top: 5})
		},
		StatErrorsCount: func() (Aggregator, error) {
			return NewCount(errorsFilter)
		},
		StatAllRecordsCount: func() (Aggregator, error) {
			return NewCount(nil)
		},
		StatWarnsCount: func() (Aggregator, error) {
			return NewCount(warnsFilter)
		},
		StatErrorsFrequenciesByCategory: func() (Aggregator, error) {
			return NewFrequency(FrequencyParams{Field: "category", Filter: errorsFilter})
		},
		StatRecordsFrequencyByCategory: func() (Aggregator, error) {
			return NewFrequency(FrequencyParams{Field: "category"})
		},
		StatRecordsFrequencyByThread: func() (Aggregator, error) {
			return NewFrequency(FrequencyParams{Field: "thread"})
		},
		StatErrorsAverageInterval: func() (Aggregator, error) {
			return NewErrorsAverageInterval(), nil
		},
	}

	out := make(map[string]Aggregator, len(defs))
	for name, build := range defs {
		agg, err := build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = agg
	}
	return out, nil
}
