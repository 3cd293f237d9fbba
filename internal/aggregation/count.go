package aggregation

import (
	"encoding/json"
	"fmt"

	"github.com/logsift-systems/logsift/internal/models"
)

// CountName is the registry name of the counting aggregator.
const CountName = "count"

// CountParams restricts counting to records matching an equality-filter
// map. An empty filter counts all records.
type CountParams struct {
	Filter map[string]string `json:"filter,omitempty"`
}

type countAggregator struct {
	params CountParams
}

// NewCount creates a counting aggregator over the given equality filter.
func NewCount(filter map[string]string) (Aggregator, error) {
	if err := validateFilterFields(filter); err != nil {
		return nil, err
	}
	return &countAggregator{params: CountParams{Filter: filter}}, nil
}

func newCountFromJSON(params json.RawMessage) (Aggregator, error) {
	var p CountParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
	}
	return NewCount(p.Filter)
}

func (a *countAggregator) Name() string { return CountName }

func (a *countAggregator) Apply(records []models.LogRecord) (any, error) {
	count := 0
	for _, r := range records {
		ok, err := matchesFilter(r, a.params.Filter)
		if err != nil {
			return nil, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}
