package aggregation

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/logsift-systems/logsift/internal/models"
)

// FrequencyName is the registry name of the grouping aggregator.
const FrequencyName = "frequency"

// FrequencyParams configures grouping: the record field to group by, an
// additional equality filter, the minimum group size to report, and the
// maximum number of groups to return (Top <= 0 means unbounded).
type FrequencyParams struct {
	Field        string            `json:"field"`
	MinFrequency int               `json:"min_frequency,omitempty"`
	Filter       map[string]string `json:"filter,omitempty"`
	Top          int               `json:"top,omitempty"`
}

// Group is one frequency bucket: a field value and its occurrence count.
type Group struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type frequencyAggregator struct {
	params FrequencyParams
}

// NewFrequency creates a grouping aggregator. The field name is validated
// here so misuse fails at construction time.
func NewFrequency(params FrequencyParams) (Aggregator, error) {
	if params.Field == "" {
		return nil, fmt.Errorf("field must not be empty")
	}
	if !models.SupportedField(params.Field) {
		return nil, fmt.Errorf("unsupported field: %s", params.Field)
	}
	if err := validateFilterFields(params.Filter); err != nil {
		return nil, err
	}
	if params.MinFrequency <= 0 {
		params.MinFrequency = 1
	}
	return &frequencyAggregator{params: params}, nil
}

func newFrequencyFromJSON(params json.RawMessage) (Aggregator, error) {
	var p FrequencyParams
	if len(params) == 0 {
		return nil, fmt.Errorf("missing parameters")
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return NewFrequency(p)
}

func (a *frequencyAggregator) Name() string { return FrequencyName }

// Apply groups matching records by the configured field and returns the
// top groups ordered by descending count, ties broken by the order the
// field value was first seen. The ordering makes repeated runs over the
// same record set produce identical output.
func (a *frequencyAggregator) Apply(records []models.LogRecord) (any, error) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for _, r := range records {
		ok, err := matchesFilter(r, a.params.Filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		value, err := r.FieldValue(a.params.Field)
		if err != nil {
			return nil, err
		}
		if _, seen := counts[value]; !seen {
			firstSeen[value] = len(firstSeen)
		}
		counts[value]++
	}

	groups := make([]Group, 0, len(counts))
	for value, count := range counts {
		if count >= a.params.MinFrequency {
			groups = append(groups, Group{Value: value, Count: count})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return firstSeen[groups[i].Value] < firstSeen[groups[j].Value]
	})

	if a.params.Top > 0 && len(groups) > a.params.Top {
		groups = groups[:a.params.Top]
	}
	return groups, nil
}
