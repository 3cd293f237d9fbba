// Package translator converts declarative search queries to OpenSearch
// Query DSL. Translation is a pure function: no I/O, no state.
package translator

import (
	"errors"
	"fmt"

	"github.com/logsift-systems/logsift/internal/query"
)

// ErrEmptyOwnerKey is returned when a query cannot be scoped to a user
// partition. Every translated query carries an owner_key filter.
var ErrEmptyOwnerKey = errors.New("owner key must not be empty")

// TranslationError reports a predicate that cannot be expressed to the
// store, naming the offending field.
type TranslationError struct {
	Field  string
	Reason string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("cannot translate field %q: %s", e.Field, e.Reason)
}

// DefaultMaxResults bounds queries that do not declare their own limit.
const DefaultMaxResults = 10000

// Translator builds OpenSearch request bodies from search queries.
type Translator struct{}

// New creates a translator.
func New() *Translator {
	return &Translator{}
}

// Translate converts q into an OpenSearch request body scoped to
// ownerKey's partition of the index.
func (t *Translator) Translate(q *query.SearchQuery, ownerKey string) (map[string]interface{}, error) {
	if ownerKey == "" {
		return nil, ErrEmptyOwnerKey
	}

	filter := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{
				"owner_key": ownerKey,
			},
		},
	}

	if q.IndexKey != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{
				"index_key": q.IndexKey,
			},
		})
	}
	if len(q.Levels) > 0 {
		filter = append(filter, termsFilter("level", q.Levels))
	}
	if len(q.Categories) > 0 {
		filter = append(filter, termsFilter("category", q.Categories))
	}
	if len(q.Threads) > 0 {
		filter = append(filter, termsFilter("thread", q.Threads))
	}

	if q.From != nil || q.To != nil {
		if q.From != nil && q.To != nil && q.From.After(*q.To) {
			return nil, &TranslationError{Field: "date", Reason: "range start is after range end"}
		}
		rangeQuery := make(map[string]interface{})
		if q.From != nil {
			rangeQuery["gte"] = q.From.Format("2006-01-02")
		}
		if q.To != nil {
			rangeQuery["lte"] = q.To.Format("2006-01-02")
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"date": rangeQuery,
			},
		})
	}

	must := []interface{}{}
	if q.Query != "" {
		if q.ExtendedFormat {
			// Extended format exposes the store's full query-string
			// syntax over all record fields.
			must = append(must, map[string]interface{}{
				"query_string": map[string]interface{}{
					"query":            q.Query,
					"default_operator": "AND",
				},
			})
		} else {
			must = append(must, map[string]interface{}{
				"match": map[string]interface{}{
					"record": q.Query,
				},
			})
		}
	}

	boolQuery := map[string]interface{}{
		"filter": filter,
	}
	if len(must) > 0 {
		boolQuery["must"] = must
	}

	size := q.MaxResults
	if size <= 0 {
		size = DefaultMaxResults
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"sort": []map[string]interface{}{
			{"date": map[string]interface{}{"order": "asc"}},
			{"time": map[string]interface{}{"order": "asc"}},
		},
		"size": size,
	}, nil
}

func termsFilter(field string, values []string) map[string]interface{} {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return map[string]interface{}{
		"terms": map[string]interface{}{
			field: vs,
		},
	}
}
