// Package query defines the declarative search and analyze query model.
// All caller-facing surfaces (CLI, controllers, stored query history)
// translate to these structures.
package query

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostFilterSpec names an in-memory filter applied after the store query
// returns, together with its raw parameter payload. Filters compose in
// declaration order.
type PostFilterSpec struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"parameters,omitempty"`
}

// SearchQuery is a user's filter request. Owner attribution is derived
// from the current user at execution time, never supplied by the caller;
// every execution is implicitly scoped to the owner's index partition.
type SearchQuery struct {
	// Query is the free-form query text. In extended format it is passed
	// to the store's query-string syntax; in simple format it becomes a
	// match against the normalized record body.
	Query string `json:"query,omitempty"`

	Levels     []string `json:"levels,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Threads    []string `json:"threads,omitempty"`

	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`

	// IndexKey restricts the search to records produced by one
	// ingestion job.
	IndexKey string `json:"index_key,omitempty"`

	// ExtendedFormat selects the richer query-string shape over the
	// simple conjunctive filter shape.
	ExtendedFormat bool `json:"extended_format,omitempty"`

	PostFilters []PostFilterSpec `json:"post_filters,omitempty"`

	MaxResults int `json:"max_results,omitempty"`
}

// CanonicalJSON returns the stable serialized form of the query used for
// audit storage and statistics-key derivation.
func (q *SearchQuery) CanonicalJSON() (string, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("serialize query: %w", err)
	}
	return string(data), nil
}

// AnalyzeQuery is a SearchQuery plus aggregation intent. An empty
// Aggregations map selects the default aggregation set.
type AnalyzeQuery struct {
	SearchQuery

	Aggregations map[string]json.RawMessage `json:"aggregations,omitempty"`
	ResultName   string                     `json:"result_name,omitempty"`
	Save         bool                       `json:"save,omitempty"`

	// ExplicitID overrides the derived statistics key. The ingestion
	// pipeline sets it to the indexing key so a job's summary entity is
	// addressable by that key.
	ExplicitID string `json:"explicit_id,omitempty"`
}

// statisticsNamespace salts derived statistics ids so they never collide
// with other uuid-v5 key spaces.
var statisticsNamespace = uuid.MustParse("9d9826be-3b69-42a9-9b2c-1dca36a7e11b")

// ID returns the statistics key for this query: the explicit key when
// set, otherwise a stable digest of the underlying search query. Equal
// queries always produce equal ids.
func (q *AnalyzeQuery) ID() string {
	if q.ExplicitID != "" {
		return q.ExplicitID
	}
	canonical, err := q.SearchQuery.CanonicalJSON()
	if err != nil {
		// Marshaling a SearchQuery cannot fail; fall back to a random
		// key rather than panicking in a request path.
		return uuid.NewString()
	}
	return uuid.NewSHA1(statisticsNamespace, []byte(canonical)).String()
}

// ToSearchQuery returns the record-retrieval part of the analyze query.
func (q *AnalyzeQuery) ToSearchQuery() *SearchQuery {
	sq := q.SearchQuery
	return &sq
}

// OnIndex returns the implicit analyze query an ingestion job runs over
// its own records once indexing completes.
func OnIndex(indexKey string) *AnalyzeQuery {
	return &AnalyzeQuery{
		SearchQuery: SearchQuery{IndexKey: indexKey},
		ResultName:  "index " + indexKey,
		Save:        true,
		ExplicitID:  indexKey,
	}
}
