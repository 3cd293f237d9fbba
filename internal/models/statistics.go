package models

import "time"

// StatisticsEntity is a persisted, cacheable bundle of computed statistic
// values tied to the query that produced it. IDs are stable for a given
// analyze query, so recomputation overwrites rather than duplicates.
type StatisticsEntity struct {
	ID        string         `json:"id"`
	Created   time.Time      `json:"created"`
	Title     string         `json:"title"`
	DataQuery string         `json:"data_query"`
	UserKey   string         `json:"user_key"`
	Stats     map[string]any `json:"stats"`
}
