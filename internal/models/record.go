package models

import (
	"fmt"
	"strings"
	"time"
)

// Wire formats for the date and time fields, matching the index mapping.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05.000"
)

// LogRecord is a single structured log entry. Records are created by the
// parser during ingestion, persisted once and never mutated afterwards;
// identity (and equality) is defined solely by ID.
type LogRecord struct {
	ID    string `json:"id"`
	Date  string `json:"date,omitempty"`
	Time  string `json:"time,omitempty"`
	Level string `json:"level,omitempty"`
	// Source holds the original line text exactly as read, continuation
	// lines included. Record carries only the extracted message.
	Source   string `json:"source"`
	Category string `json:"category,omitempty"`
	Thread   string `json:"thread,omitempty"`
	Record   string `json:"record,omitempty"`

	// OwnerKey partitions the index per user; IndexKey correlates every
	// record produced by one ingestion job.
	OwnerKey string `json:"owner_key"`
	IndexKey string `json:"index_key,omitempty"`
}

// Equal reports whether two records identify the same entry.
func (r LogRecord) Equal(other LogRecord) bool {
	return r.ID == other.ID
}

// Timestamp combines the date and time fields into a single instant.
func (r LogRecord) Timestamp() (time.Time, error) {
	ts, err := time.Parse(DateLayout+" "+TimeLayout, r.Date+" "+r.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("record %s has no valid timestamp: %w", r.ID, err)
	}
	return ts, nil
}

// FieldValue returns the value of the named record field. Field names may
// carry a ".keyword" suffix, which is stripped. Unknown fields are an error.
func (r LogRecord) FieldValue(name string) (string, error) {
	switch strings.TrimSuffix(name, ".keyword") {
	case "id":
		return r.ID, nil
	case "date":
		return r.Date, nil
	case "time":
		return r.Time, nil
	case "level":
		return r.Level, nil
	case "source":
		return r.Source, nil
	case "category":
		return r.Category, nil
	case "thread":
		return r.Thread, nil
	case "record":
		return r.Record, nil
	default:
		return "", fmt.Errorf("unsupported field: %s", name)
	}
}

// SupportedField reports whether name refers to a known record field.
func SupportedField(name string) bool {
	switch strings.TrimSuffix(name, ".keyword") {
	case "id", "date", "time", "level", "source", "category", "thread", "record":
		return true
	}
	return false
}
