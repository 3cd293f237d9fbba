package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualComparesByID(t *testing.T) {
	a := LogRecord{ID: "r-1", Record: "first"}
	b := LogRecord{ID: "r-1", Record: "completely different"}
	c := LogRecord{ID: "r-2", Record: "first"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestTimestamp(t *testing.T) {
	r := LogRecord{ID: "r-1", Date: "2026-03-01", Time: "10:15:30.250"}

	ts, err := r.Timestamp()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 15, 30, 250_000_000, time.UTC), ts)

	_, err = LogRecord{ID: "r-2", Date: "not-a-date"}.Timestamp()
	assert.Error(t, err)
}

func TestFieldValue(t *testing.T) {
	r := LogRecord{
		ID: "r-1", Date: "2026-03-01", Time: "10:00:00.000",
		Level: "ERROR", Source: "app.log", Category: "db",
		Thread: "worker-1", Record: "connection refused",
	}

	tests := []struct {
		field string
		want  string
	}{
		{"id", "r-1"},
		{"level", "ERROR"},
		{"level.keyword", "ERROR"},
		{"category", "db"},
		{"thread", "worker-1"},
		{"record", "connection refused"},
		{"source", "app.log"},
		{"date", "2026-03-01"},
		{"time", "10:00:00.000"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := r.FieldValue(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := r.FieldValue("severity")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported field")
}

func TestSupportedField(t *testing.T) {
	assert.True(t, SupportedField("level"))
	assert.True(t, SupportedField("record.keyword"))
	assert.False(t, SupportedField("severity"))
}
