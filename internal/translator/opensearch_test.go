package translator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift-systems/logsift/internal/query"
)

func TestTranslateRequiresOwnerKey(t *testing.T) {
	tr := New()

	_, err := tr.Translate(&query.SearchQuery{Query: "timeout"}, "")
	require.ErrorIs(t, err, ErrEmptyOwnerKey)
}

func TestTranslateScopesEveryQueryToOwner(t *testing.T) {
	tr := New()

	dsl, err := tr.Translate(&query.SearchQuery{}, "owner-1")
	require.NoError(t, err)

	filter := boolFilter(t, dsl)
	require.NotEmpty(t, filter)
	term := filter[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "owner-1", term["owner_key"])
}

func TestTranslateSimpleQuery(t *testing.T) {
	tr := New()

	q := &query.SearchQuery{
		Query:      "connection refused",
		Levels:     []string{"ERROR", "WARN"},
		Categories: []string{"db"},
		IndexKey:   "job-1",
	}

	dsl, err := tr.Translate(q, "owner-1")
	require.NoError(t, err)

	boolQuery := dsl["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	match := must[0].(map[string]interface{})["match"].(map[string]interface{})
	assert.Equal(t, "connection refused", match["record"])

	filter := boolQuery["filter"].([]interface{})
	// owner_key, index_key, levels, categories
	require.Len(t, filter, 4)
	indexTerm := filter[1].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "job-1", indexTerm["index_key"])
	levels := filter[2].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, []interface{}{"ERROR", "WARN"}, levels["level"])
}

func TestTranslateExtendedQuery(t *testing.T) {
	tr := New()

	q := &query.SearchQuery{
		Query:          `level:ERROR AND record:"out of memory"`,
		ExtendedFormat: true,
	}

	dsl, err := tr.Translate(q, "owner-1")
	require.NoError(t, err)

	boolQuery := dsl["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	qs := must[0].(map[string]interface{})["query_string"].(map[string]interface{})
	assert.Equal(t, q.Query, qs["query"])
	assert.Equal(t, "AND", qs["default_operator"])
}

func TestTranslateDateRange(t *testing.T) {
	tr := New()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	q := &query.SearchQuery{From: &from, To: &to}

	dsl, err := tr.Translate(q, "owner-1")
	require.NoError(t, err)

	filter := boolFilter(t, dsl)
	dateRange := filter[len(filter)-1].(map[string]interface{})["range"].(map[string]interface{})["date"].(map[string]interface{})
	assert.Equal(t, "2026-03-01", dateRange["gte"])
	assert.Equal(t, "2026-03-07", dateRange["lte"])
}

func TestTranslateInvertedDateRange(t *testing.T) {
	tr := New()

	from := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := tr.Translate(&query.SearchQuery{From: &from, To: &to}, "owner-1")
	var translationErr *TranslationError
	require.True(t, errors.As(err, &translationErr))
	assert.Equal(t, "date", translationErr.Field)
}

func TestTranslateSortAndSize(t *testing.T) {
	tr := New()

	dsl, err := tr.Translate(&query.SearchQuery{}, "owner-1")
	require.NoError(t, err)

	sorts := dsl["sort"].([]map[string]interface{})
	require.Len(t, sorts, 2)
	assert.Contains(t, sorts[0], "date")
	assert.Contains(t, sorts[1], "time")
	assert.Equal(t, DefaultMaxResults, dsl["size"])

	dsl, err = tr.Translate(&query.SearchQuery{MaxResults: 250}, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 250, dsl["size"])
}

func boolFilter(t *testing.T, dsl map[string]interface{}) []interface{} {
	t.Helper()
	boolQuery := dsl["query"].(map[string]interface{})["bool"].(map[string]interface{})
	return boolQuery["filter"].([]interface{})
}
