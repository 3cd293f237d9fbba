package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logsift-systems/logsift/internal/models"
	"github.com/logsift-systems/logsift/internal/recordformat"
)

const sampleLog = `2026-03-01 10:00:00.000 INFO [app] [main] service starting
2026-03-01 10:00:01.500 ERROR [db] [worker-1] connection refused
	at db.Connect(conn.go:42)
	at main.run(main.go:17)
2026-03-01 10:00:02.000 WARN [db] [worker-1] retrying in 1s
`

func writeTempLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func defaultFormat(t *testing.T) *recordformat.Format {
	t.Helper()
	format, err := recordformat.NewRegistry().Find("")
	require.NoError(t, err)
	return format
}

func collect(t *testing.T, iter BatchIterator) []models.LogRecord {
	t.Helper()
	var out []models.LogRecord
	for batch := iter.Next(); batch != nil; batch = iter.Next() {
		out = append(out, batch...)
	}
	require.NoError(t, iter.Err())
	return out
}

func TestParseFileOrderAndFields(t *testing.T) {
	path := writeTempLog(t, sampleLog)
	parser := NewLineParser(0)

	iter, err := parser.Parse(path, "job-1.app.log", defaultFormat(t))
	require.NoError(t, err)
	defer iter.Close()

	records := collect(t, iter)
	require.Len(t, records, 3)

	assert.Equal(t, "job-1.app.log:1", records[0].ID)
	assert.Equal(t, "INFO", records[0].Level)
	assert.Equal(t, "app", records[0].Category)
	assert.Equal(t, "main", records[0].Thread)
	assert.Equal(t, "service starting", records[0].Record)
	assert.Equal(t, "2026-03-01", records[0].Date)
	assert.Equal(t, "10:00:00.000", records[0].Time)
	assert.Equal(t, "2026-03-01 10:00:00.000 INFO [app] [main] service starting", records[0].Source)

	assert.Equal(t, "job-1.app.log:2", records[1].ID)
	assert.Equal(t, "job-1.app.log:3", records[2].ID)
}

func TestParseMultiLineContinuation(t *testing.T) {
	path := writeTempLog(t, sampleLog)
	parser := NewLineParser(0)

	iter, err := parser.Parse(path, "job-1.app.log", defaultFormat(t))
	require.NoError(t, err)
	defer iter.Close()

	records := collect(t, iter)
	require.Len(t, records, 3)

	// The stack trace folds into the ERROR record it follows.
	assert.Contains(t, records[1].Record, "connection refused")
	assert.Contains(t, records[1].Record, "at db.Connect(conn.go:42)")
	assert.Contains(t, records[1].Record, "at main.run(main.go:17)")
}

func TestParseSourcePreservesOriginalLines(t *testing.T) {
	path := writeTempLog(t, sampleLog)
	parser := NewLineParser(0)

	iter, err := parser.Parse(path, "job-1.app.log", defaultFormat(t))
	require.NoError(t, err)
	defer iter.Close()

	records := collect(t, iter)
	require.Len(t, records, 3)

	assert.Equal(t, "2026-03-01 10:00:00.000 INFO [app] [main] service starting", records[0].Source)
	assert.Equal(t, "2026-03-01 10:00:01.500 ERROR [db] [worker-1] connection refused\n"+
		"\tat db.Connect(conn.go:42)\n"+
		"\tat main.run(main.go:17)", records[1].Source)
	assert.Equal(t, "2026-03-01 10:00:02.000 WARN [db] [worker-1] retrying in 1s", records[2].Source)
}

func TestParseBatchesAreBounded(t *testing.T) {
	var content string
	for i := 0; i < 7; i++ {
		content += "2026-03-01 10:00:00.000 INFO [app] [main] line\n"
	}
	path := writeTempLog(t, content)
	parser := NewLineParser(3)

	iter, err := parser.Parse(path, "job-1.app.log", defaultFormat(t))
	require.NoError(t, err)
	defer iter.Close()

	var sizes []int
	total := 0
	for batch := iter.Next(); batch != nil; batch = iter.Next() {
		sizes = append(sizes, len(batch))
		total += len(batch)
	}
	require.NoError(t, iter.Err())

	assert.Equal(t, 7, total)
	for _, size := range sizes {
		assert.LessOrEqual(t, size, 3)
	}
}

func TestParseEmptyFile(t *testing.T) {
	path := writeTempLog(t, "")
	parser := NewLineParser(0)

	iter, err := parser.Parse(path, "job-1.empty.log", defaultFormat(t))
	require.NoError(t, err)
	defer iter.Close()

	assert.Nil(t, iter.Next())
	assert.NoError(t, iter.Err())
}

func TestParseMissingFile(t *testing.T) {
	parser := NewLineParser(0)

	_, err := parser.Parse(filepath.Join(t.TempDir(), "absent.log"), "k", defaultFormat(t))
	assert.Error(t, err)
}
