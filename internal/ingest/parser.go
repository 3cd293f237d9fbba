package ingest

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/logsift-systems/logsift/internal/models"
	"github.com/logsift-systems/logsift/internal/recordformat"
)

// BatchIterator yields parsed records in file order, one bounded batch at
// a time. Next returns nil when the file is exhausted; Err reports a read
// failure after iteration stops.
type BatchIterator interface {
	Next() []models.LogRecord
	Err() error
	Close() error
}

// Parser opens a log file for lazy batch iteration.
type Parser interface {
	Parse(path, fileKey string, format *recordformat.Format) (BatchIterator, error)
}

// DefaultBatchSize bounds how many records a single bulk write carries.
const DefaultBatchSize = 1000

// LineParser parses log files line by line against a format pattern.
// Lines that do not match the pattern are continuations: their text is
// appended to the previous record. Record ids are derived from the file
// key and record ordinal, so re-indexing the same job key overwrites
// instead of duplicating.
type LineParser struct {
	batchSize int
}

func NewLineParser(batchSize int) *LineParser {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &LineParser{batchSize: batchSize}
}

func (p *LineParser) Parse(path, fileKey string, format *recordformat.Format) (BatchIterator, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &lineIterator{
		file:      file,
		scanner:   scanner,
		format:    format,
		fileKey:   fileKey,
		batchSize: p.batchSize,
	}, nil
}

type lineIterator struct {
	file      *os.File
	scanner   *bufio.Scanner
	format    *recordformat.Format
	fileKey   string
	batchSize int

	pending *models.LogRecord
	ordinal int
	done    bool
	err     error
}

func (it *lineIterator) Next() []models.LogRecord {
	if it.done || it.err != nil {
		return nil
	}

	batch := make([]models.LogRecord, 0, it.batchSize)
	for it.scanner.Scan() {
		line := it.scanner.Text()
		if record, ok := it.parseLine(line); ok {
			if it.pending != nil {
				batch = append(batch, *it.pending)
			}
			it.pending = record
			if len(batch) == it.batchSize {
				return batch
			}
			continue
		}
		// Continuation of a multi-line record, e.g. a stack trace.
		if it.pending != nil {
			it.pending.Record += "\n" + line
			it.pending.Source += "\n" + line
		}
	}

	it.done = true
	if err := it.scanner.Err(); err != nil {
		it.err = fmt.Errorf("read log file: %w", err)
		return nil
	}
	if it.pending != nil {
		batch = append(batch, *it.pending)
		it.pending = nil
	}
	if len(batch) == 0 {
		return nil
	}
	return batch
}

func (it *lineIterator) parseLine(line string) (*models.LogRecord, bool) {
	re := it.format.Regexp()
	match := re.FindStringSubmatch(line)
	if match == nil {
		return nil, false
	}

	record := &models.LogRecord{}
	for i, name := range re.SubexpNames() {
		if i == 0 || i >= len(match) {
			continue
		}
		value := strings.TrimSpace(match[i])
		switch name {
		case "date":
			record.Date = value
		case "time":
			record.Time = value
		case "level":
			record.Level = value
		case "category":
			record.Category = value
		case "thread":
			record.Thread = value
		case "record":
			record.Record = value
		}
	}

	it.ordinal++
	record.ID = fmt.Sprintf("%s:%d", it.fileKey, it.ordinal)
	record.Source = line
	return record, true
}

func (it *lineIterator) Err() error { return it.err }

func (it *lineIterator) Close() error { return it.file.Close() }
