package postfilter

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/logsift-systems/logsift/internal/models"
)

// Built-in filter names.
const (
	DropByLevelName         = "drop-by-level"
	DropByCategoryName      = "drop-by-category"
	DropByRecordPatternName = "drop-by-record-pattern"
)

// DropByLevelParams lists the severity labels to exclude.
type DropByLevelParams struct {
	Levels []string `json:"levels"`
}

type dropByLevel struct {
	params  DropByLevelParams
	dropped map[string]struct{}
}

func newDropByLevel(params json.RawMessage) (Filter, error) {
	var p DropByLevelParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if len(p.Levels) == 0 {
		return nil, fmt.Errorf("levels must not be empty")
	}
	dropped := make(map[string]struct{}, len(p.Levels))
	for _, lvl := range p.Levels {
		dropped[lvl] = struct{}{}
	}
	return &dropByLevel{params: p, dropped: dropped}, nil
}

func (f *dropByLevel) Name() string    { return DropByLevelName }
func (f *dropByLevel) Parameters() any { return f.params }

func (f *dropByLevel) Apply(records []models.LogRecord) []models.LogRecord {
	out := make([]models.LogRecord, 0, len(records))
	for _, r := range records {
		if _, drop := f.dropped[r.Level]; !drop {
			out = append(out, r)
		}
	}
	return out
}

// DropByCategoryParams lists the categories to exclude.
type DropByCategoryParams struct {
	Categories []string `json:"categories"`
}

type dropByCategory struct {
	params  DropByCategoryParams
	dropped map[string]struct{}
}

func newDropByCategory(params json.RawMessage) (Filter, error) {
	var p DropByCategoryParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if len(p.Categories) == 0 {
		return nil, fmt.Errorf("categories must not be empty")
	}
	dropped := make(map[string]struct{}, len(p.Categories))
	for _, c := range p.Categories {
		dropped[c] = struct{}{}
	}
	return &dropByCategory{params: p, dropped: dropped}, nil
}

func (f *dropByCategory) Name() string    { return DropByCategoryName }
func (f *dropByCategory) Parameters() any { return f.params }

func (f *dropByCategory) Apply(records []models.LogRecord) []models.LogRecord {
	out := make([]models.LogRecord, 0, len(records))
	for _, r := range records {
		if _, drop := f.dropped[r.Category]; !drop {
			out = append(out, r)
		}
	}
	return out
}

// DropByRecordPatternParams holds a regular expression matched against the
// normalized record body; matching records are dropped.
type DropByRecordPatternParams struct {
	Pattern string `json:"pattern"`
}

type dropByRecordPattern struct {
	params DropByRecordPatternParams
	re     *regexp.Regexp
}

func newDropByRecordPattern(params json.RawMessage) (Filter, error) {
	var p DropByRecordPatternParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if p.Pattern == "" {
		return nil, fmt.Errorf("pattern must not be empty")
	}
	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return &dropByRecordPattern{params: p, re: re}, nil
}

func (f *dropByRecordPattern) Name() string    { return DropByRecordPatternName }
func (f *dropByRecordPattern) Parameters() any { return f.params }

func (f *dropByRecordPattern) Apply(records []models.LogRecord) []models.LogRecord {
	out := make([]models.LogRecord, 0, len(records))
	for _, r := range records {
		if !f.re.MatchString(r.Record) {
			out = append(out, r)
		}
	}
	return out
}

func unmarshalParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return fmt.Errorf("missing parameters")
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
