// Package recordformat resolves named log line formats. Formats are
// declared in a YAML file so new log layouts can be added without code
// changes.
package recordformat

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Format describes how to split a raw log line into record fields. The
// pattern's named groups map to fields: date, time, level, category,
// thread, record. A line that does not match is treated as a continuation
// of the previous record.
type Format struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`

	regex *regexp.Regexp
}

// Regexp returns the compiled pattern.
func (f *Format) Regexp() *regexp.Regexp { return f.regex }

type Registry struct {
	formats map[string]*Format
}

type formatsFile struct {
	Formats []*Format `yaml:"formats"`
}

// DefaultName is the format used when a request names none.
const DefaultName = "default"

// defaultPattern covers the common "date time level [category] [thread] message"
// layout produced by the logging frameworks this service ingests.
const defaultPattern = `^(?P<date>\d{4}-\d{2}-\d{2})\s+(?P<time>\d{2}:\d{2}:\d{2}\.\d{3})\s+(?P<level>[A-Z]+)\s+\[(?P<category>[^\]]*)\]\s+\[(?P<thread>[^\]]*)\]\s+(?P<record>.*)$`

// NewRegistry returns a registry holding only the built-in default format.
func NewRegistry() *Registry {
	r := &Registry{formats: make(map[string]*Format)}
	def := &Format{Name: DefaultName, Pattern: defaultPattern}
	def.regex = regexp.MustCompile(def.Pattern)
	r.formats[def.Name] = def
	return r
}

// Load reads format declarations from a YAML file on top of the built-in
// default.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read formats file: %w", err)
	}

	var file formatsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse formats file: %w", err)
	}

	r := NewRegistry()
	for _, f := range file.Formats {
		if f.Name == "" {
			return nil, fmt.Errorf("format without a name in %s", path)
		}
		f.regex, err = regexp.Compile(f.Pattern)
		if err != nil {
			return nil, fmt.Errorf("format %s: invalid pattern: %w", f.Name, err)
		}
		r.formats[f.Name] = f
	}
	return r, nil
}

// Find resolves a format by name; the empty name resolves to the default.
func (r *Registry) Find(name string) (*Format, error) {
	if name == "" {
		name = DefaultName
	}
	f, ok := r.formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown record format: %s", name)
	}
	return f, nil
}
