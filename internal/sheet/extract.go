package sheet

import (
	"io"
	"strings"

	"github.com/JonMunkholm/boardimport/internal/core"
)

// Fixed column positions in the export.
const (
	ColID   = 0
	ColName = 1

	// DefaultFilterColumn holds the department.
	DefaultFilterColumn = 3
)

// Filter keeps only rows whose trimmed cell at Column equals Value.
// An empty Value keeps every row.
type Filter struct {
	Column int
	Value  string
}

// Enabled reports whether the filter drops anything.
func (f Filter) Enabled() bool {
	return f.Value != ""
}

// ExtractOptions controls row extraction.
type ExtractOptions struct {
	SkipHeader bool
	Filter     Filter
}

// ExtractStats counts what the extractor saw.
type ExtractStats struct {
	Rows     int // Rows read from the source, header included
	Header   int // Rows skipped as header
	EmptyID  int // Rows dropped for a blank id
	Filtered int // Rows dropped by the filter
	Emitted  int // Records returned
}

// Extractor turns raw rows into user records. It reads lazily and cannot be
// restarted.
type Extractor struct {
	src   RowSource
	opts  ExtractOptions
	stats ExtractStats
}

// NewExtractor wraps src.
func NewExtractor(src RowSource, opts ExtractOptions) *Extractor {
	return &Extractor{src: src, opts: opts}
}

// Next returns the next record that passes the id and filter checks, or
// io.EOF when the source is exhausted. Source errors are returned unchanged.
func (e *Extractor) Next() (core.UserRecord, error) {
	for {
		row, err := e.src.Next()
		if err != nil {
			return core.UserRecord{}, err
		}
		e.stats.Rows++
		line := e.stats.Rows

		if e.opts.SkipHeader && line == 1 {
			e.stats.Header++
			continue
		}

		id := cleanID(cell(row, ColID))
		if id == "" {
			e.stats.EmptyID++
			continue
		}

		if f := e.opts.Filter; f.Enabled() && cell(row, f.Column) != f.Value {
			e.stats.Filtered++
			continue
		}

		e.stats.Emitted++
		return core.UserRecord{ID: id, Name: cell(row, ColName), Line: line}, nil
	}
}

// All drains the extractor.
func (e *Extractor) All() ([]core.UserRecord, error) {
	var out []core.UserRecord
	for {
		rec, err := e.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Stats returns the counters so far.
func (e *Extractor) Stats() ExtractStats {
	return e.stats
}

// Close closes the underlying source.
func (e *Extractor) Close() error {
	return e.src.Close()
}

// cell returns the trimmed value at i, or "" for short rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// cleanID unwraps the ="..." form Excel writes to keep leading zeros in
// text exports.
func cleanID(s string) string {
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		return strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}
