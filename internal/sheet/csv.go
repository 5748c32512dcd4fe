package sheet

import (
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/JonMunkholm/boardimport/internal/core"
)

// CSVSource streams rows from a CSV export.
type CSVSource struct {
	path   string
	file   *os.File
	stream *countingReader
	reader *csv.Reader
}

// OpenCSV opens path for streaming. A BOM is stripped and invalid UTF-8 is
// replaced before parsing; rows may have differing widths.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.FileError{Path: path, Err: err}
	}
	return newCSVSource(path, f, f), nil
}

func newCSVSource(path string, r io.Reader, f *os.File) *CSVSource {
	stream := cleanCSVStream(r)
	reader := csv.NewReader(stream)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false
	return &CSVSource{path: path, file: f, stream: stream, reader: reader}
}

// Next returns the fields of the next record.
func (s *CSVSource) Next() ([]string, error) {
	rec, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		line := 0
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			line = perr.Line
		}
		return nil, &core.ParseError{Path: s.path, Line: line, Err: err}
	}
	return rec, nil
}

// Close closes the underlying file.
func (s *CSVSource) Close() error {
	slog.Debug("closed csv source", "path", s.path, "bytes", s.stream.BytesRead)
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
