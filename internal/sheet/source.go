// Package sheet reads user rows out of spreadsheet exports.
//
// A RowSource yields raw rows from one file format. The Extractor turns those
// rows into core.UserRecord values: it skips the header, drops rows without an
// id, and applies the department filter.
package sheet

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/boardimport/internal/core"
)

// RowSource yields the raw cells of one row per call. Next returns io.EOF
// once the input is exhausted. Rows may be shorter than the widest row.
type RowSource interface {
	Next() ([]string, error)
	Close() error
}

// OpenOptions controls how an input file is opened.
type OpenOptions struct {
	// Password decrypts a protected workbook. Ignored for CSV input.
	Password string

	// DecryptTo is where the decrypted workbook is written.
	// Empty means DecryptedPath(path).
	DecryptTo string
}

var excelExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// Open selects a RowSource by file extension. ".csv" is read as CSV and
// everything else as a workbook; a workbook with an unexpected extension is
// still attempted after a warning.
func Open(path string, opts OpenOptions) (RowSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &core.FileError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &core.FileError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".csv" {
		return OpenCSV(path)
	}
	if !excelExts[ext] {
		slog.Warn("file does not look like an Excel workbook", "path", path)
	}

	if opts.Password != "" {
		out := opts.DecryptTo
		if out == "" {
			out = DecryptedPath(path)
		}
		if err := Decrypt(path, opts.Password, out); err != nil {
			return nil, err
		}
		path = out
	}

	return OpenXLSX(path)
}

// DecryptedPath returns the default output path for a decrypted workbook:
// the input path with ".decrypted" inserted before the extension.
func DecryptedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".decrypted" + ext
}
