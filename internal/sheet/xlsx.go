package sheet

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/JonMunkholm/boardimport/internal/core"
	"github.com/xuri/excelize/v2"
)

// XLSXSource streams rows from the first worksheet of a workbook.
type XLSXSource struct {
	path string
	file *excelize.File
	rows *excelize.Rows
	line int
}

// OpenXLSX opens an unencrypted workbook and positions on its first sheet.
func OpenXLSX(path string) (*XLSXSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, classifyOpenErr(path, err, false)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, &core.ParseError{Path: path, Err: core.ErrNoSheets}
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, &core.ParseError{Path: path, Err: fmt.Errorf("sheet %q: %w", sheets[0], err)}
	}

	slog.Debug("opened workbook", "path", path, "sheet", sheets[0], "sheets", len(sheets))
	return &XLSXSource{path: path, file: f, rows: rows}, nil
}

// Next returns the raw cell values of the next row.
func (s *XLSXSource) Next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, &core.ParseError{Path: s.path, Line: s.line + 1, Err: err}
		}
		return nil, io.EOF
	}
	s.line++

	cols, err := s.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &core.ParseError{Path: s.path, Line: s.line, Err: err}
	}
	return cols, nil
}

// Close releases the row iterator and the workbook.
func (s *XLSXSource) Close() error {
	rowsErr := s.rows.Close()
	fileErr := s.file.Close()
	return errors.Join(rowsErr, fileErr)
}

// Decrypt opens the protected workbook at src with password and writes an
// unencrypted copy to dst.
func Decrypt(src, password, dst string) error {
	f, err := excelize.OpenFile(src, excelize.Options{Password: password})
	if err != nil {
		return classifyOpenErr(src, err, true)
	}
	defer f.Close()

	// Saving with empty options drops the password carried over from open.
	if err := f.SaveAs(dst, excelize.Options{}); err != nil {
		return &core.FileError{Path: dst, Err: fmt.Errorf("write decrypted workbook: %w", err)}
	}

	slog.Info("decrypted workbook", "src", src, "dst", dst)
	return nil
}

// classifyOpenErr maps workbook open failures onto the error kinds. With a
// password in play any failure means the file could not be decrypted.
func classifyOpenErr(path string, err error, withPassword bool) error {
	switch {
	case withPassword:
		return &core.FileError{Path: path, Err: fmt.Errorf("wrong or missing workbook password: %w", err)}
	case errors.Is(err, excelize.ErrWorkbookPassword):
		return &core.FileError{Path: path, Err: fmt.Errorf("workbook is password protected: %w", err)}
	case isNotExist(err):
		return &core.FileError{Path: path, Err: err}
	default:
		return &core.ParseError{Path: path, Err: err}
	}
}
