package core

import (
	"errors"
	"fmt"
)

// ErrNoSheets is returned when a workbook contains no worksheets.
var ErrNoSheets = errors.New("workbook has no sheets")

// ConfigError reports missing or invalid configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FileError reports an input file that cannot be found, opened or decrypted.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ParseError reports input that is not readable as tabular data.
type ParseError struct {
	Path string
	Line int // 0 when the failure is not tied to a row
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RequestFailed reports an API call that failed on every allowed attempt.
type RequestFailed struct {
	Attempts int   // Transport calls made
	Cause    error // Failure of the last attempt
}

func (e *RequestFailed) Error() string {
	return fmt.Sprintf("request failed after %d attempt(s): %v", e.Attempts, e.Cause)
}

func (e *RequestFailed) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether err aborts a run rather than a single record.
func IsFatal(err error) bool {
	var (
		cfgErr   *ConfigError
		fileErr  *FileError
		parseErr *ParseError
	)
	return errors.As(err, &cfgErr) || errors.As(err, &fileErr) || errors.As(err, &parseErr)
}
