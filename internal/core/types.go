package core

import "time"

// UserRecord is one extracted spreadsheet row.
type UserRecord struct {
	ID   string // Trimmed user id, never empty
	Name string // Trimmed user name, empty when absent
	Line int    // 1-based source row, 0 if unknown
}

// HasName reports whether the record carries a non-empty name.
func (r UserRecord) HasName() bool {
	return r.Name != ""
}

// DisplayName returns the name if present, otherwise the id.
func (r UserRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// BatchResult is the outcome of one sequential batch.
type BatchResult struct {
	Index    int   // Zero-based batch number
	OK       int   // Records created
	Failed   int   // Records that failed after retries
	FirstErr error // First failure in the batch, nil if none
}

// Summary is the outcome of a whole run.
type Summary struct {
	RunID           string
	Total           int // Records attempted after dedupe, ledger skip and limit
	Created         int
	Failed          int
	Batches         int
	SkippedImported int // Records dropped because the ledger already had them
	DryRun          bool
	Duration        time.Duration
}

// FailedRow describes a record that could not be created.
type FailedRow struct {
	Record UserRecord
	Reason string
}
