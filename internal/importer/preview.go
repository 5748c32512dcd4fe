package importer

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/boardimport/internal/core"
)

// previewRows is how many records a dry run prints.
const previewRows = 10

// Preview prints up to n records without touching the API.
func Preview(w io.Writer, recs []core.UserRecord, n int) {
	fmt.Fprintf(w, "Dry-run. First %d rows:\n", n)
	for _, r := range recs[:min(n, len(recs))] {
		fmt.Fprintf(w, " - id: %s\tname: %s\n", r.ID, r.Name)
	}
	fmt.Fprintln(w, "Pass --dry=false or omit --dry to execute.")
}
