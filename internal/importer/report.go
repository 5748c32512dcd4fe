package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/JonMunkholm/boardimport/internal/core"
)

var failedHeader = []string{"Status", "ID", "Name", "Line"}

// WriteFailedRows writes rows to path as CSV, one line per failed record
// with the error text in the Status column.
func WriteFailedRows(path string, rows []core.FailedRow) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create failed rows file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close failed rows file: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(failedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		line := ""
		if r.Record.Line > 0 {
			line = strconv.Itoa(r.Record.Line)
		}
		if err := w.Write([]string{r.Reason, r.Record.ID, r.Record.Name, line}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
