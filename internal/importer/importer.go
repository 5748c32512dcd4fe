// Package importer drives a board import: it dedupes extracted records,
// splits them into sequential batches, creates one board item per record and
// reports progress.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/boardimport/internal/board"
	"github.com/JonMunkholm/boardimport/internal/core"
	"github.com/JonMunkholm/boardimport/internal/graphql"
	"github.com/JonMunkholm/boardimport/internal/ledger"
	"github.com/JonMunkholm/boardimport/internal/logging"
)

// Creator creates one board item. *board.Creator satisfies it.
type Creator interface {
	CreateItem(ctx context.Context, rec core.UserRecord) (*graphql.Response, error)
}

// Options configures a run. Zero values give an unlimited, single-record
// batch run writing to os.Stdout and os.Stderr with no ledger.
type Options struct {
	Columns board.Columns

	Limit      int           // 0 means no limit
	BatchSize  int           // Clamped to at least 1
	BatchDelay time.Duration // Pause after each batch
	DryRun     bool

	// SkipImported drops records the ledger already holds for the board.
	SkipImported bool
	Ledger       ledger.Store

	// FailedOut receives a CSV of failed records when non-empty.
	FailedOut string

	Stdout io.Writer
	Stderr io.Writer

	// Sleep replaces the inter-batch wait.
	Sleep graphql.SleepFunc
	// RunID overrides the generated run id.
	RunID string
}

// Importer runs one import.
type Importer struct {
	creator Creator
	opts    Options
}

// New returns an Importer that sends records through creator.
func New(creator Creator, opts Options) *Importer {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.Ledger == nil {
		opts.Ledger = ledger.Noop{}
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Sleep == nil {
		opts.Sleep = graphql.Sleep
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Importer{creator: creator, opts: opts}
}

// RunID returns the id attached to this run's logs and ledger rows.
func (im *Importer) RunID() string {
	return im.opts.RunID
}

// Run imports records. Per-record API failures are counted and reported but
// never returned; the error is non-nil only for ledger lookup failures and
// cancellation.
func (im *Importer) Run(ctx context.Context, records []core.UserRecord) (core.Summary, error) {
	start := time.Now()
	ctx = logging.WithRunID(ctx, im.opts.RunID)
	log := logging.FromContext(ctx)

	sum := core.Summary{RunID: im.opts.RunID, DryRun: im.opts.DryRun}
	out := im.opts.Stdout

	work := Dedupe(records)
	log.Debug("deduplicated records", "extracted", len(records), "unique", len(work))

	if im.opts.SkipImported {
		kept, skipped, err := im.dropImported(ctx, work)
		if err != nil {
			return sum, err
		}
		work = kept
		sum.SkippedImported = skipped
	}

	work = Limit(work, im.opts.Limit)
	sum.Total = len(work)

	if len(work) == 0 {
		fmt.Fprintln(out, "No user rows found to process.")
		log.Info("nothing to import", "skipped_imported", sum.SkippedImported)
		return sum, nil
	}

	fmt.Fprintf(out, "Preparing to upload %d user(s) to board %s\n", len(work), im.opts.Columns.BoardID)
	fmt.Fprintln(out, columnsLine(im.opts.Columns))

	if im.opts.DryRun {
		Preview(out, work, previewRows)
		sum.Duration = time.Since(start)
		return sum, nil
	}

	var failed []core.FailedRow
	batches := Partition(work, im.opts.BatchSize)
	log.Info("import started", "records", len(work), "batches", len(batches), "batch_size", im.opts.BatchSize)

	var runErr error
	for i, batch := range batches {
		res, rows, err := im.runBatch(ctx, i, batch)
		sum.Batches++
		sum.Created += res.OK
		sum.Failed += res.Failed
		failed = append(failed, rows...)

		if res.FirstErr != nil {
			fmt.Fprintf(im.opts.Stderr, "\nSome creations failed (batch): %v\n", res.FirstErr)
			msg := core.MapError(res.FirstErr)
			logging.WithFields(ctx, "batch", i, "failed", res.Failed).Warn("batch had failures",
				"code", msg.Code, "hint", msg.Action, "error", res.FirstErr)
		}

		if err == nil {
			if serr := im.opts.Sleep(ctx, im.opts.BatchDelay); serr != nil {
				err = fmt.Errorf("import interrupted: %w", serr)
			}
		}

		fmt.Fprintf(out, "\rCreated: %d/%d", sum.Created, sum.Total)
		if err != nil {
			runErr = err
			break
		}
	}

	if im.opts.FailedOut != "" && len(failed) > 0 {
		if err := WriteFailedRows(im.opts.FailedOut, failed); err != nil {
			log.Error("failed to write failed rows", "path", im.opts.FailedOut, "error", err)
		} else {
			log.Info("wrote failed rows", "path", im.opts.FailedOut, "rows", len(failed))
		}
	}

	sum.Duration = time.Since(start)
	if runErr != nil {
		fmt.Fprintln(out)
		log.Warn("import stopped", "created", sum.Created, "total", sum.Total, "error", runErr)
		return sum, runErr
	}

	fmt.Fprintln(out, "\nDone.")
	log.Info("import finished",
		"created", sum.Created,
		"failed", sum.Failed,
		"total", sum.Total,
		"batches", sum.Batches,
		"duration", sum.Duration,
	)
	return sum, nil
}

// runBatch creates every record of batch in order. It stops early only when
// ctx is done, returning the context error.
func (im *Importer) runBatch(ctx context.Context, index int, batch []core.UserRecord) (core.BatchResult, []core.FailedRow, error) {
	res := core.BatchResult{Index: index}
	var failed []core.FailedRow
	log := logging.WithFields(ctx, "batch", index, "size", len(batch))
	log.Debug("batch started")

	for _, rec := range batch {
		if err := ctx.Err(); err != nil {
			return res, failed, fmt.Errorf("import interrupted: %w", err)
		}

		resp, err := im.creator.CreateItem(ctx, rec)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return res, failed, fmt.Errorf("import interrupted: %w", ctx.Err())
			}
			res.Failed++
			if res.FirstErr == nil {
				res.FirstErr = err
			}
			failed = append(failed, core.FailedRow{Record: rec, Reason: err.Error()})
			log.Debug("create failed", "user_id", rec.ID, "line", rec.Line, "error", err)
			continue
		}

		res.OK++
		im.record(ctx, rec, resp)
	}
	return res, failed, nil
}

// record writes a created item to the ledger. Ledger failures are logged
// and otherwise ignored.
func (im *Importer) record(ctx context.Context, rec core.UserRecord, resp *graphql.Response) {
	if _, ok := im.opts.Ledger.(ledger.Noop); ok {
		return
	}
	log := logging.FromContext(ctx)

	itemID, err := board.ItemID(resp)
	if err != nil {
		log.Warn("created item has no id, not recorded", "user_id", rec.ID, "error", err)
		return
	}
	err = im.opts.Ledger.Record(ctx, ledger.Entry{
		BoardID: im.opts.Columns.BoardID,
		UserID:  rec.ID,
		ItemID:  itemID,
		RunID:   im.opts.RunID,
	})
	if err != nil {
		log.Warn("ledger write failed", "user_id", rec.ID, "item_id", itemID, "error", err)
	}
}

func (im *Importer) dropImported(ctx context.Context, recs []core.UserRecord) ([]core.UserRecord, int, error) {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	seen, err := im.opts.Ledger.Imported(ctx, im.opts.Columns.BoardID, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("check ledger: %w", err)
	}

	kept := make([]core.UserRecord, 0, len(recs))
	for _, r := range recs {
		if !seen[r.ID] {
			kept = append(kept, r)
		}
	}
	skipped := len(recs) - len(kept)
	if skipped > 0 {
		logging.FromContext(ctx).Info("skipping users already on board", "count", skipped)
	}
	return kept, skipped, nil
}

// Dedupe keeps the first occurrence of each id, preserving order.
func Dedupe(recs []core.UserRecord) []core.UserRecord {
	seen := make(map[string]struct{}, len(recs))
	out := make([]core.UserRecord, 0, len(recs))
	for _, r := range recs {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Limit truncates recs to n when n > 0.
func Limit(recs []core.UserRecord, n int) []core.UserRecord {
	if n > 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}

// Partition splits recs into contiguous batches of size. Only the last
// batch may be shorter.
func Partition(recs []core.UserRecord, size int) [][]core.UserRecord {
	size = max(1, size)
	batches := make([][]core.UserRecord, 0, (len(recs)+size-1)/size)
	for i := 0; i < len(recs); i += size {
		batches = append(batches, recs[i:min(i+size, len(recs))])
	}
	return batches
}

func columnsLine(c board.Columns) string {
	line := "Using columns -> id: " + c.IDColumn
	if c.NameColumn != "" {
		line += ", name: " + c.NameColumn
	}
	if c.GroupID != "" {
		line += ", group: " + c.GroupID
	}
	return line
}
