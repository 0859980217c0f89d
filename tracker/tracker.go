package tracker

import (
	"context"
	"log/slog"

	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/errors"
	"github.com/c360/lawgraph/extract"
	"github.com/c360/lawgraph/pkg/retry"
	"github.com/c360/lawgraph/pkg/timestamp"
)

// Source is the document-side flag contract the updater writes through.
type Source interface {
	MarkProcessed(ctx context.Context, docID string, types []entity.Type, updatedAt int64) error
}

// Updater marks batches of documents processed.
type Updater struct {
	source Source
	retry  retry.Config
	logger *slog.Logger
}

// New creates an Updater writing through the given source.
func New(source Source, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{
		source: source,
		retry:  retry.Quick(),
		logger: logger.With("component", "tracker"),
	}
}

// Outcome reports one MarkBatch run.
type Outcome struct {
	// Marked counts documents whose flags merged successfully.
	Marked int

	// Failed lists document ids whose flag update failed after retries.
	// Those documents stay eligible for the next cycle.
	Failed []string
}

// MarkBatch merges {type: true} flags for every document in the batch. It
// must be called only after the graph store reported commit success; a
// failed commit never reaches here, so flags can never claim work the
// store did not accept.
//
// Flag updates are per document: one failing document is logged and
// skipped while the rest still merge. Only context cancellation aborts
// the whole run.
func (u *Updater) MarkBatch(ctx context.Context, results []extract.Result) (Outcome, error) {
	now := timestamp.Now()
	var outcome Outcome

	for _, result := range results {
		if err := ctx.Err(); err != nil {
			return outcome, errors.WrapTransient(err, "Updater", "MarkBatch", "canceled")
		}

		err := retry.Do(ctx, u.retry, func() error {
			err := u.source.MarkProcessed(ctx, result.Doc.ID, result.Types, now)
			if err != nil && !errors.IsTransient(err) {
				return retry.NonRetryable(err)
			}
			return err
		})
		if err != nil {
			u.logger.Error("flag update failed, document stays eligible",
				"doc_id", result.Doc.ID, "error", err)
			outcome.Failed = append(outcome.Failed, result.Doc.ID)
			continue
		}

		outcome.Marked++
		u.logger.Debug("document marked",
			"doc_id", result.Doc.ID, "types", len(result.Types))
	}

	if len(outcome.Failed) > 0 {
		u.logger.Warn("batch marked with failures",
			"marked", outcome.Marked, "failed", len(outcome.Failed))
	}
	return outcome, nil
}
