// Package worker mirrors committed expenses to the Google Sheet: one
// handler for live AMQP events, one periodic sweep for rows the events
// missed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"racha/internal/amqp"
	"racha/internal/sheets"
	"racha/internal/storage"
)

// SyncWorker pushes unsynced expense rows to the sheet mirror.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.ExpenseAppender
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, appender sheets.ExpenseAppender, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleRecordedMessage mirrors the single expense named by an AMQP
// event. Ids that no longer exist (cleared or purged meanwhile) are
// skipped without error so the message is not requeued forever; any
// other lookup failure is returned so the delivery is redelivered.
func (w *SyncWorker) HandleRecordedMessage(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	rec, err := w.storage.GetExpense(ctx, msg.ID)
	if errors.Is(err, storage.ErrExpenseNotFound) {
		slog.WarnContext(ctx, "Expense from message no longer exists, skipping",
			"id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load expense %d: %w", msg.ID, err)
	}

	if err := w.appender.Append(ctx, rec); err != nil {
		return fmt.Errorf("append expense %d to sheet: %w", msg.ID, err)
	}
	if err := w.storage.MarkSynced(ctx, msg.ID); err != nil {
		return fmt.Errorf("mark expense %d synced: %w", msg.ID, err)
	}
	return nil
}

// ProcessPending sweeps up to batchSize unsynced rows. It runs at
// startup and on a timer to catch expenses recorded while the broker or
// worker was down.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	for _, rec := range pending {
		if err := w.appender.Append(ctx, rec); err != nil {
			// Stop the sweep; the row stays pending for the next run.
			return fmt.Errorf("append expense %d to sheet: %w", rec.ID, err)
		}
		if err := w.storage.MarkSynced(ctx, rec.ID); err != nil {
			return fmt.Errorf("mark expense %d synced: %w", rec.ID, err)
		}
	}
	return nil
}
