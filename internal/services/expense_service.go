// Package services orchestrates domain operations across storage and the
// event broker.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"racha/internal/amqp"
	"racha/internal/core"
	"racha/internal/log"
	"racha/internal/storage"
)

// ReportCache is invalidated whenever the stored record set changes, so
// stale settlements are never served after a write.
type ReportCache interface {
	Invalidate()
}

// ExpenseService commits expense records and announces them to the sync
// queue. The AMQP client may be nil; inserts still succeed, the mirror
// just lags until the worker's periodic catch-up finds the rows. The
// report cache may also be nil.
type ExpenseService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	reports    ReportCache
}

func NewExpenseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, reports ReportCache) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
		reports:    reports,
	}
}

// CreateExpense validates and inserts one record, then publishes the
// recorded event. A publish failure never fails the insert.
func (s *ExpenseService) CreateExpense(ctx context.Context, rec core.ExpenseRecord) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("validate expense: %w", err)
	}

	id, err := s.storage.InsertExpense(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}
	if s.reports != nil {
		s.reports.Invalidate()
	}

	if s.amqpClient == nil {
		return id, nil
	}
	if err := s.amqpClient.PublishExpenseRecorded(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense recorded message",
			log.FieldExpenseID, id, log.FieldError, err)
	}

	return id, nil
}
