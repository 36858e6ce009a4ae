package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"racha/internal/core"
	"racha/internal/log"
	"racha/internal/storage"
)

// MaintenanceService owns the destructive retention operations: wipe
// everything, or purge records older than a cutoff. Both compact the
// store afterwards and are idempotent.
type MaintenanceService struct {
	storage *storage.SQLiteRepository
	reports ReportCache
	now     func() time.Time
}

func NewMaintenanceService(storage *storage.SQLiteRepository, reports ReportCache) *MaintenanceService {
	return &MaintenanceService{
		storage: storage,
		reports: reports,
		now:     time.Now,
	}
}

func (s *MaintenanceService) invalidateReports() {
	if s.reports != nil {
		s.reports.Invalidate()
	}
}

// ClearAll deletes every record and compacts the store. There is no
// confirmation step and no undo.
func (s *MaintenanceService) ClearAll(ctx context.Context) (int64, error) {
	deleted, err := s.storage.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear all: %w", err)
	}
	s.invalidateReports()
	if err := s.storage.Vacuum(ctx); err != nil {
		return deleted, fmt.Errorf("compact after clear: %w", err)
	}
	slog.InfoContext(ctx, "All expenses cleared", log.FieldDeleted, deleted)
	return deleted, nil
}

// PurgeOlderThan deletes records dated before now minus the given number
// of days, then compacts. The cutoff is rendered in the stored DD/MM/YY
// encoding; the comparison follows the calendar within a century, with
// the two-digit year's cross-century caveat.
func (s *MaintenanceService) PurgeOlderThan(ctx context.Context, days int) (cutoff string, deleted int64, err error) {
	if days <= 0 {
		return "", 0, fmt.Errorf("days must be a positive integer, got %d", days)
	}

	cutoff = core.FormatRecordDate(s.now().AddDate(0, 0, -days))
	deleted, err = s.storage.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return cutoff, 0, fmt.Errorf("purge older than %s: %w", cutoff, err)
	}
	s.invalidateReports()
	if err := s.storage.Vacuum(ctx); err != nil {
		return cutoff, deleted, fmt.Errorf("compact after purge: %w", err)
	}

	slog.InfoContext(ctx, "Old expenses purged",
		"cutoff", cutoff,
		"days", days,
		log.FieldDeleted, deleted)
	return cutoff, deleted, nil
}
