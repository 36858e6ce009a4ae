package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"racha/internal/core"
	"racha/internal/storage"
)

func newTestStorage(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "racha.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insert(t *testing.T, repo *storage.SQLiteRepository, cents int64, person, date string) {
	t.Helper()
	_, err := repo.InsertExpense(context.Background(), core.ExpenseRecord{
		Amount:   core.Money{Cents: cents},
		Category: "Food",
		Person:   person,
		Date:     date,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestCreateExpenseValidates(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewExpenseService(repo, nil, nil)
	ctx := context.Background()

	id, err := svc.CreateExpense(ctx, core.ExpenseRecord{
		Amount:   core.Money{Cents: 5000},
		Category: "Food",
		Person:   "A",
		Date:     "20/05/24",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 {
		t.Fatal("expected assigned id")
	}

	if _, err := svc.CreateExpense(ctx, core.ExpenseRecord{
		Amount:   core.Money{Cents: 0},
		Category: "Food",
		Person:   "A",
		Date:     "20/05/24",
	}); err == nil {
		t.Fatal("expected validation error")
	}

	records, _ := repo.ListExpenses(ctx)
	if len(records) != 1 {
		t.Fatalf("stored %d records", len(records))
	}
}

func TestClearAll(t *testing.T) {
	repo := newTestStorage(t)
	insert(t, repo, 100, "A", "01/01/24")
	insert(t, repo, 200, "B", "02/01/24")

	svc := NewMaintenanceService(repo, nil)
	deleted, err := svc.ClearAll(context.Background())
	if err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted %d", deleted)
	}

	records, _ := repo.ListExpenses(context.Background())
	if len(records) != 0 {
		t.Fatalf("scan after clear returned %d records", len(records))
	}

	// Idempotent: clearing an empty store deletes nothing and succeeds.
	deleted, err = svc.ClearAll(context.Background())
	if err != nil || deleted != 0 {
		t.Fatalf("second clear: %d, %v", deleted, err)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	repo := newTestStorage(t)
	insert(t, repo, 100, "A", "31/05/24")
	insert(t, repo, 200, "B", "02/06/24")

	svc := NewMaintenanceService(repo, nil)
	// Pin "now" so the cutoff renders as 01/06/24.
	svc.now = func() time.Time { return time.Date(2024, 6, 11, 12, 0, 0, 0, time.UTC) }

	cutoff, deleted, err := svc.PurgeOlderThan(context.Background(), 10)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if cutoff != "01/06/24" {
		t.Fatalf("cutoff = %q", cutoff)
	}
	// "31/05/24" is before the cutoff, "02/06/24" after it.
	if deleted != 1 {
		t.Fatalf("deleted %d", deleted)
	}

	records, _ := repo.ListExpenses(context.Background())
	if len(records) != 1 || records[0].Date != "02/06/24" {
		t.Fatalf("surviving records: %+v", records)
	}
}

func TestPurgeRejectsNonPositiveDays(t *testing.T) {
	svc := NewMaintenanceService(newTestStorage(t), nil)
	for _, days := range []int{0, -3} {
		if _, _, err := svc.PurgeOlderThan(context.Background(), days); err == nil {
			t.Errorf("days=%d: expected error", days)
		}
	}
}
