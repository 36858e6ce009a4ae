// Package storage provides the SQLite-backed record and session stores.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"racha/internal/core"
	"racha/internal/log"

	_ "modernc.org/sqlite"
)

// ErrExpenseNotFound reports a lookup for an id that is not stored,
// typically because the row was cleared or purged meanwhile.
var ErrExpenseNotFound = errors.New("expense not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertExpense writes one record and returns its assigned id. The insert
// is a single statement, so it is atomic on its own.
func (r *SQLiteRepository) InsertExpense(ctx context.Context, rec core.ExpenseRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount_cents, category, person, date) VALUES (?, ?, ?, ?)`,
		rec.Amount.Cents, rec.Category, rec.Person, rec.Date,
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		log.FieldExpenseID, id,
		log.FieldAmountCents, rec.Amount.Cents,
		log.FieldCategory, rec.Category,
		log.FieldPerson, rec.Person,
		log.FieldDate, rec.Date)

	return id, nil
}

// GetExpense retrieves a single record by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error) {
	var rec core.ExpenseRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, amount_cents, category, person, date FROM expenses WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Amount.Cents, &rec.Category, &rec.Person, &rec.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseRecord{}, fmt.Errorf("get expense %d: %w", id, ErrExpenseNotFound)
	}
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return rec, nil
}

// ListExpenses returns every stored record in insertion order.
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.ExpenseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, category, person, date FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var records []core.ExpenseRecord
	for rows.Next() {
		var rec core.ExpenseRecord
		if err := rows.Scan(&rec.ID, &rec.Amount.Cents, &rec.Category, &rec.Person, &rec.Date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return records, nil
}

// DeleteAll removes every record and returns the number deleted.
func (r *SQLiteRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses`)
	if err != nil {
		return 0, fmt.Errorf("delete all expenses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// DeleteOlderThan removes records dated before the cutoff. The cutoff
// must use the same DD/MM/YY encoding as stored records. Both sides are
// rearranged to YYMMDD before the string compare, so the order matches
// the calendar within a century; the two-digit year keeps its known
// cross-century caveat.
func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM expenses
		WHERE substr(date, 7, 2) || substr(date, 4, 2) || substr(date, 1, 2)
		    < substr(?1, 7, 2) || substr(?1, 4, 2) || substr(?1, 1, 2)`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expenses older than %s: %w", cutoff, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Vacuum compacts the database file after bulk deletions.
func (r *SQLiteRepository) Vacuum(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

// GetPendingSyncExpenses returns up to limit records not yet mirrored to
// the sheet, oldest first.
func (r *SQLiteRepository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.ExpenseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, category, person, date FROM expenses WHERE synced = 0 ORDER BY id LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	defer rows.Close()

	var records []core.ExpenseRecord
	for rows.Next() {
		var rec core.ExpenseRecord
		if err := rows.Scan(&rec.ID, &rec.Amount.Cents, &rec.Category, &rec.Person, &rec.Date); err != nil {
			return nil, fmt.Errorf("scan pending expense: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending expenses: %w", err)
	}
	return records, nil
}

// MarkSynced flags a record as mirrored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE expenses SET synced = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

// GetSession loads a participant's in-progress intake session. A missing
// session is not an error; it returns (nil, nil).
func (r *SQLiteRepository) GetSession(ctx context.Context, participantID int64) (*core.Session, error) {
	var (
		s     core.Session
		state string
		mode  string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT participant_id, state, mode, amount_cents, category, person FROM sessions WHERE participant_id = ?`,
		participantID,
	).Scan(&s.ParticipantID, &state, &mode, &s.Amount.Cents, &s.Category, &s.Person)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session for %d: %w", participantID, err)
	}
	s.State = core.State(state)
	s.Mode = core.Mode(mode)
	return &s, nil
}

// PutSession upserts a participant's session, replacing any previous one.
func (r *SQLiteRepository) PutSession(ctx context.Context, s core.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (participant_id, state, mode, amount_cents, category, person, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (participant_id) DO UPDATE SET
		   state = excluded.state,
		   mode = excluded.mode,
		   amount_cents = excluded.amount_cents,
		   category = excluded.category,
		   person = excluded.person,
		   updated_at = CURRENT_TIMESTAMP`,
		s.ParticipantID, string(s.State), string(s.Mode), s.Amount.Cents, s.Category, s.Person,
	)
	if err != nil {
		return fmt.Errorf("put session for %d: %w", s.ParticipantID, err)
	}
	return nil
}

// DeleteSession removes a participant's session. Deleting a session that
// does not exist is a no-op.
func (r *SQLiteRepository) DeleteSession(ctx context.Context, participantID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE participant_id = ?`, participantID); err != nil {
		return fmt.Errorf("delete session for %d: %w", participantID, err)
	}
	return nil
}
