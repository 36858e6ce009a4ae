// Package intake drives the conversational expense entry flow: a small
// state machine that collects amount, category, person and date one
// message at a time, or all four from a single bulk line, and commits the
// finished record with one atomic insert.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"racha/internal/core"
	"racha/internal/log"
)

// ErrNoSession is returned by Handle when the participant has no intake
// in progress; the caller decides what to reply.
var ErrNoSession = errors.New("no active intake session")

// Recorder commits a finished expense record.
type Recorder interface {
	CreateExpense(ctx context.Context, rec core.ExpenseRecord) (int64, error)
}

// SessionStore persists in-progress sessions across restarts.
type SessionStore interface {
	GetSession(ctx context.Context, participantID int64) (*core.Session, error)
	PutSession(ctx context.Context, s core.Session) error
	DeleteSession(ctx context.Context, participantID int64) error
}

const (
	msgChooseMode = "📌 How do you want to add the expense?\n" +
		"1 - Step by step\n" +
		"2 - One line: amount, category, person, date\n" +
		"❌ Use /cancel to give up"
	msgAskAmount    = "💰 Enter the amount spent (e.g. 50.00):\n❌ Use /cancel to start over"
	msgBadAmount    = "🔢 Invalid amount! Enter a positive number.\nExample: 75.50\nTry again:"
	msgAskCategory  = "📂 Expense category (e.g. Food, Transport):\n❌ Use /cancel to start over"
	msgLongCategory = "📛 Category too long! 30 characters max.\nTry again:"
	msgAskPerson    = "👤 Who paid? (e.g. John, Mary):\n❌ Use /cancel to start over"
	msgLongPerson   = "📛 Name too long! 20 characters max.\nTry again:"
	msgAskDate      = "📅 Expense date as DD/MM/YY (e.g. 20/05/24):\n❌ Use /cancel to start over"
	msgBadDate      = "📅 Invalid date format!\nUse exactly DD/MM/YY (e.g. 20/05/24)\nTry again:"
	msgAskBulk = "📝 Send the whole expense as one line:\n" +
		"amount, category, person, date\n" +
		"Example: 50.00, Food, John, 20/05/24\n" +
		"❌ Use /cancel to start over"
	msgSaved = "✅ Expense recorded!\n" +
		"You can:\n" +
		"- Add another with /add\n" +
		"- Close the month with /settle"
	msgSaveFailed = "⚠️ Could not save the expense. Send it again to retry, or /cancel to give up."
	msgCancelled  = "❌ Operation cancelled. You can start again with /add"
	msgNoSession  = "There is nothing to cancel. Start an expense with /add"
)

// Machine runs intake sessions. Each inbound message maps to exactly one
// transition; invalid input re-prompts without advancing.
type Machine struct {
	sessions SessionStore
	recorder Recorder
	logger   *log.Logger
}

func New(sessions SessionStore, recorder Recorder, logger *log.Logger) *Machine {
	return &Machine{
		sessions: sessions,
		recorder: recorder,
		logger:   logger.WithComponent(log.ComponentIntake),
	}
}

// Start begins a fresh intake for the participant. Any session already in
// progress is discarded; restarting is idempotent, not an error.
func (m *Machine) Start(ctx context.Context, participantID int64) (string, error) {
	s := core.Session{
		ParticipantID: participantID,
		State:         core.StateMode,
	}
	if err := m.sessions.PutSession(ctx, s); err != nil {
		return msgSaveFailed, fmt.Errorf("start session: %w", err)
	}
	m.logger.InfoContext(ctx, "Intake started", log.FieldParticipant, participantID)
	return msgChooseMode, nil
}

// Cancel destroys any in-progress session and acknowledges. It wins over
// state-specific input handling, so the caller must check for the cancel
// command before calling Handle.
func (m *Machine) Cancel(ctx context.Context, participantID int64) (string, error) {
	s, err := m.sessions.GetSession(ctx, participantID)
	if err != nil {
		return msgSaveFailed, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return msgNoSession, nil
	}
	if err := m.sessions.DeleteSession(ctx, participantID); err != nil {
		return msgSaveFailed, fmt.Errorf("delete session: %w", err)
	}
	m.logger.InfoContext(ctx, "Intake cancelled",
		log.FieldParticipant, participantID,
		log.FieldState, string(s.State))
	return msgCancelled, nil
}

// Handle applies one inbound message to the participant's session and
// returns the reply. ErrNoSession means the message was not for us.
func (m *Machine) Handle(ctx context.Context, participantID int64, text string) (string, error) {
	s, err := m.sessions.GetSession(ctx, participantID)
	if err != nil {
		return msgSaveFailed, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return "", ErrNoSession
	}

	switch s.State {
	case core.StateMode:
		return m.handleMode(ctx, s, text)
	case core.StateAmount:
		return m.handleAmount(ctx, s, text)
	case core.StateCategory:
		return m.handleCategory(ctx, s, text)
	case core.StatePerson:
		return m.handlePerson(ctx, s, text)
	case core.StateDate:
		return m.handleDate(ctx, s, text)
	case core.StateList:
		return m.handleList(ctx, s, text)
	default:
		// Unknown state tag on disk (e.g. downgrade); drop the session
		// rather than wedge the participant.
		m.logger.WarnContext(ctx, "Discarding session with unknown state",
			log.FieldParticipant, participantID,
			log.FieldState, string(s.State))
		if err := m.sessions.DeleteSession(ctx, participantID); err != nil {
			return msgSaveFailed, fmt.Errorf("delete session: %w", err)
		}
		return msgNoSession, nil
	}
}

func (m *Machine) handleMode(ctx context.Context, s *core.Session, text string) (string, error) {
	switch {
	case strings.HasPrefix(strings.TrimSpace(text), "1"):
		s.Mode = core.ModeSteps
		s.State = core.StateAmount
		return m.advance(ctx, s, msgAskAmount)
	case strings.HasPrefix(strings.TrimSpace(text), "2"):
		s.Mode = core.ModeBulk
		s.State = core.StateList
		return m.advance(ctx, s, msgAskBulk)
	default:
		return msgChooseMode, nil
	}
}

func (m *Machine) handleAmount(ctx context.Context, s *core.Session, text string) (string, error) {
	cents, err := core.ParseDecimalToCents(text)
	if err != nil {
		return msgBadAmount, nil
	}
	s.Amount = core.Money{Cents: cents}
	s.State = core.StateCategory
	return m.advance(ctx, s, msgAskCategory)
}

func (m *Machine) handleCategory(ctx context.Context, s *core.Session, text string) (string, error) {
	if err := core.ValidateCategory(text); err != nil {
		return msgLongCategory, nil
	}
	s.Category = text
	s.State = core.StatePerson
	return m.advance(ctx, s, msgAskPerson)
}

func (m *Machine) handlePerson(ctx context.Context, s *core.Session, text string) (string, error) {
	if err := core.ValidatePerson(text); err != nil {
		return msgLongPerson, nil
	}
	s.Person = text
	s.State = core.StateDate
	return m.advance(ctx, s, msgAskDate)
}

func (m *Machine) handleDate(ctx context.Context, s *core.Session, text string) (string, error) {
	text = strings.TrimSpace(text)
	if _, err := core.ParseRecordDate(text); err != nil {
		return msgBadDate, nil
	}
	return m.commit(ctx, s, s.Record(text))
}

// handleList consumes the single-line bulk entry. Validation is
// all-or-nothing: any bad field rejects the whole line and re-prompts
// with the instructions, nothing is committed.
func (m *Machine) handleList(ctx context.Context, s *core.Session, text string) (string, error) {
	rec, err := parseBulkLine(text)
	if err != nil {
		return "⚠️ " + err.Error() + "\n\n" + msgAskBulk, nil
	}
	return m.commit(ctx, s, rec)
}

// advance saves the mutated session and returns the next prompt.
func (m *Machine) advance(ctx context.Context, s *core.Session, prompt string) (string, error) {
	if err := m.sessions.PutSession(ctx, *s); err != nil {
		return msgSaveFailed, fmt.Errorf("save session: %w", err)
	}
	return prompt, nil
}

// commit inserts the record and destroys the session. On a failed insert
// the session is kept so the participant can resend the last message and
// retry.
func (m *Machine) commit(ctx context.Context, s *core.Session, rec core.ExpenseRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		// Collected fields were validated step by step; a failure here
		// means the session data went bad. Start over.
		if delErr := m.sessions.DeleteSession(ctx, s.ParticipantID); delErr != nil {
			return msgSaveFailed, fmt.Errorf("delete session: %w", delErr)
		}
		return msgNoSession, fmt.Errorf("validate record: %w", err)
	}

	id, err := m.recorder.CreateExpense(ctx, rec)
	if err != nil {
		return msgSaveFailed, fmt.Errorf("create expense: %w", err)
	}

	if err := m.sessions.DeleteSession(ctx, s.ParticipantID); err != nil {
		// The record is in; losing the session delete only risks a stale
		// prompt, so surface the error but keep the success reply.
		m.logger.ErrorContext(ctx, "Failed to delete session after commit",
			log.FieldParticipant, s.ParticipantID,
			log.FieldError, err)
	}

	m.logger.InfoContext(ctx, "Expense committed",
		log.FieldParticipant, s.ParticipantID,
		log.FieldExpenseID, id,
		log.FieldAmountCents, rec.Amount.Cents,
		log.FieldCategory, rec.Category,
		log.FieldPerson, rec.Person,
		log.FieldDate, rec.Date)

	return msgSaved, nil
}

// parseBulkLine parses "amount, category, person, date" into a validated
// record.
func parseBulkLine(line string) (core.ExpenseRecord, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return core.ExpenseRecord{}, errors.New("expected exactly four comma-separated fields")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	cents, err := core.ParseDecimalToCents(parts[0])
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("invalid amount %q", parts[0])
	}
	if err := core.ValidateCategory(parts[1]); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("invalid category %q", parts[1])
	}
	if err := core.ValidatePerson(parts[2]); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("invalid person %q", parts[2])
	}
	if _, err := core.ParseRecordDate(parts[3]); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("invalid date %q, use DD/MM/YY", parts[3])
	}

	return core.ExpenseRecord{
		Amount:   core.Money{Cents: cents},
		Category: parts[1],
		Person:   parts[2],
		Date:     parts[3],
	}, nil
}
