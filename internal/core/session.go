package core

// State tags the step an intake session is waiting on. The terminal step
// has no tag: a finished session is deleted, never stored.
type State string

const (
	StateMode     State = "mode"
	StateAmount   State = "amount"
	StateCategory State = "category"
	StatePerson   State = "person"
	StateDate     State = "date"
	StateList     State = "list"
)

// Mode selects between the step-by-step flow and single-line bulk entry.
// It is chosen once, right after the entry command.
type Mode string

const (
	ModeSteps Mode = "steps"
	ModeBulk  Mode = "bulk"
)

// Session is the ephemeral per-participant intake state. At most one
// exists per participant; re-entering intake replaces it. The partially
// collected fields fill in as steps complete, and the whole session is
// deleted when the final field commits the record.
type Session struct {
	ParticipantID int64
	State         State
	Mode          Mode

	// Collected so far; zero values mean "not collected yet".
	Amount   Money
	Category string
	Person   string
}

// Record assembles the expense under construction once the date arrives.
func (s Session) Record(date string) ExpenseRecord {
	return ExpenseRecord{
		Amount:   s.Amount,
		Category: s.Category,
		Person:   s.Person,
		Date:     date,
	}
}
