package intake

import (
	"context"
	"errors"
	"strings"
	"testing"

	"racha/internal/core"
	"racha/internal/log"
)

type fakeSessions struct {
	byID map[int64]core.Session
	err  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[int64]core.Session{}}
}

func (f *fakeSessions) GetSession(_ context.Context, id int64) (*core.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSessions) PutSession(_ context.Context, s core.Session) error {
	if f.err != nil {
		return f.err
	}
	f.byID[s.ParticipantID] = s
	return nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	delete(f.byID, id)
	return nil
}

type fakeRecorder struct {
	records []core.ExpenseRecord
	err     error
}

func (f *fakeRecorder) CreateExpense(_ context.Context, rec core.ExpenseRecord) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.records = append(f.records, rec)
	return int64(len(f.records)), nil
}

func newTestMachine() (*Machine, *fakeSessions, *fakeRecorder) {
	sessions := newFakeSessions()
	recorder := &fakeRecorder{}
	logger := log.New(log.Config{Component: "test"})
	return New(sessions, recorder, logger), sessions, recorder
}

const pid = int64(7)

func mustHandle(t *testing.T, m *Machine, text string) string {
	t.Helper()
	reply, err := m.Handle(context.Background(), pid, text)
	if err != nil {
		t.Fatalf("Handle(%q): %v", text, err)
	}
	return reply
}

func stateOf(t *testing.T, sessions *fakeSessions) core.State {
	t.Helper()
	s, ok := sessions.byID[pid]
	if !ok {
		t.Fatal("no session stored")
	}
	return s.State
}

func TestStepByStepHappyPath(t *testing.T) {
	m, sessions, recorder := newTestMachine()
	ctx := context.Background()

	if _, err := m.Start(ctx, pid); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustHandle(t, m, "1")
	mustHandle(t, m, "50.00")
	mustHandle(t, m, "Food")
	mustHandle(t, m, "A")
	reply := mustHandle(t, m, "20/05/24")

	if !strings.Contains(reply, "recorded") {
		t.Errorf("final reply = %q", reply)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("inserted %d records", len(recorder.records))
	}
	got := recorder.records[0]
	want := core.ExpenseRecord{Amount: core.Money{Cents: 5000}, Category: "Food", Person: "A", Date: "20/05/24"}
	if got != want {
		t.Errorf("record = %+v, want %+v", got, want)
	}
	if _, ok := sessions.byID[pid]; ok {
		t.Error("session should be destroyed after commit")
	}
}

func TestInvalidAmountStaysInAmount(t *testing.T) {
	m, sessions, recorder := newTestMachine()
	m.Start(context.Background(), pid)
	mustHandle(t, m, "1")

	for _, in := range []string{"abc", "0", "-5", "", "1.2.3"} {
		mustHandle(t, m, in)
		if got := stateOf(t, sessions); got != core.StateAmount {
			t.Errorf("after %q state = %s", in, got)
		}
	}
	if len(recorder.records) != 0 {
		t.Errorf("no record should be inserted, got %d", len(recorder.records))
	}
}

func TestLongCategoryStaysInCategory(t *testing.T) {
	m, sessions, _ := newTestMachine()
	m.Start(context.Background(), pid)
	mustHandle(t, m, "1")
	mustHandle(t, m, "10")

	mustHandle(t, m, strings.Repeat("x", 31))
	if got := stateOf(t, sessions); got != core.StateCategory {
		t.Errorf("state = %s", got)
	}

	// Exactly 30 characters is accepted.
	mustHandle(t, m, strings.Repeat("x", 30))
	if got := stateOf(t, sessions); got != core.StatePerson {
		t.Errorf("state = %s", got)
	}
}

func TestLongPersonStaysInPerson(t *testing.T) {
	m, sessions, _ := newTestMachine()
	m.Start(context.Background(), pid)
	mustHandle(t, m, "1")
	mustHandle(t, m, "10")
	mustHandle(t, m, "Food")

	mustHandle(t, m, strings.Repeat("p", 21))
	if got := stateOf(t, sessions); got != core.StatePerson {
		t.Errorf("state = %s", got)
	}
}

func TestInvalidDateStaysInDate(t *testing.T) {
	m, sessions, recorder := newTestMachine()
	m.Start(context.Background(), pid)
	mustHandle(t, m, "1")
	mustHandle(t, m, "10")
	mustHandle(t, m, "Food")
	mustHandle(t, m, "A")

	for _, in := range []string{"2024-05-20", "32/01/24", "2/5/24", "soon"} {
		mustHandle(t, m, in)
		if got := stateOf(t, sessions); got != core.StateDate {
			t.Errorf("after %q state = %s", in, got)
		}
	}
	if len(recorder.records) != 0 {
		t.Errorf("no record should be inserted, got %d", len(recorder.records))
	}
}

func TestModeLoopsOnUnknownInput(t *testing.T) {
	m, sessions, _ := newTestMachine()
	m.Start(context.Background(), pid)

	mustHandle(t, m, "yes please")
	if got := stateOf(t, sessions); got != core.StateMode {
		t.Errorf("state = %s", got)
	}

	// Prefix match is enough.
	mustHandle(t, m, "2 (one line)")
	if got := stateOf(t, sessions); got != core.StateList {
		t.Errorf("state = %s", got)
	}
}

func TestCancelDestroysSession(t *testing.T) {
	m, sessions, _ := newTestMachine()
	ctx := context.Background()
	m.Start(ctx, pid)
	mustHandle(t, m, "1")
	mustHandle(t, m, "10")

	reply, err := m.Cancel(ctx, pid)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !strings.Contains(reply, "cancelled") {
		t.Errorf("reply = %q", reply)
	}
	if _, ok := sessions.byID[pid]; ok {
		t.Fatal("session should be gone")
	}

	// Subsequent input does not resume the old session.
	if _, err := m.Handle(ctx, pid, "Food"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestCancelWithoutSession(t *testing.T) {
	m, _, _ := newTestMachine()
	reply, err := m.Cancel(context.Background(), pid)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !strings.Contains(reply, "/add") {
		t.Errorf("reply = %q", reply)
	}
}

func TestReentryDiscardsOldSession(t *testing.T) {
	m, sessions, _ := newTestMachine()
	ctx := context.Background()
	m.Start(ctx, pid)
	mustHandle(t, m, "1")
	mustHandle(t, m, "99.99")

	// /add again: fresh session back at the mode prompt.
	if _, err := m.Start(ctx, pid); err != nil {
		t.Fatalf("restart: %v", err)
	}
	s := sessions.byID[pid]
	if s.State != core.StateMode || s.Amount.Cents != 0 {
		t.Errorf("session after re-entry = %+v", s)
	}
}

func TestBulkEntryMatchesStepByStep(t *testing.T) {
	m, sessions, recorder := newTestMachine()
	ctx := context.Background()
	m.Start(ctx, pid)
	mustHandle(t, m, "2")

	reply := mustHandle(t, m, "50.00, Food, A, 20/05/24")
	if !strings.Contains(reply, "recorded") {
		t.Errorf("reply = %q", reply)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("inserted %d records", len(recorder.records))
	}
	want := core.ExpenseRecord{Amount: core.Money{Cents: 5000}, Category: "Food", Person: "A", Date: "20/05/24"}
	if recorder.records[0] != want {
		t.Errorf("record = %+v", recorder.records[0])
	}
	if _, ok := sessions.byID[pid]; ok {
		t.Error("session should be destroyed after commit")
	}
}

func TestBulkEntryRejectsWholeLine(t *testing.T) {
	m, sessions, recorder := newTestMachine()
	m.Start(context.Background(), pid)
	mustHandle(t, m, "2")

	lines := []string{
		"50.00, Food, A",                  // missing field
		"zero, Food, A, 20/05/24",         // bad amount
		"50.00, " + strings.Repeat("c", 31) + ", A, 20/05/24", // long category
		"50.00, Food, " + strings.Repeat("p", 21) + ", 20/05/24", // long person
		"50.00, Food, A, 2024-05-20", // bad date
	}
	for _, line := range lines {
		mustHandle(t, m, line)
		if got := stateOf(t, sessions); got != core.StateList {
			t.Errorf("after %q state = %s", line, got)
		}
	}
	if len(recorder.records) != 0 {
		t.Errorf("no partial inserts allowed, got %d", len(recorder.records))
	}
}

func TestCommitFailureRetainsSession(t *testing.T) {
	m, sessions, recorder := newTestMachine()
	ctx := context.Background()
	m.Start(ctx, pid)
	mustHandle(t, m, "1")
	mustHandle(t, m, "50.00")
	mustHandle(t, m, "Food")
	mustHandle(t, m, "A")

	recorder.err = errors.New("disk full")
	reply, err := m.Handle(ctx, pid, "20/05/24")
	if err == nil {
		t.Fatal("expected error from failed insert")
	}
	if !strings.Contains(reply, "retry") {
		t.Errorf("reply = %q", reply)
	}
	// Session survives so resending the date retries the insert.
	if got := stateOf(t, sessions); got != core.StateDate {
		t.Fatalf("state = %s", got)
	}

	recorder.err = nil
	mustHandle(t, m, "20/05/24")
	if len(recorder.records) != 1 {
		t.Fatalf("retry should commit exactly once, got %d", len(recorder.records))
	}
}
