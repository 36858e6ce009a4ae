package core

import (
	"strings"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"50.00", 5000, true},
		{"75,50", 7550, true},
		{"12.345", 1235, true}, // third decimal rounds half-up
		{"12.346", 1235, true},
		{" 10 ", 1000, true},
		{".5", 50, true},
		{"0", 0, false},
		{"0.00", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.cents) {
			t.Errorf("ParseDecimalToCents(%q) = %d, %v, want %d", tc.in, got, err, tc.cents)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseDecimalToCents(%q) expected error", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 7550}).String(); got != "75.50" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: -2500}).String(); got != "-25.00" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: 5}).String(); got != "0.05" {
		t.Fatalf("got %q", got)
	}
}

func TestParseRecordDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"20/05/24", true},
		{"01/01/24", true},
		{"31/12/99", true},
		{"2/5/24", false},   // missing leading zeros
		{"20-05-24", false}, // wrong separator
		{"20/05/2024", false},
		{"31/02/24", false}, // no such day
		{"", false},
		{"yesterday", false},
	}
	for _, tc := range cases {
		_, err := ParseRecordDate(tc.in)
		if tc.ok && err != nil {
			t.Errorf("ParseRecordDate(%q) unexpected error %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseRecordDate(%q) expected error", tc.in)
		}
	}
}

func TestExpenseRecordValidate(t *testing.T) {
	good := ExpenseRecord{
		Amount:   Money{Cents: 5000},
		Category: "Food",
		Person:   "A",
		Date:     "20/05/24",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []ExpenseRecord{
		{Amount: Money{}, Category: "Food", Person: "A", Date: "20/05/24"},
		{Amount: Money{Cents: 1}, Category: "", Person: "A", Date: "20/05/24"},
		{Amount: Money{Cents: 1}, Category: strings.Repeat("x", 31), Person: "A", Date: "20/05/24"},
		{Amount: Money{Cents: 1}, Category: "Food", Person: "", Date: "20/05/24"},
		{Amount: Money{Cents: 1}, Category: "Food", Person: strings.Repeat("x", 21), Date: "20/05/24"},
		{Amount: Money{Cents: 1}, Category: "Food", Person: "A", Date: "2024-05-20"},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Errorf("case %d expected error", i)
		}
	}
}

func TestNewSettlementReport(t *testing.T) {
	records := []ExpenseRecord{
		{Amount: Money{Cents: 10000}, Category: "Food", Person: "A", Date: "01/01/24"},
		{Amount: Money{Cents: 5000}, Category: "Food", Person: "B", Date: "02/01/24"},
	}
	r := NewSettlementReport(records)

	if r.Total.Cents != 15000 {
		t.Fatalf("total = %d", r.Total.Cents)
	}
	if r.ParticipantCount != 2 {
		t.Fatalf("participants = %d", r.ParticipantCount)
	}
	if r.PerCapita.Cents != 7500 {
		t.Fatalf("per capita = %d", r.PerCapita.Cents)
	}
	if len(r.Balances) != 2 {
		t.Fatalf("balances = %v", r.Balances)
	}
	// Sorted by person: A owes 25, B is owed 25.
	if r.Balances[0].Person != "A" || r.Balances[0].Balance.Cents != 2500 {
		t.Errorf("A balance = %+v", r.Balances[0])
	}
	if r.Balances[1].Person != "B" || r.Balances[1].Balance.Cents != -2500 {
		t.Errorf("B balance = %+v", r.Balances[1])
	}
}

func TestNewSettlementReportThreeParticipants(t *testing.T) {
	records := []ExpenseRecord{
		{Amount: Money{Cents: 9000}, Category: "Food", Person: "A", Date: "01/01/24"},
		{Amount: Money{Cents: 3000}, Category: "Rent", Person: "B", Date: "01/01/24"},
		{Amount: Money{Cents: 3000}, Category: "Food", Person: "C", Date: "01/01/24"},
	}
	r := NewSettlementReport(records)

	if r.ParticipantCount != 3 {
		t.Fatalf("participants = %d", r.ParticipantCount)
	}
	// Split three ways, not in half.
	if r.PerCapita.Cents != 5000 {
		t.Fatalf("per capita = %d", r.PerCapita.Cents)
	}
}

func TestNewSettlementReportCategoryMatrix(t *testing.T) {
	records := []ExpenseRecord{
		{Amount: Money{Cents: 1000}, Category: "Food", Person: "A", Date: "01/01/24"},
		{Amount: Money{Cents: 2000}, Category: "Food", Person: "A", Date: "02/01/24"},
		{Amount: Money{Cents: 500}, Category: "Rent", Person: "B", Date: "03/01/24"},
	}
	r := NewSettlementReport(records)

	if got := r.Categories["Food"]["A"].Cents; got != 3000 {
		t.Errorf("Food/A = %d", got)
	}
	// Sparse: B never bought food.
	if _, ok := r.Categories["Food"]["B"]; ok {
		t.Error("Food/B should be absent")
	}
	if got := r.Categories["Rent"]["B"].Cents; got != 500 {
		t.Errorf("Rent/B = %d", got)
	}
}

func TestNewSettlementReportEmpty(t *testing.T) {
	r := NewSettlementReport(nil)
	if !r.Empty() {
		t.Fatal("expected empty report")
	}
}
