package core

import "sort"

// PersonBalance is one participant's position against the per-capita share.
// A positive balance means the person owes that amount into the pool; a
// negative one means the pool owes them.
type PersonBalance struct {
	Person  string
	Total   Money
	Balance Money
}

// CategoryMatrix maps category -> person -> summed amount. Combinations
// with no records are absent, not zero.
type CategoryMatrix map[string]map[string]Money

// SettlementReport is the derived equal-split summary over all current
// records. It is computed on demand and never persisted.
type SettlementReport struct {
	Total            Money
	ParticipantCount int
	PerCapita        Money
	Balances         []PersonBalance
	Categories       CategoryMatrix
}

// NewSettlementReport aggregates records into the equal-split report.
// The per-capita share divides the total by the number of distinct
// persons actually present, however many that is.
func NewSettlementReport(records []ExpenseRecord) SettlementReport {
	report := SettlementReport{Categories: CategoryMatrix{}}
	if len(records) == 0 {
		return report
	}

	perPerson := map[string]int64{}
	for _, r := range records {
		report.Total.Cents += r.Amount.Cents
		perPerson[r.Person] += r.Amount.Cents

		byPerson, ok := report.Categories[r.Category]
		if !ok {
			byPerson = map[string]Money{}
			report.Categories[r.Category] = byPerson
		}
		byPerson[r.Person] = Money{Cents: byPerson[r.Person].Cents + r.Amount.Cents}
	}

	report.ParticipantCount = len(perPerson)
	report.PerCapita = Money{Cents: report.Total.Cents / int64(report.ParticipantCount)}

	for person, total := range perPerson {
		report.Balances = append(report.Balances, PersonBalance{
			Person:  person,
			Total:   Money{Cents: total},
			Balance: Money{Cents: total - report.PerCapita.Cents},
		})
	}
	sort.Slice(report.Balances, func(i, j int) bool {
		return report.Balances[i].Person < report.Balances[j].Person
	})

	return report
}

// Empty reports whether there was nothing to settle.
func (r SettlementReport) Empty() bool {
	return r.ParticipantCount == 0
}
