package core

import "time"

// DateLayout is the fixed DD/MM/YY encoding expense dates are typed in
// and stored under. Dates are kept as text exactly as received; the
// age-based purge relies on this fixed width (see storage.DeleteOlderThan).
const DateLayout = "02/01/06"

// ParseRecordDate validates a record date string against DateLayout.
// The input must match the layout exactly: single-digit days or months
// and four-digit years are rejected.
func ParseRecordDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	// time.Parse tolerates missing leading zeros; round-trip to enforce
	// the exact fixed-width encoding.
	if t.Format(DateLayout) != s {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatRecordDate renders a time in the stored DD/MM/YY encoding.
func FormatRecordDate(t time.Time) string {
	return t.Format(DateLayout)
}
