package core

import (
	"errors"
	"strings"
)

const (
	// MaxCategoryLen is the longest accepted category label.
	MaxCategoryLen = 30
	// MaxPersonLen is the longest accepted person label.
	MaxPersonLen = 20
)

type (
	Money struct {
		Cents int64
	}

	// ExpenseRecord is one shared expense as stored. Records are immutable
	// once written; they are only ever deleted by maintenance operations.
	ExpenseRecord struct {
		ID       int64
		Amount   Money
		Category string
		Person   string
		// Date is kept as the DD/MM/YY string the participant typed.
		Date string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
	ErrCategoryTooLong = errors.New("category too long")
	ErrEmptyPerson     = errors.New("empty person")
	ErrPersonTooLong   = errors.New("person too long")
	ErrInvalidDate     = errors.New("invalid date")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateCategory checks a category label against the length bound.
func ValidateCategory(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyCategory
	}
	if len(s) > MaxCategoryLen {
		return ErrCategoryTooLong
	}
	return nil
}

// ValidatePerson checks a person label against the length bound.
func ValidatePerson(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyPerson
	}
	if len(s) > MaxPersonLen {
		return ErrPersonTooLong
	}
	return nil
}

func (r ExpenseRecord) Validate() error {
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if err := ValidateCategory(r.Category); err != nil {
		return err
	}
	if err := ValidatePerson(r.Person); err != nil {
		return err
	}
	if _, err := ParseRecordDate(r.Date); err != nil {
		return err
	}
	return nil
}
