package repository

import (
	"errors"
	"fmt"
)

// Repository errors
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateTaxID   = errors.New("tax ID already registered")
	ErrDuplicateAccount = errors.New("account number already in use in this branch")
	ErrCorruptRecord    = errors.New("corrupt record")
)

// CorruptRecordError describes a stored row that was skipped while loading
type CorruptRecordError struct {
	Source string
	Line   int
	Reason string
}

// Error describes where the record was and why it was rejected
func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.Source, e.Line, ErrCorruptRecord, e.Reason)
}

func (e *CorruptRecordError) Unwrap() error {
	return ErrCorruptRecord
}
