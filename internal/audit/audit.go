// Package audit records every ledger operation, successful or not.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outcome of an audited operation
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Operation names
const (
	OpCreateCustomer = "create_customer"
	OpOpenAccount    = "open_account"
	OpDeposit        = "deposit"
	OpWithdraw       = "withdraw"
	OpStatement      = "statement"
	OpListAccounts   = "list_accounts"
)

// Event describes one ledger operation
type Event struct {
	ID            uuid.UUID        `json:"id"`
	Timestamp     time.Time        `json:"timestamp"`
	Operation     string           `json:"operation"`
	TaxID         string           `json:"tax_id,omitempty"`
	BranchCode    string           `json:"branch_code,omitempty"`
	AccountNumber int              `json:"account_number,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	Outcome       string           `json:"outcome"`
	Error         string           `json:"error,omitempty"`
}

// NewEvent starts an event for op, stamped now
func NewEvent(op string) Event {
	return Event{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Operation: op,
		Outcome:   OutcomeSuccess,
	}
}

// WithError marks the event failed when err is not nil
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Outcome = OutcomeFailure
		e.Error = err.Error()
	}
	return e
}

// Sink receives audit events
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// Nop discards events
type Nop struct{}

// Record drops e
func (Nop) Record(context.Context, Event) error { return nil }

// Multi fans an event out to every sink; all sinks are tried
type Multi []Sink

// Record sends e to every sink and joins their errors
func (m Multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
