package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind tags a transaction as a deposit or a withdrawal
type TransactionKind string

const (
	KindDeposit    TransactionKind = "deposit"
	KindWithdrawal TransactionKind = "withdrawal"
)

// ParseTransactionKind converts a stored kind back into a TransactionKind
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(s) {
	case KindDeposit, KindWithdrawal:
		return TransactionKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Transaction is an immutable deposit or withdrawal request.
// It becomes part of an account's history only after Apply succeeds.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	Kind      TransactionKind `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewDeposit creates a deposit stamped with the current time
func NewDeposit(amount decimal.Decimal) Transaction {
	return NewTransactionAt(KindDeposit, amount, time.Now())
}

// NewWithdrawal creates a withdrawal stamped with the current time
func NewWithdrawal(amount decimal.Decimal) Transaction {
	return NewTransactionAt(KindWithdrawal, amount, time.Now())
}

// NewTransactionAt creates a transaction with an explicit timestamp
func NewTransactionAt(kind TransactionKind, amount decimal.Decimal, at time.Time) Transaction {
	return Transaction{
		ID:        uuid.New(),
		Kind:      kind,
		Amount:    amount,
		Timestamp: at,
	}
}

// Apply runs the transaction against the account.
// The account's balance and counters change only when nil is returned.
func (t Transaction) Apply(a *Account) error {
	switch t.Kind {
	case KindDeposit:
		return a.Deposit(t.Amount)
	case KindWithdrawal:
		return a.withdrawAt(t.Amount, t.Timestamp)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
	}
}

// String renders the transaction as a statement line
func (t Transaction) String() string {
	label := "Deposit"
	if t.Kind == KindWithdrawal {
		label = "Withdrawal"
	}
	return fmt.Sprintf("  %-10s $ %10s    at %s", label+":", t.Amount.StringFixed(2), t.Timestamp.Format("02/01/2006 15:04:05"))
}
