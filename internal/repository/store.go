package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"branch-ledger/internal/model"
)

// Store persists the full ledger state. Save always rewrites everything.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Driver() string
}

// Snapshot is the storage representation of the ledger
type Snapshot struct {
	Customers []CustomerRecord
	Accounts  []AccountRecord

	// Skipped lists rows the store could not turn into records
	Skipped []*CorruptRecordError
}

// CustomerRecord is the stored form of a customer
type CustomerRecord struct {
	Name      string
	TaxID     string
	BirthDate string
	Address   string
}

// AccountRecord is the stored form of an account.
// Transactions is empty for stores that do not keep history.
type AccountRecord struct {
	TaxID        string
	BranchCode   string
	Number       int
	Balance      decimal.Decimal
	Transactions []model.Transaction
}
